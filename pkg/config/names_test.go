package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTextualName(t *testing.T) {
	arch, err := ParseTextualName("transformer_postnorm::L1_H1024_A16_F4096")
	require.NoError(t, err)
	assert.Equal(t, TextualArch{
		Variant:         "transformer_postnorm",
		Layers:          1,
		HiddenSize:      1024,
		AttentionHeads:  16,
		FeedforwardSize: 4096,
	}, arch)
	assert.Equal(t, "transformer_postnorm::L1_H1024_A16_F4096", arch.String())

	for _, name := range []string{
		"none",
		"transformer_postnorm",
		"transformer_postnorm::L1_H1024_A16",
		"transformer_sandwich::L1_H1024_A16_F4096",
		"transformer_prenorm::L0_H1024_A16_F4096",
		"transformer_prenorm::L2_H100_A16_F400",
	} {
		_, err := ParseTextualName(name)
		assert.Error(t, err, name)
	}
}

func TestParseVisualName(t *testing.T) {
	arch, err := ParseVisualName("torchvision::resnet50")
	require.NoError(t, err)
	assert.Equal(t, VisualArch{Source: "torchvision", Arch: "resnet50"}, arch)

	arch, err = ParseVisualName("blind")
	require.NoError(t, err)
	assert.Equal(t, "blind", arch.Source)

	for _, name := range []string{"", "resnet50", "torchvision::", "timm::vit_b16"} {
		_, err := ParseVisualName(name)
		assert.Error(t, err, name)
	}
}

func TestCheckKindAcceptsIntForFloat(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.MergeFromList([]string{"OPTIM.CLIP_GRAD_NORM", "5"}))
	assert.Equal(t, 5.0, b.schema.Optim.ClipGradNorm)
}

func TestParseOverrideValueFallsBackToString(t *testing.T) {
	n := parseOverrideValue("*not-an-alias")
	assert.Equal(t, strTag, n.ShortTag())
	assert.Equal(t, "*not-an-alias", n.Value)

	n = parseOverrideValue("")
	assert.Equal(t, strTag, n.ShortTag())
}
