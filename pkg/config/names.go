package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	textualNameRe = regexp.MustCompile(
		`^([a-z_]+)::L([0-9]+)_H([0-9]+)_A([0-9]+)_F([0-9]+)$`,
	)

	visualNameRe = regexp.MustCompile(
		`^([a-z_]+)::([A-Za-z0-9_.]+)$`,
	)
)

var (
	TextualVariants = []string{"transformer_postnorm", "transformer_prenorm"}
	ModelNames      = []string{
		"token_classification",
		"instance_classification",
		"captioning",
		"bicaptioning",
		"word_masking",
	}
	OptimizerNames = []string{"sgd", "adamw"}
	LRDecayNames   = []string{"none", "linear", "cosine", "multistep"}
)

// TextualArch is the architecture encoded in MODEL.TEXTUAL.NAME.
type TextualArch struct {
	Variant         string
	Layers          int
	HiddenSize      int
	AttentionHeads  int
	FeedforwardSize int
}

// ParseTextualName parses names like "transformer_postnorm::L1_H1024_A16_F4096".
func ParseTextualName(name string) (TextualArch, error) {
	m := textualNameRe.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return TextualArch{}, fmt.Errorf("textual name %q does not match {variant}::L{n}_H{n}_A{n}_F{n}", name)
	}

	if !contains(TextualVariants, m[1]) {
		return TextualArch{}, fmt.Errorf("unknown textual variant %q", m[1])
	}

	nums := make([]int, 4)
	for i := range nums {
		n, err := strconv.Atoi(m[i+2])
		if err != nil || n <= 0 {
			return TextualArch{}, fmt.Errorf("textual name %q: %q must be a positive integer", name, m[i+2])
		}
		nums[i] = n
	}

	arch := TextualArch{
		Variant:         m[1],
		Layers:          nums[0],
		HiddenSize:      nums[1],
		AttentionHeads:  nums[2],
		FeedforwardSize: nums[3],
	}

	if arch.HiddenSize%arch.AttentionHeads != 0 {
		return TextualArch{}, fmt.Errorf("textual name %q: hidden size %d is not divisible by %d heads",
			name, arch.HiddenSize, arch.AttentionHeads)
	}

	return arch, nil
}

func (a TextualArch) String() string {
	return fmt.Sprintf("%s::L%d_H%d_A%d_F%d", a.Variant, a.Layers, a.HiddenSize, a.AttentionHeads, a.FeedforwardSize)
}

// Arch parses the textual head name. It fails for "none".
func (t Textual) Arch() (TextualArch, error) {
	return ParseTextualName(t.Name)
}

// VisualArch is the backbone encoded in MODEL.VISUAL.NAME. Source is
// "blind" with an empty Arch, or "torchvision" with a model name.
type VisualArch struct {
	Source string
	Arch   string
}

func ParseVisualName(name string) (VisualArch, error) {
	name = strings.TrimSpace(name)
	if name == "blind" {
		return VisualArch{Source: "blind"}, nil
	}

	m := visualNameRe.FindStringSubmatch(name)
	if m == nil || m[1] != "torchvision" {
		return VisualArch{}, fmt.Errorf("visual name %q must be \"blind\" or \"torchvision::<arch>\"", name)
	}

	return VisualArch{Source: m[1], Arch: m[2]}, nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
