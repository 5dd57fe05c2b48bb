package experiment

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suvrajeet01/virtex/pkg/config"
)

func TestSetupWritesConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run1")
	var logs bytes.Buffer

	e, err := Setup(Options{
		Overrides:        []string{"RANDOM_SEED", "7", "OPTIM.BATCH_SIZE", "64"},
		SerializationDir: dir,
		LogOutput:        &logs,
	})
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, "run1", e.Name())
	assert.Equal(t, dir, e.Dir())
	assert.Equal(t, uint64(7), e.Seed())
	assert.False(t, e.Registry().IsEnabled())
	assert.Contains(t, logs.String(), "[INF] Serialization directory: "+dir)

	// The dumped file reproduces the run's config.
	reloaded, err := config.Load(e.ConfigPath(), nil)
	require.NoError(t, err)
	assert.Equal(t, e.Config().Values(), reloaded.Values())
	assert.Equal(t, 64, reloaded.Optim().BatchSize)
}

func TestSetupConfigError(t *testing.T) {
	_, err := Setup(Options{
		Overrides:        []string{"OPTIM.NOPE", "1"},
		SerializationDir: t.TempDir(),
		LogOutput:        &bytes.Buffer{},
	})
	assert.ErrorIs(t, err, config.ErrUnknownKey)
}

func TestSetupRegistryFailureIsNotFatal(t *testing.T) {
	var logs bytes.Buffer
	e, err := Setup(Options{
		SerializationDir: t.TempDir(),
		DSN:              "host=127.0.0.1 port=1 user=none dbname=none sslmode=disable connect_timeout=1",
		LogOutput:        &logs,
	})
	require.NoError(t, err)
	defer e.Close()

	assert.False(t, e.Registry().IsEnabled())
	assert.Contains(t, logs.String(), "[WARN] Config registry initialization failed")
}

func TestNewTextualEmbedding(t *testing.T) {
	e, err := Setup(Options{
		Overrides: []string{
			"MODEL.TEXTUAL.NAME", "transformer_postnorm::L1_H32_A4_F64",
			"DATA.MAX_CAPTION_LENGTH", "8",
		},
		SerializationDir: t.TempDir(),
		LogOutput:        &bytes.Buffer{},
	})
	require.NoError(t, err)

	emb, err := e.NewTextualEmbedding(50)
	require.NoError(t, err)
	assert.Equal(t, 32, emb.HiddenSize())
	assert.Equal(t, 8, emb.Options().MaxSequenceLength)

	// Same seed, same initialization.
	again, err := e.NewTextualEmbedding(50)
	require.NoError(t, err)
	assert.Equal(t, emb.Words.RawMatrix().Data, again.Words.RawMatrix().Data)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(&buf, false)
	logger.Debug("hidden")
	logger.Info("shown")
	logger.Error("broken")
	assert.Equal(t, "[INF] shown\n[ERR] broken\n", buf.String())

	buf.Reset()
	logger = NewLogger(&buf, true)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	logger.Debug("visible")
	assert.Equal(t, "[DBG] visible\n", buf.String())

	assert.Equal(t, os.Stderr, NewLogger(nil, false).Out)
}
