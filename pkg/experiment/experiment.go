package experiment

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"

	"github.com/suvrajeet01/virtex/pkg/config"
	"github.com/suvrajeet01/virtex/pkg/database"
	"github.com/suvrajeet01/virtex/pkg/embedding"
)

var DebugLog func(string, ...interface{})

const configFileName = "config.yaml"

type Options struct {
	// ConfigFile is merged over the defaults. Empty means defaults only.
	ConfigFile string
	Overrides  []string

	// SerializationDir receives the dumped config. Empty defaults to a
	// directory named after the run under config.GetRunsDir().
	SerializationDir string

	// Name identifies the run in the registry. Empty defaults to the base
	// name of SerializationDir.
	Name string

	// DSN of the postgres config registry. Empty disables the registry.
	DSN string

	LogOutput io.Writer
	Verbose   bool

	ConfigOptions []config.Option
}

// Experiment is the common setup shared by every entry point: a frozen
// config, a logger and a serialization directory holding the config the
// run was started with.
type Experiment struct {
	name   string
	dir    string
	config *config.Config
	logger *logrus.Logger
	db     *database.DB
}

func Setup(opts Options) (*Experiment, error) {
	logger := NewLogger(opts.LogOutput, opts.Verbose)

	cfg, err := config.Load(opts.ConfigFile, opts.Overrides, opts.ConfigOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	name := opts.Name
	dir := opts.SerializationDir
	if dir == "" {
		if name == "" {
			name = time.Now().Format("20060102-150405")
		}
		dir = filepath.Join(config.GetRunsDir(), name)
	}
	if name == "" {
		name = filepath.Base(dir)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create serialization directory: %w", err)
	}

	if err := cfg.DumpFile(filepath.Join(dir, configFileName)); err != nil {
		return nil, err
	}

	if DebugLog != nil {
		DebugLog("config for %s written to %s", name, dir)
	}

	db, err := database.New(opts.DSN)
	if err != nil {
		logger.Warnf("Config registry initialization failed: %v", err)
	}

	e := &Experiment{
		name:   name,
		dir:    dir,
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := e.record(); err != nil {
		logger.Warnf("Failed to record config in registry: %v", err)
	}

	logger.Infof("Serialization directory: %s", dir)
	logger.Infof("Random seed: %d", cfg.RandomSeed())

	return e, nil
}

func (e *Experiment) record() error {
	if e.db == nil || !e.db.IsEnabled() {
		return nil
	}
	return e.db.RecordConfig(e.name, e.config.String())
}

func (e *Experiment) Name() string           { return e.name }
func (e *Experiment) Dir() string            { return e.dir }
func (e *Experiment) Config() *config.Config { return e.config }
func (e *Experiment) Logger() *logrus.Logger { return e.logger }
func (e *Experiment) Registry() *database.DB { return e.db }
func (e *Experiment) ConfigPath() string     { return filepath.Join(e.dir, configFileName) }

// Seed is RANDOM_SEED as a source seed. Negative seeds keep their bits.
func (e *Experiment) Seed() uint64 {
	return uint64(e.config.RandomSeed())
}

// NewTextualEmbedding builds the word and position embedding of the
// configured textual head, seeded from RANDOM_SEED.
func (e *Experiment) NewTextualEmbedding(vocabSize int) (*embedding.WordAndPositionEmbedding, error) {
	emb, err := embedding.NewFromConfig(e.config, vocabSize, rand.NewSource(e.Seed()))
	if err != nil {
		return nil, err
	}

	e.logger.Debugf("Embedding: vocab %d, hidden %d, max length %d",
		vocabSize, emb.HiddenSize(), emb.Options().MaxSequenceLength)
	return emb, nil
}

func (e *Experiment) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}
