package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"

	"gopkg.in/yaml.v3"
)

var DebugLog func(string, ...interface{})

// DeriveFunc computes fields that are functions of other, already final,
// fields. It runs after every override and before Freeze.
type DeriveFunc func(s *Schema) error

// NoDerivedParams is the default DeriveFunc. There are no derived
// parameters yet.
func NoDerivedParams(*Schema) error {
	return nil
}

type Option func(*Builder)

// WithDerivedParams replaces the derived parameter hook.
func WithDerivedParams(fn DeriveFunc) Option {
	return func(b *Builder) {
		if fn != nil {
			b.derive = fn
		}
	}
}

// Builder is the mutable stage of a configuration. Overrides are applied
// in place; Freeze hands out an immutable Config and locks the builder.
type Builder struct {
	schema Schema
	derive DeriveFunc
	frozen bool
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		schema: Defaults(),
		derive: NoDerivedParams,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load builds a frozen Config from the schema defaults, an optional YAML
// file and a list of overrides, in that order.
func Load(configFile string, overrides []string, opts ...Option) (*Config, error) {
	b := NewBuilder(opts...)

	if configFile != "" {
		if err := b.MergeFromFile(configFile); err != nil {
			return nil, err
		}
	}

	if err := b.MergeFromList(overrides); err != nil {
		return nil, err
	}

	if err := b.AddDerivedParams(); err != nil {
		return nil, err
	}

	return b.Freeze()
}

func (b *Builder) MergeFromFile(path string) error {
	if b.frozen {
		return ErrImmutable
	}

	if DebugLog != nil {
		DebugLog("merging config from %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := b.merge(data); err != nil {
		return fmt.Errorf("failed to merge %s: %w", path, err)
	}
	return nil
}

func (b *Builder) MergeFromReader(r io.Reader) error {
	if b.frozen {
		return ErrImmutable
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	return b.merge(data)
}

func (b *Builder) merge(data []byte) error {
	root, err := parseDocument(data)
	if err != nil {
		return err
	}
	if root == nil {
		return nil
	}
	return mergeMapping(reflect.ValueOf(&b.schema).Elem(), root, "")
}

// MergeFromList applies alternating path/value pairs such as
// ["OPTIM.BATCH_SIZE", "1024"]. Later pairs win.
func (b *Builder) MergeFromList(overrides []string) error {
	if b.frozen {
		return ErrImmutable
	}

	if len(overrides)%2 != 0 {
		return fmt.Errorf("%w: override list needs path/value pairs, got %d items", ErrSyntax, len(overrides))
	}

	root := reflect.ValueOf(&b.schema).Elem()
	for i := 0; i < len(overrides); i += 2 {
		if err := setPath(root, overrides[i], parseOverrideValue(overrides[i+1])); err != nil {
			return err
		}
	}
	return nil
}

// Set overrides a single key with a Go value.
func (b *Builder) Set(path string, value any) error {
	if b.frozen {
		return ErrImmutable
	}

	var n yaml.Node
	if err := n.Encode(value); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTypeMismatch, path, err)
	}
	return setPath(reflect.ValueOf(&b.schema).Elem(), path, &n)
}

func (b *Builder) AddDerivedParams() error {
	if b.frozen {
		return ErrImmutable
	}

	if err := b.derive(&b.schema); err != nil {
		return fmt.Errorf("failed to add derived params: %w", err)
	}
	return nil
}

// Freeze validates the tree and returns it as an immutable Config. Every
// later write through the builder fails with ErrImmutable.
func (b *Builder) Freeze() (*Config, error) {
	if b.frozen {
		return nil, ErrImmutable
	}

	if err := validate(&b.schema); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	b.frozen = true
	return &Config{schema: b.schema.clone()}, nil
}

// Config is a frozen configuration. It has no mutators and every accessor
// returns a copy, so it is safe to share between goroutines.
type Config struct {
	schema Schema
}

func (c *Config) RandomSeed() int { return c.schema.RandomSeed }
func (c *Config) FP16Opt() int    { return c.schema.FP16Opt }
func (c *Config) Data() Data      { return c.schema.Data.clone() }
func (c *Config) Model() Model    { return c.schema.Model }
func (c *Config) Optim() Optim    { return c.schema.Optim.clone() }

// Values returns a copy of the whole tree.
func (c *Config) Values() Schema { return c.schema.clone() }

// Get reads a value by dotted path, e.g. "DATA.WORD_MASKING.MASK_PROPORTION".
func (c *Config) Get(path string) (any, error) {
	s := c.schema.clone()
	v, err := lookup(reflect.ValueOf(&s).Elem(), path)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

func (c *Config) Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c.schema); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

func (c *Config) DumpFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := c.Dump(&buf); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) String() string {
	var buf bytes.Buffer
	if err := c.Dump(&buf); err != nil {
		return err.Error()
	}
	return buf.String()
}

// Keys lists every leaf key of the schema as a dotted path.
func Keys() []string {
	return leafKeys(reflect.TypeOf(Schema{}), "")
}
