package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rillanetwork/tarzst/pkg/pack"
)

// Config is one configuration document as written on disk.
type Config struct {
	Directories []DirectoryMapping `json:"directories" yaml:"directories"`
	Files       []FileMapping      `json:"files" yaml:"files"`
}

// Manifest is the concatenation of every loaded Config, in load order.
type Manifest struct {
	Directories []DirectoryMapping
	Files       []FileMapping
}

// Mapping is anything that contributes entries to the archive.
type Mapping interface {
	Collect(ctx context.Context) ([]pack.Entry, error)
	String() string
}

type DirectoryMapping struct {
	Source  string   `json:"source" yaml:"source"`
	Target  string   `json:"target" yaml:"target"`
	Exclude []string `json:"exclude" yaml:"exclude"`
}

func (m DirectoryMapping) Collect(
	ctx context.Context,
) ([]pack.Entry, error) {
	return pack.CollectDir(ctx, m.Source, m.Target, m.Exclude)
}

func (m DirectoryMapping) String() string {
	return fmt.Sprintf("directory %s -> %q", m.Source, m.Target)
}

type FileMapping struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

func (m FileMapping) Collect(
	_ context.Context,
) ([]pack.Entry, error) {
	e, err := pack.CollectFile(m.Source, m.Target)
	if err != nil {
		return nil, err
	}
	return []pack.Entry{e}, nil
}

func (m FileMapping) String() string {
	return fmt.Sprintf("file %s -> %q", m.Source, m.Target)
}

// Load reads one configuration document. YAML is used for .yaml and
// .yml files, JSON for everything else.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(data, &cfg)
	default:
		err = decodeJSON(data, &cfg)
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}

	slog.Debug("loaded config",
		"path", path,
		"directories", len(cfg.Directories),
		"files", len(cfg.Files),
	)
	return &cfg, nil
}

func decodeJSON(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("empty document")
	}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return fmt.Errorf("document is null, want an object")
	}
	return json.Unmarshal(data, cfg)
}

func decodeYAML(data []byte, cfg *Config) error {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	if len(node.Content) == 0 {
		return fmt.Errorf("empty document")
	}
	if root := node.Content[0]; root.Kind != yaml.MappingNode {
		return fmt.Errorf(
			"line %d: document is not a mapping", root.Line,
		)
	}
	return node.Decode(cfg)
}

func (c *Config) validate(path string) error {
	for i, d := range c.Directories {
		if d.Source == "" {
			return fmt.Errorf(
				"%w: %s: directories[%d] has no source",
				ErrInvalidMapping, path, i,
			)
		}
	}
	for i, f := range c.Files {
		if f.Source == "" {
			return fmt.Errorf(
				"%w: %s: files[%d] has no source",
				ErrInvalidMapping, path, i,
			)
		}
		if f.Target == "" {
			return fmt.Errorf(
				"%w: %s: files[%d] has no target",
				ErrInvalidMapping, path, i,
			)
		}
	}
	return nil
}

// Merge loads every path in order and concatenates their mappings.
// Nothing is deduplicated here.
func Merge(paths ...string) (*Manifest, error) {
	m := &Manifest{}
	for _, p := range paths {
		cfg, err := Load(p)
		if err != nil {
			return nil, err
		}
		m.Directories = append(m.Directories, cfg.Directories...)
		m.Files = append(m.Files, cfg.Files...)
	}
	return m, nil
}

// Mappings returns directory mappings followed by file mappings.
func (m *Manifest) Mappings() []Mapping {
	out := make([]Mapping, 0, len(m.Directories)+len(m.Files))
	for _, d := range m.Directories {
		out = append(out, d)
	}
	for _, f := range m.Files {
		out = append(out, f)
	}
	return out
}

// Collect runs every mapping and returns the unordered entries.
func (m *Manifest) Collect(
	ctx context.Context,
) ([]pack.Entry, error) {
	var entries []pack.Entry
	for _, mp := range m.Mappings() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		es, err := mp.Collect(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", mp, err)
		}
		entries = append(entries, es...)
	}
	return entries, nil
}
