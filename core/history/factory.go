package history

import (
	"fmt"

	"github.com/kilianp07/sortie/core/factory"
)

var registry = factory.NewRegistry[Store]()

// FileConf configures the file backed stores.
type FileConf struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

func init() {
	must(Register("memory", func(map[string]any) (Store, error) {
		return NewMemoryStore(), nil
	}))
	must(Register("jsonl", func(conf map[string]any) (Store, error) {
		c, err := fileConf(conf)
		if err != nil {
			return nil, err
		}
		return NewJSONLStore(c.Path)
	}))
	must(Register("jsonl_rotating", func(conf map[string]any) (Store, error) {
		c, err := fileConf(conf)
		if err != nil {
			return nil, err
		}
		if c.MaxSizeMB <= 0 {
			c.MaxSizeMB = 10
		}
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	}))
	must(Register("sqlite", func(conf map[string]any) (Store, error) {
		c, err := fileConf(conf)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(c.Path)
	}))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func fileConf(conf map[string]any) (FileConf, error) {
	var c FileConf
	if err := factory.Decode(conf, &c); err != nil {
		return c, err
	}
	if c.Path == "" {
		return c, fmt.Errorf("history: path is required")
	}
	return c, nil
}

// Register adds a store factory identified by name.
func Register(name string, f factory.Factory[Store]) error {
	return registry.Register(name, f)
}

// New creates the store described by cfg. An empty type selects memory.
func New(cfg factory.ModuleConfig) (Store, error) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}
	s, err := registry.Create(cfg)
	if err != nil {
		return nil, fmt.Errorf("history store: %w", err)
	}
	return s, nil
}
