// Package catalog holds the closed set of vendor identities the tracker recognizes.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed vendors.yaml
var defaultCatalog []byte

// Entry describes one canonical vendor.
type Entry struct {
	Name      string `yaml:"name"`
	Publisher string `yaml:"publisher"`
	Segment   string `yaml:"segment"`
}

// Catalog is an ordered, immutable set of canonical vendor names.
type Catalog struct {
	entries []Entry
	index   map[string]int
}

type catalogFile struct {
	Vendors []Entry `yaml:"vendors"`
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded vendor catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalog from path, or returns the embedded one if path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vendor catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog. Names must be non-empty and unique.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse vendor catalog: %w", err)
	}
	return New(f.Vendors...)
}

// New builds a catalog from entries, preserving their order.
func New(entries ...Entry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("vendor catalog is empty")
	}

	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("vendor catalog entry has empty name")
		}
		if _, dup := c.index[e.Name]; dup {
			return nil, fmt.Errorf("vendor catalog lists %q twice", e.Name)
		}
		c.index[e.Name] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// MustNew is New for fixed inputs such as tests.
func MustNew(names ...string) *Catalog {
	entries := make([]Entry, len(names))
	for i, n := range names {
		entries[i] = Entry{Name: n}
	}
	c, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return c
}

// Contains reports whether name is exactly a canonical vendor name.
func (c *Catalog) Contains(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Names returns the canonical names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.Name
	}
	return names
}

// Entries returns a copy of the catalog entries.
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Len returns the number of canonical vendors.
func (c *Catalog) Len() int {
	return len(c.entries)
}
