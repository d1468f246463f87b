// Package menu holds the restaurant catalog and the name resolver that maps
// free-form item names coming out of the language model onto catalog keys.
//
// The catalog is immutable after loading and safe for concurrent use.
package menu

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed menu.yaml
var defaultMenu []byte

// Item is a single catalog entry.
type Item struct {
	Name        string `yaml:"name" json:"name"`
	Price       Money  `yaml:"price" json:"price"`
	Image       string `yaml:"image" json:"image"`
	Description string `yaml:"description" json:"description"`

	// Color is the placeholder image tint, e.g. "#FF6B35".
	Color string `yaml:"color" json:"-"`
}

// Alias maps a lowercase phrase onto a canonical item name.
type Alias struct {
	Phrase string `yaml:"phrase"`
	Name   string `yaml:"name"`
}

// Catalog is the immutable menu: items in declaration order plus the alias table.
type Catalog struct {
	items   []Item
	byName  map[string]Item
	aliases []Alias
}

type menuFile struct {
	Items   []Item  `yaml:"items"`
	Aliases []Alias `yaml:"aliases"`
}

// Sentinel errors returned while loading a catalog.
var (
	ErrEmptyCatalog  = errors.New("menu: catalog has no items")
	ErrDuplicateItem = errors.New("menu: duplicate item name")
	ErrUnknownTarget = errors.New("menu: alias points at unknown item")
)

// Load parses a YAML menu document.
func Load(r io.Reader) (*Catalog, error) {
	var f menuFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("menu: decode: %w", err)
	}
	return New(f.Items, f.Aliases)
}

// LoadFile parses the YAML menu at path.
func LoadFile(path string) (*Catalog, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("menu: open %s: %w", path, err)
	}
	defer fh.Close()
	return Load(fh)
}

// Default returns the embedded Burger Spot menu.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultMenu))
}

// New builds a catalog from items and aliases, validating both.
// Alias phrases are lowercased; their order is kept.
func New(items []Item, aliases []Alias) (*Catalog, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		items:   make([]Item, 0, len(items)),
		byName:  make(map[string]Item, len(items)),
		aliases: make([]Alias, 0, len(aliases)),
	}

	for _, it := range items {
		it.Name = strings.TrimSpace(it.Name)
		if it.Name == "" {
			return nil, errors.New("menu: item with empty name")
		}
		if it.Price < 0 {
			return nil, fmt.Errorf("menu: %s: negative price", it.Name)
		}
		if _, dup := c.byName[it.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateItem, it.Name)
		}
		c.byName[it.Name] = it
		c.items = append(c.items, it)
	}

	for _, a := range aliases {
		phrase := strings.ToLower(strings.TrimSpace(a.Phrase))
		if phrase == "" {
			continue
		}
		if _, ok := c.byName[a.Name]; !ok {
			return nil, fmt.Errorf("%w: %q -> %q", ErrUnknownTarget, phrase, a.Name)
		}
		c.aliases = append(c.aliases, Alias{Phrase: phrase, Name: a.Name})
	}

	return c, nil
}

// Items returns all entries in declaration order.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Get looks up an entry by its exact canonical name.
func (c *Catalog) Get(name string) (Item, bool) {
	it, ok := c.byName[name]
	return it, ok
}

// Aliases returns the alias table in declaration order.
func (c *Catalog) Aliases() []Alias {
	out := make([]Alias, len(c.aliases))
	copy(out, c.aliases)
	return out
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return len(c.items)
}
