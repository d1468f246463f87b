package menu

import "strings"

// Resolver normalizes free-form item names to canonical catalog names.
//
// Matching order, first hit wins:
//  1. case-insensitive exact match on catalog names
//  2. case-insensitive exact match on alias phrases
//  3. substring match in either direction against alias phrases,
//     scanning aliases in declaration order
//
// When several aliases substring-match, declaration order decides. Keep more
// specific phrases above generic ones in menu.yaml.
type Resolver struct {
	catalog *Catalog
	names   map[string]string // lowercase name -> canonical
	exact   map[string]string // alias phrase -> canonical
	aliases []Alias
}

// NewResolver builds a resolver over the catalog's names and aliases.
func NewResolver(c *Catalog) *Resolver {
	r := &Resolver{
		catalog: c,
		names:   make(map[string]string, c.Len()),
		exact:   make(map[string]string, len(c.aliases)),
		aliases: c.Aliases(),
	}
	for _, it := range c.items {
		r.names[strings.ToLower(it.Name)] = it.Name
	}
	for _, a := range r.aliases {
		// First declaration wins for duplicated phrases.
		if _, ok := r.exact[a.Phrase]; !ok {
			r.exact[a.Phrase] = a.Name
		}
	}
	return r
}

// Resolve returns the canonical name for raw, or false when nothing matches
// or raw is blank.
func (r *Resolver) Resolve(raw string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(raw))
	if q == "" {
		return "", false
	}

	if name, ok := r.names[q]; ok {
		return name, true
	}
	if name, ok := r.exact[q]; ok {
		return name, true
	}
	for _, a := range r.aliases {
		if strings.Contains(q, a.Phrase) || strings.Contains(a.Phrase, q) {
			return a.Name, true
		}
	}
	return "", false
}

// Lookup resolves raw and returns the full catalog entry.
func (r *Resolver) Lookup(raw string) (Item, bool) {
	name, ok := r.Resolve(raw)
	if !ok {
		return Item{}, false
	}
	return r.catalog.Get(name)
}

// Catalog returns the catalog the resolver reads from.
func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}
