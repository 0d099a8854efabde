// Package specialist implements the specialist catalog: a static table
// mapping each domain to its label, routing hint, model, and prompt key.
package specialist

import (
	"github.com/specialist-gateway/gateway/internal/config"
	"github.com/specialist-gateway/gateway/internal/models"
	"github.com/specialist-gateway/gateway/internal/textnorm"
)

// Entry is one catalog row.
type Entry struct {
	Domain      models.Domain
	Label       string
	RoutingHint string
	Model       string
	PromptKey   string
	Fallbacks   []string
}

// Catalog is an immutable, concurrency-safe (read-only after construction)
// table of specialist domains. It hands out defensive copies rather than
// internal references.
type Catalog struct {
	entries map[models.Domain]Entry
	order   []models.Domain
}

// NewCatalog builds a Catalog from the loaded configuration's specialists
// section. Unknown domain keys from config are still accepted verbatim — the
// well-known domain set is a routing convention, not a compile-time
// restriction on what an operator can configure.
func NewCatalog(specialists map[string]config.SpecialistEntry) *Catalog {
	c := &Catalog{entries: make(map[models.Domain]Entry, len(specialists))}
	for key, cfgEntry := range specialists {
		domain := models.Domain(key)
		c.entries[domain] = Entry{
			Domain:      domain,
			Label:       cfgEntry.Label,
			RoutingHint: cfgEntry.RoutingHint,
			Model:       cfgEntry.Model,
			PromptKey:   cfgEntry.PromptKey,
			Fallbacks:   append([]string(nil), cfgEntry.Fallbacks...),
		}
		c.order = append(c.order, domain)
	}
	return c
}

// Get returns the entry for domain and whether it exists.
func (c *Catalog) Get(domain models.Domain) (Entry, bool) {
	e, ok := c.entries[domain]
	return e, ok
}

// Has reports whether domain is in the catalog.
func (c *Catalog) Has(domain models.Domain) bool {
	_, ok := c.entries[domain]
	return ok
}

// All returns a defensive copy of every catalog entry. The order is the
// map iteration order seen by NewCatalog and is not defined.
func (c *Catalog) All() []Entry {
	out := make([]Entry, 0, len(c.order))
	for _, d := range c.order {
		out = append(out, c.entries[d])
	}
	return out
}

// Len reports the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Normalize applies domain normalization and catalog closure: lowercase,
// hyphens→underscores, collapse non-alphanumerics, and fall back to
// "general" for anything not present in the catalog.
func (c *Catalog) Normalize(raw string) models.Domain {
	normalized := models.Domain(textnorm.NormalizeDomain(raw))
	if c.Has(normalized) {
		return normalized
	}
	return models.DomainGeneral
}
