package mutation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/jask/flowdesk/internal/workflow"
)

// ArgumentSpec describes one argument of a mutation.
type ArgumentSpec struct {
	Name        string
	Type        string // declared type name, e.g. "String", "WorkflowID", "Int"
	Description string
	Required    bool
	List        bool
	Default     string
}

// Rule returns the validation rule selected by the declared type.
func (a ArgumentSpec) Rule() Rule { return RuleFor(a.Type, a.Required, a.List) }

// Definition is an immutable mutation definition as supplied by introspection.
type Definition struct {
	Name        string
	Description string
	Args        []ArgumentSpec
	// Targets lists the node kinds the mutation applies to; empty means all.
	Targets []workflow.Kind
}

// Arg returns the argument spec with the given name.
func (d *Definition) Arg(name string) (ArgumentSpec, bool) {
	for _, a := range d.Args {
		if a.Name == name {
			return a, true
		}
	}
	return ArgumentSpec{}, false
}

// AppliesTo reports whether the mutation can be invoked on nodes of kind k.
func (d *Definition) AppliesTo(k workflow.Kind) bool {
	if len(d.Targets) == 0 {
		return true
	}
	for _, t := range d.Targets {
		if t == k {
			return true
		}
	}
	return false
}

func (d *Definition) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("mutation: definition without name")
	}
	seen := make(map[string]struct{}, len(d.Args))
	for _, a := range d.Args {
		if _, dup := seen[a.Name]; dup {
			return fmt.Errorf("%w: %s.%s", ErrDuplicateArg, d.Name, a.Name)
		}
		seen[a.Name] = struct{}{}
	}
	return nil
}

// Catalog is the read-only set of available mutations. It is replaced
// wholesale on schema refresh, never mutated in place.
type Catalog struct {
	defs   []*Definition
	byName map[string]*Definition
}

// NewCatalog copies defs into a catalog, preserving order.
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]*Definition, len(defs))}
	for i := range defs {
		d := defs[i]
		d.Args = append([]ArgumentSpec(nil), d.Args...)
		d.Targets = append([]workflow.Kind(nil), d.Targets...)
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byName[d.Name]; dup {
			return nil, fmt.Errorf("mutation: duplicate definition %q", d.Name)
		}
		c.defs = append(c.defs, &d)
		c.byName[d.Name] = &d
	}
	return c, nil
}

// EmptyCatalog is the state before introspection has completed.
func EmptyCatalog() *Catalog { return &Catalog{byName: map[string]*Definition{}} }

// List returns the definitions in introspection order. A nil catalog lists
// nothing.
func (c *Catalog) List() []*Definition {
	if c == nil {
		return nil
	}
	return append([]*Definition(nil), c.defs...)
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.defs)
}

// FindByName returns ErrNotFound (with suggestions in the message) when no
// definition has the given name.
func (c *Catalog) FindByName(name string) (*Definition, error) {
	if c != nil {
		if d, ok := c.byName[name]; ok {
			return d, nil
		}
	}
	if s := c.Suggest(name, 3); len(s) > 0 {
		return nil, fmt.Errorf("%w: %q (did you mean %s?)", ErrNotFound, name, strings.Join(s, ", "))
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Suggest returns up to limit definition names closest to name by edit
// distance, ignoring anything further than a third of the name's length.
func (c *Catalog) Suggest(name string, limit int) []string {
	if c == nil || limit <= 0 {
		return nil
	}
	type scored struct {
		name string
		dist int
	}
	maxDist := len(name) / 3
	if maxDist < 2 {
		maxDist = 2
	}
	needle := strings.ToLower(name)
	var hits []scored
	for _, d := range c.defs {
		dist := levenshtein.ComputeDistance(needle, strings.ToLower(d.Name))
		if dist <= maxDist {
			hits = append(hits, scored{d.Name, dist})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.name)
	}
	return out
}

// Menu splits the mutations applicable to a node kind into the configured
// primary entries (in configured order) and the rest (in catalog order).
// Primary names missing from the catalog are skipped.
func (c *Catalog) Menu(kind workflow.Kind, primary []string) (first, rest []*Definition) {
	if c == nil {
		return nil, nil
	}
	picked := make(map[string]bool, len(primary))
	for _, name := range primary {
		d, ok := c.byName[name]
		if !ok || picked[name] || !d.AppliesTo(kind) {
			continue
		}
		picked[name] = true
		first = append(first, d)
	}
	for _, d := range c.defs {
		if picked[d.Name] || !d.AppliesTo(kind) {
			continue
		}
		rest = append(rest, d)
	}
	return first, rest
}
