// Package fixtures loads catalog and tree fixtures from TOML files. The
// default fixture backs offline mode and the demo workflow.
package fixtures

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jask/flowdesk/internal/mutation"
	"github.com/jask/flowdesk/internal/workflow"
)

//go:embed default.toml
var defaultTOML string

const currentVersion = 1

type argFile struct {
	Name        string `toml:"name"`
	Type        string `toml:"type"`
	Description string `toml:"description"`
	Required    bool   `toml:"required"`
	List        bool   `toml:"list"`
	Default     string `toml:"default"`
}

type mutationFile struct {
	Name        string    `toml:"name"`
	Description string    `toml:"description"`
	Targets     []string  `toml:"targets"`
	Args        []argFile `toml:"arg"`
}

type nodeFile struct {
	ID     string `toml:"id"`
	Parent string `toml:"parent"`
	Name   string `toml:"name"`
	Kind   string `toml:"kind"`
	State  string `toml:"state"`
	Order  int    `toml:"order"`
}

type file struct {
	Version   int                 `toml:"version"`
	Primary   map[string][]string `toml:"primary"`
	Mutations []mutationFile      `toml:"mutation"`
	Nodes     []nodeFile          `toml:"node"`
}

// Fixture is a validated fixture file.
type Fixture struct {
	Definitions []mutation.Definition
	Nodes       []workflow.Node
	Primary     map[workflow.Kind][]string

	Catalog *mutation.Catalog
	Tree    *workflow.Tree
}

// Load reads and validates the fixture at path.
func Load(path string) (*Fixture, error) {
	var f file
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	fx, err := f.build()
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return fx, nil
}

// Default returns the embedded demo fixture.
func Default() *Fixture {
	var f file
	if _, err := toml.Decode(defaultTOML, &f); err != nil {
		panic(fmt.Sprintf("fixtures: embedded default: %v", err))
	}
	fx, err := f.build()
	if err != nil {
		panic(fmt.Sprintf("fixtures: embedded default: %v", err))
	}
	return fx
}

func (f *file) build() (*Fixture, error) {
	if f.Version != currentVersion {
		return nil, fmt.Errorf("unsupported version %d (want %d)", f.Version, currentVersion)
	}
	fx := &Fixture{Primary: make(map[workflow.Kind][]string, len(f.Primary))}
	for kind, names := range f.Primary {
		k := workflow.Kind(strings.ToLower(strings.TrimSpace(kind)))
		if !workflow.ValidKind(k) {
			return nil, fmt.Errorf("primary: unknown node kind %q", kind)
		}
		fx.Primary[k] = names
	}
	for _, m := range f.Mutations {
		def := mutation.Definition{Name: strings.TrimSpace(m.Name), Description: m.Description}
		for _, t := range m.Targets {
			k := workflow.Kind(t)
			if !workflow.ValidKind(k) {
				return nil, fmt.Errorf("mutation %q: unknown target kind %q", m.Name, t)
			}
			def.Targets = append(def.Targets, k)
		}
		for _, a := range m.Args {
			typ := a.Type
			if typ == "" {
				typ = "String"
			}
			def.Args = append(def.Args, mutation.ArgumentSpec{
				Name:        a.Name,
				Type:        typ,
				Description: a.Description,
				Required:    a.Required,
				List:        a.List,
				Default:     a.Default,
			})
		}
		fx.Definitions = append(fx.Definitions, def)
	}
	for _, n := range f.Nodes {
		fx.Nodes = append(fx.Nodes, workflow.Node{
			ID:        n.ID,
			ParentID:  n.Parent,
			Name:      n.Name,
			Kind:      workflow.Kind(n.Kind),
			State:     n.State,
			SortOrder: n.Order,
		})
	}

	var err error
	if fx.Catalog, err = mutation.NewCatalog(fx.Definitions); err != nil {
		return nil, err
	}
	if fx.Tree, err = workflow.Build(fx.Nodes); err != nil {
		return nil, err
	}
	for kind, names := range fx.Primary {
		for _, name := range names {
			if _, err := fx.Catalog.FindByName(name); err != nil {
				return nil, fmt.Errorf("primary %s: %w", kind, err)
			}
		}
	}
	return fx, nil
}
