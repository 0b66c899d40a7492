package graphql

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jask/flowdesk/internal/mutation"
	"github.com/jask/flowdesk/internal/workflow"
)

const introspectionQuery = `query IntrospectMutations {
  __schema {
    mutationType {
      fields {
        name
        description
        args {
          name
          description
          defaultValue
          type { ...TypeRef }
        }
      }
    }
  }
}
fragment TypeRef on __Type {
  kind name
  ofType { kind name ofType { kind name ofType { kind name ofType { kind name } } } }
}`

type typeRef struct {
	Kind   string   `json:"kind"`
	Name   *string  `json:"name"`
	OfType *typeRef `json:"ofType"`
}

type inputValue struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	DefaultValue *string `json:"defaultValue"`
	Type         typeRef `json:"type"`
}

type fieldDef struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Args        []inputValue `json:"args"`
}

type schemaData struct {
	Schema struct {
		MutationType *struct {
			Fields []fieldDef `json:"fields"`
		} `json:"mutationType"`
	} `json:"__schema"`
}

// Introspect fetches the mutation definitions offered by the server. A
// schema without a mutation type yields an empty list.
func (c *Client) Introspect(ctx context.Context) ([]mutation.Definition, error) {
	if c.IntrospectionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.IntrospectionTimeout)
		defer cancel()
	}
	env, err := post[schemaData](ctx, c, request{Query: introspectionQuery, OperationName: "IntrospectMutations"})
	if err != nil {
		return nil, fmt.Errorf("graphql: introspect: %w", err)
	}
	if se := firstError(env.Errors); se != nil {
		return nil, fmt.Errorf("graphql: introspect: %w", se)
	}
	mt := env.Data.Schema.MutationType
	if mt == nil {
		return nil, nil
	}
	defs := make([]mutation.Definition, 0, len(mt.Fields))
	for _, f := range mt.Fields {
		def := mutation.Definition{Name: f.Name, Description: strings.TrimSpace(f.Description)}
		for _, a := range f.Args {
			typeName, required, list := unwrap(a.Type)
			spec := mutation.ArgumentSpec{
				Name:        a.Name,
				Type:        typeName,
				Description: strings.TrimSpace(a.Description),
				Required:    required,
				List:        list,
			}
			if a.DefaultValue != nil {
				spec.Default = literal(*a.DefaultValue)
			}
			def.Args = append(def.Args, spec)
		}
		def.Targets = targetsFor(def.Args)
		defs = append(defs, def)
	}
	return defs, nil
}

// unwrap reads NON_NULL and LIST wrappers down to the named type.
func unwrap(t typeRef) (name string, required, list bool) {
	required = t.Kind == "NON_NULL"
	for cur := &t; cur != nil; cur = cur.OfType {
		if cur.Kind == "LIST" {
			list = true
		}
		if cur.Name != nil && *cur.Name != "" {
			return *cur.Name, required, list
		}
	}
	return "String", required, list
}

// literal turns a GraphQL default value literal into form text. List
// items are split on commas outside string literals and rejoined with
// mutation.JoinList, so an item containing a comma stays one item.
func literal(v string) string {
	v = strings.TrimSpace(v)
	if v == "null" {
		return ""
	}
	if strings.HasPrefix(v, "[") && strings.HasSuffix(v, "]") {
		inner := strings.TrimSpace(v[1 : len(v)-1])
		if inner == "" {
			return ""
		}
		items := mutation.SplitList(inner)
		for i, item := range items {
			if item == "null" {
				items[i] = ""
			}
		}
		return mutation.JoinList(items)
	}
	if u, err := strconv.Unquote(v); err == nil {
		return u
	}
	return v
}

// targetsFor infers which node kinds a mutation applies to from its
// arguments: task selectors mean task-level nodes, a workflow selector alone
// means workflows. Anything else applies everywhere.
func targetsFor(args []mutation.ArgumentSpec) []workflow.Kind {
	var hasTasks, hasWorkflows bool
	for _, a := range args {
		switch a.Name {
		case "tasks", "task":
			hasTasks = true
		case "workflows", "workflow":
			hasWorkflows = true
		}
	}
	switch {
	case hasTasks:
		return []workflow.Kind{workflow.KindCycle, workflow.KindFamily, workflow.KindTask, workflow.KindJob}
	case hasWorkflows:
		return []workflow.Kind{workflow.KindWorkflow}
	}
	return nil
}
