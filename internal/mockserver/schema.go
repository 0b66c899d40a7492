package mockserver

import (
	"strconv"
	"strings"

	"github.com/jask/flowdesk/internal/mutation"
)

// schema renders defs in the shape of a GraphQL introspection response.
func schema(defs []mutation.Definition) map[string]any {
	fields := make([]map[string]any, 0, len(defs))
	for _, d := range defs {
		args := make([]map[string]any, 0, len(d.Args))
		for _, a := range d.Args {
			var def any
			if a.Default != "" {
				def = defaultLiteral(a)
			}
			args = append(args, map[string]any{
				"name":         a.Name,
				"description":  a.Description,
				"defaultValue": def,
				"type":         typeRef(a),
			})
		}
		fields = append(fields, map[string]any{
			"name":        d.Name,
			"description": d.Description,
			"args":        args,
		})
	}
	return map[string]any{"__schema": map[string]any{
		"mutationType": map[string]any{"fields": fields},
	}}
}

func typeRef(a mutation.ArgumentSpec) map[string]any {
	name := a.Type
	if name == "" {
		name = "String"
	}
	t := map[string]any{"kind": "SCALAR", "name": name, "ofType": nil}
	if a.List {
		t = map[string]any{"kind": "LIST", "name": nil, "ofType": t}
	}
	if a.Required {
		t = map[string]any{"kind": "NON_NULL", "name": nil, "ofType": t}
	}
	return t
}

func defaultLiteral(a mutation.ArgumentSpec) string {
	if !a.List {
		return scalarLiteral(a.Type, a.Default)
	}
	var items []string
	for _, p := range mutation.SplitList(a.Default) {
		if p != "" {
			items = append(items, scalarLiteral(a.Type, p))
		}
	}
	return "[" + strings.Join(items, ", ") + "]"
}

func scalarLiteral(typeName, v string) string {
	v = strings.TrimSpace(v)
	switch typeName {
	case "Int", "Float", "Boolean":
		return strings.ToLower(v)
	}
	return strconv.Quote(v)
}
