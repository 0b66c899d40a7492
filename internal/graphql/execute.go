package graphql

import (
	"context"
	"fmt"
	"strings"

	"github.com/jask/flowdesk/internal/mutation"
)

// offlineMessage is what every mutation reports without a server.
const offlineMessage = "offline mode: mutations are unavailable"

// Offline returns an executor that fails every call immediately.
func Offline() mutation.Executor {
	return mutation.ExecutorFunc(func(context.Context, mutation.Call) (mutation.Result, error) {
		return mutation.Result{}, &mutation.SubmissionError{Code: "offline", Message: offlineMessage}
	})
}

type mutationPayload struct {
	Result []any `json:"result"`
}

// Execute runs call against the server. The outcome is classified from the
// `result` pair returned by the operation: [true, ...] is success,
// [false, message] is failure. Top-level GraphQL errors are failures too.
func (c *Client) Execute(ctx context.Context, call mutation.Call) (mutation.Result, error) {
	def := call.Definition
	if def == nil {
		return mutation.Result{}, fmt.Errorf("graphql: execute without definition")
	}
	req := request{
		Query:         buildMutation(def),
		OperationName: def.Name,
		Variables:     variables(def, call.Args),
	}
	env, err := post[map[string]mutationPayload](ctx, c, req)
	if err != nil {
		return mutation.Result{}, err
	}
	if se := firstError(env.Errors); se != nil {
		return mutation.Result{}, se
	}
	payload, ok := env.Data[def.Name]
	if !ok {
		return mutation.Result{}, &mutation.SubmissionError{Code: "empty", Message: "server returned no result for " + def.Name}
	}
	return classify(payload.Result)
}

func classify(result []any) (mutation.Result, error) {
	if len(result) == 0 {
		// older servers answer with an empty payload on success
		return mutation.Result{}, nil
	}
	ok, _ := result[0].(bool)
	var msg string
	if len(result) > 1 {
		if s, isStr := result[1].(string); isStr {
			msg = strings.TrimSpace(s)
		}
	}
	if !ok {
		if msg == "" {
			msg = "mutation rejected"
		}
		return mutation.Result{}, &mutation.SubmissionError{Code: "rejected", Message: msg}
	}
	return mutation.Result{Message: msg}, nil
}

// buildMutation renders the operation document for def with one variable
// per argument.
func buildMutation(def *mutation.Definition) string {
	var b strings.Builder
	b.WriteString("mutation ")
	b.WriteString(def.Name)
	if len(def.Args) > 0 {
		b.WriteString("(")
		for i, a := range def.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%s: %s", a.Name, typeLiteral(a))
		}
		b.WriteString(")")
	}
	b.WriteString(" {\n  ")
	b.WriteString(def.Name)
	if len(def.Args) > 0 {
		b.WriteString("(")
		for i, a := range def.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: $%s", a.Name, a.Name)
		}
		b.WriteString(")")
	}
	b.WriteString(" {\n    result\n  }\n}")
	return b.String()
}

func typeLiteral(a mutation.ArgumentSpec) string {
	t := a.Type
	if t == "" {
		t = "String"
	}
	if a.List {
		t = "[" + t + "]"
	}
	if a.Required {
		t += "!"
	}
	return t
}

// variables converts form text to GraphQL values. Blank optional values are
// left out. Values that do not parse as their declared type are sent as
// text and left for the server to reject.
func variables(def *mutation.Definition, args mutation.Snapshot) map[string]any {
	out := make(map[string]any, len(def.Args))
	for _, a := range def.Args {
		raw := args[a.Name]
		blank := strings.TrimSpace(raw) == ""
		if blank && !a.Required {
			continue
		}
		if a.List {
			items := []any{}
			for _, part := range mutation.SplitList(raw) {
				if strings.TrimSpace(part) != "" {
					items = append(items, scalar(a.Type, part))
				}
			}
			out[a.Name] = items
			continue
		}
		out[a.Name] = scalar(a.Type, raw)
	}
	return out
}

// scalar coerces v with the same parser the form rules use, so a value
// the form accepts is always sent typed.
func scalar(typeName, v string) any {
	if !mutation.IsTyped(typeName) {
		return v
	}
	if out, ok := mutation.Coerce(typeName, v); ok {
		return out
	}
	return v
}
