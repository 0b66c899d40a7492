package mutation

import (
	"fmt"
	"strconv"
	"strings"
)

// Rule validates a single argument value. The set of rules is closed: new
// argument types are added as new variants here.
type Rule interface {
	// Check returns an empty string when value is acceptable, otherwise a
	// human readable reason.
	Check(value string) string
	// Required reports whether a blank value fails the rule.
	Required() bool
	rule()
}

// NonBlank accepts any value with at least one non-whitespace character.
type NonBlank struct{}

// Optional accepts anything, including the empty string.
type Optional struct{}

// Integer accepts signed 32-bit base-10 integers. Blank is accepted unless Mandatory.
type Integer struct{ Mandatory bool }

// Number accepts floating point values. Blank is accepted unless Mandatory.
type Number struct{ Mandatory bool }

// Boolean accepts true/false (case-insensitive). Blank is accepted unless Mandatory.
type Boolean struct{ Mandatory bool }

// List accepts comma-separated items, each of which must be non-blank.
// Items containing a comma are written double-quoted. When Elem names a
// typed scalar (Int, Float, Boolean) every item must coerce to it.
type List struct {
	Mandatory bool
	Elem      string
}

const reasonBlank = "must not be blank"

func isBlank(value string) bool { return strings.TrimSpace(value) == "" }

func (NonBlank) Check(value string) string {
	if isBlank(value) {
		return reasonBlank
	}
	return ""
}
func (NonBlank) Required() bool { return true }
func (NonBlank) rule()          {}

func (Optional) Check(string) string { return "" }
func (Optional) Required() bool      { return false }
func (Optional) rule()               {}

func (r Integer) Check(value string) string {
	if isBlank(value) {
		return blankReason(r.Mandatory)
	}
	if _, ok := Coerce("Int", value); !ok {
		return "must be a whole number between -2147483648 and 2147483647"
	}
	return ""
}
func (r Integer) Required() bool { return r.Mandatory }
func (Integer) rule()            {}

func (r Number) Check(value string) string {
	if isBlank(value) {
		return blankReason(r.Mandatory)
	}
	if _, ok := Coerce("Float", value); !ok {
		return "must be a number"
	}
	return ""
}
func (r Number) Required() bool { return r.Mandatory }
func (Number) rule()            {}

func (r Boolean) Check(value string) string {
	if isBlank(value) {
		return blankReason(r.Mandatory)
	}
	if _, ok := Coerce("Boolean", value); !ok {
		return "must be true or false"
	}
	return ""
}
func (r Boolean) Required() bool { return r.Mandatory }
func (Boolean) rule()            {}

func (r List) Check(value string) string {
	if isBlank(value) {
		return blankReason(r.Mandatory)
	}
	for _, item := range SplitList(value) {
		if isBlank(item) {
			return "list items must not be blank"
		}
		if _, ok := Coerce(r.Elem, item); !ok {
			return fmt.Sprintf("list item %q is not a valid %s", strings.TrimSpace(item), r.Elem)
		}
	}
	return ""
}
func (r List) Required() bool { return r.Mandatory }
func (List) rule()            {}

func blankReason(required bool) string {
	if required {
		return reasonBlank
	}
	return ""
}

// RuleFor selects the rule for a declared GraphQL type name. list marks
// list-typed arguments ([String], [TaskID], ...).
func RuleFor(typeName string, required, list bool) Rule {
	if list {
		l := List{Mandatory: required}
		if IsTyped(typeName) {
			l.Elem = typeName
		}
		return l
	}
	switch typeName {
	case "Int":
		return Integer{Mandatory: required}
	case "Float":
		return Number{Mandatory: required}
	case "Boolean":
		return Boolean{Mandatory: required}
	}
	if required {
		return NonBlank{}
	}
	return Optional{}
}

// IsTyped reports whether typeName is a scalar whose text is converted
// before sending (Int, Float, Boolean).
func IsTyped(typeName string) bool {
	switch typeName {
	case "Int", "Float", "Boolean":
		return true
	}
	return false
}

// Coerce converts form text to the value sent for a GraphQL scalar of the
// given type. Int is signed 32-bit and Boolean is true/false in any case.
// Other types pass through as trimmed text. ok is false when the text does
// not parse as the type.
func Coerce(typeName, value string) (v any, ok bool) {
	s := strings.TrimSpace(value)
	switch typeName {
	case "Int":
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, false
		}
		return n, true
	case "Float":
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	case "Boolean":
		switch strings.ToLower(s) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
		return nil, false
	}
	return s, true
}

// SplitList splits list text on commas outside double quotes. Quoted items
// are unquoted; the rest are trimmed. Empty items are kept.
func SplitList(value string) []string {
	var (
		items   []string
		cur     strings.Builder
		inQuote bool
		escaped bool
	)
	flush := func() {
		item := strings.TrimSpace(cur.String())
		if len(item) >= 2 && item[0] == '"' && item[len(item)-1] == '"' {
			if u, err := strconv.Unquote(item); err == nil {
				item = u
			}
		}
		items = append(items, item)
		cur.Reset()
	}
	for _, r := range value {
		switch {
		case escaped:
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
		case r == ',' && !inQuote:
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	flush()
	return items
}

// JoinList is the inverse of SplitList: items containing a comma or a
// double quote are quoted.
func JoinList(items []string) string {
	out := make([]string, len(items))
	for i, item := range items {
		if strings.ContainsAny(item, `,"`) {
			item = strconv.Quote(item)
		}
		out[i] = item
	}
	return strings.Join(out, ", ")
}
