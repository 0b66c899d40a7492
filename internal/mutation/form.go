package mutation

import (
	"fmt"
	"strings"
)

// FieldState is the outward view of one form field.
type FieldState struct {
	Name    string
	Type    string
	Value   string
	Touched bool
	Valid   bool
	Reason  string
}

// Snapshot is an immutable copy of the form values taken at submit time.
type Snapshot map[string]string

func (s Snapshot) clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Form holds the field values of one open mutation dialog. It borrows its
// definition and is discarded when the dialog closes.
type Form struct {
	def    *Definition
	fields []FieldState
	rules  []Rule
	index  map[string]int
	valid  bool
}

// NewForm starts every field from its declared default. Fields begin
// untouched, and untouched fields count as valid.
func NewForm(def *Definition) *Form {
	f := &Form{def: def, index: make(map[string]int, len(def.Args)), valid: true}
	for i, a := range def.Args {
		f.fields = append(f.fields, FieldState{Name: a.Name, Type: a.Type, Value: a.Default, Valid: true})
		f.rules = append(f.rules, a.Rule())
		f.index[a.Name] = i
	}
	return f
}

func (f *Form) Definition() *Definition { return f.def }

// SetValue updates a field and revalidates it and the aggregate. An unknown
// name leaves the form unchanged and returns ErrUnknownArgument.
func (f *Form) SetValue(name, value string) error {
	i, ok := f.index[name]
	if !ok {
		return unknownArgument(name)
	}
	fs := &f.fields[i]
	fs.Value = value
	fs.Touched = true
	fs.Reason = f.rules[i].Check(value)
	fs.Valid = fs.Reason == ""
	f.recompute()
	return nil
}

func (f *Form) recompute() {
	f.valid = true
	for _, fs := range f.fields {
		if !fs.Valid {
			f.valid = false
			return
		}
	}
}

// Value returns the current value of a field.
func (f *Form) Value(name string) (string, bool) {
	i, ok := f.index[name]
	if !ok {
		return "", false
	}
	return f.fields[i].Value, true
}

// Field returns the state of a single field.
func (f *Form) Field(name string) (FieldState, bool) {
	i, ok := f.index[name]
	if !ok {
		return FieldState{}, false
	}
	return f.fields[i], true
}

// Fields returns the field states in argument order.
func (f *Form) Fields() []FieldState {
	return append([]FieldState(nil), f.fields...)
}

// Valid is false iff at least one field is currently invalid.
func (f *Form) Valid() bool { return f.valid }

// Errors lists the current field failures in argument order.
func (f *Form) Errors() []*ValidationError {
	var out []*ValidationError
	for _, fs := range f.fields {
		if !fs.Valid {
			out = append(out, &ValidationError{Field: fs.Name, Reason: fs.Reason})
		}
	}
	return out
}

// Reason is the form-level message for the submit tooltip; empty when valid.
func (f *Form) Reason() string {
	errs := f.Errors()
	if len(errs) == 0 {
		return ""
	}
	names := make([]string, 0, len(errs))
	for _, e := range errs {
		names = append(names, e.Field)
	}
	return fmt.Sprintf("Form contains invalid values: %s", strings.Join(names, ", "))
}

// Snapshot copies the current values. It does not touch form state.
func (f *Form) Snapshot() Snapshot {
	out := make(Snapshot, len(f.fields))
	for _, fs := range f.fields {
		out[fs.Name] = fs.Value
	}
	return out
}
