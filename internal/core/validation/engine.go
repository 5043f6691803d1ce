// Package validation holds the declarative form schemas and the pure engine
// that evaluates them.
//
// A Schema is an ordered list of fields, each with an ordered list of rules,
// plus cross-field rules. Validate reports, for every failing field, the
// message of the first rule that failed; later rules of that field are not
// evaluated. Cross-field rules run after the per-field rules and attach their
// message to the dependent field.
package validation

// Values maps a form field to its current raw value.
type Values map[string]string

// Clone returns an independent copy of v.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// secretFields are kept server-side but never copied out of a form.
var secretFields = map[string]bool{
	FieldPassword:        true,
	FieldConfirmPassword: true,
}

// Redacted returns a copy of v without the secret fields.
func (v Values) Redacted() Values {
	out := make(Values, len(v))
	for k, val := range v {
		if !secretFields[k] {
			out[k] = val
		}
	}
	return out
}

// Errors maps a failing field to the message of its first failing rule.
type Errors map[string]string

// Rule is a single predicate over one field value.
type Rule struct {
	Message string
	check   func(value string) bool
}

// Field declares the rules of one form field, evaluated in order.
type Field struct {
	Name  string
	Rules []Rule
}

// CrossRule compares the dependent Field against Other.
type CrossRule struct {
	Field   string
	Other   string
	Message string
	check   func(value, other string) bool
}

// Schema is the static description of a form. Schemas are built once and
// never mutated.
type Schema struct {
	Name   string
	Fields []Field
	Cross  []CrossRule
}

// FieldNames returns the declared field names, cross-rule dependents
// included, in declaration order.
func (s Schema) FieldNames() []string {
	seen := make(map[string]struct{}, len(s.Fields))
	names := make([]string, 0, len(s.Fields))
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	for _, f := range s.Fields {
		add(f.Name)
	}
	for _, c := range s.Cross {
		add(c.Field)
		add(c.Other)
	}
	return names
}

// Validate evaluates schema against values and returns the failing fields.
// The result is never nil; an empty map means the form is valid. A field
// missing from values is validated as the empty string.
func Validate(schema Schema, values Values) Errors {
	errs := Errors{}

	for _, f := range schema.Fields {
		value := values[f.Name]
		for _, r := range f.Rules {
			if !r.check(value) {
				errs[f.Name] = r.Message
				break
			}
		}
	}

	for _, c := range schema.Cross {
		if _, failed := errs[c.Field]; failed {
			continue
		}
		if !c.check(values[c.Field], values[c.Other]) {
			errs[c.Field] = c.Message
		}
	}

	return errs
}

// ValidateField evaluates only the rules that concern name, including cross
// rules where name is the dependent field. It is used for live validation
// while a form is being filled in.
func ValidateField(schema Schema, values Values, name string) (string, bool) {
	for _, f := range schema.Fields {
		if f.Name != name {
			continue
		}
		for _, r := range f.Rules {
			if !r.check(values[name]) {
				return r.Message, false
			}
		}
	}
	for _, c := range schema.Cross {
		if c.Field == name && !c.check(values[c.Field], values[c.Other]) {
			return c.Message, false
		}
	}
	return "", true
}
