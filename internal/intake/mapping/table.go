// Package mapping turns vendor form answers into the flat record shape the
// record store expects, driven by an immutable field mapping table.
package mapping

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	dErrors "kickoff/pkg/domain-errors"
)

const (
	DefaultStatusField = "STATUS"
	DefaultStatusValue = "Submitted"
)

// Definition is the static description of a table, as written in
// configuration. It is only read by NewTable.
type Definition struct {
	Name        string            `yaml:"name"`
	Fields      map[string]string `yaml:"fields"` // fieldRef -> target field name
	Required    []string          `yaml:"required"`
	NameField   string            `yaml:"name_field"`
	EmailField  string            `yaml:"email_field"`
	StatusField string            `yaml:"status_field"`
	StatusValue string            `yaml:"status_value"`
}

// Table is a validated, read-only field mapping table. It is safe for
// concurrent use because nothing mutates it after NewTable returns.
type Table struct {
	name        string
	targets     map[string]string
	required    []string
	nameField   string
	emailField  string
	statusField string
	statusValue string
}

// NewTable validates def and freezes it into a Table.
func NewTable(def Definition) (*Table, error) {
	if len(def.Fields) == 0 {
		return nil, invariant(def.Name, "no fields mapped")
	}

	targets := make(map[string]string, len(def.Fields))
	mappedTargets := make(map[string]struct{}, len(def.Fields))
	for ref, target := range def.Fields {
		ref, target = strings.TrimSpace(ref), strings.TrimSpace(target)
		if ref == "" || target == "" {
			return nil, invariant(def.Name, "field refs and targets must not be blank")
		}
		targets[ref] = target
		mappedTargets[target] = struct{}{}
	}

	required := dedupeTargets(def.Required)
	for _, target := range required {
		if _, ok := mappedTargets[target]; !ok {
			return nil, invariant(def.Name, fmt.Sprintf("required field %q is not the target of any field ref", target))
		}
	}

	t := &Table{
		name:        def.Name,
		targets:     targets,
		required:    required,
		nameField:   strings.TrimSpace(def.NameField),
		emailField:  strings.TrimSpace(def.EmailField),
		statusField: strings.TrimSpace(def.StatusField),
		statusValue: strings.TrimSpace(def.StatusValue),
	}
	for label, canonical := range map[string]string{"name_field": t.nameField, "email_field": t.emailField} {
		if canonical == "" {
			continue
		}
		if _, ok := mappedTargets[canonical]; !ok {
			return nil, invariant(def.Name, fmt.Sprintf("%s %q is not the target of any field ref", label, canonical))
		}
	}
	if t.statusField == "" {
		t.statusField = DefaultStatusField
	}
	if t.statusValue == "" {
		t.statusValue = DefaultStatusValue
	}
	return t, nil
}

// MustTable is NewTable for tables known to be valid at compile time.
func MustTable(def Definition) *Table {
	t, err := NewTable(def)
	if err != nil {
		panic(err)
	}
	return t
}

func invariant(table, msg string) error {
	if table != "" {
		msg = table + ": " + msg
	}
	return dErrors.New(dErrors.CodeInvariantViolation, "mapping table "+msg)
}

// Name returns the table's label, used in logs.
func (t *Table) Name() string { return t.name }

// Target returns the target field name for a field ref.
func (t *Table) Target(ref string) (string, bool) {
	target, ok := t.targets[ref]
	return target, ok
}

// Required returns the required target names in declaration order.
func (t *Table) Required() []string { return slices.Clone(t.required) }

// Refs returns the mapped field refs, sorted.
func (t *Table) Refs() []string { return slices.Sorted(maps.Keys(t.targets)) }

func (t *Table) NameField() string   { return t.nameField }
func (t *Table) EmailField() string  { return t.emailField }
func (t *Table) StatusField() string { return t.statusField }
func (t *Table) StatusValue() string { return t.statusValue }

// dedupeTargets trims each target, dropping blanks and repeats. Order is kept
// so missing-field reports list fields the way the table declares them.
func dedupeTargets(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
