package mapping

import (
	"strconv"
	"strings"

	"kickoff/internal/intake/models"
)

// Mapper applies one Table to submissions.
type Mapper struct {
	table *Table
}

// NewMapper binds a mapper to a table.
func NewMapper(table *Table) *Mapper {
	return &Mapper{table: table}
}

// Table returns the table the mapper was built with.
func (m *Mapper) Table() *Table { return m.table }

// Map flattens a submission into a record. It never fails: missing required
// targets and unknown refs are reported on the record itself.
func (m *Mapper) Map(sub models.Submission) models.Record {
	record := models.Record{
		Fields:          make(map[string]string, len(sub.Answers)+1),
		MissingRequired: []string{},
		UnmappedRefs:    []string{},
	}

	for _, answer := range sub.Answers {
		target, ok := m.table.Target(answer.FieldRef)
		if !ok {
			record.UnmappedRefs = append(record.UnmappedRefs, answer.FieldRef)
			continue
		}
		// Later answers overwrite earlier ones for the same target.
		record.Fields[target] = Flatten(answer)
	}

	for _, target := range m.table.required {
		if strings.TrimSpace(record.Fields[target]) == "" {
			record.MissingRequired = append(record.MissingRequired, target)
		}
	}

	if f := m.table.nameField; f != "" {
		record.FullName = strings.TrimSpace(record.Fields[f])
	}
	if f := m.table.emailField; f != "" {
		record.Email = strings.TrimSpace(record.Fields[f])
	}

	record.Fields[m.table.statusField] = m.table.statusValue
	return record
}

// Flatten renders an answer value as the text the record store accepts.
func Flatten(a models.Answer) string {
	switch a.Kind {
	case models.KindBoolean:
		if a.Bool {
			return "Yes"
		}
		return "No"
	case models.KindChoices:
		return strings.Join(a.Labels, ", ")
	case models.KindNumber:
		return strconv.FormatFloat(a.Number, 'f', -1, 64)
	default:
		return a.Text
	}
}
