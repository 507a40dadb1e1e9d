package mapping

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "kickoff/pkg/domain-errors"
)

func TestNewTable(t *testing.T) {
	t.Run("applies defaults and trims", func(t *testing.T) {
		table, err := NewTable(Definition{
			Name:     "newsletter",
			Fields:   map[string]string{" email ": " Email "},
			Required: []string{"Email", " Email", ""},
		})
		require.NoError(t, err)

		target, ok := table.Target("email")
		assert.True(t, ok)
		assert.Equal(t, "Email", target)
		assert.Equal(t, []string{"Email"}, table.Required())
		assert.Equal(t, DefaultStatusField, table.StatusField())
		assert.Equal(t, DefaultStatusValue, table.StatusValue())
		assert.Equal(t, "newsletter", table.Name())
	})

	invalid := []struct {
		name string
		def  Definition
	}{
		{"no fields", Definition{}},
		{"blank ref", Definition{Fields: map[string]string{" ": "Email"}}},
		{"blank target", Definition{Fields: map[string]string{"email": ""}}},
		{"required not mapped", Definition{Fields: map[string]string{"email": "Email"}, Required: []string{"City"}}},
		{"name field not mapped", Definition{Fields: map[string]string{"email": "Email"}, NameField: "Title"}},
		{"email field not mapped", Definition{Fields: map[string]string{"name": "Title"}, EmailField: "Email"}},
	}
	for _, tc := range invalid {
		t.Run("rejects "+tc.name, func(t *testing.T) {
			table, err := NewTable(tc.def)
			require.Error(t, err)
			assert.Nil(t, table)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		})
	}

	t.Run("MustTable panics on invalid definition", func(t *testing.T) {
		assert.Panics(t, func() { MustTable(Definition{}) })
	})
}

func TestDefaultTable(t *testing.T) {
	table := DefaultTable()

	assert.Equal(t, "Title", table.NameField())
	assert.Equal(t, "Email", table.EmailField())
	assert.Contains(t, table.Refs(), "full_name")
	for _, required := range table.Required() {
		found := false
		for _, ref := range table.Refs() {
			if target, _ := table.Target(ref); target == required {
				found = true
			}
		}
		assert.True(t, found, "required %s must be mapped", required)
	}
}

func TestParse(t *testing.T) {
	t.Run("valid yaml", func(t *testing.T) {
		table, err := Parse([]byte(`
name: volunteers
fields:
  9f1c-name: Title
  9f1c-mail: Email
required: [Title, Email]
name_field: Title
email_field: Email
status_value: New
`))
		require.NoError(t, err)
		assert.Equal(t, "volunteers", table.Name())
		assert.Equal(t, "New", table.StatusValue())
		assert.Equal(t, []string{"9f1c-mail", "9f1c-name"}, table.Refs())
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		_, err := Parse([]byte("name: x\nfeilds:\n  a: B\n"))
		require.Error(t, err)
	})

	t.Run("invariants are still enforced", func(t *testing.T) {
		_, err := Parse([]byte("fields:\n  a: B\nrequired: [C]\n"))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fields:\n  ref-1: Title\n"), 0o600))

	table, err := LoadFile(path)
	require.NoError(t, err)
	target, ok := table.Target("ref-1")
	assert.True(t, ok)
	assert.Equal(t, "Title", target)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
