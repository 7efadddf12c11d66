package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/leadrec/model"
)

func TestDefault(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "id", s.IDColumn)
	require.NotNil(t, s.MissingThreshold)
	assert.Equal(t, 0.5, *s.MissingThreshold)
	assert.True(t, s.IgnoreUndeclared)
	assert.Len(t, s.Denylist, 12)

	col, ok := s.Column("qt_socios_pj")
	require.True(t, ok)
	assert.Equal(t, KindBucketed, col.Kind)
	assert.Equal(t, []float64{-2, 0, 1}, col.Edges)

	col, ok = s.Column("empsetorcensitariofaixarendapopulacao")
	require.True(t, ok)
	assert.Equal(t, []float64{-2, 1, 500, 750, 1000, 1500, 2000, 3000, 4000, 5000, 10000}, col.Edges)

	g, ok := s.FlagGroupOf("fl_mei")
	require.True(t, ok)
	assert.Equal(t, "nm_legal", g.Name)
	assert.Equal(t, []string{"fl_me", "fl_sa", "fl_epp", "fl_mei", "fl_ltda"}, g.Flags)

	v, ok := s.ParseMarker("SIM")
	assert.True(t, ok)
	assert.True(t, v)
	v, ok = s.ParseMarker("NAO")
	assert.True(t, ok)
	assert.False(t, v)
	_, ok = s.ParseMarker("MAYBE")
	assert.False(t, ok)
}

func TestDefaultYAML_IsCopy(t *testing.T) {
	a := DefaultYAML()
	a[0] = 'X'
	assert.NotEqual(t, a[0], DefaultYAML()[0])
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing version", `
id_column: id
columns: [{name: a, kind: categorical}]`},
		{"no columns", `
version: v1
id_column: id`},
		{"bad kind", `
version: v1
id_column: id
columns: [{name: a, kind: textual}]`},
		{"duplicate column", `
version: v1
id_column: id
columns: [{name: a, kind: categorical}, {name: a, kind: numeric}]`},
		{"id declared", `
version: v1
id_column: id
columns: [{name: id, kind: categorical}]`},
		{"non-word name", `
version: v1
id_column: id
columns: [{name: "a-b", kind: categorical}]`},
		{"undeclared denylist", `
version: v1
id_column: id
columns: [{name: a, kind: categorical}]
denylist: [b]`},
		{"bucketed without edges", `
version: v1
id_column: id
columns: [{name: a, kind: bucketed}]`},
		{"edges not increasing", `
version: v1
id_column: id
columns: [{name: a, kind: bucketed, edges: [0, 5, 5]}]`},
		{"edges on numeric", `
version: v1
id_column: id
columns: [{name: a, kind: numeric, edges: [0, 5]}]`},
		{"undeclared flag", `
version: v1
id_column: id
columns: [{name: a, kind: boolean}]
flag_groups: [{name: g, flags: [a, b]}]`},
		{"flag in two groups", `
version: v1
id_column: id
columns: [{name: a, kind: boolean}]
flag_groups: [{name: g, flags: [a]}, {name: h, flags: [a]}]`},
		{"group name collides", `
version: v1
id_column: id
columns: [{name: a, kind: boolean}]
flag_groups: [{name: a, flags: [a]}]`},
		{"denied flag", `
version: v1
id_column: id
columns: [{name: a, kind: boolean}]
denylist: [a]
flag_groups: [{name: g, flags: [a]}]`},
		{"conflicting markers", `
version: v1
id_column: id
true_values: [Y]
false_values: [Y]
columns: [{name: a, kind: boolean}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrSchema)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	doc := `
version: v2
id_column: cnpj
columns:
  - name: city
    kind: categorical
  - name: employees
    kind: bucketed
    edges: [0, 10, 100]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "v2", s.Version)
	assert.Equal(t, "cnpj", s.IDColumn)
	assert.Nil(t, s.MissingThreshold)
	assert.True(t, s.Declared("cnpj"))
	assert.True(t, s.Declared("employees"))
	assert.False(t, s.Declared("revenue"))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, model.ErrSchema)
}

func TestClone(t *testing.T) {
	s := MustDefault()
	c := s.Clone()
	c.Columns[0].Name = "changed"
	c.FlagGroups[0].Flags[0] = "changed"
	*c.MissingThreshold = 0.9

	assert.NotEqual(t, "changed", s.Columns[0].Name)
	assert.Equal(t, "fl_me", s.FlagGroups[0].Flags[0])
	assert.Equal(t, 0.5, *s.MissingThreshold)
}

func TestIsWord(t *testing.T) {
	assert.True(t, IsWord("nm_legal"))
	assert.True(t, IsWord("região"))
	assert.False(t, IsWord(""))
	assert.False(t, IsWord("a b"))
	assert.False(t, IsWord("a-b"))
}
