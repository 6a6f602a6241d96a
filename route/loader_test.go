package route

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntry(t *testing.T) {
	cases := []struct {
		line string
		want Entry
	}{
		{"enter chapter 1", Entry{Alias: "enter chapter 1"}},
		{"  !1 > 2  ", Entry{Alias: "1 > 2", Silent: true}},
		{"complete chapter 1 ## golden", Entry{Alias: "complete chapter 1"}},
		{"! leave chapter##x", Entry{Alias: "leave chapter", Silent: true}},
	}
	for _, c := range cases {
		got, err := ParseEntry(c.line)
		require.NoError(t, err, c.line)
		assert.Equal(t, c.want, got, c.line)
	}

	for _, line := range []string{"", "   ", "!", "## only a comment"} {
		_, err := ParseEntry(line)
		assert.Error(t, err, line)
	}
}

func TestParseJSON(t *testing.T) {
	doc := `{
	"useFileTime": true,
	"reset": "reset chapter ## any reset",
	"route": ["enter chapter 1", "!1 > 2", "complete chapter 1"]
}`
	r, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.True(t, r.UseSecondaryTime)
	assert.Equal(t, "reset chapter", r.ResetAlias)
	assert.Equal(t, []Entry{{Alias: "enter chapter 1"}, {Alias: "1 > 2", Silent: true}, {Alias: "complete chapter 1"}}, r.Entries)
}

func TestParseYAML(t *testing.T) {
	doc := `
useSecondaryTime: false
route:
  - start chapter 1
  - "! collect strawberry"
`
	r, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.False(t, r.UseSecondaryTime)
	assert.Empty(t, r.ResetAlias)
	assert.Equal(t, []Entry{{Alias: "start chapter 1"}, {Alias: "collect strawberry", Silent: true}}, r.Entries)
}

func TestParseRejects(t *testing.T) {
	_, err := Parse([]byte(`{"route": []}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"route": ["a", "  "]}`))
	assert.ErrorContains(t, err, "entry 1")

	_, err = Parse([]byte(`{"route": `))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "any%.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"route": ["enter chapter 1"]}`), 0644))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, r.Entries, 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
