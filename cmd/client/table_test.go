package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable_Render(t *testing.T) {
	tb := newTable("Institutions", "ID", "Name")
	tb.AddRow("1", "Université Cheikh Anta Diop")
	tb.AddRow("12", "UGB")

	out := tb.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 5)
	assert.Contains(t, lines[0], "Institutions")
	assert.Contains(t, lines[1], "Name")
	assert.Contains(t, lines[3], "Université Cheikh Anta Diop")
}

func TestTable_Empty(t *testing.T) {
	out := newTable("Programs", "ID").Render()
	assert.Contains(t, out, "(none)")
}

func TestRenderFields_SkipsEmpty(t *testing.T) {
	out := renderFields([][2]string{{"Title", "Analyse"}, {"Description", ""}})
	assert.Contains(t, out, "Analyse")
	assert.NotContains(t, out, "Description")
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	assert.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"0", "-1", "abc"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}
