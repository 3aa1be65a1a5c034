package haiku

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrompt_EmbedsTrimmedTheme(t *testing.T) {
	got := Prompt("  ocean  ")

	assert.Contains(t, got, "about: ocean.")
	assert.Contains(t, got, "5-7-5")
	assert.NotContains(t, got, "  ocean")
}

func TestNormalizeTheme(t *testing.T) {
	assert.Equal(t, "", NormalizeTheme(" \t\n "))
	assert.Equal(t, "autumn leaves", NormalizeTheme("\tautumn leaves\n"))
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recs := []Record{
		{ID: "a", CreatedAt: base},
		{ID: "c", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "b", CreatedAt: base.Add(time.Hour)},
	}

	SortNewestFirst(recs)

	assert.Equal(t, []string{"c", "b", "a"}, ids(recs))
}

func TestInsertNewestFirst(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recs := []Record{
		{ID: "c", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "a", CreatedAt: base},
	}

	t.Run("middle", func(t *testing.T) {
		got := InsertNewestFirst(recs, Record{ID: "b", CreatedAt: base.Add(time.Hour)})
		assert.Equal(t, []string{"c", "b", "a"}, ids(got))
		assert.Len(t, recs, 2)
	})
	t.Run("newest", func(t *testing.T) {
		got := InsertNewestFirst(recs, Record{ID: "d", CreatedAt: base.Add(3 * time.Hour)})
		assert.Equal(t, []string{"d", "c", "a"}, ids(got))
	})
	t.Run("oldest", func(t *testing.T) {
		got := InsertNewestFirst(recs, Record{ID: "z", CreatedAt: base.Add(-time.Hour)})
		assert.Equal(t, []string{"c", "a", "z"}, ids(got))
	})
	t.Run("empty", func(t *testing.T) {
		got := InsertNewestFirst(nil, Record{ID: "x"})
		assert.Equal(t, []string{"x"}, ids(got))
	})
}

func ids(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
