// Package haiku holds the poem record shared by the controller, the
// persistence gateways and the generation adapters, together with the
// error taxonomy and the prompt template.
package haiku

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

//go:embed prompt.txt
var promptTemplate string

// Record is a generated poem. ID is empty until the record has been
// persisted.
type Record struct {
	ID        string    `json:"id"`
	Theme     string    `json:"theme"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Persisted reports whether a store has assigned the record an ID.
func (r Record) Persisted() bool {
	return r.ID != ""
}

var (
	// ErrGenerationEmpty is returned when the generation service answered
	// without usable text.
	ErrGenerationEmpty = errors.New("generation returned no text")
	// ErrGenerationTransport wraps network and service errors from the
	// generation service.
	ErrGenerationTransport = errors.New("generation service failure")
	// ErrPersistence wraps write and read errors from the document store.
	ErrPersistence = errors.New("persistence failure")
)

// User-facing messages. Every failure kind collapses to one of these.
const (
	GenericErrorMessage = "Failed to generate haiku."
	LoadErrorMessage    = "Failed to load haikus."
)

// NormalizeTheme trims surrounding whitespace from a user supplied theme.
func NormalizeTheme(theme string) string {
	return strings.TrimSpace(theme)
}

// Prompt renders the fixed instruction template for a theme. The theme is
// trimmed before it is embedded.
func Prompt(theme string) string {
	return fmt.Sprintf(strings.TrimSpace(promptTemplate), NormalizeTheme(theme))
}

// SortNewestFirst orders records by CreatedAt descending. Records with equal
// timestamps keep their relative order.
func SortNewestFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}

// InsertNewestFirst places rec into an already descending slice at its
// ordered position and returns the new slice. The input is not modified.
func InsertNewestFirst(records []Record, rec Record) []Record {
	out := make([]Record, 0, len(records)+1)
	inserted := false
	for _, r := range records {
		if !inserted && !r.CreatedAt.After(rec.CreatedAt) {
			out = append(out, rec)
			inserted = true
		}
		out = append(out, r)
	}
	if !inserted {
		out = append(out, rec)
	}
	return out
}
