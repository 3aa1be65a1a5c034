package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/haiku/internal/haiku"
)

// exerciseGateway checks the behaviour every backend must share.
func exerciseGateway(t *testing.T, gw Gateway) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 10, 1, 9, 30, 0, 123456789, time.UTC)

	t.Run("round trip", func(t *testing.T) {
		in := haiku.Record{Theme: "autumn", Text: "line1\nline2\nline3", CreatedAt: base}
		saved, err := gw.Append(ctx, in)
		require.NoError(t, err)
		assert.NotEmpty(t, saved.ID)

		all, err := gw.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)

		want := haiku.Record{ID: saved.ID, Theme: "autumn", Text: "line1\nline2\nline3", CreatedAt: base}
		if diff := cmp.Diff(want, all[0], cmpopts.EquateApproxTime(time.Microsecond)); diff != "" {
			t.Errorf("listed record mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("newest first", func(t *testing.T) {
		// Appended out of order on purpose; sub-second gaps exercise the
		// timestamp encoding.
		for _, off := range []time.Duration{3 * time.Hour, 500 * time.Millisecond, 2 * time.Hour, 10 * time.Second} {
			_, err := gw.Append(ctx, haiku.Record{Theme: "t", Text: "x", CreatedAt: base.Add(off)})
			require.NoError(t, err)
		}

		all, err := gw.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 5)
		for i := 1; i < len(all); i++ {
			assert.True(t, all[i-1].CreatedAt.After(all[i].CreatedAt),
				"record %d (%v) not newer than record %d (%v)", i-1, all[i-1].CreatedAt, i, all[i].CreatedAt)
			assert.NotEmpty(t, all[i].ID)
		}
	})

	t.Run("ids are unique", func(t *testing.T) {
		all, err := gw.ListAll(ctx)
		require.NoError(t, err)
		seen := map[string]bool{}
		for _, r := range all {
			assert.False(t, seen[r.ID], "duplicate id %s", r.ID)
			seen[r.ID] = true
		}
	})
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
