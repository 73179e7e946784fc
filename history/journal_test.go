package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rushteam/carprice/core"
)

func TestJournal_RecordAndRecent(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer j.Close()

	base := time.Unix(1700000000, 0)
	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * time.Second)
		j.now = func() time.Time { return ts }
		err := j.Record(context.Background(), &Entry{
			ModelVersion: "v1",
			Record:       core.Record{"year": 2018 + i, "fuel": "Бензин"},
			Price:        float64(100 + i),
		})
		require.NoError(t, err)
	}
	require.NoError(t, j.Record(context.Background(), &Entry{
		ModelVersion: "v1",
		Record:       core.Record{"fuel": "Газ (СУГ)"},
		Price:        110,
		Fallbacks:    []core.Fallback{{Field: "fuel", Value: "LPG"}},
		Ctime:        base.Add(time.Hour).UnixMilli(),
	}))

	entries, err := j.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, 110.0, entries[0].Price)
	require.Equal(t, []core.Fallback{{Field: "fuel", Value: "LPG"}}, entries[0].Fallbacks)
	require.Equal(t, 102.0, entries[1].Price)
	require.Nil(t, entries[1].Fallbacks)
	require.Equal(t, "Бензин", entries[1].Record["fuel"])
	require.Equal(t, float64(2020), entries[1].Record["year"])
	require.NotEmpty(t, entries[1].ID)

	all, err := j.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
}
