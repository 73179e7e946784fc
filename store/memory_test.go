package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rushteam/carprice/core"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	_, err := s.Get(ctx, "missing")
	require.True(t, core.IsStoreNotFound(err))

	value := []byte(`{"ridge_intercept": 1}`)
	require.NoError(t, s.Set(ctx, "artifact", value))
	value[0] = 'x'

	got, err := s.Get(ctx, "artifact")
	require.NoError(t, err)
	require.Equal(t, `{"ridge_intercept": 1}`, string(got))

	require.NoError(t, s.Delete(ctx, "artifact"))
	_, err = s.Get(ctx, "artifact")
	require.True(t, core.IsStoreNotFound(err))
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 10))
	_, err := s.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(11 * time.Second)
	_, err = s.Get(ctx, "k")
	require.True(t, core.IsStoreNotFound(err))
}
