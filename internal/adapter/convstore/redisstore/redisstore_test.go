package redisstore_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flookyhq/flooky-tools/internal/adapter/convstore/redisstore"
	"github.com/flookyhq/flooky-tools/internal/domain"
)

func newStore(t *testing.T, maxHistory int) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return redisstore.New(rdb, maxHistory), mr
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()
	s, _ := newStore(t, 10)
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, "s1",
		domain.Message{Role: domain.RoleSystem, Content: "sys"},
		domain.Message{Role: domain.RoleUser, Content: "hi"},
		domain.Message{Role: domain.RoleAssistant, Content: "hello! 😊"},
	))
	got, err := s.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, domain.RoleSystem, got[0].Role)
	assert.Equal(t, "hello! 😊", got[2].Content)
}

func TestStore_UnknownSessionEmpty(t *testing.T) {
	t.Parallel()
	s, _ := newStore(t, 10)
	got, err := s.History(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_CapKeepsSystemPinned(t *testing.T) {
	t.Parallel()
	s, _ := newStore(t, 4)
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, "s1", domain.Message{Role: domain.RoleSystem, Content: "sys"}))
	for i := 0; i < 6; i++ {
		require.NoError(t, s.Append(ctx, "s1",
			domain.Message{Role: domain.RoleUser, Content: fmt.Sprintf("u%d", i)},
			domain.Message{Role: domain.RoleAssistant, Content: fmt.Sprintf("a%d", i)},
		))
	}
	got, err := s.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, domain.RoleSystem, got[0].Role)
	assert.Equal(t, "u4", got[1].Content)
	assert.Equal(t, "a5", got[4].Content)
}

func TestStore_CapWithoutSystemTrims(t *testing.T) {
	t.Parallel()
	s, _ := newStore(t, 2)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, s.Append(ctx, "s1", domain.Message{Role: domain.RoleUser, Content: fmt.Sprintf("m%d", i)}))
	}
	got, err := s.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m2", got[0].Content)
	assert.Equal(t, "m3", got[1].Content)
}

func TestStore_AppendSetsTTL(t *testing.T) {
	t.Parallel()
	s, mr := newStore(t, 10)
	require.NoError(t, s.Append(context.Background(), "s1", domain.Message{Role: domain.RoleUser, Content: "hi"}))
	ttl := mr.TTL("conv:s1")
	assert.Greater(t, ttl.Seconds(), 0.0)
}

func TestStore_Reset(t *testing.T) {
	t.Parallel()
	s, mr := newStore(t, 10)
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, "s1", domain.Message{Role: domain.RoleUser, Content: "hi"}))
	require.NoError(t, s.Reset(ctx, "s1"))
	assert.False(t, mr.Exists("conv:s1"))
}

func TestStore_AppendNothingIsNoop(t *testing.T) {
	t.Parallel()
	s, mr := newStore(t, 10)
	require.NoError(t, s.Append(context.Background(), "s1"))
	assert.False(t, mr.Exists("conv:s1"))
}
