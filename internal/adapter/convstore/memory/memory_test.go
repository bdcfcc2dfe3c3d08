package memory_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flookyhq/flooky-tools/internal/adapter/convstore/memory"
	"github.com/flookyhq/flooky-tools/internal/domain"
)

func TestStore_AppendAndHistory(t *testing.T) {
	t.Parallel()
	s := memory.New(10)
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, "s1",
		domain.Message{Role: domain.RoleSystem, Content: "sys"},
		domain.Message{Role: domain.RoleUser, Content: "hi"},
		domain.Message{Role: domain.RoleAssistant, Content: "hello!"},
	))
	got, err := s.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "sys", got[0].Content)
	assert.Equal(t, "hello!", got[2].Content)
}

func TestStore_UnknownSessionEmpty(t *testing.T) {
	t.Parallel()
	s := memory.New(10)
	got, err := s.History(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_CapAppliedWithPinnedSystem(t *testing.T) {
	t.Parallel()
	s := memory.New(4)
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

func TestStore_HistoryReturnsCopy(t *testing.T) {
	t.Parallel()
	s := memory.New(10)
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, "s1", domain.Message{Role: domain.RoleUser, Content: "orig"}))
	got, err := s.History(ctx, "s1")
	require.NoError(t, err)
	got[0].Content = "mutated"
	again, err := s.History(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "orig", again[0].Content)
}

func TestStore_Reset(t *testing.T) {
	t.Parallel()
	s := memory.New(10)
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, "s1", domain.Message{Role: domain.RoleUser, Content: "hi"}))
	require.NoError(t, s.Reset(ctx, "s1"))
	got, err := s.History(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
}
