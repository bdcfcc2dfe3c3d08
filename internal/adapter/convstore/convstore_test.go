package convstore_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flookyhq/flooky-tools/internal/adapter/convstore"
	"github.com/flookyhq/flooky-tools/internal/domain"
)

func turns(n int) []domain.Message {
	out := make([]domain.Message, 0, n)
	for i := 0; i < n; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		out = append(out, domain.Message{Role: role, Content: fmt.Sprintf("m%d", i)})
	}
	return out
}

func TestTrim_UnderCapUntouched(t *testing.T) {
	t.Parallel()
	msgs := turns(4)
	got := convstore.Trim(msgs, 10)
	assert.Equal(t, msgs, got)
}

func TestTrim_SystemPinned(t *testing.T) {
	t.Parallel()
	msgs := append([]domain.Message{{Role: domain.RoleSystem, Content: "sys"}}, turns(12)...)
	got := convstore.Trim(msgs, 10)
	require.Len(t, got, 11)
	assert.Equal(t, domain.RoleSystem, got[0].Role)
	assert.Equal(t, "sys", got[0].Content)
	assert.Equal(t, "m2", got[1].Content)
	assert.Equal(t, "m11", got[10].Content)
}

func TestTrim_NoSystemKeepsRecent(t *testing.T) {
	t.Parallel()
	got := convstore.Trim(turns(14), 10)
	require.Len(t, got, 10)
	assert.Equal(t, "m4", got[0].Content)
	assert.Equal(t, "m13", got[9].Content)
}

func TestTrim_ZeroCapPassthrough(t *testing.T) {
	t.Parallel()
	msgs := turns(5)
	assert.Equal(t, msgs, convstore.Trim(msgs, 0))
}
