package audit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunks(t *testing.T) {
	assert.Nil(t, Chunks("", 3))
	assert.Equal(t, []string{"abcdef"}, Chunks("abcdef", 0))
	assert.Equal(t, []string{"abc", "def", "g"}, Chunks("abcdefg", 3))
	assert.Equal(t, []string{"你好", "世界", "!"}, Chunks("你好世界!", 2))
}

func TestChunks_Concatenation(t *testing.T) {
	s := `{"summary": "价格 très bien", "issues": []}`
	for size := 1; size < 12; size++ {
		assert.Equal(t, s, strings.Join(Chunks(s, size), ""))
	}
}

func TestReplay(t *testing.T) {
	var got []string
	err := Replay(context.Background(), "abcdefg", 3, time.Millisecond, func(c string) {
		got = append(got, c)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"abc", "def", "g"}, got)
}

func TestReplay_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var got []string
	err := Replay(ctx, "abcdefg", 1, time.Hour, func(c string) {
		got = append(got, c)
		cancel()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a"}, got)
}
