package navigation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPop(t *testing.T) {
	s := New()

	s.Push(1, "main_menu")
	s.Push(1, "credit_report")

	top, ok := s.Pop(1)
	require.True(t, ok)
	assert.Equal(t, "credit_report", top)

	top, ok = s.Pop(1)
	require.True(t, ok)
	assert.Equal(t, "main_menu", top)

	_, ok = s.Pop(1)
	assert.False(t, ok)
}

func TestDuplicateTopIsNoOp(t *testing.T) {
	s := New()

	s.Push(1, "main_menu")
	s.Push(1, "main_menu")

	assert.Equal(t, 1, s.Depth(1))

	// Non-consecutive duplicates are allowed
	s.Push(1, "shop")
	s.Push(1, "main_menu")
	assert.Equal(t, 3, s.Depth(1))
}

func TestBoundedDepth(t *testing.T) {
	s := New()

	for i := 1; i <= 15; i++ {
		s.Push(42, fmt.Sprintf("screen_%d", i))
	}

	assert.Equal(t, MaxDepth, s.Depth(42))

	// Most recent screen is on top; the oldest five were evicted.
	top, ok := s.Pop(42)
	require.True(t, ok)
	assert.Equal(t, "screen_15", top)

	for s.Depth(42) > 1 {
		_, _ = s.Pop(42)
	}
	bottom, ok := s.Pop(42)
	require.True(t, ok)
	assert.Equal(t, "screen_6", bottom)
}

func TestPeek(t *testing.T) {
	s := New()

	_, ok := s.Peek(1)
	assert.False(t, ok)

	s.Push(1, "shop")
	top, ok := s.Peek(1)
	require.True(t, ok)
	assert.Equal(t, "shop", top)
	assert.Equal(t, 1, s.Depth(1), "peek must not remove")
}

func TestClear(t *testing.T) {
	s := New()

	assert.False(t, s.Clear(1))

	s.Push(1, "main_menu")
	s.Push(2, "shop")

	assert.True(t, s.Clear(1))
	assert.Equal(t, 0, s.Depth(1))
	assert.Equal(t, 1, s.Depth(2), "clearing one chat must not affect others")
}
