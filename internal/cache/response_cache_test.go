package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKeyNormalization(t *testing.T) {
	require.Equal(t, Key("What is the fee?"), Key("  what is the fee?  "))
	require.NotEqual(t, Key("what is the fee?"), Key("what is the fee"))
}

func TestSetAndGet(t *testing.T) {
	c := NewResponseCache(10, time.Minute)
	_, ok := c.Get("what is the fee")
	require.False(t, ok)

	c.Set("what is the fee", "₹120000 per year")
	got, ok := c.Get("What Is The Fee")
	require.True(t, ok)
	require.Equal(t, "₹120000 per year", got)
}

func TestCapacityEvictsOldest(t *testing.T) {
	c := NewResponseCache(3, time.Minute)
	base := time.Now()
	step := 0
	c.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * 2 * time.Second)
	}
	for i := 0; i < 4; i++ {
		c.Set(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}
	require.Equal(t, 3, c.Len())
	_, ok := c.Get("q0")
	require.False(t, ok)
	got, ok := c.Get("q3")
	require.True(t, ok)
	require.Equal(t, "a3", got)
}

func TestWriteSuppressionWindow(t *testing.T) {
	c := NewResponseCache(10, time.Minute)
	base := time.Now()
	current := base
	c.now = func() time.Time { return current }

	c.Set("same query", "first answer")
	// A second write inside the window is dropped.
	current = base.Add(500 * time.Millisecond)
	c.Set("same query", "second answer")
	got, _ := c.Get("same query")
	require.Equal(t, "first answer", got)

	// Past the window the entry is replaceable again.
	current = base.Add(2 * time.Second)
	c.Set("same query", "third answer")
	got, _ = c.Get("same query")
	require.Equal(t, "third answer", got)
}

func TestClear(t *testing.T) {
	c := NewResponseCache(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	require.Equal(t, 2, c.Len())
	c.Clear()
	require.Equal(t, 0, c.Len())
	_, ok := c.Get("a")
	require.False(t, ok)
	// Suppression state resets too.
	c.Set("a", "fresh")
	got, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, "fresh", got)
}

func TestTTLExpiry(t *testing.T) {
	c := NewResponseCache(10, 50*time.Millisecond)
	c.Set("q", "a")
	_, ok := c.Get("q")
	require.True(t, ok)
	time.Sleep(120 * time.Millisecond)
	_, ok = c.Get("q")
	require.False(t, ok)
}
