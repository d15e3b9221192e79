package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFallbackRoundTrip(t *testing.T) {
	c := New("")
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	c.SetJSON(ctx, "stats:categories", payload{Name: "Bug Fix", Count: 3})

	var got payload
	require.True(t, c.GetJSON(ctx, "stats:categories", &got))
	assert.Equal(t, "Bug Fix", got.Name)
	assert.Equal(t, 3, got.Count)
}

func TestMissReturnsFalse(t *testing.T) {
	c := New("")

	var got map[string]any
	assert.False(t, c.GetJSON(context.Background(), "nope", &got))
}

func TestDeletePrefixInvalidates(t *testing.T) {
	c := New("")
	ctx := context.Background()

	c.SetJSON(ctx, "tasks:list:all", []int{1, 2})
	c.SetJSON(ctx, "tasks:list:open", []int{1})
	c.SetJSON(ctx, "stats:categories", map[string]int{"Chore": 1})

	c.DeletePrefix(ctx, "tasks:")

	var list []int
	assert.False(t, c.GetJSON(ctx, "tasks:list:all", &list))
	assert.False(t, c.GetJSON(ctx, "tasks:list:open", &list))

	var stats map[string]int
	assert.True(t, c.GetJSON(ctx, "stats:categories", &stats))
}

func TestEntriesExpire(t *testing.T) {
	c := New("")
	c.ttl = 10 * time.Millisecond
	ctx := context.Background()

	c.SetJSON(ctx, "tasks:list:all", []int{1})
	time.Sleep(20 * time.Millisecond)

	var list []int
	assert.False(t, c.GetJSON(ctx, "tasks:list:all", &list))
}

func TestInvalidRedisURLFallsBack(t *testing.T) {
	c := New("not-a-url")
	ctx := context.Background()

	c.SetJSON(ctx, "k", "v")
	var got string
	assert.True(t, c.GetJSON(ctx, "k", &got))
	assert.Equal(t, "v", got)
}
