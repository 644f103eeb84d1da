package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

func TestResults_GetPut(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)

	res := sqlscan.FileResult{Path: "A.java", Checksum: "h1"}
	c.Put("A.java", "h1", res)

	got, ok := c.Get("A.java", "h1")
	require.True(t, ok)
	assert.Equal(t, res, got)

	_, ok = c.Get("A.java", "h2")
	assert.False(t, ok, "a changed checksum must miss")

	_, ok = c.Get("B.java", "h1")
	assert.False(t, ok)
}

func TestResults_ReplaceOnEdit(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)

	c.Put("A.java", "h1", sqlscan.FileResult{Checksum: "h1"})
	c.Put("A.java", "h2", sqlscan.FileResult{Checksum: "h2"})
	assert.Equal(t, 1, c.Len())

	got, ok := c.Get("A.java", "h2")
	require.True(t, ok)
	assert.Equal(t, "h2", got.Checksum)
}

func TestResults_Eviction(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		p := fmt.Sprintf("F%d.java", i)
		c.Put(p, "h", sqlscan.FileResult{Path: p})
	}
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("F0.java", "h")
	assert.False(t, ok)
}

func TestResults_Invalidate(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	c.Put("A.java", "h", sqlscan.FileResult{})
	c.Invalidate("A.java")
	_, ok := c.Get("A.java", "h")
	assert.False(t, ok)
}

func TestResults_Disabled(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)
	assert.Nil(t, c)

	c.Put("A.java", "h", sqlscan.FileResult{})
	_, ok := c.Get("A.java", "h")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	c.Invalidate("A.java")
}
