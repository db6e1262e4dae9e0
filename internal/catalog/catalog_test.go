package catalog

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	id    string
	value int
}

func (i item) Key() string { return i.id }

func keys(items []item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out
}

func TestCatalog_UpsertKeepsInsertionOrder(t *testing.T) {
	c := New[item]()
	assert.False(t, c.Upsert(item{id: "a", value: 1}))
	assert.False(t, c.Upsert(item{id: "b", value: 2}))
	assert.True(t, c.Upsert(item{id: "a", value: 3}))

	assert.Equal(t, []string{"a", "b"}, keys(c.List()))
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 3, got.value)
	assert.Equal(t, 2, c.Len())
}

func TestCatalog_Remove(t *testing.T) {
	c := New[item]()
	c.Upsert(item{id: "a"})
	c.Upsert(item{id: "b"})

	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))
	assert.False(t, c.Has("a"))
	assert.Equal(t, []string{"b"}, keys(c.List()))
}

func TestCatalog_Update(t *testing.T) {
	c := New[item]()
	c.Upsert(item{id: "a", value: 1})

	assert.True(t, c.Update("a", func(i *item) { i.value = 10 }))
	assert.False(t, c.Update("missing", func(i *item) { i.value = 10 }))

	got, _ := c.Get("a")
	assert.Equal(t, 10, got.value)
}

func TestCatalog_SnapshotIsStable(t *testing.T) {
	c := New[item]()
	c.Upsert(item{id: "a", value: 1})

	snap := c.Snapshot()
	c.Update("a", func(i *item) { i.value = 2 })
	c.Upsert(item{id: "b"})
	c.Remove("a")

	require.Len(t, snap, 1)
	assert.Equal(t, 1, snap[0].value)
}

func TestCatalog_ListIsCopy(t *testing.T) {
	c := New[item]()
	c.Upsert(item{id: "a", value: 1})

	list := c.List()
	list[0].value = 99

	got, _ := c.Get("a")
	assert.Equal(t, 1, got.value)
}

func TestCatalog_ConcurrentReadersAndWriters(t *testing.T) {
	c := New[item]()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Upsert(item{id: fmt.Sprintf("w%d-%d", w, i)})
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = c.Snapshot()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 400, c.Len())
}
