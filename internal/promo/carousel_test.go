package promo

import (
	"testing"

	"storefront-bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCarousel() *Carousel {
	return NewCarousel([]models.Promo{
		{Title: "Christmas Sale", Image: "https://picsum.photos/200"},
		{Title: "Opening Sale", Image: "https://picsum.photos/300"},
		{Title: "Bundle Sale", Image: "https://picsum.photos/400"},
	})
}

func TestAdvanceWraps(t *testing.T) {
	cur := testCarousel().NewCursor()

	cur.Advance(Prev)
	assert.Equal(t, 2, cur.Index())
	assert.Equal(t, "[3/3] Bundle Sale", cur.Caption())

	cur.Advance(Next)
	assert.Equal(t, 0, cur.Index())
	promo, ok := cur.Current()
	require.True(t, ok)
	assert.Equal(t, "Christmas Sale", promo.Title)
}

func TestNextThenPrevIsCyclic(t *testing.T) {
	c := testCarousel()
	for start := 0; start < c.Len(); start++ {
		cur := c.NewCursor()
		for i := 0; i < start; i++ {
			cur.Advance(Next)
		}
		require.Equal(t, start, cur.Index())

		for i := 0; i < c.Len(); i++ {
			cur.Advance(Next)
			cur.Advance(Prev)
			assert.Equal(t, start, cur.Index())
		}
		assert.Equal(t, start, cur.Index())
	}
}

func TestFullLapReturnsToStart(t *testing.T) {
	c := testCarousel()
	for _, dir := range []Direction{Next, Prev} {
		cur := c.NewCursor()
		cur.Advance(Next)
		for i := 0; i < c.Len(); i++ {
			cur.Advance(dir)
		}
		assert.Equal(t, 1, cur.Index())
	}
}

func TestCursorsAreIndependent(t *testing.T) {
	c := testCarousel()
	a, b := c.NewCursor(), c.NewCursor()
	a.Advance(Next)
	assert.Equal(t, 1, a.Index())
	assert.Equal(t, 0, b.Index())
}

func TestEmptyCarousel(t *testing.T) {
	cur := NewCarousel(nil).NewCursor()
	cur.Advance(Next)
	_, ok := cur.Current()
	assert.False(t, ok)
	assert.Empty(t, cur.Caption())
}
