package promo

import (
	"fmt"

	"storefront-bot/internal/models"
)

// Direction moves a cursor through the carousel
type Direction int

const (
	Prev Direction = -1
	Next Direction = 1
)

// Carousel is the shared, read-only list of promotions
type Carousel struct {
	promos []models.Promo
}

// NewCarousel creates a carousel over promos
func NewCarousel(promos []models.Promo) *Carousel {
	return &Carousel{promos: promos}
}

// Len returns the number of promotions
func (c *Carousel) Len() int {
	return len(c.promos)
}

// NewCursor starts a cursor at the first promotion
func (c *Carousel) NewCursor() *Cursor {
	return &Cursor{carousel: c}
}

// Cursor is one session's position in a carousel
type Cursor struct {
	carousel *Carousel
	index    int
}

// Index returns the current position
func (c *Cursor) Index() int {
	return c.index
}

// Current returns the promotion under the cursor
func (c *Cursor) Current() (models.Promo, bool) {
	if c.carousel.Len() == 0 {
		return models.Promo{}, false
	}
	return c.carousel.promos[c.index], true
}

// Caption renders the title with its position, e.g. "[2/3] Opening Sale"
func (c *Cursor) Caption() string {
	promo, ok := c.Current()
	if !ok {
		return ""
	}
	return fmt.Sprintf("[%d/%d] %s", c.index+1, c.carousel.Len(), promo.Title)
}

// Advance moves the cursor one step, wrapping at both ends
func (c *Cursor) Advance(dir Direction) {
	n := c.carousel.Len()
	if n == 0 {
		return
	}
	c.index = ((c.index+int(dir))%n + n) % n
}
