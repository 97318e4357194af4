package domain

import (
	"math"
	"time"
)

// CartLine is one item's entry in a cart. The paid/free pair is never set by
// hand; it is always the output of Resolve for the line's total quantity and
// tier. Unit price and tier are frozen at the time the line was last touched.
type CartLine struct {
	ItemID       string    `bson:"item_id" json:"item_id"`
	Name         string    `bson:"name" json:"name"`
	UnitPrice    float64   `bson:"unit_price" json:"unit_price"`
	PaidQuantity int64     `bson:"paid_quantity" json:"paid_quantity"`
	FreeQuantity int64     `bson:"free_quantity" json:"free_quantity"`
	OfferTier    OfferTier `bson:"offer_tier" json:"offer_tier"`
	AddedAt      time.Time `bson:"added_at" json:"added_at"`
}

func (l CartLine) TotalQuantity() int64 {
	return l.PaidQuantity + l.FreeQuantity
}

// Cart is stored as a single document per user, lines ordered by insertion.
// A cart with zero lines is represented by absence of the document.
type Cart struct {
	ID             string     `bson:"_id,omitempty" json:"id,omitempty"`
	UserID         string     `bson:"user_id" json:"user_id"`
	Lines          []CartLine `bson:"lines" json:"lines"`
	TotalItems     int64      `bson:"total_items" json:"total_items"`
	TotalPrice     float64    `bson:"total_price" json:"total_price"`
	DiscountAmount float64    `bson:"discount_amount" json:"discount_amount"`
	FinalPrice     float64    `bson:"final_price" json:"final_price"`
	CreatedAt      time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `bson:"updated_at" json:"updated_at"`
}

// Recalculate refolds the cart totals from the line list. It runs as the
// final step of every mutation; totals are never patched incrementally, so
// they cannot drift from accumulated rounding error.
func (c *Cart) Recalculate() {
	var items int64
	var total, discount float64

	for _, l := range c.Lines {
		qty := l.TotalQuantity()
		items += qty
		total += l.UnitPrice * float64(qty)
		discount += l.UnitPrice * float64(l.FreeQuantity)
	}

	c.TotalItems = items
	c.TotalPrice = Round2(total)
	c.DiscountAmount = Round2(discount)
	c.FinalPrice = Round2(c.TotalPrice - c.DiscountAmount)
}

// FindLine returns the index of the line for itemID, or -1.
func (c *Cart) FindLine(itemID string) int {
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

// RemoveLine deletes the line at index i preserving insertion order.
func (c *Cart) RemoveLine(i int) {
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
}

// Round2 rounds a monetary amount to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round1 rounds to one decimal place (used for item average ratings).
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
