package domain

import "time"

// Item is a catalog entry. UnitPrice and OfferTier are what a cart line
// freezes when it is added or updated.
type Item struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	Name          string    `bson:"name" json:"name"`
	Description   string    `bson:"description,omitempty" json:"description,omitempty"`
	UnitPrice     float64   `bson:"unit_price" json:"unit_price"`
	OfferTier     OfferTier `bson:"offer_tier" json:"offer_tier"`
	StockQuantity int64     `bson:"stock_quantity" json:"stock_quantity"`
	AverageRating float64   `bson:"average_rating" json:"average_rating"`
	RatingCount   int64     `bson:"rating_count" json:"rating_count"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

func (i Item) InStock() bool {
	return i.StockQuantity > 0
}
