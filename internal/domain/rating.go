package domain

import "time"

// Rating is unique per (user, item); a resubmission updates the existing
// document in place. TransactionID records the completed purchase that
// qualified the user to rate.
type Rating struct {
	ID            string    `bson:"_id,omitempty" json:"id,omitempty"`
	UserID        string    `bson:"user_id" json:"user_id"`
	ItemID        string    `bson:"item_id" json:"item_id"`
	Value         int       `bson:"value" json:"value"`
	Review        string    `bson:"review,omitempty" json:"review,omitempty"`
	TransactionID string    `bson:"transaction_id" json:"transaction_id"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}
