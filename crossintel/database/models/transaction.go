package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Transaction is a completed historical order between one buyer and one
// seller. The scoring engines only read transactions; they are written by
// the order pipeline elsewhere.
type Transaction struct {
	bun.BaseModel `bun:"table:transactions,alias:tx"`

	ID          int64     `bun:"id,pk,autoincrement"`
	BuyerID     string    `bun:"buyer_id,notnull"`
	SellerID    string    `bun:"seller_id,notnull"`
	ListingID   string    `bun:"listing_id,notnull"`
	TotalPrice  float64   `bun:"total_price,notnull"`
	Quantity    int       `bun:"quantity,notnull,default:1"`
	Disputed    bool      `bun:"disputed,notnull,default:false"`
	CompletedAt time.Time `bun:"completed_at,notnull"`
}
