package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Listing is a marketplace item offered by a seller. Listings are both the
// ranking candidates and the peer set for market price distributions.
type Listing struct {
	bun.BaseModel `bun:"table:listings,alias:l"`

	ID          string    `bun:"id,pk"`
	SellerID    string    `bun:"seller_id,notnull"`
	Title       string    `bun:"title,notnull"`
	Keywords    string    `bun:"keywords"`
	Category    string    `bun:"category,notnull"`
	Subcategory string    `bun:"subcategory"`
	Price       float64   `bun:"price,notnull"`
	MinOrderQty int       `bun:"min_order_qty,notnull,default:1"`
	Active      bool      `bun:"active,notnull,default:true"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}
