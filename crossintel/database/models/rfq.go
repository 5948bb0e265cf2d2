package models

import (
	"time"

	"github.com/uptrace/bun"
)

// RFQStatus tracks the lifecycle of a request-for-quote.
type RFQStatus string

const (
	RFQOpen      RFQStatus = "open"
	RFQQuoted    RFQStatus = "quoted"
	RFQAccepted  RFQStatus = "accepted"
	RFQCancelled RFQStatus = "cancelled"
	RFQExpired   RFQStatus = "expired"
)

// RFQ is a buyer's request-for-quote against a listing. Pricing guidance is
// generated per RFQ for the seller answering it.
type RFQ struct {
	bun.BaseModel `bun:"table:rfqs,alias:r"`

	ID         string    `bun:"id,pk"`
	BuyerID    string    `bun:"buyer_id,notnull"`
	ListingID  string    `bun:"listing_id,notnull"`
	Quantity   int       `bun:"quantity,notnull"`
	DeadlineAt time.Time `bun:"deadline_at,notnull"`
	Status     RFQStatus `bun:"status,notnull,default:'open'"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
