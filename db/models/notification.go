package models

import (
	"time"
)

// Notification : Notification Model
// Written as a post-commit side effect of settlement operations and read
// back independently by the recipient.
type Notification struct {
	ID            int64     `json:"id" bun:",pk,autoincrement"`
	RecipientID   int64     `json:"recipient_id" bun:",notnull"`
	Recipient     *User     `json:"-" bun:"rel:belongs-to,join:recipient_id=id"`
	SenderID      int64     `json:"sender_id" bun:",notnull"`
	Sender        *User     `json:"sender,omitempty" bun:"rel:belongs-to,join:sender_id=id"`
	Type          string    `json:"type" bun:",notnull"`
	Message       string    `json:"message" bun:",notnull"`
	ListingID     int64     `json:"related_post_id,omitempty" bun:",nullzero"`
	Listing       *Listing  `json:"relatedPost,omitempty" bun:"rel:belongs-to,join:listing_id=id"`
	TransactionID int64     `json:"related_transaction_id,omitempty" bun:",nullzero"`
	IsRead        bool      `json:"isRead" bun:",notnull,default:false"`
	CreatedAt     time.Time `json:"createdAt" bun:",nullzero,notnull,default:current_timestamp"`
}
