package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Transaction : Transaction Model
// The audit record of one request-to-settlement lifecycle. "pending" is the
// only non-terminal state; a transaction is settled exactly once, either to
// "completed" or to "rejected".
type Transaction struct {
	// "transaction" (the default alias) is a reserved word in SQLite
	bun.BaseModel `bun:"table:transactions,alias:tx"`

	ID         int64        `json:"id" bun:",pk,autoincrement"`
	ListingID  int64        `json:"book_id" bun:",notnull"`
	Listing    *Listing     `json:"book,omitempty" bun:"rel:belongs-to,join:listing_id=id"`
	FromUserID int64        `json:"from_user_id" bun:",notnull"`
	FromUser   *User        `json:"fromUser,omitempty" bun:"rel:belongs-to,join:from_user_id=id"`
	ToUserID   int64        `json:"to_user_id" bun:",notnull"`
	ToUser     *User        `json:"toUser,omitempty" bun:"rel:belongs-to,join:to_user_id=id"`
	Type       string       `json:"transactionType" bun:"transaction_type,notnull"`
	Amount     int64        `json:"amount" bun:",nullzero"`
	Status     string       `json:"status" bun:",notnull,default:'pending'"`
	CreatedAt  time.Time    `json:"createdAt" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt  bun.NullTime `json:"updatedAt"`
	SettledAt  bun.NullTime `json:"settledAt"`
}

func (t *Transaction) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		t.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*Transaction)(nil)
