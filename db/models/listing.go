package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Listing : Listing (book post) Model
// Status is mutated only by the settlement operations. ListingType is fixed
// at creation; Price is required iff the type is "sell".
type Listing struct {
	ID            int64             `json:"id" bun:",pk,autoincrement"`
	UserID        int64             `json:"user_id" bun:",notnull"`
	User          *User             `json:"user,omitempty" bun:"rel:belongs-to,join:user_id=id"`
	BookName      string            `json:"bookName" bun:",notnull"`
	AuthorName    string            `json:"authorName" bun:",nullzero"`
	Description   string            `json:"description,omitempty" bun:",nullzero"`
	ListingType   string            `json:"listingType" bun:",notnull"`
	Price         int64             `json:"price,omitempty" bun:",nullzero"`
	Address       string            `json:"address,omitempty" bun:",nullzero"`
	PaymentMethod string            `json:"paymentMethod,omitempty" bun:",nullzero,default:'cash_on_delivery'"`
	Status        string            `json:"status" bun:",notnull,default:'available'"`
	Requests      []*ListingRequest `json:"requestedBy,omitempty" bun:"rel:has-many,join:id=listing_id"`
	CreatedAt     time.Time         `json:"createdAt" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt     bun.NullTime      `json:"updatedAt"`
}

func (l *Listing) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		l.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*Listing)(nil)

// ListingRequest : one row per user with an open or settled request against
// a listing. Rows are added on request and removed on rejection, so a
// listing has at most one row at any time while the status gate holds.
type ListingRequest struct {
	ID        int64     `json:"-" bun:",pk,autoincrement"`
	ListingID int64     `json:"-" bun:",notnull"`
	Listing   *Listing  `json:"-" bun:"rel:belongs-to,join:listing_id=id"`
	UserID    int64     `json:"user_id" bun:",notnull"`
	User      *User     `json:"user,omitempty" bun:"rel:belongs-to,join:user_id=id"`
	CreatedAt time.Time `json:"createdAt" bun:",nullzero,notnull,default:current_timestamp"`
}
