package models

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// User : User Model
// Credits, BooksDonated and BooksReceived are owned by the settlement
// operations and must never be written by profile-edit flows.
type User struct {
	ID            int64        `json:"id" bun:",pk,autoincrement"`
	Login         string       `json:"login" bun:",unique,notnull"`
	Password      string       `json:"-" bun:",notnull"`
	FirstName     string       `json:"firstName" bun:",nullzero"`
	LastName      string       `json:"lastName" bun:",nullzero"`
	Email         string       `json:"email" bun:",nullzero"`
	Phone         string       `json:"phone" bun:",nullzero"`
	Credits       int64        `json:"credits" bun:",notnull,default:2"`
	BooksDonated  int64        `json:"booksDonated" bun:",notnull,default:0"`
	BooksReceived int64        `json:"booksReceived" bun:",notnull,default:0"`
	CreatedAt     time.Time    `json:"createdAt" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt     bun.NullTime `json:"updatedAt"`
}

func (u *User) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		u.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

func (u *User) FullName() string {
	return fmt.Sprintf("%s %s", u.FirstName, u.LastName)
}

var _ bun.BeforeAppendModelHook = (*User)(nil)
