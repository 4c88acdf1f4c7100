package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"

	"github.com/bookhub/bookhub.go/common"
	"github.com/bookhub/bookhub.go/db/models"
	"github.com/bookhub/bookhub.go/lib/security"
	"github.com/uptrace/bun"
	passwordvalidator "github.com/wagslane/go-password-validator"
)

// ErrNotEnoughCredits is returned by AdjustCredits when a debit would drive
// the stored balance below zero.
var ErrNotEnoughCredits = errors.New("not enough credits")

type CreateUserParams struct {
	Login     string
	Password  string
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

func (svc *BookhubService) CreateUser(ctx context.Context, params CreateUserParams) (user *models.User, err error) {

	user = &models.User{
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Email:     params.Email,
		Phone:     params.Phone,
		Credits:   common.StartingCredits,
	}

	// generate user login/password if not provided
	user.Login = params.Login
	if user.Login == "" {
		randLoginBytes, err := randBytesFromStr(20, alphaNumBytes)
		if err != nil {
			return nil, err
		}
		user.Login = string(randLoginBytes)
	}

	password := params.Password
	if password == "" {
		randPasswordBytes, err := randBytesFromStr(20, alphaNumBytes)
		if err != nil {
			return nil, err
		}
		password = string(randPasswordBytes)
	} else {
		if svc.Config.MinPasswordEntropy > 0 {
			entropy := passwordvalidator.GetEntropy(password)
			if entropy < float64(svc.Config.MinPasswordEntropy) {
				return nil, fmt.Errorf("password entropy is too low (%f), required is %d", entropy, svc.Config.MinPasswordEntropy)
			}
		}
	}

	// we only store the hashed password but return the initial plain text password in the HTTP response
	user.Password = security.HashPassword(password)

	err = svc.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(user).Exec(ctx)
		return err
	})
	// return actual password in the response, not the hashed one
	user.Password = password
	return user, err
}

func (svc *BookhubService) FindUser(ctx context.Context, userId int64) (*models.User, error) {
	var user models.User

	err := svc.DB.NewSelect().Model(&user).Where("id = ?", userId).Limit(1).Scan(ctx)
	if err != nil {
		return &user, err
	}
	return &user, nil
}

func (svc *BookhubService) FindUserByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User

	err := svc.DB.NewSelect().Model(&user).Where("login = ?", login).Limit(1).Scan(ctx)
	if err != nil {
		return &user, err
	}
	return &user, nil
}

// BalanceView is the read model for the profile page. AvailableCredits is a
// display convenience only; settlement always works on the raw credits
// column.
type BalanceView struct {
	Credits          int64 `json:"credits"`
	BooksDonated     int64 `json:"booksDonated"`
	BooksReceived    int64 `json:"booksReceived"`
	AvailableCredits int64 `json:"availableCredits"`
}

func (svc *BookhubService) BalanceFor(ctx context.Context, userId int64) (*BalanceView, error) {
	user, err := svc.FindUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	available := user.Credits + user.BooksDonated - user.BooksReceived
	if available < 0 {
		available = 0
	}
	return &BalanceView{
		Credits:          user.Credits,
		BooksDonated:     user.BooksDonated,
		BooksReceived:    user.BooksReceived,
		AvailableCredits: available,
	}, nil
}

// AdjustCredits moves the stored balance by delta inside the caller's
// transaction. Debits are guarded so the row is never decremented below
// zero, even with concurrent settlements.
func (svc *BookhubService) AdjustCredits(ctx context.Context, tx bun.IDB, userId int64, delta int64) error {
	query := tx.NewUpdate().
		Model((*models.User)(nil)).
		Set("credits = credits + ?", delta).
		Where("id = ?", userId)
	if delta < 0 {
		query = query.Where("credits >= ?", -delta)
	}
	res, err := query.Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotEnoughCredits
	}
	return nil
}

func (svc *BookhubService) IncrementDonated(ctx context.Context, tx bun.IDB, userId int64) error {
	_, err := tx.NewUpdate().
		Model((*models.User)(nil)).
		Set("books_donated = books_donated + 1").
		Where("id = ?", userId).
		Exec(ctx)
	return err
}

func (svc *BookhubService) IncrementReceived(ctx context.Context, tx bun.IDB, userId int64) error {
	_, err := tx.NewUpdate().
		Model((*models.User)(nil)).
		Set("books_received = books_received + 1").
		Where("id = ?", userId).
		Exec(ctx)
	return err
}

func randBytesFromStr(length int, from string) ([]byte, error) {
	b := make([]byte, length)
	fromLenBigInt := big.NewInt(int64(len(from)))
	for i := range b {
		r, err := rand.Int(rand.Reader, fromLenBigInt)
		if err != nil {
			return nil, err
		}
		b[i] = from[r.Int64()]
	}
	return b, nil
}
