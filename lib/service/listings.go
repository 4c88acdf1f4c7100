package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookhub/bookhub.go/common"
	"github.com/bookhub/bookhub.go/db/models"
	"github.com/uptrace/bun"
)

// ErrPriceRequired is returned when a sell listing is created without a
// price.
var ErrPriceRequired = errors.New("price is required for sell listings")

type CreateListingParams struct {
	BookName      string
	AuthorName    string
	Description   string
	ListingType   string
	Price         int64
	Address       string
	PaymentMethod string
}

func (svc *BookhubService) CreateListing(ctx context.Context, userId int64, params CreateListingParams) (*models.Listing, error) {
	if params.ListingType != common.ListingTypeDonate && params.ListingType != common.ListingTypeSell {
		return nil, fmt.Errorf("invalid listing type %q", params.ListingType)
	}
	if params.ListingType == common.ListingTypeSell && params.Price <= 0 {
		return nil, ErrPriceRequired
	}

	listing := &models.Listing{
		UserID:        userId,
		BookName:      params.BookName,
		AuthorName:    params.AuthorName,
		Description:   params.Description,
		ListingType:   params.ListingType,
		Address:       params.Address,
		PaymentMethod: params.PaymentMethod,
		Status:        common.ListingStatusAvailable,
	}
	if params.ListingType == common.ListingTypeSell {
		listing.Price = params.Price
	}

	_, err := svc.DB.NewInsert().Model(listing).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return listing, nil
}

func (svc *BookhubService) FindListing(ctx context.Context, listingId int64) (*models.Listing, error) {
	var listing models.Listing

	err := svc.DB.NewSelect().
		Model(&listing).
		Relation("User").
		Where("listing.id = ?", listingId).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return &listing, err
	}
	return &listing, nil
}

func (svc *BookhubService) ListAvailableListings(ctx context.Context) ([]models.Listing, error) {
	listings := []models.Listing{}
	err := svc.DB.NewSelect().
		Model(&listings).
		Relation("User").
		Where("listing.status = ?", common.ListingStatusAvailable).
		OrderExpr("listing.id DESC").
		Limit(100).
		Scan(ctx)
	return listings, err
}

// markListingPending is the status gate for new requests: a conditional
// update so that of two concurrent requesters at most one can observe the
// available -> pending transition.
func (svc *BookhubService) markListingPending(ctx context.Context, tx bun.IDB, listingId int64) (bool, error) {
	res, err := tx.NewUpdate().
		Model((*models.Listing)(nil)).
		Set("status = ?", common.ListingStatusPending).
		Where("id = ? AND status = ?", listingId, common.ListingStatusAvailable).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// markListingAvailable releases a pending listing back to the pool. A no-op
// when the listing already settled.
func (svc *BookhubService) markListingAvailable(ctx context.Context, tx bun.IDB, listingId int64) error {
	_, err := tx.NewUpdate().
		Model((*models.Listing)(nil)).
		Set("status = ?", common.ListingStatusAvailable).
		Where("id = ? AND status = ?", listingId, common.ListingStatusPending).
		Exec(ctx)
	return err
}

func (svc *BookhubService) markListingSettled(ctx context.Context, tx bun.IDB, listingId int64, outcome string) error {
	_, err := tx.NewUpdate().
		Model((*models.Listing)(nil)).
		Set("status = ?", outcome).
		Where("id = ?", listingId).
		Exec(ctx)
	return err
}

func (svc *BookhubService) addRequester(ctx context.Context, tx bun.IDB, listingId, userId int64) error {
	request := &models.ListingRequest{ListingID: listingId, UserID: userId}
	_, err := tx.NewInsert().Model(request).Exec(ctx)
	return err
}

func (svc *BookhubService) removeRequester(ctx context.Context, tx bun.IDB, listingId, userId int64) error {
	_, err := tx.NewDelete().
		Model((*models.ListingRequest)(nil)).
		Where("listing_id = ? AND user_id = ?", listingId, userId).
		Exec(ctx)
	return err
}

func (svc *BookhubService) hasRequested(ctx context.Context, listingId, userId int64) (bool, error) {
	count, err := svc.DB.NewSelect().
		Model((*models.ListingRequest)(nil)).
		Where("listing_id = ? AND user_id = ?", listingId, userId).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (svc *BookhubService) openRequestCount(ctx context.Context, tx bun.IDB, listingId int64) (int, error) {
	return tx.NewSelect().
		Model((*models.ListingRequest)(nil)).
		Where("listing_id = ?", listingId).
		Count(ctx)
}
