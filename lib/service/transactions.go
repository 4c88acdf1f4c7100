package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bookhub/bookhub.go/common"
	"github.com/bookhub/bookhub.go/db/models"
	"github.com/bookhub/bookhub.go/lib/responses"
	"github.com/uptrace/bun"
)

var (
	errListingGone     = errors.New("listing no longer available")
	errAlreadySettled  = errors.New("transaction already settled")
	errDuplicateCredit = errors.New("credit debit rejected")
)

type RequestBookResult struct {
	Transaction      *models.Transaction
	RemainingCredits int64
	TransactionType  string
}

type SettlementResult struct {
	Message        string
	UpdatedCredits int64
}

// RequestBook opens a pending transaction for a listing on behalf of the
// requester. All writes (listing status, requester set, credit reservation,
// transaction record) commit atomically; the owner notification is emitted
// after commit.
func (svc *BookhubService) RequestBook(ctx context.Context, requesterId, listingId int64) (*RequestBookResult, *responses.ErrorResponse) {
	listing, err := svc.FindListing(ctx, listingId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &responses.BookNotFoundError
		}
		svc.Logger.Errorf("Failed to load listing: listing_id:%v error: %v", listingId, err)
		return nil, &responses.GeneralServerError
	}
	if listing.Status != common.ListingStatusAvailable {
		return nil, &responses.BookNotAvailableError
	}
	requested, err := svc.hasRequested(ctx, listingId, requesterId)
	if err != nil {
		svc.Logger.Errorf("Failed to check requesters: listing_id:%v error: %v", listingId, err)
		return nil, &responses.GeneralServerError
	}
	if requested {
		return nil, &responses.AlreadyRequestedError
	}
	if listing.UserID == requesterId {
		return nil, &responses.OwnListingError
	}

	transactionType := common.TransactionTypePurchase
	if listing.ListingType == common.ListingTypeDonate {
		transactionType = common.TransactionTypeCredit
	}

	requester, err := svc.FindUser(ctx, requesterId)
	if err != nil {
		svc.Logger.Errorf("Failed to load requester: user_id:%v error: %v", requesterId, err)
		return nil, &responses.GeneralServerError
	}
	if transactionType == common.TransactionTypeCredit && requester.Credits < 1 {
		return nil, &responses.NotEnoughCreditsError
	}

	transaction := &models.Transaction{
		ListingID:  listingId,
		FromUserID: requesterId,
		ToUserID:   listing.UserID,
		Type:       transactionType,
		Amount:     listing.Price,
		Status:     common.TransactionStatusPending,
	}

	var errResp *responses.ErrorResponse
	err = svc.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		ok, err := svc.markListingPending(ctx, tx, listingId)
		if err != nil {
			return err
		}
		if !ok {
			// another requester won the status gate between our read and
			// this conditional update
			errResp = &responses.BookNotAvailableError
			return errListingGone
		}
		if err := svc.addRequester(ctx, tx, listingId, requesterId); err != nil {
			return err
		}
		// the credit is reserved now and either refunded on rejection or
		// converted into the owner's balance on completion
		if transactionType == common.TransactionTypeCredit {
			if err := svc.AdjustCredits(ctx, tx, requesterId, -1); err != nil {
				if errors.Is(err, ErrNotEnoughCredits) {
					errResp = &responses.NotEnoughCreditsError
					return errDuplicateCredit
				}
				return err
			}
		}
		if _, err := tx.NewInsert().Model(transaction).Exec(ctx); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errResp != nil {
			return nil, errResp
		}
		svc.Logger.Errorf("Failed to request book: listing_id:%v user_id:%v error: %v", listingId, requesterId, err)
		return nil, &responses.GeneralServerError
	}

	remainingCredits := requester.Credits
	if transactionType == common.TransactionTypeCredit {
		remainingCredits--
	}

	svc.notifyBookRequested(ctx, listing, requester, transaction)

	return &RequestBookResult{
		Transaction:      transaction,
		RemainingCredits: remainingCredits,
		TransactionType:  transactionType,
	}, nil
}

// CompleteTransaction settles a pending transaction in the requester's
// favor. Only the listing owner may complete, and only once.
func (svc *BookhubService) CompleteTransaction(ctx context.Context, userId, transactionId int64) (*SettlementResult, *responses.ErrorResponse) {
	transaction, errResp := svc.findSettleableTransaction(ctx, userId, transactionId)
	if errResp != nil {
		return nil, errResp
	}

	newListingStatus := common.ListingStatusSold
	message := "Book successfully sold"
	if transaction.Type == common.TransactionTypeCredit {
		newListingStatus = common.ListingStatusDonated
		message = "Book successfully exchanged"
	}

	err := svc.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		settled, err := svc.settleTransaction(ctx, tx, transactionId, common.TransactionStatusCompleted)
		if err != nil {
			return err
		}
		if !settled {
			errResp = &responses.AlreadyProcessedError
			return errAlreadySettled
		}
		if err := svc.IncrementReceived(ctx, tx, transaction.FromUserID); err != nil {
			return err
		}
		// booksDonated counts fulfilled listings of either type, so it is
		// incremented for purchases as well
		if err := svc.IncrementDonated(ctx, tx, transaction.ToUserID); err != nil {
			return err
		}
		if transaction.Type == common.TransactionTypeCredit {
			if err := svc.AdjustCredits(ctx, tx, transaction.ToUserID, 1); err != nil {
				return err
			}
		}
		return svc.markListingSettled(ctx, tx, transaction.ListingID, newListingStatus)
	})
	if err != nil {
		if errResp != nil {
			return nil, errResp
		}
		svc.Logger.Errorf("Failed to complete transaction: transaction_id:%v user_id:%v error: %v", transactionId, userId, err)
		return nil, &responses.GeneralServerError
	}

	updatedCredits := transaction.ToUser.Credits
	if transaction.Type == common.TransactionTypeCredit {
		updatedCredits++
	}

	svc.notifyTransactionSettled(ctx, transaction, common.TransactionStatusCompleted)

	return &SettlementResult{Message: message, UpdatedCredits: updatedCredits}, nil
}

// RejectRequest settles a pending transaction against the requester,
// refunding the reserved credit and releasing the listing.
func (svc *BookhubService) RejectRequest(ctx context.Context, userId, transactionId int64) (*SettlementResult, *responses.ErrorResponse) {
	transaction, errResp := svc.findSettleableTransaction(ctx, userId, transactionId)
	if errResp != nil {
		return nil, errResp
	}

	err := svc.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		settled, err := svc.settleTransaction(ctx, tx, transactionId, common.TransactionStatusRejected)
		if err != nil {
			return err
		}
		if !settled {
			errResp = &responses.AlreadyProcessedError
			return errAlreadySettled
		}
		if transaction.Type == common.TransactionTypeCredit {
			if err := svc.AdjustCredits(ctx, tx, transaction.FromUserID, 1); err != nil {
				return err
			}
		}
		if err := svc.removeRequester(ctx, tx, transaction.ListingID, transaction.FromUserID); err != nil {
			return err
		}
		remaining, err := svc.openRequestCount(ctx, tx, transaction.ListingID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			return svc.markListingAvailable(ctx, tx, transaction.ListingID)
		}
		return nil
	})
	if err != nil {
		if errResp != nil {
			return nil, errResp
		}
		svc.Logger.Errorf("Failed to reject transaction: transaction_id:%v user_id:%v error: %v", transactionId, userId, err)
		return nil, &responses.GeneralServerError
	}

	svc.notifyTransactionSettled(ctx, transaction, common.TransactionStatusRejected)

	return &SettlementResult{Message: "Request rejected successfully"}, nil
}

// PendingRequestsFor returns the open requests against the owner's
// listings, newest first, enriched with requester contact info and the
// listing summary.
func (svc *BookhubService) PendingRequestsFor(ctx context.Context, ownerId int64) ([]models.Transaction, error) {
	transactions := []models.Transaction{}
	err := svc.DB.NewSelect().
		Model(&transactions).
		Relation("FromUser").
		Relation("Listing").
		Relation("Listing.User").
		Where("tx.to_user_id = ? AND tx.status = ?", ownerId, common.TransactionStatusPending).
		OrderExpr("tx.created_at DESC").
		Scan(ctx)
	return transactions, err
}

// TransactionsFor returns the transactions the user participated in, on
// either side, newest first.
func (svc *BookhubService) TransactionsFor(ctx context.Context, userId int64) ([]models.Transaction, error) {
	transactions := []models.Transaction{}
	err := svc.DB.NewSelect().
		Model(&transactions).
		Relation("FromUser").
		Relation("ToUser").
		Relation("Listing").
		Where("tx.from_user_id = ? OR tx.to_user_id = ?", userId, userId).
		OrderExpr("tx.id DESC").
		Limit(100).
		Scan(ctx)
	return transactions, err
}

func (svc *BookhubService) FindTransaction(ctx context.Context, transactionId int64) (*models.Transaction, error) {
	var transaction models.Transaction

	err := svc.DB.NewSelect().
		Model(&transaction).
		Relation("FromUser").
		Relation("ToUser").
		Relation("Listing").
		Where("tx.id = ?", transactionId).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return &transaction, err
	}
	return &transaction, nil
}

func (svc *BookhubService) findSettleableTransaction(ctx context.Context, userId, transactionId int64) (*models.Transaction, *responses.ErrorResponse) {
	transaction, err := svc.FindTransaction(ctx, transactionId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &responses.TransactionNotFoundError
		}
		svc.Logger.Errorf("Failed to load transaction: transaction_id:%v error: %v", transactionId, err)
		return nil, &responses.GeneralServerError
	}
	if transaction.ToUserID != userId {
		return nil, &responses.NotAuthorizedError
	}
	if transaction.Status != common.TransactionStatusPending {
		return nil, &responses.AlreadyProcessedError
	}
	return transaction, nil
}

// settleTransaction flips the pending row into a terminal state. The status
// guard in the WHERE clause makes the transition exactly-once: a second
// settlement attempt affects zero rows.
func (svc *BookhubService) settleTransaction(ctx context.Context, tx bun.IDB, transactionId int64, outcome string) (bool, error) {
	res, err := tx.NewUpdate().
		Model((*models.Transaction)(nil)).
		Set("status = ?", outcome).
		Set("settled_at = ?", time.Now()).
		Where("id = ? AND status = ?", transactionId, common.TransactionStatusPending).
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
