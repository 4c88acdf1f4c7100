package service_test

import (
	"context"
	"testing"

	"github.com/bookhub/bookhub.go/common"
	"github.com/bookhub/bookhub.go/db/models"
	"github.com/bookhub/bookhub.go/lib/responses"
	"github.com/bookhub/bookhub.go/lib/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type TransactionsTestSuite struct {
	suite.Suite
	svc *service.BookhubService
}

func (suite *TransactionsTestSuite) SetupSuite() {
	svc, err := bookhubTestServiceInit()
	if err != nil {
		suite.T().Fatalf("Error initializing test service: %v", err)
	}
	suite.svc = svc
}

func (suite *TransactionsTestSuite) TearDownSuite() {
	suite.svc.DB.Close()
}

func (suite *TransactionsTestSuite) creditsOf(userId int64) int64 {
	user, err := suite.svc.FindUser(context.Background(), userId)
	require.NoError(suite.T(), err)
	return user.Credits
}

func (suite *TransactionsTestSuite) listingStatus(listingId int64) string {
	listing, err := suite.svc.FindListing(context.Background(), listingId)
	require.NoError(suite.T(), err)
	return listing.Status
}

func (suite *TransactionsTestSuite) TestRequestDonateListingReservesCredit() {
	ctx := context.Background()
	owner, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	requester, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	listing, err := createTestListing(suite.svc, owner.ID, common.ListingTypeDonate)
	require.NoError(suite.T(), err)

	result, errResp := suite.svc.RequestBook(ctx, requester.ID, listing.ID)
	require.Nil(suite.T(), errResp)
	assert.Equal(suite.T(), common.TransactionTypeCredit, result.TransactionType)
	assert.Equal(suite.T(), int64(common.StartingCredits-1), result.RemainingCredits)
	assert.Equal(suite.T(), common.TransactionStatusPending, result.Transaction.Status)

	// the credit is reserved immediately, not at completion
	assert.Equal(suite.T(), int64(common.StartingCredits-1), suite.creditsOf(requester.ID))
	assert.Equal(suite.T(), common.ListingStatusPending, suite.listingStatus(listing.ID))
}

func (suite *TransactionsTestSuite) TestRequestSellListingKeepsCredits() {
	ctx := context.Background()
	owner, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	requester, err := createTestUser(suite.svc, 0)
	require.NoError(suite.T(), err)
	listing, err := createTestListing(suite.svc, owner.ID, common.ListingTypeSell)
	require.NoError(suite.T(), err)

	// a purchase request needs no credits at all
	result, errResp := suite.svc.RequestBook(ctx, requester.ID, listing.ID)
	require.Nil(suite.T(), errResp)
	assert.Equal(suite.T(), common.TransactionTypePurchase, result.TransactionType)
	assert.Equal(suite.T(), int64(0), result.RemainingCredits)
	assert.Equal(suite.T(), listing.Price, result.Transaction.Amount)
	assert.Equal(suite.T(), int64(0), suite.creditsOf(requester.ID))
}

func (suite *TransactionsTestSuite) TestRequestOwnListing() {
	ctx := context.Background()
	owner, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	listing, err := createTestListing(suite.svc, owner.ID, common.ListingTypeDonate)
	require.NoError(suite.T(), err)

	_, errResp := suite.svc.RequestBook(ctx, owner.ID, listing.ID)
	assert.Equal(suite.T(), &responses.OwnListingError, errResp)
	assert.Equal(suite.T(), common.ListingStatusAvailable, suite.listingStatus(listing.ID))
}

func (suite *TransactionsTestSuite) TestRequestMissingListing() {
	_, errResp := suite.svc.RequestBook(context.Background(), 1, 999999)
	assert.Equal(suite.T(), &responses.BookNotFoundError, errResp)
}

func (suite *TransactionsTestSuite) TestSecondRequesterIsRejected() {
	ctx := context.Background()
	owner, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	alice, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	bob, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	listing, err := createTestListing(suite.svc, owner.ID, common.ListingTypeDonate)
	require.NoError(suite.T(), err)

	_, errResp := suite.svc.RequestBook(ctx, alice.ID, listing.ID)
	require.Nil(suite.T(), errResp)

	// the listing is pending now, so the status gate refuses bob
	_, errResp = suite.svc.RequestBook(ctx, bob.ID, listing.ID)
	assert.Equal(suite.T(), &responses.BookNotAvailableError, errResp)
	assert.Equal(suite.T(), int64(common.StartingCredits), suite.creditsOf(bob.ID))
}

func (suite *TransactionsTestSuite) TestRequestWithoutCredits() {
	ctx := context.Background()
	owner, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	requester, err := createTestUser(suite.svc, 0)
	require.NoError(suite.T(), err)
	listing, err := createTestListing(suite.svc, owner.ID, common.ListingTypeDonate)
	require.NoError(suite.T(), err)

	_, errResp := suite.svc.RequestBook(ctx, requester.ID, listing.ID)
	assert.Equal(suite.T(), &responses.NotEnoughCreditsError, errResp)

	// a failed request leaves no trace
	assert.Equal(suite.T(), common.ListingStatusAvailable, suite.listingStatus(listing.ID))
	count, err := suite.svc.DB.NewSelect().
		Model((*models.Transaction)(nil)).
		Where("listing_id = ?", listing.ID).
		Count(ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, count)
}

func (suite *TransactionsTestSuite) TestCompleteCreditTransaction() {
	ctx := context.Background()
	owner, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	requester, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	listing, err := createTestListing(suite.svc, owner.ID, common.ListingTypeDonate)
	require.NoError(suite.T(), err)

	requested, errResp := suite.svc.RequestBook(ctx, requester.ID, listing.ID)
	require.Nil(suite.T(), errResp)

	result, errResp := suite.svc.CompleteTransaction(ctx, owner.ID, requested.Transaction.ID)
	require.Nil(suite.T(), errResp)
	assert.Equal(suite.T(), "Book successfully exchanged", result.Message)
	assert.Equal(suite.T(), int64(common.StartingCredits+1), result.UpdatedCredits)

	// the reserved credit moved from the requester to the owner
	assert.Equal(suite.T(), int64(common.StartingCredits-1), suite.creditsOf(requester.ID))
	assert.Equal(suite.T(), int64(common.StartingCredits+1), suite.creditsOf(owner.ID))
	assert.Equal(suite.T(), common.ListingStatusDonated, suite.listingStatus(listing.ID))

	ownerAfter, err := suite.svc.FindUser(ctx, owner.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), ownerAfter.BooksDonated)
	requesterAfter, err := suite.svc.FindUser(ctx, requester.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), requesterAfter.BooksReceived)

	transaction, err := suite.svc.FindTransaction(ctx, requested.Transaction.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), common.TransactionStatusCompleted, transaction.Status)
	assert.False(suite.T(), transaction.SettledAt.IsZero())
}

func (suite *TransactionsTestSuite) TestCompletePurchaseTransaction() {
	ctx := context.Background()
	owner, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	requester, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	listing, err := createTestListing(suite.svc, owner.ID, common.ListingTypeSell)
	require.NoError(suite.T(), err)

	requested, errResp := suite.svc.RequestBook(ctx, requester.ID, listing.ID)
	require.Nil(suite.T(), errResp)

	result, errResp := suite.svc.CompleteTransaction(ctx, owner.ID, requested.Transaction.ID)
	require.Nil(suite.T(), errResp)
	assert.Equal(suite.T(), "Book successfully sold", result.Message)

	// sales settle in cash on delivery, the credit ledger never moves
	assert.Equal(suite.T(), int64(common.StartingCredits), suite.creditsOf(owner.ID))
	assert.Equal(suite.T(), int64(common.StartingCredits), suite.creditsOf(requester.ID))
	assert.Equal(suite.T(), common.ListingStatusSold, suite.listingStatus(listing.ID))

	ownerAfter, err := suite.svc.FindUser(ctx, owner.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), ownerAfter.BooksDonated)
}

func (suite *TransactionsTestSuite) TestCompleteByNonOwner() {
	ctx := context.Background()
	owner, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	requester, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	intruder, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	listing, err := createTestListing(suite.svc, owner.ID, common.ListingTypeDonate)
	require.NoError(suite.T(), err)

	requested, errResp := suite.svc.RequestBook(ctx, requester.ID, listing.ID)
	require.Nil(suite.T(), errResp)

	_, errResp = suite.svc.CompleteTransaction(ctx, intruder.ID, requested.Transaction.ID)
	assert.Equal(suite.T(), &responses.NotAuthorizedError, errResp)
	_, errResp = suite.svc.CompleteTransaction(ctx, requester.ID, requested.Transaction.ID)
	assert.Equal(suite.T(), &responses.NotAuthorizedError, errResp)
}

func (suite *TransactionsTestSuite) TestCompleteTwice() {
	ctx := context.Background()
	owner, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	requester, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	listing, err := createTestListing(suite.svc, owner.ID, common.ListingTypeDonate)
	require.NoError(suite.T(), err)

	requested, errResp := suite.svc.RequestBook(ctx, requester.ID, listing.ID)
	require.Nil(suite.T(), errResp)

	_, errResp = suite.svc.CompleteTransaction(ctx, owner.ID, requested.Transaction.ID)
	require.Nil(suite.T(), errResp)
	_, errResp = suite.svc.CompleteTransaction(ctx, owner.ID, requested.Transaction.ID)
	assert.Equal(suite.T(), &responses.AlreadyProcessedError, errResp)

	// a second completion must not double-pay the owner
	assert.Equal(suite.T(), int64(common.StartingCredits+1), suite.creditsOf(owner.ID))
}

func (suite *TransactionsTestSuite) TestRejectRefundsCreditAndReleasesListing() {
	ctx := context.Background()
	owner, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	requester, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	listing, err := createTestListing(suite.svc, owner.ID, common.ListingTypeDonate)
	require.NoError(suite.T(), err)

	requested, errResp := suite.svc.RequestBook(ctx, requester.ID, listing.ID)
	require.Nil(suite.T(), errResp)
	assert.Equal(suite.T(), int64(common.StartingCredits-1), suite.creditsOf(requester.ID))

	result, errResp := suite.svc.RejectRequest(ctx, owner.ID, requested.Transaction.ID)
	require.Nil(suite.T(), errResp)
	assert.Equal(suite.T(), "Request rejected successfully", result.Message)

	// request then reject is a full round trip
	assert.Equal(suite.T(), int64(common.StartingCredits), suite.creditsOf(requester.ID))
	assert.Equal(suite.T(), int64(common.StartingCredits), suite.creditsOf(owner.ID))
	assert.Equal(suite.T(), common.ListingStatusAvailable, suite.listingStatus(listing.ID))

	// the same requester may try again after a rejection
	again, errResp := suite.svc.RequestBook(ctx, requester.ID, listing.ID)
	require.Nil(suite.T(), errResp)
	assert.NotEqual(suite.T(), requested.Transaction.ID, again.Transaction.ID)
}

func (suite *TransactionsTestSuite) TestRejectPurchaseRefundsNothing() {
	ctx := context.Background()
	owner, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	requester, err := createTestUser(suite.svc, 0)
	require.NoError(suite.T(), err)
	listing, err := createTestListing(suite.svc, owner.ID, common.ListingTypeSell)
	require.NoError(suite.T(), err)

	requested, errResp := suite.svc.RequestBook(ctx, requester.ID, listing.ID)
	require.Nil(suite.T(), errResp)

	_, errResp = suite.svc.RejectRequest(ctx, owner.ID, requested.Transaction.ID)
	require.Nil(suite.T(), errResp)
	assert.Equal(suite.T(), int64(0), suite.creditsOf(requester.ID))
	assert.Equal(suite.T(), common.ListingStatusAvailable, suite.listingStatus(listing.ID))
}

func (suite *TransactionsTestSuite) TestRejectTwice() {
	ctx := context.Background()
	owner, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	requester, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	listing, err := createTestListing(suite.svc, owner.ID, common.ListingTypeDonate)
	require.NoError(suite.T(), err)

	requested, errResp := suite.svc.RequestBook(ctx, requester.ID, listing.ID)
	require.Nil(suite.T(), errResp)

	_, errResp = suite.svc.RejectRequest(ctx, owner.ID, requested.Transaction.ID)
	require.Nil(suite.T(), errResp)
	_, errResp = suite.svc.RejectRequest(ctx, owner.ID, requested.Transaction.ID)
	assert.Equal(suite.T(), &responses.AlreadyProcessedError, errResp)

	// a second rejection must not refund twice
	assert.Equal(suite.T(), int64(common.StartingCredits), suite.creditsOf(requester.ID))
}

func (suite *TransactionsTestSuite) TestPendingRequests() {
	ctx := context.Background()
	owner, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	requester, err := createTestUser(suite.svc, common.StartingCredits)
	require.NoError(suite.T(), err)
	listing, err := createTestListing(suite.svc, owner.ID, common.ListingTypeDonate)
	require.NoError(suite.T(), err)

	pending, err := suite.svc.PendingRequestsFor(ctx, owner.ID)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), pending)

	requested, errResp := suite.svc.RequestBook(ctx, requester.ID, listing.ID)
	require.Nil(suite.T(), errResp)

	pending, err = suite.svc.PendingRequestsFor(ctx, owner.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), pending, 1)
	assert.Equal(suite.T(), requested.Transaction.ID, pending[0].ID)
	assert.Equal(suite.T(), requester.ID, pending[0].FromUser.ID)
	assert.Equal(suite.T(), listing.BookName, pending[0].Listing.BookName)

	// settled transactions drop out of the pending view
	_, errResp = suite.svc.CompleteTransaction(ctx, owner.ID, requested.Transaction.ID)
	require.Nil(suite.T(), errResp)
	pending, err = suite.svc.PendingRequestsFor(ctx, owner.ID)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), pending)

	history, err := suite.svc.TransactionsFor(ctx, requester.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), history, 1)
	assert.Equal(suite.T(), common.TransactionStatusCompleted, history[0].Status)
}

func TestTransactionsSuite(t *testing.T) {
	suite.Run(t, new(TransactionsTestSuite))
}
