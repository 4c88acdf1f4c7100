package common

const (
	ListingTypeDonate = "donate"
	ListingTypeSell   = "sell"

	ListingStatusAvailable = "available"
	ListingStatusPending   = "pending"
	ListingStatusDonated   = "donated"
	ListingStatusSold      = "sold"

	TransactionTypeCredit   = "credit"
	TransactionTypePurchase = "purchase"

	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusRejected  = "rejected"

	NotificationTypeBookRequest         = "book_request"
	NotificationTypeTransactionComplete = "transaction_complete"
	NotificationTypeSystem              = "system"

	// Every new account starts with 2 credits so it can request a book
	// before having donated one.
	StartingCredits = 2
)
