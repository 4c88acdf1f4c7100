package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/bookhub/bookhub.go/common"
	"github.com/bookhub/bookhub.go/db/models"
	"github.com/bookhub/bookhub.go/lib/responses"
)

// CreateNotification persists a notification and fans it out to the
// in-process subscribers (webhook poster, rabbitmq publisher).
func (svc *BookhubService) CreateNotification(ctx context.Context, notification *models.Notification) error {
	_, err := svc.DB.NewInsert().Model(notification).Exec(ctx)
	if err != nil {
		return err
	}
	svc.NotificationPubSub.Publish(notification.Type, *notification)
	return nil
}

// notifyBookRequested runs after the request transaction committed. A
// failure here must not fail the settled request, so it is only logged.
func (svc *BookhubService) notifyBookRequested(ctx context.Context, listing *models.Listing, requester *models.User, transaction *models.Transaction) {
	transactionTypeText := "purchase"
	if transaction.Type == common.TransactionTypeCredit {
		transactionTypeText = "exchange (for 1 credit)"
	}
	notification := &models.Notification{
		RecipientID:   listing.UserID,
		SenderID:      requester.ID,
		Type:          common.NotificationTypeBookRequest,
		Message:       fmt.Sprintf("%s has requested to %s your book %q", requester.FullName(), transactionTypeText, listing.BookName),
		ListingID:     listing.ID,
		TransactionID: transaction.ID,
	}
	if err := svc.CreateNotification(ctx, notification); err != nil {
		svc.Logger.Errorf("Failed to create request notification: transaction_id:%v error: %v", transaction.ID, err)
	}
}

// notifyTransactionSettled runs after a completion or rejection committed.
func (svc *BookhubService) notifyTransactionSettled(ctx context.Context, transaction *models.Transaction, outcome string) {
	transactionTypeText := "purchase"
	if transaction.Type == common.TransactionTypeCredit {
		transactionTypeText = "exchange request"
	}

	var message string
	if outcome == common.TransactionStatusCompleted {
		message = fmt.Sprintf("%s has completed your %s for %q", transaction.ToUser.FullName(), transactionTypeText, transaction.Listing.BookName)
	} else if transaction.Type == common.TransactionTypeCredit {
		message = fmt.Sprintf("%s has declined your exchange request for %q. Your credit has been returned.", transaction.ToUser.FullName(), transaction.Listing.BookName)
	} else {
		message = fmt.Sprintf("%s has declined your purchase request for %q.", transaction.ToUser.FullName(), transaction.Listing.BookName)
	}

	notification := &models.Notification{
		RecipientID:   transaction.FromUserID,
		SenderID:      transaction.ToUserID,
		Type:          common.NotificationTypeTransactionComplete,
		Message:       message,
		ListingID:     transaction.ListingID,
		TransactionID: transaction.ID,
	}
	if err := svc.CreateNotification(ctx, notification); err != nil {
		svc.Logger.Errorf("Failed to create settlement notification: transaction_id:%v error: %v", transaction.ID, err)
	}
}

func (svc *BookhubService) NotificationsFor(ctx context.Context, userId int64) ([]models.Notification, error) {
	notifications := []models.Notification{}
	err := svc.DB.NewSelect().
		Model(&notifications).
		Relation("Sender").
		Relation("Listing").
		Where("notification.recipient_id = ?", userId).
		OrderExpr("notification.created_at DESC").
		Limit(100).
		Scan(ctx)
	return notifications, err
}

func (svc *BookhubService) MarkNotificationRead(ctx context.Context, userId, notificationId int64) *responses.ErrorResponse {
	var notification models.Notification
	err := svc.DB.NewSelect().
		Model(&notification).
		Where("id = ?", notificationId).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &responses.NotificationNotFoundError
		}
		svc.Logger.Errorf("Failed to load notification: notification_id:%v error: %v", notificationId, err)
		return &responses.GeneralServerError
	}
	if notification.RecipientID != userId {
		return &responses.NotAuthorizedError
	}
	_, err = svc.DB.NewUpdate().
		Model((*models.Notification)(nil)).
		Set("is_read = ?", true).
		Where("id = ?", notificationId).
		Exec(ctx)
	if err != nil {
		svc.Logger.Errorf("Failed to mark notification read: notification_id:%v error: %v", notificationId, err)
		return &responses.GeneralServerError
	}
	return nil
}

func (svc *BookhubService) MarkAllNotificationsRead(ctx context.Context, userId int64) error {
	_, err := svc.DB.NewUpdate().
		Model((*models.Notification)(nil)).
		Set("is_read = ?", true).
		Where("recipient_id = ? AND is_read = ?", userId, false).
		Exec(ctx)
	return err
}

// SubscribeNotifications is the subscription func handed to the rabbitmq
// publisher: one channel per notification type the settlement engine emits.
func (svc *BookhubService) SubscribeNotifications() (requested chan models.Notification, settled chan models.Notification, err error) {
	requested = make(chan models.Notification)
	settled = make(chan models.Notification)
	svc.NotificationPubSub.Subscribe(common.NotificationTypeBookRequest, requested)
	svc.NotificationPubSub.Subscribe(common.NotificationTypeTransactionComplete, settled)
	return requested, settled, nil
}

type convertedNotification struct {
	models.Notification
	RecipientLogin string `json:"recipient_login"`
}

// EncodeNotificationWithRecipientLogin adds the recipient's login to the
// published payload so external consumers don't need a user lookup.
func (svc *BookhubService) EncodeNotificationWithRecipientLogin(ctx context.Context, w io.Writer, notification models.Notification) error {
	user, err := svc.FindUser(ctx, notification.RecipientID)
	if err != nil {
		return err
	}
	return json.NewEncoder(w).Encode(convertedNotification{
		Notification:   notification,
		RecipientLogin: user.Login,
	})
}
