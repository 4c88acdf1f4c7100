package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/bookhub/bookhub.go/common"
	"github.com/bookhub/bookhub.go/db/models"
)

// StartWebhookSubscription posts every notification to the configured
// webhook url, best effort. Runs until the context is cancelled.
func (svc *BookhubService) StartWebhookSubscription(ctx context.Context, url string) {

	svc.Logger.Infof("Starting webhook subscription with webhook url %s", url)
	requested := make(chan models.Notification)
	settled := make(chan models.Notification)
	svc.NotificationPubSub.Subscribe(common.NotificationTypeBookRequest, requested)
	svc.NotificationPubSub.Subscribe(common.NotificationTypeTransactionComplete, settled)
	for {
		select {
		case <-ctx.Done():
			return
		case notification := <-requested:
			svc.postToWebhook(notification, url)
		case notification := <-settled:
			svc.postToWebhook(notification, url)
		}
	}
}

func (svc *BookhubService) postToWebhook(notification models.Notification, url string) {

	payload := new(bytes.Buffer)
	err := json.NewEncoder(payload).Encode(notification)
	if err != nil {
		svc.Logger.Error(err)
		return
	}

	resp, err := http.Post(url, "application/json", payload)
	if err != nil {
		svc.Logger.Error(err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			svc.Logger.Error(err)
		}
		svc.Logger.Errorf("Webhook status code was %d, body: %s", resp.StatusCode, msg)
	}
}
