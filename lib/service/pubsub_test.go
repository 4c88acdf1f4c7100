package service_test

import (
	"testing"
	"time"

	"github.com/bookhub/bookhub.go/common"
	"github.com/bookhub/bookhub.go/db/models"
	"github.com/bookhub/bookhub.go/lib/service"
	"github.com/stretchr/testify/assert"
)

func TestPubsubDelivery(t *testing.T) {
	ps := service.NewPubsub()
	ch := make(chan models.Notification, 1)
	subId := ps.Subscribe(common.NotificationTypeBookRequest, ch)

	ps.Publish(common.NotificationTypeBookRequest, models.Notification{RecipientID: 7})
	select {
	case notification := <-ch:
		assert.Equal(t, int64(7), notification.RecipientID)
	case <-time.After(time.Second):
		t.Fatal("notification was not delivered")
	}

	ps.Unsubscribe(subId, common.NotificationTypeBookRequest)
	_, open := <-ch
	assert.False(t, open)
}

func TestPubsubCloseReleasesPublisher(t *testing.T) {
	ps := service.NewPubsub()
	// unbuffered channel that nobody reads, as when the subscriber
	// goroutine has already exited during shutdown
	ps.Subscribe(common.NotificationTypeBookRequest, make(chan models.Notification))

	published := make(chan struct{})
	go func() {
		ps.Publish(common.NotificationTypeBookRequest, models.Notification{})
		close(published)
	}()

	ps.Close()
	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("publish did not return after close")
	}

	// closing twice is safe, and later publishes are no-ops
	ps.Close()
	ps.Publish(common.NotificationTypeBookRequest, models.Notification{})
}
