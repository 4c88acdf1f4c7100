package rabbitmq

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/bookhub/bookhub.go/db/models"
	"github.com/getsentry/sentry-go"
	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/ziflex/lecho/v3"
)

// bufPool is a classic buffer pool pattern that allows more clever reuse of
// heap memory. Instead of allocating new memory every time we encode a
// notification we reuse buffers from this pool.
var bufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

const (
	contentTypeJSON = "application/json"
)

var errAMQPReconnecting = errors.New("amqp: trying to publish during reconnect")

type (
	// SubscribeToNotificationsFunc returns one channel per notification
	// type the settlement engine emits.
	SubscribeToNotificationsFunc = func() (requested chan models.Notification, settled chan models.Notification, err error)
	EncodeNotificationFunc       = func(ctx context.Context, w io.Writer, notification models.Notification) error
)

type Client interface {
	StartPublishNotifications(context.Context, SubscribeToNotificationsFunc, EncodeNotificationFunc) error
	// Close will close all connections to rabbitmq
	Close() error
}

type DefaultClient struct {
	amqpClient AMQPClient

	logger *lecho.Logger

	notificationExchange string
}

type ClientOption = func(client *DefaultClient)

func WithNotificationExchange(exchange string) ClientOption {
	return func(client *DefaultClient) {
		client.notificationExchange = exchange
	}
}

func WithLogger(logger *lecho.Logger) ClientOption {
	return func(client *DefaultClient) {
		client.logger = logger
	}
}

func NewClient(amqpClient AMQPClient, options ...ClientOption) (Client, error) {
	client := &DefaultClient{
		amqpClient: amqpClient,

		logger: lecho.New(
			os.Stdout,
			lecho.WithLevel(log.DEBUG),
			lecho.WithTimestamp(),
		),

		notificationExchange: "bookhub_notification",
	}

	for _, opt := range options {
		opt(client)
	}

	return client, nil
}

func (client *DefaultClient) Close() error { return client.amqpClient.Close() }

// StartPublishNotifications publishes every notification emitted by the
// settlement engine to the notification exchange. External consumers (mail
// delivery, the chat frontend's websocket fanout) bind their own queues.
func (client *DefaultClient) StartPublishNotifications(ctx context.Context, subscribeFunc SubscribeToNotificationsFunc, payloadFunc EncodeNotificationFunc) error {
	err := client.amqpClient.ExchangeDeclare(
		client.notificationExchange,
		// topic exchange so consumers can bind per notification type or
		// per recipient
		"topic",
		// Durable and Non-Auto-Deleted exchanges will survive server
		// restarts and remain declared when there are no remaining bindings.
		true,
		false,
		// Non-Internal exchanges accept direct publishing
		false,
		// Nowait: We set this to false as we want to wait for a server
		// response to check whether the exchange was created succesfully
		false,
		nil,
	)
	if err != nil {
		return err
	}

	client.logger.Info("Starting rabbitmq publisher")

	requested, settled, err := subscribeFunc()
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		case notification := <-requested:
			err = client.publishNotification(ctx, notification, payloadFunc)
			if err != nil {
				captureErr(client.logger, err)
			}
		case notification := <-settled:
			err = client.publishNotification(ctx, notification, payloadFunc)
			if err != nil {
				captureErr(client.logger, err)
			}
		}
	}
}

func (client *DefaultClient) publishNotification(ctx context.Context, notification models.Notification, payloadFunc EncodeNotificationFunc) error {
	payload := bufPool.Get().(*bytes.Buffer)
	defer func() {
		payload.Reset()
		bufPool.Put(payload)
	}()

	err := payloadFunc(ctx, payload, notification)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("notification.%s.%d", notification.Type, notification.RecipientID)

	err = client.amqpClient.PublishWithContext(ctx,
		client.notificationExchange,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType: contentTypeJSON,
			Body:        payload.Bytes(),
		},
	)
	if err != nil {
		captureErr(client.logger, err)
		return err
	}

	client.logger.Debugf("Successfully published notification %d to rabbitmq", notification.ID)

	return nil
}

func captureErr(logger *lecho.Logger, err error) {
	logger.Error(err)
	sentry.CaptureException(err)
}
