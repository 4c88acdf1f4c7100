package service

import (
	"sync"

	"github.com/bookhub/bookhub.go/db/models"
	"github.com/labstack/gommon/random"
)

type Pubsub struct {
	mu        sync.RWMutex
	subs      map[string]map[string]chan models.Notification
	done      chan struct{}
	closeOnce sync.Once
}

func NewPubsub() *Pubsub {
	ps := &Pubsub{}
	ps.subs = make(map[string]map[string]chan models.Notification)
	ps.done = make(chan struct{})
	return ps
}

func (ps *Pubsub) Subscribe(topic string, ch chan models.Notification) (subId string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.subs[topic] == nil {
		ps.subs[topic] = make(map[string]chan models.Notification)
	}
	subId = random.String(20, alphaNumBytes)
	ps.subs[topic][subId] = ch
	return subId
}

func (ps *Pubsub) Unsubscribe(id string, topic string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.subs[topic] == nil {
		return
	}
	if ps.subs[topic][id] == nil {
		return
	}
	close(ps.subs[topic][id])
	delete(ps.subs[topic], id)
}

// Close releases publishers blocked on subscriber channels whose consumers
// have already stopped. Publish becomes a no-op afterwards.
func (ps *Pubsub) Close() {
	ps.closeOnce.Do(func() {
		close(ps.done)
	})
}

func (ps *Pubsub) Publish(topic string, msg models.Notification) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	if ps.subs[topic] == nil {
		return
	}

	for _, ch := range ps.subs[topic] {
		select {
		case ch <- msg:
		case <-ps.done:
			return
		}
	}
}
