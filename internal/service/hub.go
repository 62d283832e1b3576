package service

import (
	"context"
	"sync"
	"time"

	"adminconsole/internal/buffer"
	"adminconsole/internal/metrics"
	v1 "adminconsole/pkg/api/v1"
	"adminconsole/pkg/logger"

	"go.uber.org/zap"
)

type Subscriber struct {
	Send chan v1.SessionEvent
}

// Hub fans session events out to every open event stream and keeps the
// most recent ones so a reconnecting tab can catch up.
type Hub struct {
	clients    map[*Subscriber]bool
	broadcast  chan v1.SessionEvent
	register   chan *Subscriber
	unregister chan *Subscriber
	done       chan struct{}

	observer  metrics.HubObserver
	heartbeat time.Duration
	history   *buffer.RevisionBuffer[v1.SessionEvent]

	mu       sync.Mutex
	revision int64
}

func NewHub(observer metrics.HubObserver, heartbeat time.Duration, historySize int) *Hub {
	if observer == nil {
		observer = metrics.Nop{}
	}
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &Hub{
		clients:    make(map[*Subscriber]bool),
		broadcast:  make(chan v1.SessionEvent, 256),
		register:   make(chan *Subscriber),
		unregister: make(chan *Subscriber),
		done:       make(chan struct{}),
		observer:   observer,
		heartbeat:  heartbeat,
		history:    buffer.NewRevisionBuffer[v1.SessionEvent](historySize),
	}
}

// Publish stamps an event with the next revision and queues it for every
// subscriber. It never blocks; events are dropped if the hub falls behind.
func (h *Hub) Publish(eventType, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.revision++
	e := v1.SessionEvent{
		Revision: h.revision,
		Type:     eventType,
		Reason:   reason,
		At:       time.Now().UTC(),
	}
	h.history.Add(e)

	select {
	case h.broadcast <- e:
	default:
		logger.Warn("session event dropped, hub is behind", zap.Int64("revision", e.Revision))
	}
}

// Since returns the events after lastRev, or ok=false if some were lost.
func (h *Hub) Since(lastRev int64) ([]v1.SessionEvent, bool) {
	return h.history.GetSince(lastRev)
}

func (h *Hub) Revision() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.revision
}

// Subscribe registers a new stream. It returns nil once the hub has stopped.
func (h *Hub) Subscribe(ctx context.Context) *Subscriber {
	sub := &Subscriber{Send: make(chan v1.SessionEvent, 64)}
	select {
	case h.register <- sub:
		return sub
	case <-h.done:
		return nil
	case <-ctx.Done():
		return nil
	}
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	select {
	case h.unregister <- sub:
	case <-h.done:
	}
}

// Run serves registrations and broadcasts until ctx ends, then closes
// every subscriber.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for sub := range h.clients {
				h.drop(sub)
			}
			logger.Info("session event hub stopped")
			return
		case sub := <-h.register:
			h.clients[sub] = true
			h.observer.IncOnline()
		case sub := <-h.unregister:
			if h.clients[sub] {
				h.drop(sub)
			}
		case e := <-h.broadcast:
			h.fanOut(e)
		case <-ticker.C:
			h.fanOut(v1.SessionEvent{Type: v1.EventPing, At: time.Now().UTC()})
		}
	}
}

func (h *Hub) fanOut(e v1.SessionEvent) {
	for sub := range h.clients {
		select {
		case sub.Send <- e:
			if e.Type != v1.EventPing {
				h.observer.RecordPush()
			}
		default:
			logger.Warn("slow event subscriber disconnected")
			h.drop(sub)
		}
	}
}

func (h *Hub) drop(sub *Subscriber) {
	delete(h.clients, sub)
	close(sub.Send)
	h.observer.DecOnline()
}
