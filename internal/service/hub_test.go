package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	v1 "adminconsole/pkg/api/v1"
)

type MockObserver struct {
	online atomic.Int32
	pushes atomic.Int32
}

func (m *MockObserver) IncOnline()  { m.online.Add(1) }
func (m *MockObserver) DecOnline()  { m.online.Add(-1) }
func (m *MockObserver) RecordPush() { m.pushes.Add(1) }

func TestHub_PublishReachesSubscribers(t *testing.T) {
	obs := &MockObserver{}
	hub := NewHub(obs, time.Hour, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	a := hub.Subscribe(ctx)
	b := hub.Subscribe(ctx)
	if a == nil || b == nil {
		t.Fatal("subscribe failed on a running hub")
	}

	hub.Publish(v1.EventExpired, "gone")

	for _, sub := range []*Subscriber{a, b} {
		select {
		case e := <-sub.Send:
			if e.Type != v1.EventExpired || e.Reason != "gone" || e.Revision != 1 {
				t.Errorf("event = %+v", e)
			}
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}

	hub.Unsubscribe(a)
	if _, ok := <-a.Send; ok {
		t.Error("unsubscribed channel should be closed")
	}
}

func TestHub_ReplayAfterReconnect(t *testing.T) {
	hub := NewHub(nil, time.Hour, 2)
	hub.Publish(v1.EventLogin, "")
	hub.Publish(v1.EventRefresh, "")
	hub.Publish(v1.EventExpired, "x")

	if hub.Revision() != 3 {
		t.Errorf("Revision() = %d, want 3", hub.Revision())
	}
	events, ok := hub.Since(1)
	if !ok || len(events) != 2 || events[0].Type != v1.EventRefresh {
		t.Errorf("Since(1) = %+v, ok=%v", events, ok)
	}
	if _, ok := hub.Since(0); ok {
		t.Error("Since(0) should need a resync once revision 1 is gone")
	}
}

func TestHub_StopClosesSubscribers(t *testing.T) {
	obs := &MockObserver{}
	hub := NewHub(obs, time.Hour, 8)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	sub := hub.Subscribe(context.Background())
	cancel()
	<-stopped

	if _, ok := <-sub.Send; ok {
		t.Error("subscriber should be closed when the hub stops")
	}
	if hub.Subscribe(context.Background()) != nil {
		t.Error("subscribe after stop should return nil")
	}
	hub.Unsubscribe(sub)
	if obs.online.Load() != 0 {
		t.Errorf("online = %d, want 0", obs.online.Load())
	}
}

func TestHub_Concurrency(t *testing.T) {
	hub := NewHub(&MockObserver{}, 5*time.Millisecond, 512)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	const clientCount = 30
	subs := make([]*Subscriber, clientCount)
	var wg sync.WaitGroup
	for i := range subs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			subs[i] = hub.Subscribe(ctx)
		}(i)
	}
	wg.Wait()

	var readers sync.WaitGroup
	for _, sub := range subs {
		readers.Add(1)
		go func(sub *Subscriber) {
			defer readers.Done()
			for range sub.Send {
			}
		}(sub)
	}

	var publishers sync.WaitGroup
	for p := 0; p < 4; p++ {
		publishers.Add(1)
		go func() {
			defer publishers.Done()
			for i := 0; i < 50; i++ {
				hub.Publish(v1.EventRefresh, "")
			}
		}()
	}
	for i := 0; i < clientCount/2; i++ {
		hub.Unsubscribe(subs[i])
	}
	publishers.Wait()

	if hub.Revision() != 200 {
		t.Errorf("Revision() = %d, want 200", hub.Revision())
	}
	cancel()
	readers.Wait()
}
