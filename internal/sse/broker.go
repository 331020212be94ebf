// Package sse implements a Server-Sent Events broker pushing widget state to
// the webview UI.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type widgetEventReq struct {
	kind string
	data interface{}
}

// Broker manages SSE client connections and broadcasts widget events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable
// state (clients, readiness, state throttle timestamp). Public methods
// communicate with this loop through channels, so no mutexes are required.
//
// "state.changed" events are throttled because the transparency slider fires
// continuously; the last suppressed state is flushed when the window reopens.
// "bridge.ready", "note.saved", and "note.reloaded" are always delivered. New subscribers receive the one-time "bridge.ready" event as
// soon as the service has marked itself ready.
type Broker struct {
	stateMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	widgetEventCh chan widgetEventReq
	readyCh       chan interface{}
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker with the given state-event throttle
// interval.
func NewBroker(stateThrottle time.Duration) *Broker {
	if stateThrottle <= 0 {
		stateThrottle = 100 * time.Millisecond
	}

	b := &Broker{
		stateMin:      stateThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		widgetEventCh: make(chan widgetEventReq, 256),
		readyCh:       make(chan interface{}),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func format(event Event) []byte {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastState time.Time
	var ready bool
	var readyMsg []byte

	// A suppressed state event is held and flushed when the throttle window
	// reopens, so a burst's final state always reaches subscribers.
	var pendingState interface{}
	var hasPending bool
	flushTimer := time.NewTimer(b.stateMin)
	if !flushTimer.Stop() {
		<-flushTimer.C
	}
	defer flushTimer.Stop()

	broadcast := func(event Event) {
		raw := format(event)
		if raw == nil {
			return
		}
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}
			if ready && readyMsg != nil {
				select {
				case ch <- readyMsg:
				default:
				}
			}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case data := <-b.readyCh:
			if !ready {
				ready = true
				readyMsg = format(Event{Type: "bridge.ready", Data: data})
				broadcast(Event{Type: "bridge.ready", Data: data})
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.widgetEventCh:
			switch req.kind {
			case "state.changed":
				now := time.Now()
				if since := now.Sub(lastState); since < b.stateMin {
					pendingState = req.data
					if !hasPending {
						hasPending = true
						flushTimer.Reset(b.stateMin - since)
					}
					continue
				}
				if hasPending {
					hasPending = false
					pendingState = nil
					if !flushTimer.Stop() {
						<-flushTimer.C
					}
				}
				lastState = now
				broadcast(Event{Type: "state.changed", Data: req.data})
			case "note.saved", "note.reloaded":
				broadcast(Event{Type: req.kind, Data: req.data})
			}

		case <-flushTimer.C:
			if hasPending {
				hasPending = false
				lastState = time.Now()
				broadcast(Event{Type: "state.changed", Data: pendingState})
				pendingState = nil
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops the broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an arbitrary event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishReady marks the broker ready and emits the one-time bridge.ready
// event. Later subscribers receive it on connect; repeat calls are ignored.
func (b *Broker) PublishReady(data interface{}) {
	if b.closed.Load() {
		return
	}
	select {
	case b.readyCh <- data:
	case <-b.stopped:
	}
}

// PublishWidgetEvent publishes a widget state event. kind is one of
// "state.changed" (throttled), "note.saved", "note.reloaded".
func (b *Broker) PublishWidgetEvent(kind string, data interface{}) {
	if b.closed.Load() {
		return
	}
	select {
	case b.widgetEventCh <- widgetEventReq{kind: kind, data: data}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
