package spoolman

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// wsEnvelope is the wire shape of a Spoolman change event.
type wsEnvelope struct {
	Resource string          `json:"resource"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
}

// Subscription is a live push channel to Spoolman. It reconnects on
// transport drop under a capped exponential backoff and keeps delivering
// events until closed or until the reconnect budget is exhausted.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Done is closed when the subscription stops, either via Close or after
// the reconnect budget is exhausted.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Err reports why the subscription stopped. It is nil after a plain Close.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops the reconnect loop and releases the transport.
func (s *Subscription) Close() error {
	s.cancel()
	<-s.done
	return nil
}

func (s *Subscription) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// WebSocketURL derives the push endpoint from the configured base URL.
func (c *Client) WebSocketURL() string {
	url := c.BaseURL()
	if strings.HasPrefix(url, "http") {
		url = "ws" + strings.TrimPrefix(url, "http")
	}
	return url + "/api/v1/"
}

// Subscribe opens the push channel and invokes onEvent for every inbound
// change notification. Events are delivered from a single goroutine; the
// callback must not block for long. The subscription survives transport
// drops without the caller re-issuing Subscribe.
func (c *Client) Subscribe(ctx context.Context, onEvent func(ChangeNotification)) (*Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go c.runSubscription(ctx, sub, onEvent)

	return sub, nil
}

func (c *Client) runSubscription(ctx context.Context, sub *Subscription, onEvent func(ChangeNotification)) {
	defer close(sub.done)

	url := c.WebSocketURL()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.Multiplier = 2
	bo.MaxInterval = time.Duration(c.cfg.ReconnectMaxSeconds) * time.Second
	if bo.MaxInterval <= 0 {
		bo.MaxInterval = 30 * time.Second
	}
	bo.MaxElapsedTime = time.Duration(c.cfg.ReconnectGiveUpSeconds) * time.Second

	for {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			wait := bo.NextBackOff()
			if wait == backoff.Stop {
				c.log.Error("Giving up on Spoolman WebSocket", zap.String("url", url), zap.Error(err))
				sub.setErr(&TransportError{URL: url, Err: err})
				return
			}
			c.log.Warn("WebSocket connect failed, will retry",
				zap.String("url", url),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}

		c.log.Info("Connected to Spoolman WebSocket", zap.String("url", url))
		bo.Reset()

		// Unblock ReadMessage when the subscription is closed.
		closeOnce := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				_ = conn.Close()
			case <-closeOnce:
			}
		}()

		c.readEvents(conn, onEvent)
		close(closeOnce)
		_ = conn.Close()

		if ctx.Err() != nil {
			return
		}
		c.log.Warn("WebSocket connection lost, reconnecting", zap.String("url", url))
	}
}

// readEvents pumps messages from one connection until it fails.
func (c *Client) readEvents(conn *websocket.Conn, onEvent func(ChangeNotification)) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var env wsEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.log.Warn("Dropping unparseable WebSocket message", zap.Error(err))
			continue
		}

		note := ChangeNotification{
			Resource: env.Resource,
			Type:     env.Type,
		}
		if len(env.Payload) > 0 {
			var idHolder struct {
				ID int `json:"id"`
			}
			if err := json.Unmarshal(env.Payload, &idHolder); err == nil {
				note.ID = idHolder.ID
			}
		}

		switch note.Resource {
		case "vendor", "filament", "spool":
			onEvent(note)
		default:
			c.log.Debug("Ignoring unknown resource in change event",
				zap.String("resource", note.Resource),
			)
		}
	}
}
