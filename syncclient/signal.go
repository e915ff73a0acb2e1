package syncclient

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"
)

// SignalMessage is the nudge contract with the server's signal endpoint.
type SignalMessage struct {
	Type string `json:"type"`
}

// SignalListener subscribes to the server's sync-signal websocket and
// invokes Trigger on each nudge, typically a forced Flush. It is the
// client end of the background delivery mechanism; the delivery transport
// itself lives server-side.
type SignalListener struct {
	URL     string
	Token   string
	Trigger func()

	// ReconnectDelay paces redial attempts; zero means 30s.
	ReconnectDelay time.Duration
}

// Run connects and listens until ctx is done, redialing on any drop.
func (l *SignalListener) Run(ctx context.Context) error {
	delay := l.ReconnectDelay
	if delay <= 0 {
		delay = 30 * time.Second
	}

	for {
		if err := l.listenOnce(ctx); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (l *SignalListener) listenOnce(ctx context.Context) error {
	url := l.URL
	if l.Token != "" {
		url += "?token=" + l.Token
	}
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		var msg SignalMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "sync" && l.Trigger != nil {
			l.Trigger()
		}
	}
}
