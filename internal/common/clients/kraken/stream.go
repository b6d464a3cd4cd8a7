package kraken

import (
	"context"
	"encoding/json"
	"time"

	"github.com/antonvlasov/papertrade/pkg/log"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	baseReconnectDelay = 5 * time.Second
	maxReconnectDelay  = 5 * time.Minute
)

// Stream keeps the client's market cache warm from Kraken's public
// websocket ticker channel, so the prices endpoint does not have to
// poll REST. Trade-path price resolution is unaffected by the stream.
type Stream struct {
	client *Client

	cancel context.CancelFunc
	done   chan struct{}
}

func NewStream(client *Client) *Stream {
	return &Stream{
		client: client,
		done:   make(chan struct{}),
	}
}

func (s *Stream) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go s.run(ctx)
}

func (s *Stream) Stop() {
	s.cancel()
	<-s.done
}

func (s *Stream) run(ctx context.Context) {
	defer close(s.done)

	delay := baseReconnectDelay

	for {
		connected, err := s.readLoop(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Warn("kraken stream disconnected", zap.Error(err))
		}

		if connected {
			delay = baseReconnectDelay
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		if delay < maxReconnectDelay {
			delay *= 2
		}
	}
}

// readLoop dials, subscribes and reads until the connection drops or
// ctx is cancelled. It reports whether the subscription was established
// so the reconnect backoff can be reset.
func (s *Stream) readLoop(ctx context.Context) (bool, error) {
	conn, _, err := websocket.Dial(ctx, s.client.cfg.WSURL, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	sub := subscribeRequest{
		Event:        "subscribe",
		Pair:         s.client.cfg.Pairs,
		Subscription: subscription{Name: "ticker"},
	}
	if err := wsjson.Write(ctx, conn, sub); err != nil {
		return false, err
	}

	log.Info("kraken stream connected", zap.Strings("pairs", s.client.cfg.Pairs))

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return true, err
		}

		s.handleMessage(data)
	}
}

func (s *Stream) handleMessage(data []byte) {
	// Channel messages arrive as [channelID, payload, channelName, pair].
	// Everything else (heartbeats, subscription acks) is an object and
	// is ignored.
	var message []json.RawMessage
	if err := json.Unmarshal(data, &message); err != nil || len(message) < 4 {
		return
	}

	var payload tickerPayload
	if err := json.Unmarshal(message[1], &payload); err != nil {
		return
	}

	var pair string
	if err := json.Unmarshal(message[3], &pair); err != nil {
		return
	}

	price, err := payload.LastPrice()
	if err != nil {
		log.Debug("skipping ticker message", zap.String("pair", pair), zap.Error(err))
		return
	}

	s.client.setCachedPrice(pair, price)
}
