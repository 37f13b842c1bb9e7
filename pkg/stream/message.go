package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	markethl "hyperliquid-sdk/pkg/market/hyperliquid"
)

// Inbound channel tags.
const (
	ChannelAllMids              = "allMids"
	ChannelL2Book               = "l2Book"
	ChannelTrades               = "trades"
	ChannelUser                 = "user"
	ChannelSubscriptionResponse = "subscriptionResponse"
	ChannelPong                 = "pong"
)

const greeting = "Websocket connection established."

// Message is a parsed inbound stream message.
type Message interface {
	// Channel returns the inbound channel tag.
	Channel() string
	// Identifier returns the subscription identifier the message is routed
	// to, or false when the message is not routable.
	Identifier() (string, bool)
}

type envelope struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// AllMidsMessage carries mid prices keyed by coin.
type AllMidsMessage struct {
	Mids map[string]string `json:"mids"`
}

func (m *AllMidsMessage) Channel() string { return ChannelAllMids }

func (m *AllMidsMessage) Identifier() (string, bool) { return TypeAllMids, true }

// L2BookMessage carries a full book snapshot of one coin.
type L2BookMessage struct {
	markethl.L2Book
}

func (m *L2BookMessage) Channel() string { return ChannelL2Book }

func (m *L2BookMessage) Identifier() (string, bool) {
	coin := strings.ToLower(m.Coin)
	if coin == "" {
		return "", false
	}
	return TypeL2Book + ":" + coin, true
}

// Trade is one public trade.
type Trade struct {
	Coin string `json:"coin"`
	Side string `json:"side"`
	Px   string `json:"px"`
	Sz   string `json:"sz"`
	Hash string `json:"hash"`
	Time int64  `json:"time"`
	Tid  uint64 `json:"tid,omitempty"`
}

// TradesMessage carries a batch of trades of one coin.
type TradesMessage struct {
	Trades []Trade
}

func (m *TradesMessage) Channel() string { return ChannelTrades }

// Identifier routes by the first trade's coin; an empty batch is not routable.
func (m *TradesMessage) Identifier() (string, bool) {
	if len(m.Trades) == 0 {
		return "", false
	}
	return TypeTrades + ":" + strings.ToLower(m.Trades[0].Coin), true
}

// UserEventsMessage carries account events of the subscribed user. Only
// fills are decoded; other event kinds are kept raw.
type UserEventsMessage struct {
	Fills         []markethl.Fill `json:"fills,omitempty"`
	Funding       json.RawMessage `json:"funding,omitempty"`
	Liquidation   json.RawMessage `json:"liquidation,omitempty"`
	NonUserCancel json.RawMessage `json:"nonUserCancel,omitempty"`
}

func (m *UserEventsMessage) Channel() string { return ChannelUser }

func (m *UserEventsMessage) Identifier() (string, bool) { return TypeUserEvents, true }

// SubscriptionResponseMessage acknowledges a subscribe or unsubscribe frame.
type SubscriptionResponseMessage struct {
	Method       string       `json:"method"`
	Subscription Subscription `json:"subscription"`
}

func (m *SubscriptionResponseMessage) Channel() string { return ChannelSubscriptionResponse }

func (m *SubscriptionResponseMessage) Identifier() (string, bool) { return "", false }

// PongMessage answers a keepalive ping.
type PongMessage struct{}

func (m *PongMessage) Channel() string { return ChannelPong }

func (m *PongMessage) Identifier() (string, bool) { return "", false }

// GreetingMessage is the plain-text banner sent after the handshake.
type GreetingMessage struct{}

func (m *GreetingMessage) Channel() string { return "" }

func (m *GreetingMessage) Identifier() (string, bool) { return "", false }

// ParseMessage decodes one inbound frame. Unrecognised channels yield an
// *UnknownChannelError.
func ParseMessage(raw []byte) (Message, error) {
	trimmed := bytes.TrimSpace(raw)
	if string(trimmed) == greeting {
		return &GreetingMessage{}, nil
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("stream: decode envelope: %w", err)
	}

	var msg Message
	switch env.Channel {
	case ChannelAllMids:
		msg = &AllMidsMessage{}
	case ChannelL2Book:
		msg = &L2BookMessage{}
	case ChannelTrades:
		out := &TradesMessage{}
		if err := decodeData(env, &out.Trades); err != nil {
			return nil, err
		}
		return out, nil
	case ChannelUser:
		msg = &UserEventsMessage{}
	case ChannelSubscriptionResponse:
		msg = &SubscriptionResponseMessage{}
	case ChannelPong:
		return &PongMessage{}, nil
	default:
		return nil, &UnknownChannelError{Channel: env.Channel}
	}
	if err := decodeData(env, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func decodeData(env envelope, target any) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return fmt.Errorf("stream: decode %s data: %w", env.Channel, err)
	}
	return nil
}
