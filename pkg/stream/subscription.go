package stream

import (
	"fmt"
	"strings"
)

// Subscription types understood by the venue.
const (
	TypeAllMids    = "allMids"
	TypeL2Book     = "l2Book"
	TypeTrades     = "trades"
	TypeUserEvents = "userEvents"
)

// Subscription is the payload of a subscribe/unsubscribe frame.
type Subscription struct {
	Type string `json:"type"`
	Coin string `json:"coin,omitempty"`
	User string `json:"user,omitempty"`
}

// AllMids subscribes to mid prices of every coin.
func AllMids() Subscription {
	return Subscription{Type: TypeAllMids}
}

// L2Book subscribes to order book snapshots of coin.
func L2Book(coin string) Subscription {
	return Subscription{Type: TypeL2Book, Coin: coin}
}

// Trades subscribes to public trades of coin.
func Trades(coin string) Subscription {
	return Subscription{Type: TypeTrades, Coin: coin}
}

// UserEvents subscribes to fills and account events of user.
func UserEvents(user string) Subscription {
	return Subscription{Type: TypeUserEvents, User: user}
}

// Identifier derives the channel key that inbound messages are routed by.
func (s Subscription) Identifier() (string, error) {
	switch s.Type {
	case TypeAllMids:
		return TypeAllMids, nil
	case TypeL2Book, TypeTrades:
		coin := strings.ToLower(strings.TrimSpace(s.Coin))
		if coin == "" {
			return "", fmt.Errorf("%w: %s requires a coin", ErrInvalidSubscription, s.Type)
		}
		return s.Type + ":" + coin, nil
	case TypeUserEvents:
		return TypeUserEvents, nil
	}
	return "", fmt.Errorf("%w: type %q", ErrInvalidSubscription, s.Type)
}
