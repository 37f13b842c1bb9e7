package hyperliquid

import (
	"hyperliquid-sdk/pkg/exchange"
)

// ActionType enumerates supported exchange actions.
type ActionType string

const (
	// ActionTypeOrder submits one or more orders.
	ActionTypeOrder ActionType = "order"
	// ActionTypeCancel cancels specific orders by oid.
	ActionTypeCancel ActionType = "cancel"
	// ActionTypeUsdTransfer moves USD to another address on the L1.
	ActionTypeUsdTransfer ActionType = "usdTransfer"
)

// transferChain is the chain label carried by usdTransfer actions.
const transferChain = "Arbitrum"

// OrderAction is the JSON action body for order submissions.
type OrderAction struct {
	Type     ActionType        `json:"type"`
	Grouping exchange.Grouping `json:"grouping"`
	Orders   []OrderWire       `json:"orders"`
}

// CancelAction is the JSON action body for cancellations.
type CancelAction struct {
	Type    ActionType   `json:"type"`
	Cancels []CancelWire `json:"cancels"`
}

// UsdTransferAction is the JSON action body for USD transfers.
type UsdTransferAction struct {
	Type    ActionType         `json:"type"`
	Chain   string             `json:"chain"`
	Payload UsdTransferPayload `json:"payload"`
}

// UsdTransferPayload is both the signed message and the wire payload of a transfer.
type UsdTransferPayload struct {
	Destination string `json:"destination"`
	Amount      string `json:"amount"`
	Time        uint64 `json:"time"`
}

// OrderSpec is an order request with its coin resolved to an asset index.
type OrderSpec struct {
	Asset      uint32
	IsBuy      bool
	LimitPx    float64
	Sz         float64
	ReduceOnly bool
	OrderType  exchange.OrderType
}

// OrderWire is the string-typed order representation posted to the exchange.
type OrderWire struct {
	Asset      uint32        `json:"asset"`
	IsBuy      bool          `json:"isBuy"`
	LimitPx    string        `json:"limitPx"`
	Sz         string        `json:"sz"`
	ReduceOnly bool          `json:"reduceOnly"`
	OrderType  OrderTypeWire `json:"orderType"`
}

// OrderTypeWire mirrors exchange.OrderType with the trigger price as a string.
type OrderTypeWire struct {
	Limit   *exchange.LimitOrderType `json:"limit,omitempty"`
	Trigger *TriggerOrderTypeWire    `json:"trigger,omitempty"`
}

// TriggerOrderTypeWire carries trigger fields in wire form.
type TriggerOrderTypeWire struct {
	TriggerPx string        `json:"triggerPx"`
	IsMarket  bool          `json:"isMarket"`
	Tpsl      exchange.Tpsl `json:"tpsl"`
}

// CancelWire identifies an order to cancel on the wire.
type CancelWire struct {
	Asset uint32 `json:"asset"`
	Oid   uint64 `json:"oid"`
}

// OrderHashTuple is the ABI tuple hashed for each order:
// (asset, isBuy, limitPx, sz, reduceOnly, orderTypeCode, triggerPx).
type OrderHashTuple struct {
	Asset      uint32 `abi:"f0"`
	IsBuy      bool   `abi:"f1"`
	LimitPx    uint64 `abi:"f2"`
	Sz         uint64 `abi:"f3"`
	ReduceOnly bool   `abi:"f4"`
	OrderType  uint8  `abi:"f5"`
	TriggerPx  uint64 `abi:"f6"`
}

// CancelHashTuple is the ABI tuple hashed for each cancel: (asset, oid).
type CancelHashTuple struct {
	Asset uint32 `abi:"f0"`
	Oid   uint64 `abi:"f1"`
}

// ExchangeRequest is the signed request envelope for L1 actions.
// VaultAddress is serialised as null when trading for the signer itself.
type ExchangeRequest struct {
	Action       any       `json:"action"`
	Nonce        uint64    `json:"nonce"`
	Signature    Signature `json:"signature"`
	VaultAddress *string   `json:"vaultAddress"`
}

// TransferRequest is the signed request envelope for usdTransfer.
type TransferRequest struct {
	Action    UsdTransferAction `json:"action"`
	Nonce     uint64            `json:"nonce"`
	Signature Signature         `json:"signature"`
}

// Signature represents an ECDSA signature in the venue's {r,s,v} form.
type Signature struct {
	R string `json:"r"`
	S string `json:"s"`
	V int    `json:"v"`
}
