package exchange

import (
	"encoding/json"
	"fmt"
)

// Core trading domain types shared by exchange implementations.
// Quantities are float64 at this layer; venue packages own the conversion to
// their hashing and wire encodings and reject values that would lose precision.

// Tif is the time-in-force of a limit order.
type Tif string

const (
	// TifGtc rests on the book until cancelled.
	TifGtc Tif = "Gtc"
	// TifIoc fills what it can immediately and cancels the rest.
	TifIoc Tif = "Ioc"
	// TifAlo is add-liquidity-only (post only).
	TifAlo Tif = "Alo"
	// TifFrontendMarket is the venue's market-order emulation.
	TifFrontendMarket Tif = "FrontendMarket"
)

// Tpsl tags a trigger order as take-profit or stop-loss.
type Tpsl string

const (
	// TpslTakeProfit marks a take-profit trigger.
	TpslTakeProfit Tpsl = "tp"
	// TpslStopLoss marks a stop-loss trigger.
	TpslStopLoss Tpsl = "sl"
)

// Grouping describes how a batch of orders relates to each other.
type Grouping string

const (
	// GroupingNA submits independent orders.
	GroupingNA Grouping = "na"
	// GroupingNormalTpsl attaches TP/SL orders to the parent order.
	GroupingNormalTpsl Grouping = "normalTpsl"
	// GroupingPositionTpsl attaches TP/SL orders to the position.
	GroupingPositionTpsl Grouping = "positionTpsl"
)

// LimitOrderType defines limit order specific fields.
type LimitOrderType struct {
	Tif Tif `json:"tif"`
}

// TriggerOrderType defines trigger (TP/SL) order fields.
type TriggerOrderType struct {
	TriggerPx float64 `json:"triggerPx"`
	IsMarket  bool    `json:"isMarket"`
	Tpsl      Tpsl    `json:"tpsl"`
}

// OrderType is a tagged variant: exactly one of Limit or Trigger must be set.
type OrderType struct {
	Limit   *LimitOrderType   `json:"limit,omitempty"`
	Trigger *TriggerOrderType `json:"trigger,omitempty"`
}

// Limit builds a limit order type with the given time-in-force.
func Limit(tif Tif) OrderType {
	return OrderType{Limit: &LimitOrderType{Tif: tif}}
}

// Trigger builds a trigger order type.
func Trigger(triggerPx float64, isMarket bool, tpsl Tpsl) OrderType {
	return OrderType{Trigger: &TriggerOrderType{TriggerPx: triggerPx, IsMarket: isMarket, Tpsl: tpsl}}
}

// OrderRequest describes a caller-facing order intent keyed by coin name.
type OrderRequest struct {
	Coin       string    `json:"coin"`
	IsBuy      bool      `json:"isBuy"`
	Sz         float64   `json:"sz"`
	LimitPx    float64   `json:"limitPx"`
	OrderType  OrderType `json:"orderType"`
	ReduceOnly bool      `json:"reduceOnly"`
}

// CancelRequest identifies a resting order by coin and order id.
type CancelRequest struct {
	Coin string `json:"coin"`
	Oid  uint64 `json:"oid"`
}

// APIResponse captures the standard exchange response after an action submission.
// On failure the venue answers {"status":"err","response":"<message>"}; the
// message is surfaced through ErrorMessage.
type APIResponse struct {
	Status       string       `json:"status"` // "ok" or "err".
	Response     ResponseData `json:"response"`
	ErrorMessage string       `json:"-"`
}

// ResponseData wraps the response payload.
type ResponseData struct {
	Type string             `json:"type"` // "order", "cancel", "default".
	Data ResponseDataDetail `json:"data"`
}

// ResponseDataDetail contains per-item statuses.
type ResponseDataDetail struct {
	Statuses []ActionStatus `json:"statuses"`
}

// ActionStatus tracks the status of an individual order or cancel.
// Cancels report the bare string "success".
type ActionStatus struct {
	Success bool          `json:"-"`
	Resting *RestingOrder `json:"resting,omitempty"`
	Filled  *FilledOrder  `json:"filled,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// RestingOrder represents an order that is currently resting on the book.
type RestingOrder struct {
	Oid uint64 `json:"oid"`
}

// FilledOrder represents a fully matched order.
type FilledOrder struct {
	TotalSz string `json:"totalSz"`
	AvgPx   string `json:"avgPx"`
	Oid     uint64 `json:"oid"`
}

// UnmarshalJSON accepts both the object and the error-string response shapes.
func (r *APIResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		Status   string          `json:"status"`
		Response json.RawMessage `json:"response"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("exchange: decode response: %w", err)
	}
	r.Status = raw.Status
	r.Response = ResponseData{}
	r.ErrorMessage = ""
	if len(raw.Response) == 0 || string(raw.Response) == "null" {
		return nil
	}
	if raw.Response[0] == '"' {
		return json.Unmarshal(raw.Response, &r.ErrorMessage)
	}
	if err := json.Unmarshal(raw.Response, &r.Response); err != nil {
		return fmt.Errorf("exchange: decode response body: %w", err)
	}
	return nil
}

// UnmarshalJSON accepts the "success" string as well as object statuses.
func (s *ActionStatus) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = ActionStatus{Success: text == "success"}
		if !s.Success {
			s.Error = text
		}
		return nil
	}
	type alias ActionStatus
	var out alias
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*s = ActionStatus(out)
	s.Success = s.Error == ""
	return nil
}

// FirstError returns the first per-item or top-level error carried by the response.
func (r *APIResponse) FirstError() string {
	if r == nil {
		return ""
	}
	if r.ErrorMessage != "" {
		return r.ErrorMessage
	}
	for _, st := range r.Response.Data.Statuses {
		if st.Error != "" {
			return st.Error
		}
	}
	return ""
}
