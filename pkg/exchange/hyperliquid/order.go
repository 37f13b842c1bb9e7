package hyperliquid

import (
	"fmt"

	"hyperliquid-sdk/pkg/exchange"
)

// Order type codes used in the hash tuple.
const (
	orderCodeAlo             uint8 = 1
	orderCodeGtc             uint8 = 2
	orderCodeIoc             uint8 = 3
	orderCodeTriggerMarketTp uint8 = 4
	orderCodeTriggerLimitTp  uint8 = 5
	orderCodeTriggerMarketSl uint8 = 6
	orderCodeTriggerLimitSl  uint8 = 7
	orderCodeFrontendMarket  uint8 = 8
)

// OrderTypeToTuple maps an order type to its (code, triggerPx) pair.
// Limit orders carry a zero trigger price.
func OrderTypeToTuple(orderType exchange.OrderType) (uint8, float64, error) {
	switch {
	case orderType.Limit != nil && orderType.Trigger != nil:
		return 0, 0, fmt.Errorf("%w: both limit and trigger set", ErrInvalidOrderType)
	case orderType.Limit != nil:
		switch orderType.Limit.Tif {
		case exchange.TifGtc:
			return orderCodeGtc, 0, nil
		case exchange.TifAlo:
			return orderCodeAlo, 0, nil
		case exchange.TifIoc:
			return orderCodeIoc, 0, nil
		case exchange.TifFrontendMarket:
			return orderCodeFrontendMarket, 0, nil
		}
		return 0, 0, fmt.Errorf("%w: tif %q", ErrInvalidOrderType, orderType.Limit.Tif)
	case orderType.Trigger != nil:
		t := orderType.Trigger
		switch {
		case t.IsMarket && t.Tpsl == exchange.TpslTakeProfit:
			return orderCodeTriggerMarketTp, t.TriggerPx, nil
		case !t.IsMarket && t.Tpsl == exchange.TpslTakeProfit:
			return orderCodeTriggerLimitTp, t.TriggerPx, nil
		case t.IsMarket && t.Tpsl == exchange.TpslStopLoss:
			return orderCodeTriggerMarketSl, t.TriggerPx, nil
		case !t.IsMarket && t.Tpsl == exchange.TpslStopLoss:
			return orderCodeTriggerLimitSl, t.TriggerPx, nil
		}
		return 0, 0, fmt.Errorf("%w: tpsl %q", ErrInvalidOrderType, t.Tpsl)
	}
	return 0, 0, fmt.Errorf("%w: neither limit nor trigger set", ErrInvalidOrderType)
}

// OrderGroupToNumber maps a grouping to its hashed uint8 code.
func OrderGroupToNumber(grouping exchange.Grouping) (uint8, error) {
	switch grouping {
	case exchange.GroupingNA:
		return 0, nil
	case exchange.GroupingNormalTpsl:
		return 1, nil
	case exchange.GroupingPositionTpsl:
		return 2, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidGrouping, grouping)
}

// OrderSpecPreprocessing produces the hash tuple for spec.
func OrderSpecPreprocessing(spec OrderSpec) (OrderHashTuple, error) {
	code, triggerPx, err := OrderTypeToTuple(spec.OrderType)
	if err != nil {
		return OrderHashTuple{}, err
	}
	limitPx, err := FloatToIntForHashing(spec.LimitPx)
	if err != nil {
		return OrderHashTuple{}, fmt.Errorf("limitPx: %w", err)
	}
	sz, err := FloatToIntForHashing(spec.Sz)
	if err != nil {
		return OrderHashTuple{}, fmt.Errorf("sz: %w", err)
	}
	trigger, err := FloatToIntForHashing(triggerPx)
	if err != nil {
		return OrderHashTuple{}, fmt.Errorf("triggerPx: %w", err)
	}
	return OrderHashTuple{
		Asset:      spec.Asset,
		IsBuy:      spec.IsBuy,
		LimitPx:    limitPx,
		Sz:         sz,
		ReduceOnly: spec.ReduceOnly,
		OrderType:  code,
		TriggerPx:  trigger,
	}, nil
}

// OrderTypeToWire converts an order type to its wire form. Limit types pass
// through unchanged; trigger prices become 8-decimal strings.
func OrderTypeToWire(orderType exchange.OrderType) (OrderTypeWire, error) {
	if _, _, err := OrderTypeToTuple(orderType); err != nil {
		return OrderTypeWire{}, err
	}
	if orderType.Limit != nil {
		limit := *orderType.Limit
		return OrderTypeWire{Limit: &limit}, nil
	}
	px, err := FloatToWire(orderType.Trigger.TriggerPx)
	if err != nil {
		return OrderTypeWire{}, fmt.Errorf("triggerPx: %w", err)
	}
	return OrderTypeWire{Trigger: &TriggerOrderTypeWire{
		TriggerPx: px,
		IsMarket:  orderType.Trigger.IsMarket,
		Tpsl:      orderType.Trigger.Tpsl,
	}}, nil
}

// OrderSpecToOrderWire converts spec to the JSON order representation.
func OrderSpecToOrderWire(spec OrderSpec) (OrderWire, error) {
	limitPx, err := FloatToWire(spec.LimitPx)
	if err != nil {
		return OrderWire{}, fmt.Errorf("limitPx: %w", err)
	}
	sz, err := FloatToWire(spec.Sz)
	if err != nil {
		return OrderWire{}, fmt.Errorf("sz: %w", err)
	}
	orderType, err := OrderTypeToWire(spec.OrderType)
	if err != nil {
		return OrderWire{}, err
	}
	return OrderWire{
		Asset:      spec.Asset,
		IsBuy:      spec.IsBuy,
		LimitPx:    limitPx,
		Sz:         sz,
		ReduceOnly: spec.ReduceOnly,
		OrderType:  orderType,
	}, nil
}

// buildOrderAction derives both the hash tuples and the wire action from the
// same specs so the signed bytes always describe the posted orders.
func buildOrderAction(specs []OrderSpec, grouping exchange.Grouping) (OrderAction, []OrderHashTuple, uint8, error) {
	groupCode, err := OrderGroupToNumber(grouping)
	if err != nil {
		return OrderAction{}, nil, 0, err
	}
	tuples := make([]OrderHashTuple, len(specs))
	wires := make([]OrderWire, len(specs))
	for i, spec := range specs {
		tuple, err := OrderSpecPreprocessing(spec)
		if err != nil {
			return OrderAction{}, nil, 0, fmt.Errorf("order[%d]: %w", i, err)
		}
		wire, err := OrderSpecToOrderWire(spec)
		if err != nil {
			return OrderAction{}, nil, 0, fmt.Errorf("order[%d]: %w", i, err)
		}
		tuples[i] = tuple
		wires[i] = wire
	}
	return OrderAction{
		Type:     ActionTypeOrder,
		Grouping: grouping,
		Orders:   wires,
	}, tuples, groupCode, nil
}

func buildCancelAction(cancels []CancelWire) (CancelAction, []CancelHashTuple) {
	tuples := make([]CancelHashTuple, len(cancels))
	for i, cancel := range cancels {
		tuples[i] = CancelHashTuple{Asset: cancel.Asset, Oid: cancel.Oid}
	}
	return CancelAction{
		Type:    ActionTypeCancel,
		Cancels: append([]CancelWire(nil), cancels...),
	}, tuples
}
