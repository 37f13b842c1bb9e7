package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"

	"hyperliquid-sdk/pkg/exchange"
)

const (
	defaultInitialEquity = 100000.0
	paperAddress         = "0x0000000000000000000000000000000000000000"

	errNotMatched    = "Order could not immediately match against any resting orders."
	errPostOnlyMatch = "Post only order would have immediately matched, bbo was %s."
	errNeverPlaced   = "Order was never placed, already canceled, or filled."
	errReduceOnly    = "Reduce only order would increase position."
)

// Trader is a paper-trading exchange.Trader that keeps orders, positions and
// cash in memory. Marketable orders fill at the mark price; everything else
// rests until cancelled.
type Trader struct {
	mu sync.Mutex

	assets  map[string]int
	nextOid uint64

	markPx    map[string]decimal.Decimal
	positions map[string]*positionState
	resting   map[uint64]restingOrder

	cash float64
}

var _ exchange.Trader = (*Trader)(nil)

type positionState struct {
	Coin  string
	Qty   float64 // positive long, negative short
	Entry float64
}

type restingOrder struct {
	Coin string
	Req  exchange.OrderRequest
}

// Position is a mark-to-market view of one open position.
type Position struct {
	Coin          string
	Szi           string
	EntryPx       string
	PositionValue string
	UnrealizedPnl string
}

// New constructs a paper trader with the given starting cash; non-positive
// means the default.
func New(initialEquity float64) *Trader {
	if initialEquity <= 0 {
		initialEquity = defaultInitialEquity
	}
	return &Trader{
		assets:    make(map[string]int),
		nextOid:   1,
		markPx:    make(map[string]decimal.Decimal),
		positions: make(map[string]*positionState),
		resting:   make(map[uint64]restingOrder),
		cash:      initialEquity,
	}
}

func canonical(coin string) string { return strings.ToUpper(strings.TrimSpace(coin)) }

// Address returns the zero address; paper accounts have no key.
func (t *Trader) Address() string { return paperAddress }

// AssetIndex assigns indexes in first-seen order.
func (t *Trader) AssetIndex(ctx context.Context, coin string) (int, error) {
	c := canonical(coin)
	if c == "" {
		return 0, fmt.Errorf("sim: empty coin symbol")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.assets[c]; ok {
		return id, nil
	}
	id := len(t.assets)
	t.assets[c] = id
	return id, nil
}

// SetMarkPrice updates the reference price for fills and unrealised PnL.
func (t *Trader) SetMarkPrice(coin string, price float64) error {
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return fmt.Errorf("sim: mark price must be positive")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.markPx[canonical(coin)] = decimal.NewFromFloat(price)
	return nil
}

// ApplyMids updates mark prices from an allMids payload, keeping the quoted
// decimal exactly. Unparseable or non-positive entries are skipped and counted.
func (t *Trader) ApplyMids(mids map[string]string) int {
	skipped := 0
	t.mu.Lock()
	defer t.mu.Unlock()
	for coin, raw := range mids {
		px, err := decimal.NewFromString(raw)
		if err != nil || !px.IsPositive() {
			skipped++
			continue
		}
		t.markPx[canonical(coin)] = px
	}
	return skipped
}

// Order submits a single order.
func (t *Trader) Order(ctx context.Context, req exchange.OrderRequest) (*exchange.APIResponse, error) {
	return t.BulkOrders(ctx, []exchange.OrderRequest{req})
}

// BulkOrders evaluates each order independently against the current marks.
func (t *Trader) BulkOrders(ctx context.Context, reqs []exchange.OrderRequest) (*exchange.APIResponse, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("sim: at least one order required")
	}
	for i, req := range reqs {
		if err := validateOrder(req); err != nil {
			return nil, fmt.Errorf("order[%d]: %w", i, err)
		}
	}
	for _, req := range reqs {
		if _, err := t.AssetIndex(ctx, req.Coin); err != nil {
			return nil, err
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	statuses := make([]exchange.ActionStatus, len(reqs))
	for i, req := range reqs {
		statuses[i] = t.placeLocked(req)
	}
	return okResponse("order", statuses), nil
}

func validateOrder(req exchange.OrderRequest) error {
	if req.Sz <= 0 || math.IsNaN(req.Sz) {
		return fmt.Errorf("sim: size must be positive")
	}
	if req.LimitPx <= 0 || math.IsNaN(req.LimitPx) {
		return fmt.Errorf("sim: limit price must be positive")
	}
	ot := req.OrderType
	if (ot.Limit == nil) == (ot.Trigger == nil) {
		return fmt.Errorf("sim: order type must set exactly one of limit or trigger")
	}
	return nil
}

func (t *Trader) placeLocked(req exchange.OrderRequest) exchange.ActionStatus {
	coin := canonical(req.Coin)
	if req.OrderType.Trigger != nil {
		return t.restLocked(coin, req)
	}

	limit := decimal.NewFromFloat(req.LimitPx)
	mark, known := t.markPx[coin]
	if !known {
		mark = limit
	}
	cmp := limit.Cmp(mark)
	marketable := (req.IsBuy && cmp >= 0) || (!req.IsBuy && cmp <= 0)

	switch req.OrderType.Limit.Tif {
	case exchange.TifAlo:
		if marketable && known {
			return exchange.ActionStatus{Error: fmt.Sprintf(errPostOnlyMatch, mark.String())}
		}
		return t.restLocked(coin, req)
	case exchange.TifIoc, exchange.TifFrontendMarket:
		if !marketable {
			return exchange.ActionStatus{Error: errNotMatched}
		}
		return t.fillLocked(coin, req, mark.InexactFloat64())
	default:
		if !marketable {
			return t.restLocked(coin, req)
		}
		return t.fillLocked(coin, req, mark.InexactFloat64())
	}
}

func (t *Trader) restLocked(coin string, req exchange.OrderRequest) exchange.ActionStatus {
	oid := t.nextOid
	t.nextOid++
	t.resting[oid] = restingOrder{Coin: coin, Req: req}
	return exchange.ActionStatus{Resting: &exchange.RestingOrder{Oid: oid}}
}

func (t *Trader) fillLocked(coin string, req exchange.OrderRequest, price float64) exchange.ActionStatus {
	realized, filled, err := t.applyFillLocked(coin, price, req.Sz, req.IsBuy, req.ReduceOnly)
	if err != nil {
		return exchange.ActionStatus{Error: err.Error()}
	}
	t.cash += realized
	oid := t.nextOid
	t.nextOid++
	logx.Debugf("sim: filled %s %s@%s oid=%d", coin, formatDecimal(filled), formatDecimal(price), oid)
	return exchange.ActionStatus{Filled: &exchange.FilledOrder{
		TotalSz: formatDecimal(filled),
		AvgPx:   formatDecimal(price),
		Oid:     oid,
	}}
}

func (t *Trader) applyFillLocked(coin string, price, size float64, isBuy, reduceOnly bool) (float64, float64, error) {
	state := t.positions[coin]
	delta := size
	if !isBuy {
		delta = -size
	}
	if reduceOnly {
		if state == nil || state.Qty == 0 || state.Qty*delta > 0 {
			return 0, 0, errors.New(errReduceOnly)
		}
		if math.Abs(delta) > math.Abs(state.Qty) {
			delta = -state.Qty
		}
	}
	if state == nil {
		state = &positionState{Coin: coin}
		t.positions[coin] = state
	}

	oldQty := state.Qty
	newQty := oldQty + delta

	realized := 0.0
	if oldQty != 0 && oldQty*delta < 0 {
		closeQty := math.Min(math.Abs(oldQty), math.Abs(delta))
		dir := 1.0
		if oldQty < 0 {
			dir = -1.0
		}
		realized = closeQty * (price - state.Entry) * dir
	}

	switch {
	case oldQty == 0:
		state.Entry = price
	case oldQty*delta > 0:
		state.Entry = ((oldQty * state.Entry) + (delta * price)) / newQty
	case oldQty*newQty < 0:
		// Flipped through zero.
		state.Entry = price
	}

	state.Qty = newQty
	if math.Abs(state.Qty) < 1e-10 {
		delete(t.positions, coin)
	}
	return realized, math.Abs(delta), nil
}

// Cancel cancels a single resting order.
func (t *Trader) Cancel(ctx context.Context, coin string, oid uint64) (*exchange.APIResponse, error) {
	return t.BulkCancel(ctx, []exchange.CancelRequest{{Coin: coin, Oid: oid}})
}

// BulkCancel removes resting orders; unknown oids report an error status.
func (t *Trader) BulkCancel(ctx context.Context, reqs []exchange.CancelRequest) (*exchange.APIResponse, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("sim: at least one cancel required")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	statuses := make([]exchange.ActionStatus, len(reqs))
	for i, req := range reqs {
		order, ok := t.resting[req.Oid]
		if !ok || order.Coin != canonical(req.Coin) {
			statuses[i] = exchange.ActionStatus{Error: errNeverPlaced}
			continue
		}
		delete(t.resting, req.Oid)
		statuses[i] = exchange.ActionStatus{Success: true}
	}
	return okResponse("cancel", statuses), nil
}

// UsdTransfer debits cash. Destination is only checked for shape.
func (t *Trader) UsdTransfer(ctx context.Context, destination string, amount float64) (*exchange.APIResponse, error) {
	if !strings.HasPrefix(destination, "0x") || len(destination) != 42 {
		return nil, fmt.Errorf("sim: invalid destination address %q", destination)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("sim: transfer amount must be positive, got %v", amount)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if amount > t.cash {
		return &exchange.APIResponse{Status: "err", ErrorMessage: "Insufficient balance for transfer."},
			fmt.Errorf("sim: insufficient balance: have %s, need %s", formatDecimal(t.cash), formatDecimal(amount))
	}
	t.cash -= amount
	return &exchange.APIResponse{Status: "ok", Response: exchange.ResponseData{Type: "default"}}, nil
}

// OpenOrders returns resting order ids sorted ascending.
func (t *Trader) OpenOrders() []uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]uint64, 0, len(t.resting))
	for oid := range t.resting {
		out = append(out, oid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Positions returns open positions marked to the latest prices.
func (t *Trader) Positions() []Position {
	t.mu.Lock()
	defer t.mu.Unlock()
	positions, _ := t.snapshotLocked()
	return positions
}

// AccountValue returns cash plus unrealised PnL.
func (t *Trader) AccountValue() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, unrealized := t.snapshotLocked()
	return t.cash + unrealized
}

func (t *Trader) markLocked(coin string) float64 {
	if px, ok := t.markPx[coin]; ok && px.IsPositive() {
		return px.InexactFloat64()
	}
	if state, ok := t.positions[coin]; ok {
		return state.Entry
	}
	return 0
}

func (t *Trader) snapshotLocked() ([]Position, float64) {
	positions := make([]Position, 0, len(t.positions))
	totalUnreal := 0.0
	for coin, state := range t.positions {
		mark := t.markLocked(coin)
		unreal := state.Qty * (mark - state.Entry)
		totalUnreal += unreal
		positions = append(positions, Position{
			Coin:          coin,
			Szi:           formatDecimal(state.Qty),
			EntryPx:       formatDecimal(state.Entry),
			PositionValue: formatDecimal(math.Abs(state.Qty * mark)),
			UnrealizedPnl: formatDecimal(unreal),
		})
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Coin < positions[j].Coin
	})
	return positions, totalUnreal
}

func okResponse(kind string, statuses []exchange.ActionStatus) *exchange.APIResponse {
	resp := &exchange.APIResponse{Status: "ok"}
	resp.Response.Type = kind
	resp.Response.Data.Statuses = statuses
	return resp
}

func formatDecimal(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) < 1e-9 {
		return "0"
	}
	s := strconv.FormatFloat(v, 'f', 8, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func init() {
	exchange.RegisterProvider("sim", func(ctx context.Context, name string, cfg *exchange.ProviderConfig) (exchange.Trader, error) {
		return New(cfg.InitialEquity), nil
	})
}
