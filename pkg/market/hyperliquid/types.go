package hyperliquid

// InfoRequest is the shared envelope for Hyperliquid info endpoint requests.
type InfoRequest struct {
	Type         string      `json:"type"`
	User         string      `json:"user,omitempty"`
	Coin         string      `json:"coin,omitempty"`
	VaultAddress string      `json:"vaultAddress,omitempty"`
	StartTime    *int64      `json:"startTime,omitempty"`
	EndTime      *int64      `json:"endTime,omitempty"`
	Req          interface{} `json:"req,omitempty"`
}

// CandleSnapshotRequest carries parameters for the candleSnapshot request.
type CandleSnapshotRequest struct {
	Coin      string `json:"coin"`
	Interval  string `json:"interval"` // e.g. "1m", "1h", "1d"
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
}

// Meta is the asset universe; an asset's index is its position in Universe.
type Meta struct {
	Universe []AssetMeta `json:"universe"`
}

// AssetMeta describes a tradable perpetual.
type AssetMeta struct {
	Name         string `json:"name"`
	SzDecimals   int    `json:"szDecimals"`
	MaxLeverage  int    `json:"maxLeverage"`
	OnlyIsolated bool   `json:"onlyIsolated,omitempty"`
}

// UserState is the clearinghouse state of an account.
type UserState struct {
	AssetPositions     []AssetPosition `json:"assetPositions"`
	CrossMarginSummary MarginSummary   `json:"crossMarginSummary"`
	MarginSummary      MarginSummary   `json:"marginSummary"`
	Withdrawable       string          `json:"withdrawable"`
}

// AssetPosition wraps a position with its margin mode.
type AssetPosition struct {
	Position Position `json:"position"`
	Type     string   `json:"type"` // "oneWay"
}

// Position is an open perpetual position. Szi is signed: negative for shorts.
type Position struct {
	Coin           string   `json:"coin"`
	EntryPx        *string  `json:"entryPx"`
	Leverage       Leverage `json:"leverage"`
	LiquidationPx  *string  `json:"liquidationPx"`
	MarginUsed     string   `json:"marginUsed"`
	MaxLeverage    int      `json:"maxLeverage"`
	PositionValue  string   `json:"positionValue"`
	ReturnOnEquity string   `json:"returnOnEquity"`
	Szi            string   `json:"szi"`
	UnrealizedPnl  string   `json:"unrealizedPnl"`
}

// Leverage describes cross or isolated leverage.
type Leverage struct {
	Type  string `json:"type"`
	Value int    `json:"value"`
}

// MarginSummary aggregates account margin figures.
type MarginSummary struct {
	AccountValue    string `json:"accountValue"`
	TotalMarginUsed string `json:"totalMarginUsed"`
	TotalNtlPos     string `json:"totalNtlPos"`
	TotalRawUsd     string `json:"totalRawUsd"`
	Withdrawable    string `json:"withdrawable,omitempty"`
}

// OpenOrder is a resting order.
type OpenOrder struct {
	Coin       string `json:"coin"`
	LimitPx    string `json:"limitPx"`
	Oid        uint64 `json:"oid"`
	OrigSz     string `json:"origSz"`
	ReduceOnly bool   `json:"reduceOnly"`
	Side       string `json:"side"` // "A" ask, "B" bid
	Sz         string `json:"sz"`
	Timestamp  int64  `json:"timestamp"`
}

// Fill is an executed trade of the user.
type Fill struct {
	ClosedPnl     string `json:"closedPnl"`
	Coin          string `json:"coin"`
	Crossed       bool   `json:"crossed"`
	Dir           string `json:"dir"`
	Fee           string `json:"fee"`
	Hash          string `json:"hash"`
	Oid           uint64 `json:"oid"`
	Px            string `json:"px"`
	Side          string `json:"side"`
	StartPosition string `json:"startPosition"`
	Sz            string `json:"sz"`
	Time          int64  `json:"time"`
}

// Funding is one funding-rate sample.
type Funding struct {
	Coin        string `json:"coin"`
	FundingRate string `json:"fundingRate"`
	Premium     string `json:"premium"`
	Time        int64  `json:"time"`
}

// Level is one aggregated price level of an order book.
type Level struct {
	Px string `json:"px"`
	Sz string `json:"sz"`
	N  int    `json:"n"`
}

// L2Book is an order book snapshot. Levels[0] holds bids best-first,
// Levels[1] holds asks best-first.
type L2Book struct {
	Coin   string     `json:"coin"`
	Levels [2][]Level `json:"levels"`
	Time   int64      `json:"time"`
}

// Bids returns the bid side of the book.
func (b L2Book) Bids() []Level { return b.Levels[0] }

// Asks returns the ask side of the book.
func (b L2Book) Asks() []Level { return b.Levels[1] }

// Candle mirrors an entry of the candleSnapshot response.
type Candle struct {
	T      int64  `json:"t"` // Open timestamp (ms)
	TClose int64  `json:"T"` // Close timestamp (ms)
	S      string `json:"s"` // Symbol
	I      string `json:"i"` // Interval
	O      string `json:"o"`
	C      string `json:"c"`
	H      string `json:"h"`
	L      string `json:"l"`
	V      string `json:"v"`
	N      int    `json:"n"` // Number of trades
}

// VaultDetails (info endpoint: type=vaultDetails) response.
type VaultDetails struct {
	Name                  string          `json:"name"`
	VaultAddress          string          `json:"vaultAddress"`
	Leader                string          `json:"leader"`
	Description           string          `json:"description"`
	APR                   float64         `json:"apr"`
	Followers             []VaultFollower `json:"followers"`
	MaxDistributable      float64         `json:"maxDistributable"`
	MaxWithdrawable       float64         `json:"maxWithdrawable"`
	IsClosed              bool            `json:"isClosed"`
	AllowDeposits         bool            `json:"allowDeposits"`
	AlwaysCloseOnWithdraw bool            `json:"alwaysCloseOnWithdraw"`
}

// VaultFollower is a depositor of a vault.
type VaultFollower struct {
	User          string `json:"user"`
	VaultEquity   string `json:"vaultEquity"`
	PnL           string `json:"pnl"`
	AllTimePnL    string `json:"allTimePnl"`
	DaysFollowing int    `json:"daysFollowing"`
}
