package exchange

import "context"

// Trader exposes signed trading actions in an exchange-agnostic fashion.
type Trader interface {
	// Order management.
	Order(ctx context.Context, req OrderRequest) (*APIResponse, error)
	BulkOrders(ctx context.Context, reqs []OrderRequest) (*APIResponse, error)
	Cancel(ctx context.Context, coin string, oid uint64) (*APIResponse, error)
	BulkCancel(ctx context.Context, reqs []CancelRequest) (*APIResponse, error)

	// Funds.
	UsdTransfer(ctx context.Context, destination string, amount float64) (*APIResponse, error)

	// Utilities.
	AssetIndex(ctx context.Context, coin string) (int, error)
	Address() string
}
