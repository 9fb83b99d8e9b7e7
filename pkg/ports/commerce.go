package ports

import (
	"context"

	"github.com/packfolio/concierge/pkg/domain"
)

// ShopIdentity names the commerce backend a request is executed against.
type ShopIdentity struct {
	Domain string
	Token  string
}

// CatalogProvider fetches the active catalog from the commerce backend.
// Non-2xx responses must surface as a typed failure, never as a silent
// empty catalog.
type CatalogProvider interface {
	FetchActiveCatalog(ctx context.Context, shop ShopIdentity) ([]domain.Package, error)
}

// OrderService creates draft orders against the commerce backend.
// Implementations must reject a call carrying zero total line items
// (no variant id and no custom items) before any network call.
type OrderService interface {
	CreateOrder(ctx context.Context, shop ShopIdentity, variantID string, quantity int, note string, custom []domain.LineItem) (*domain.DraftOrder, error)
}
