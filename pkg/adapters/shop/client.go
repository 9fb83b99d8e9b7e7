// Package shop is a focused client for the commerce backend's Admin REST
// API: active-catalog listing and draft order creation. It implements
// ports.CatalogProvider and ports.OrderService.
package shop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/packfolio/concierge/pkg/domain"
	"github.com/packfolio/concierge/pkg/ports"
)

const (
	apiVersion = "2024-10"
	pageLimit  = 250
)

// StatusError captures non-2xx upstream responses with status-aware context.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("shop: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *StatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client talks to a single commerce backend API version. Credentials are
// passed per call so one client can serve many shops.
type Client struct {
	httpClient *http.Client
	scheme     string
}

type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithScheme overrides the URL scheme. Tests use "http" against httptest.
func WithScheme(scheme string) Option {
	return func(c *Client) {
		c.scheme = scheme
	}
}

// New creates a commerce client with a sane default timeout.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		scheme:     "https",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// productsResponse is the minimal response shape of the products listing.
type productsResponse struct {
	Products []struct {
		ID       int64  `json:"id"`
		Title    string `json:"title"`
		Variants []struct {
			ID    int64  `json:"id"`
			Title string `json:"title"`
			Price string `json:"price"`
		} `json:"variants"`
	} `json:"products"`
}

// FetchActiveCatalog lists all active products, following Link-header
// pagination until the last page.
func (c *Client) FetchActiveCatalog(ctx context.Context, shop ports.ShopIdentity) ([]domain.Package, error) {
	url := fmt.Sprintf("%s://%s/admin/api/%s/products.json?status=active&limit=%d", c.scheme, shop.Domain, apiVersion, pageLimit)

	var catalog []domain.Package
	for url != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("building catalog request: %w", err)
		}
		req.Header.Set("X-Shopify-Access-Token", shop.Token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching catalog: %w", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading catalog response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &StatusError{StatusCode: resp.StatusCode, URL: url, Body: strings.TrimSpace(string(body))}
		}

		var page productsResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decoding catalog response: %w", err)
		}
		for _, p := range page.Products {
			pkg := domain.Package{
				ID:    fmt.Sprintf("%d", p.ID),
				Title: p.Title,
			}
			for _, v := range p.Variants {
				pkg.Variants = append(pkg.Variants, domain.Variant{
					ID:    fmt.Sprintf("%d", v.ID),
					Title: v.Title,
					Price: v.Price,
				})
			}
			catalog = append(catalog, pkg)
		}

		url = nextPageURL(resp.Header.Get("Link"))
	}
	return catalog, nil
}

var linkNextRe = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// nextPageURL extracts the rel="next" target from a Link header, or "".
func nextPageURL(link string) string {
	if link == "" {
		return ""
	}
	m := linkNextRe.FindStringSubmatch(link)
	if m == nil {
		return ""
	}
	return m[1]
}

// draftOrderRequest is the minimal request shape for draft order creation.
type draftOrderRequest struct {
	DraftOrder draftOrderBody `json:"draft_order"`
}

type draftOrderBody struct {
	LineItems []draftLineItem `json:"line_items"`
	Note      string          `json:"note,omitempty"`
}

type draftLineItem struct {
	VariantID int64  `json:"variant_id,omitempty"`
	Title     string `json:"title,omitempty"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price,omitempty"`
}

// draftOrderResponse is the minimal response shape for draft order creation.
type draftOrderResponse struct {
	DraftOrder struct {
		ID         int64  `json:"id"`
		InvoiceURL string `json:"invoice_url"`
	} `json:"draft_order"`
}

// CreateOrder creates a draft order for variantID (if non-empty) plus any
// custom line items. A call carrying zero total line items fails before
// any network I/O.
func (c *Client) CreateOrder(ctx context.Context, shop ports.ShopIdentity, variantID string, quantity int, note string, custom []domain.LineItem) (*domain.DraftOrder, error) {
	var items []draftLineItem
	if variantID != "" {
		var vid int64
		if _, err := fmt.Sscanf(variantID, "%d", &vid); err != nil {
			return nil, fmt.Errorf("invalid variant id %q: %w", variantID, err)
		}
		if quantity < 1 {
			quantity = 1
		}
		items = append(items, draftLineItem{VariantID: vid, Quantity: quantity})
	}
	for _, li := range custom {
		qty := li.Quantity
		if qty < 1 {
			qty = 1
		}
		items = append(items, draftLineItem{Title: li.Title, Quantity: qty, Price: li.Price})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("draft order requires at least one line item")
	}

	payload, err := json.Marshal(draftOrderRequest{DraftOrder: draftOrderBody{LineItems: items, Note: note}})
	if err != nil {
		return nil, fmt.Errorf("encoding draft order: %w", err)
	}

	url := fmt.Sprintf("%s://%s/admin/api/%s/draft_orders.json", c.scheme, shop.Domain, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building draft order request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", shop.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("creating draft order: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading draft order response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: url, Body: strings.TrimSpace(string(body))}
	}

	var decoded draftOrderResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decoding draft order response: %w", err)
	}
	orderID := fmt.Sprintf("%d", decoded.DraftOrder.ID)
	return &domain.DraftOrder{
		OrderID:    orderID,
		AdminURL:   fmt.Sprintf("https://%s/admin/draft_orders/%s", shop.Domain, orderID),
		InvoiceURL: decoded.DraftOrder.InvoiceURL,
	}, nil
}
