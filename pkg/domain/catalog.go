package domain

// Variant is a purchasable option of a package.
type Variant struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Price string `json:"price"`
}

// Package is a sellable catalog item offered by the vendor.
type Package struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Variants []Variant `json:"variants"`
}

// Match is one entry of the disambiguation shortlist.
type Match struct {
	ID        string `json:"id" mapstructure:"id"`
	CatalogID string `json:"catalogId" mapstructure:"catalog_id"`
	Name      string `json:"name" mapstructure:"name"`
	Reason    string `json:"reason" mapstructure:"reason"`
}

// DraftOrder is the result returned by the order service.
type DraftOrder struct {
	OrderID    string `json:"id"`
	AdminURL   string `json:"adminUrl"`
	InvoiceURL string `json:"invoiceUrl,omitempty"`
}

// LineItem is a custom (non-variant) order line.
type LineItem struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}
