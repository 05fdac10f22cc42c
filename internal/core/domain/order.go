package domain

// Order is the subset of an order-API order the tracker cares about.
type Order struct {
	Number        string `json:"order_number"`
	TrackingURL   string `json:"tracking_url,omitempty"`
	VendorName    string `json:"vendor_name,omitempty"`
	PayableAmount string `json:"payable_amount,omitempty"`
	StatusTitle   string `json:"status,omitempty"`
}

// HasTracking reports whether the dispatch system has issued a tracking URL.
func (o Order) HasTracking() bool {
	return o.TrackingURL != ""
}
