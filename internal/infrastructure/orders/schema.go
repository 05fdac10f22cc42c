package orders

import (
	"github.com/yabalash/driver-tracker/internal/core/domain"
	"github.com/yabalash/driver-tracker/internal/pkg/jsonx"
)

type loginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DeviceType  string `json:"device_type"`
	DeviceToken string `json:"device_token"`
}

type loginResponse struct {
	Data *struct {
		AuthToken string `json:"auth_token"`
	} `json:"data"`
}

// listResponse is the paginated envelope of GET /orders: data.data[].
type listResponse struct {
	Data *struct {
		Data *[]orderPayload `json:"data"`
	} `json:"data"`
}

type orderPayload struct {
	OrderNumber   jsonx.Scalar `json:"order_number"`
	// The API spells it "traking".
	TrackingURL   string       `json:"dispatch_traking_url"`
	PayableAmount jsonx.Scalar `json:"payable_amount"`
	Vendor        *struct {
		Name string `json:"name"`
	} `json:"vendor"`
	OrderStatus *struct {
		CurrentStatus *struct {
			Title string `json:"title"`
		} `json:"current_status"`
	} `json:"order_status"`
}

func (p orderPayload) toDomain() domain.Order {
	o := domain.Order{
		Number:        p.OrderNumber.String(),
		TrackingURL:   p.TrackingURL,
		PayableAmount: p.PayableAmount.String(),
	}
	if p.Vendor != nil {
		o.VendorName = p.Vendor.Name
	}
	if p.OrderStatus != nil && p.OrderStatus.CurrentStatus != nil {
		o.StatusTitle = p.OrderStatus.CurrentStatus.Title
	}
	return o
}
