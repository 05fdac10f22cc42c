package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yabalash/driver-tracker/internal/core/domain"
)

const ordersBody = `{
	"data": {
		"current_page": 1,
		"data": [
			{
				"order_number": 1001,
				"dispatch_traking_url": "https://dispatch.example/order/tracking/976d51/nS7ueT",
				"payable_amount": "42.50",
				"vendor": {"name": "Burger Place"},
				"order_status": {"current_status": {"title": "Out for delivery"}}
			},
			{
				"order_number": "1002",
				"dispatch_traking_url": null,
				"payable_amount": 10
			}
		]
	}
}`

// fakeOrderAPI emulates the login and order-listing endpoints.
type fakeOrderAPI struct {
	t            *testing.T
	token        string
	ordersBody   string
	logins       atomic.Int32
	listCalls    atomic.Int32
	rejectFirstN int32
}

func (f *fakeOrderAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.logins.Add(1)
		assert.Equal(f.t, http.MethodPost, r.Method)
		assert.Equal(f.t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(f.t, "2b5f69", r.Header.Get("code"))

		var req loginRequest
		if !assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Email != "ops@example.com" || req.Password != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid credentials"}`))
			return
		}
		assert.Equal(f.t, "web", req.DeviceType)
		_, _ = w.Write([]byte(`{"data":{"auth_token":"` + f.token + `"}}`))
	})
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		n := f.listCalls.Add(1)
		assert.Equal(f.t, "50", r.URL.Query().Get("limit"))
		assert.Equal(f.t, "2b5f69", r.Header.Get("code"))
		if n <= f.rejectFirstN || r.Header.Get("Authorization") != f.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(f.ordersBody))
	})
	return mux
}

func newFake(t *testing.T) (*fakeOrderAPI, *httptest.Server) {
	t.Helper()
	f := &fakeOrderAPI{t: t, token: "tok-123", ordersBody: ordersBody}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return f, srv
}

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:    baseURL + "/",
		TenantCode: "2b5f69",
		Email:      "ops@example.com",
		Password:   "s3cret",
	}, zerolog.Nop())
}

func TestClient_Login(t *testing.T) {
	_, srv := newFake(t)
	c := NewClient(Config{BaseURL: srv.URL, TenantCode: "2b5f69"}, zerolog.Nop())

	require.False(t, c.Authenticated())
	require.NoError(t, c.Login(context.Background(), "ops@example.com", "s3cret"))
	assert.True(t, c.Authenticated())
}

func TestClient_Login_Rejected(t *testing.T) {
	_, srv := newFake(t)
	c := NewClient(Config{BaseURL: srv.URL, TenantCode: "2b5f69"}, zerolog.Nop())

	err := c.Login(context.Background(), "ops@example.com", "wrong")

	var he *domain.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.StatusCode)
	assert.False(t, c.Authenticated())
}

func TestClient_ListOrders_LogsInLazily(t *testing.T) {
	f, srv := newFake(t)
	c := newTestClient(srv.URL)

	orders, err := c.ListOrders(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, domain.Order{
		Number:        "1001",
		TrackingURL:   "https://dispatch.example/order/tracking/976d51/nS7ueT",
		VendorName:    "Burger Place",
		PayableAmount: "42.50",
		StatusTitle:   "Out for delivery",
	}, orders[0])
	assert.Equal(t, "1002", orders[1].Number)
	assert.False(t, orders[1].HasTracking())
	assert.EqualValues(t, 1, f.logins.Load())
}

func TestClient_ListOrders_WithoutCredentials(t *testing.T) {
	_, srv := newFake(t)
	c := NewClient(Config{BaseURL: srv.URL}, zerolog.Nop())

	_, err := c.ListOrders(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestClient_ListOrders_ReloginOnUnauthorized(t *testing.T) {
	f, srv := newFake(t)
	f.rejectFirstN = 1
	c := newTestClient(srv.URL)

	orders, err := c.ListOrders(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.EqualValues(t, 2, f.logins.Load())
	assert.EqualValues(t, 2, f.listCalls.Load())
}

func TestClient_ListOrders_UnexpectedShape(t *testing.T) {
	cases := map[string]string{
		"flat list":     `{"data": [{"order_number": 1}]}`,
		"no data":       `{"message": "ok"}`,
		"not json":      `oops`,
		"vendor string": `{"data": {"data": [{"order_number": 1, "vendor": "x"}]}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			f, srv := newFake(t)
			f.ordersBody = body
			c := newTestClient(srv.URL)

			_, err := c.ListOrders(context.Background(), 0)
			assert.ErrorIs(t, err, domain.ErrParse)
		})
	}
}

func TestClient_FindOrder(t *testing.T) {
	_, srv := newFake(t)
	c := newTestClient(srv.URL)

	o, err := c.FindOrder(context.Background(), "1001")
	require.NoError(t, err)
	assert.Equal(t, "Burger Place", o.VendorName)

	_, err = c.FindOrder(context.Background(), "9999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_TrackedOrders(t *testing.T) {
	_, srv := newFake(t)
	c := newTestClient(srv.URL)

	tracked, err := c.TrackedOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, tracked, 1)
	assert.Equal(t, "1001", tracked[0].Number)
}
