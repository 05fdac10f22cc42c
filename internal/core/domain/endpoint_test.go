package domain

import "testing"

func TestTrackingAPIURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "page url",
			in:   "https://host/order/tracking/AA/BB",
			want: "https://host/order-details/tracking/AA/BB",
		},
		{
			name: "real dispatch url",
			in:   "https://dispatch.yabalash.com/order/tracking/976d51/nS7ueT",
			want: "https://dispatch.yabalash.com/order-details/tracking/976d51/nS7ueT",
		},
		{
			name: "already api url",
			in:   "https://host/order-details/tracking/AA/BB",
			want: "https://host/order-details/tracking/AA/BB",
		},
		{
			name: "unrelated path",
			in:   "https://host/orders/42",
			want: "https://host/orders/42",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TrackingAPIURL(tc.in); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
