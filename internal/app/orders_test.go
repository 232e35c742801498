package app

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
)

func testAPIKey() string {
	return "ak_live_" + strings.Repeat("ab", 32)
}

func TestValidAPIKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"issued format", testAPIKey(), true},
		{"empty", "", false},
		{"wrong prefix", "ak_test_" + strings.Repeat("ab", 32), false},
		{"too short", "ak_live_abcdef", false},
		{"uppercase hex", "ak_live_" + strings.Repeat("AB", 32), false},
		{"trailing garbage", testAPIKey() + "x", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidAPIKey(tc.key); got != tc.want {
				t.Errorf("ValidAPIKey(%q) = %t, want %t", tc.key, got, tc.want)
			}
		})
	}
}

func TestEnsureAPIKey_ProvisionsExactlyOnce(t *testing.T) {
	var resets atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/agent/self/api-key/reset":
			resets.Add(1)
			w.Write([]byte(`{"status": "success", "new_api_key": "` + testAPIKey() + `"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/agent/v1/orders":
			if got := r.Header.Get("X-API-Key"); got != testAPIKey() {
				t.Errorf("expected provisioned key on orders request, got %q", got)
			}
			w.Write([]byte(`{"orders": []}`))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	svc, store, _ := newTestService(t, handler)
	seedSession(store, "")

	ctx := context.Background()
	svc.GetOrders(ctx, 10)
	svc.GetOrders(ctx, 10)

	if got := resets.Load(); got != 1 {
		t.Fatalf("expected exactly one provisioning call, got %d", got)
	}
	if got := store.session().APIKey; got != testAPIKey() {
		t.Errorf("expected provisioned key in session, got %q", got)
	}
}

func TestEnsureAPIKey_SkipsProvisioningWhenKeyValid(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/agent/self/api-key/reset" {
			t.Error("provisioning must not run when a valid key is stored")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"orders": []}`))
	})
	svc, store, _ := newTestService(t, handler)
	seedSession(store, testAPIKey())

	svc.GetOrders(context.Background(), 10)
}

func TestEnsureAPIKey_RejectsMalformedIssuedKey(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "success", "new_api_key": "not-a-key"}`))
	})
	svc, store, _ := newTestService(t, handler)
	seedSession(store, "")

	orders := svc.GetOrders(context.Background(), 10)
	if len(orders) != 0 {
		t.Errorf("expected empty fallback, got %d orders", len(orders))
	}
	if got := store.session().APIKey; got != "" {
		t.Errorf("expected malformed key to be discarded, found %q in session", got)
	}
}

func TestEnsureAPIKey_RequiresSession(t *testing.T) {
	svc, _, _ := newTestService(t, http.NotFoundHandler())

	_, err := svc.RefundOrder(context.Background(), "o1")
	if err != ErrNotAuthenticated {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestGetOrders_MapsWireShape(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"orders": [
			{"order_id": "o1", "customer_email": "c@example.com", "total": "25.50", "status": "paid", "merchant_id": "m1"},
			{"order_id": "o2", "total": "not-a-number", "status": "pending"}
		]}`))
	})
	svc, store, _ := newTestService(t, handler)
	seedSession(store, testAPIKey())

	orders := svc.GetOrders(context.Background(), 10)
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}

	first := orders[0]
	if first.ID != "o1" || first.OrderNumber != "o1" {
		t.Errorf("expected id and order number %q, got %q / %q", "o1", first.ID, first.OrderNumber)
	}
	if first.TotalAmount != 25.5 {
		t.Errorf("expected total 25.5, got %v", first.TotalAmount)
	}
	if first.Status != "paid" || first.MerchantID != "m1" {
		t.Errorf("unexpected mapping: %+v", first)
	}
	if orders[1].TotalAmount != 0 {
		t.Errorf("expected unparsable total to map to zero, got %v", orders[1].TotalAmount)
	}
}

func TestRefundOrder_PropagatesBackendError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"detail": "Order already refunded"}`))
	})
	svc, store, _ := newTestService(t, handler)
	seedSession(store, testAPIKey())

	_, err := svc.RefundOrder(context.Background(), "o1")
	if err == nil || !strings.Contains(err.Error(), "Order already refunded") {
		t.Fatalf("expected backend detail to propagate, got %v", err)
	}
}

func TestTrackOrder_FallbackCarriesOrderID(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	svc, store, _ := newTestService(t, handler)
	seedSession(store, testAPIKey())

	tracking := svc.TrackOrder(context.Background(), "o42")
	if tracking.OrderID != "o42" {
		t.Errorf("expected fallback order id %q, got %q", "o42", tracking.OrderID)
	}
	if tracking.FulfillmentStatus != "unknown" {
		t.Errorf("expected status %q, got %q", "unknown", tracking.FulfillmentStatus)
	}
	if tracking.Timeline == nil || len(tracking.Timeline) != 0 {
		t.Errorf("expected empty timeline, got %+v", tracking.Timeline)
	}
}
