package app

import (
	"context"
	"net/http"
	"testing"

	"github.com/agentpay/agent-portal/pkg/backendclient"
)

func TestGetSettlements_DecodesRecords(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/agents/agent-1/settlements" {
			t.Errorf("unexpected backend path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("status"); got != "paid" {
			t.Errorf("expected status filter %q, got %q", "paid", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"settlements": [
			{"id": "s1", "amount": 120.5, "currency": "USD", "status": "paid", "period_start": "2025-01-01", "period_end": "2025-01-31"}
		]}`))
	})
	svc, store, _ := newTestService(t, handler)
	seedSession(store, "")

	list, err := svc.GetSettlements(context.Background(), "paid")
	if err != nil {
		t.Fatalf("expected settlements, got error %v", err)
	}
	if len(list.Settlements) != 1 {
		t.Fatalf("expected 1 settlement, got %d", len(list.Settlements))
	}
	first := list.Settlements[0]
	if first.ID != "s1" || first.Amount != 120.5 || first.Currency != "USD" || first.Status != "paid" {
		t.Errorf("unexpected settlement mapping: %+v", first)
	}
}

func TestGetSettlements_NormalizesNilSlice(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	})
	svc, store, _ := newTestService(t, handler)
	seedSession(store, "")

	list, err := svc.GetSettlements(context.Background(), "")
	if err != nil {
		t.Fatalf("expected empty list, got error %v", err)
	}
	if list.Settlements == nil || len(list.Settlements) != 0 {
		t.Errorf("expected empty settlements slice instead of nil, got %+v", list.Settlements)
	}
}

func TestGetPendingSettlements_PropagatesBackendError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail": "not allowed"}`))
	})
	svc, store, _ := newTestService(t, handler)
	seedSession(store, "")

	_, err := svc.GetPendingSettlements(context.Background())
	if backendclient.StatusOf(err) != http.StatusForbidden {
		t.Fatalf("expected 403 to propagate, got %v", err)
	}
}
