package orderwatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"shopsync/internal/api"
	"shopsync/internal/domain"
	"shopsync/internal/kv"
	"shopsync/internal/kv/memory"
	"shopsync/internal/notify"
	"shopsync/internal/session"
)

func newTestWatcher(t *testing.T, handler http.Handler) (*Watcher, *notify.Center, kv.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	state := memory.NewStore()
	sess := session.NewManager(state, nil)
	if err := sess.SaveTokens(domain.TokenPair{Access: "tok"}); err != nil {
		t.Fatalf("save tokens: %v", err)
	}
	client := api.NewClient(srv.URL, 2*time.Second, sess)
	center := notify.NewCenter(client, sess, time.Minute)
	return NewWatcher(client, state, center, time.Second, time.Millisecond), center, state
}

func ordersHandler(orders *[]domain.Order) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/orders/" && r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode(*orders)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestTick_EmitsAcceptedAlertOncePerOrder(t *testing.T) {
	orders := []domain.Order{{ID: 42, Status: domain.OrderStatusAccepted}}
	w, center, state := newTestWatcher(t, ordersHandler(&orders))

	for i := 0; i < 5; i++ {
		w.Tick(context.Background())
	}

	all := center.All()
	if len(all) != 1 {
		t.Fatalf("expected exactly one alert across ticks, got %d", len(all))
	}
	if all[0].Type != domain.NotificationDeliveryAccepted || all[0].OrderID != 42 {
		t.Fatalf("unexpected notification: %+v", all[0])
	}
	if v, ok := state.Get("notified_42_accepted"); !ok || v != "true" {
		t.Fatal("expected accepted marker set")
	}
}

func TestTick_InTransitCountsAsAccepted(t *testing.T) {
	orders := []domain.Order{{ID: 7, Status: domain.OrderStatusInTransit}}
	w, center, _ := newTestWatcher(t, ordersHandler(&orders))

	w.Tick(context.Background())
	all := center.All()
	if len(all) != 1 || all[0].Type != domain.NotificationDeliveryAccepted {
		t.Fatalf("expected delivery_accepted for in_transit, got %+v", all)
	}
}

func TestTick_CompletedEmitsConfirmationRequest(t *testing.T) {
	orders := []domain.Order{{ID: 9, OrderNumber: "CMD-9", Status: domain.OrderStatusDelivered}}
	w, center, state := newTestWatcher(t, ordersHandler(&orders))

	w.Tick(context.Background())
	w.Tick(context.Background())

	all := center.All()
	if len(all) != 1 {
		t.Fatalf("expected one alert, got %d", len(all))
	}
	if all[0].Type != domain.NotificationDeliveryConfirmed {
		t.Fatalf("expected delivery_confirmed, got %s", all[0].Type)
	}
	if _, ok := state.Get("notified_9_completed"); !ok {
		t.Fatal("expected completed marker set")
	}
}

func TestTick_SkipsOrdersWithoutID(t *testing.T) {
	orders := []domain.Order{{Status: domain.OrderStatusAccepted}}
	w, center, _ := newTestWatcher(t, ordersHandler(&orders))

	w.Tick(context.Background())
	if len(center.All()) != 0 {
		t.Fatal("expected no alert for order without id")
	}
}

func TestTick_BackendErrorSkipsTickWithoutMarkers(t *testing.T) {
	var calls int32
	w, center, state := newTestWatcher(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		rw.WriteHeader(http.StatusBadGateway)
	}))

	w.Tick(context.Background())
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected one backend call, got %d", calls)
	}
	if len(center.All()) != 0 {
		t.Fatal("expected no notifications on failed tick")
	}
	if keys := state.Keys("notified_"); len(keys) != 0 {
		t.Fatalf("expected no markers, got %v", keys)
	}
}

func TestTick_SignedOutIsQuiet(t *testing.T) {
	orders := []domain.Order{{ID: 1, Status: domain.OrderStatusAccepted}}
	srv := httptest.NewServer(ordersHandler(&orders))
	t.Cleanup(srv.Close)

	state := memory.NewStore()
	sess := session.NewManager(state, nil) // no tokens stored
	client := api.NewClient(srv.URL, time.Second, sess)
	center := notify.NewCenter(client, sess, time.Minute)
	w := NewWatcher(client, state, center, time.Second, time.Millisecond)

	w.Tick(context.Background())
	if len(center.All()) != 0 {
		t.Fatal("expected no alerts while signed out")
	}
}

func TestConfirmDelivery_ClearsCompletedMarker(t *testing.T) {
	orders := []domain.Order{{ID: 9, Status: domain.OrderStatusCompleted}}
	var confirmBody struct {
		Confirmed bool   `json:"confirmed"`
		Status    string `json:"status"`
	}
	handler := http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/auth/orders/" && r.Method == http.MethodGet:
			_ = json.NewEncoder(rw).Encode(orders)
		case r.URL.Path == "/api/auth/orders/9/confirm-delivery/" && r.Method == http.MethodPost:
			_ = json.NewDecoder(r.Body).Decode(&confirmBody)
			rw.WriteHeader(http.StatusOK)
		default:
			rw.WriteHeader(http.StatusNotFound)
		}
	})
	w, _, state := newTestWatcher(t, handler)

	w.Tick(context.Background())
	if _, ok := state.Get("notified_9_completed"); !ok {
		t.Fatal("expected completed marker before confirmation")
	}

	if err := w.ConfirmDelivery(context.Background(), 9, true); err != nil {
		t.Fatalf("confirm delivery: %v", err)
	}
	if !confirmBody.Confirmed || confirmBody.Status != "received" {
		t.Fatalf("unexpected confirm payload: %+v", confirmBody)
	}
	if _, ok := state.Get("notified_9_completed"); ok {
		t.Fatal("expected completed marker cleared after confirmation")
	}
}

func TestConfirmDelivery_BackendFailureKeepsMarker(t *testing.T) {
	handler := http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusBadGateway)
	})
	w, _, state := newTestWatcher(t, handler)
	_ = state.Set("notified_9_completed", "true")

	if err := w.ConfirmDelivery(context.Background(), 9, false); err == nil {
		t.Fatal("expected error from backend failure")
	}
	if _, ok := state.Get("notified_9_completed"); !ok {
		t.Fatal("expected marker untouched after failed confirmation")
	}
}
