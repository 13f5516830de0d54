package orderwatch

import (
	"context"
	"fmt"
	"log"
	"time"

	"shopsync/internal/api"
	"shopsync/internal/domain"
	"shopsync/internal/kv"
	"shopsync/internal/notify"
)

// Watcher polls the user's orders and raises one system notification per
// observed transition per order. Durable markers in the client-state store
// keep an alert from firing twice, across ticks and across restarts.
type Watcher struct {
	client       *api.Client
	state        kv.Store
	center       *notify.Center
	interval     time.Duration
	initialDelay time.Duration
}

func NewWatcher(client *api.Client, state kv.Store, center *notify.Center, interval, initialDelay time.Duration) *Watcher {
	return &Watcher{
		client:       client,
		state:        state,
		center:       center,
		interval:     interval,
		initialDelay: initialDelay,
	}
}

// Run ticks every interval after one delayed initial tick, until the context
// is cancelled. The notification poller runs on its own schedule; the two are
// deliberately uncoordinated.
func (w *Watcher) Run(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(w.initialDelay):
		w.Tick(ctx)
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick fetches the order list and emits any not-yet-notified transition
// alerts. Errors skip the tick; markers are only written after the
// notification has been added, in the same pass.
func (w *Watcher) Tick(ctx context.Context) {
	orders, err := w.client.Orders(ctx)
	if err != nil {
		if err != api.ErrNoToken {
			log.Printf("order status poll: %v", err)
		}
		return
	}
	for _, order := range orders {
		if order.ID == 0 {
			continue
		}
		w.checkAccepted(order)
		w.checkCompleted(order)
	}
}

func (w *Watcher) checkAccepted(order domain.Order) {
	switch order.Status {
	case domain.OrderStatusAccepted, domain.OrderStatusInTransit:
	default:
		return
	}
	key := acceptedMarker(order.ID)
	if w.marked(key) {
		return
	}
	w.center.Add(domain.Notification{
		Type:        domain.NotificationDeliveryAccepted,
		Message:     fmt.Sprintf("Commande %s en cours de livraison", orderLabel(order)),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
	}, false)
	w.setMarker(key)
}

func (w *Watcher) checkCompleted(order domain.Order) {
	switch order.Status {
	case domain.OrderStatusCompleted, domain.OrderStatusDelivered, domain.OrderStatusReadyForPickup:
	default:
		return
	}
	key := completedMarker(order.ID)
	if w.marked(key) {
		return
	}
	w.center.Add(domain.Notification{
		Type:        domain.NotificationDeliveryConfirmed,
		Message:     fmt.Sprintf("Commande %s marquée comme livrée", orderLabel(order)),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
	}, false)
	w.setMarker(key)
}

// ConfirmDelivery forwards the user's confirm/dispute decision and, on
// success, clears the completed marker so a later backend-driven transition
// can alert again.
func (w *Watcher) ConfirmDelivery(ctx context.Context, orderID int64, confirmed bool) error {
	if err := w.client.ConfirmDelivery(ctx, orderID, confirmed); err != nil {
		return err
	}
	if err := w.state.Delete(completedMarker(orderID)); err != nil {
		log.Printf("clear delivery marker for order %d: %v", orderID, err)
	}
	return nil
}

func (w *Watcher) marked(key string) bool {
	v, ok := w.state.Get(key)
	return ok && v == "true"
}

func (w *Watcher) setMarker(key string) {
	if err := w.state.Set(key, "true"); err != nil {
		log.Printf("set delivery marker %s: %v", key, err)
	}
}

func acceptedMarker(orderID int64) string {
	return fmt.Sprintf("notified_%d_accepted", orderID)
}

func completedMarker(orderID int64) string {
	return fmt.Sprintf("notified_%d_completed", orderID)
}

func orderLabel(order domain.Order) string {
	if order.OrderNumber != "" {
		return order.OrderNumber
	}
	return fmt.Sprintf("%d", order.ID)
}
