package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"shopsync/internal/api"
	"shopsync/internal/domain"
	"shopsync/internal/session"
)

// Center is the authoritative notification list for the session. It mixes
// backend-persisted records with local system messages and keeps the backend
// subset loosely synchronized by polling. Local state drives the UI: reads
// are flipped optimistically and never rolled back, deletes require backend
// success first.
type Center struct {
	mu      sync.Mutex
	client  *api.Client
	session *session.Manager
	ttl     time.Duration

	items  []domain.Notification
	timers map[int64]*time.Timer
	lastID int64
}

func NewCenter(client *api.Client, sess *session.Manager, systemMessageTTL time.Duration) *Center {
	return &Center{
		client:  client,
		session: sess,
		ttl:     systemMessageTTL,
		timers:  make(map[int64]*time.Timer),
	}
}

// Fetch replaces the backend-sourced subset wholesale, leaving system
// messages untouched. Without a token it is a no-op; on failure the prior
// state stands.
func (c *Center) Fetch(ctx context.Context) error {
	if !c.session.Authenticated() {
		return nil
	}
	fetched, err := c.client.Notifications(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	merged := make([]domain.Notification, 0, len(fetched)+len(c.items))
	for _, n := range c.items {
		if n.IsSystemMessage {
			merged = append(merged, n)
		}
	}
	merged = append(merged, fetched...)
	c.items = merged
	return nil
}

// MarkAsRead flips is_read locally right away and reports to the backend in
// the background. A backend failure is logged, not rolled back.
func (c *Center) MarkAsRead(id int64) {
	c.mu.Lock()
	var backendID int64
	for i, n := range c.items {
		if n.ID == id || n.BackendID == id {
			c.items[i].IsRead = true
			if !n.IsSystemMessage {
				backendID = n.BackendID
			}
			break
		}
	}
	c.mu.Unlock()
	if backendID == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.client.MarkNotificationRead(ctx, backendID); err != nil {
			log.Printf("mark notification %d as read: %v", backendID, err)
		}
	}()
}

func (c *Center) MarkAllAsRead() {
	c.mu.Lock()
	for i := range c.items {
		c.items[i].IsRead = true
	}
	c.mu.Unlock()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.client.MarkAllNotificationsRead(ctx); err != nil {
			log.Printf("mark all notifications as read: %v", err)
		}
	}()
}

// Delete removes a backend notification. The backend DELETE must succeed
// before the entry leaves the local list; system messages are removed
// locally.
func (c *Center) Delete(ctx context.Context, id int64) error {
	c.mu.Lock()
	var target *domain.Notification
	for i := range c.items {
		if c.items[i].ID == id || c.items[i].BackendID == id {
			target = &c.items[i]
			break
		}
	}
	if target == nil {
		c.mu.Unlock()
		return nil
	}
	if target.IsSystemMessage {
		c.mu.Unlock()
		c.Remove(id)
		return nil
	}
	backendID := target.BackendID
	c.mu.Unlock()

	if err := c.client.DeleteNotification(ctx, backendID); err != nil {
		log.Printf("delete notification %d: %v", backendID, err)
		return err
	}
	c.mu.Lock()
	c.items = c.removeLocked(backendID)
	c.mu.Unlock()
	return nil
}

// HandleAction reports a confirm/reject decision, records it optimistically,
// then forces a refetch to reconcile. The decision is recorded at most once.
func (c *Center) HandleAction(ctx context.Context, id int64, action domain.NotificationAction) error {
	c.mu.Lock()
	var backendID int64
	for _, n := range c.items {
		if n.ID == id || n.BackendID == id {
			if n.ActionTaken != domain.ActionNone {
				c.mu.Unlock()
				return nil
			}
			backendID = n.BackendID
			break
		}
	}
	c.mu.Unlock()
	if backendID == 0 {
		return nil
	}

	if err := c.client.SendNotificationAction(ctx, backendID, action); err != nil {
		log.Printf("notification %d action %s: %v", backendID, action, err)
		return err
	}
	c.mu.Lock()
	for i := range c.items {
		if c.items[i].BackendID == backendID {
			c.items[i].ActionTaken = action
			break
		}
	}
	c.mu.Unlock()

	if err := c.Fetch(ctx); err != nil {
		log.Printf("refresh notifications after action: %v", err)
	}
	return nil
}

// Add inserts a local system message and returns its generated id. The
// message expires after the configured TTL unless autoClose is disabled.
func (c *Center) Add(n domain.Notification, autoClose bool) int64 {
	c.mu.Lock()
	id := time.Now().UnixMilli()
	if id <= c.lastID {
		id = c.lastID + 1
	}
	c.lastID = id
	n.ID = id
	n.IsSystemMessage = true
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}
	if n.Type == "" {
		n.Type = domain.NotificationInfo
	}
	c.items = append([]domain.Notification{n}, c.items...)
	if autoClose {
		c.timers[id] = time.AfterFunc(c.ttl, func() { c.Remove(id) })
	}
	c.mu.Unlock()
	return id
}

// Remove drops an entry locally without a backend round-trip.
func (c *Center) Remove(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
	c.items = c.removeLocked(id)
}

// ClearAll deletes every unread backend notification and drops the rest
// locally. Signed out, it just empties the local list.
func (c *Center) ClearAll(ctx context.Context) {
	if !c.session.Authenticated() {
		c.Reset()
		return
	}
	c.mu.Lock()
	var unread []int64
	for _, n := range c.items {
		if !n.IsRead && !n.IsSystemMessage {
			unread = append(unread, n.BackendID)
		}
	}
	c.mu.Unlock()
	for _, id := range unread {
		if err := c.Delete(ctx, id); err != nil {
			return
		}
	}
}

// Reset empties the local list and stops expiry timers; called on logout.
func (c *Center) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
	c.items = nil
}

func (c *Center) All() []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Notification, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Center) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, n := range c.items {
		if !n.IsRead {
			count++
		}
	}
	return count
}

// Run polls the backend feed until the context is cancelled. The token is
// checked per tick via Fetch, so polling goes quiet while signed out and
// resumes after the next login. Overlapping fetches are not coordinated;
// the last response to resolve wins.
func (c *Center) Run(ctx context.Context, interval time.Duration) {
	if err := c.Fetch(ctx); err != nil {
		log.Printf("fetch notifications: %v", err)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Fetch(ctx); err != nil {
				log.Printf("fetch notifications: %v", err)
			}
		}
	}
}

// removeLocked filters by either id. Callers hold c.mu.
func (c *Center) removeLocked(id int64) []domain.Notification {
	kept := c.items[:0]
	for _, n := range c.items {
		if n.ID == id || (n.BackendID != 0 && n.BackendID == id) {
			continue
		}
		kept = append(kept, n)
	}
	return kept
}
