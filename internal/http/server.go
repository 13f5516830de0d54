package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"shopsync/internal/api"
	"shopsync/internal/cartfav"
	"shopsync/internal/config"
	"shopsync/internal/domain"
	"shopsync/internal/driver"
	"shopsync/internal/notify"
	"shopsync/internal/orderwatch"
	"shopsync/internal/session"
)

// Server is the local gateway the UI talks to. It owns no business logic:
// cart and favorites mutate the local store, notification and order calls go
// through the synchronizer and watcher, everything else proxies the backend.
type Server struct {
	cfg     config.Config
	session *session.Manager
	backend *api.Client
	cart    *cartfav.Store
	center  *notify.Center
	watcher *orderwatch.Watcher
}

func NewServer(
	cfg config.Config,
	sess *session.Manager,
	backend *api.Client,
	cart *cartfav.Store,
	center *notify.Center,
	watcher *orderwatch.Watcher,
) *Server {
	return &Server{
		cfg:     cfg,
		session: sess,
		backend: backend,
		cart:    cart,
		center:  center,
		watcher: watcher,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/facial-login", s.handleFacialLogin)
	r.Post("/contact", s.handleContact)

	r.Get("/products/search", s.handleSearchProducts)
	r.Get("/products/counts", s.handleStoreCounts)
	r.Get("/products/store/{store}", s.handleStoreProducts)
	r.Get("/products/{id}", s.handleProductDetail)

	r.Group(func(protected chi.Router) {
		protected.Use(s.requireSession)

		protected.Post("/auth/logout", s.handleLogout)

		protected.Get("/cart", s.handleGetCart)
		protected.Post("/cart/items", s.handleAddToCart)
		protected.Put("/cart/items/{id}", s.handleUpdateCartQuantity)
		protected.Delete("/cart/items/{id}", s.handleRemoveFromCart)
		protected.Post("/cart/clear", s.handleClearCart)

		protected.Get("/favorites", s.handleGetFavorites)
		protected.Post("/favorites/toggle", s.handleToggleFavorite)
		protected.Delete("/favorites/{id}", s.handleRemoveFavorite)

		protected.Get("/notifications", s.handleGetNotifications)
		protected.Post("/notifications/read-all", s.handleMarkAllRead)
		protected.Post("/notifications/{id}/read", s.handleMarkRead)
		protected.Post("/notifications/{id}/action", s.handleNotificationAction)
		protected.Delete("/notifications/{id}", s.handleDeleteNotification)

		protected.Post("/checkout", s.handleCheckout)
		protected.Get("/orders", s.handleOrders)
		protected.Post("/orders/{id}/confirm-delivery", s.handleConfirmDelivery)

		protected.Get("/driver/dashboard", s.handleDriverDashboard)
		protected.Put("/driver/orders/{id}/accept", s.handleAcceptAssignment)
		protected.Put("/driver/orders/{id}/reject", s.handleRejectAssignment)
		protected.Put("/driver/orders/{id}/complete", s.handleCompleteAssignment)
		protected.Get("/driver/availability", s.handleGetAvailability)
		protected.Post("/driver/availability", s.handleSetAvailability)
		protected.Get("/driver/calendar", s.handleDriverCalendar)
		protected.Get("/driver/delivery-days", s.handleDeliveryDays)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// --- auth ---

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds api.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tokens, err := s.backend.Login(r.Context(), creds)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "login failed")
		return
	}
	if err := s.session.SaveTokens(tokens); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	tokens, err := s.backend.Register(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadGateway, "registration failed")
		return
	}
	if err := s.session.SaveTokens(tokens); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleFacialLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Image string `json:"image"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Image == "" {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}
	tokens, err := s.backend.FacialLogin(r.Context(), req.Image)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "facial login failed")
		return
	}
	if err := s.session.SaveTokens(tokens); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleLogout tears down the session-scoped stores along with the tokens.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Clear(); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear session")
		return
	}
	s.cart.Reset()
	s.center.Reset()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var msg domain.ContactMessage
	if err := decodeJSON(r, &msg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg.Email == "" || msg.Message == "" {
		writeError(w, http.StatusBadRequest, "email and message are required")
		return
	}
	if err := s.backend.SendContactMessage(r.Context(), msg); err != nil {
		writeError(w, http.StatusBadGateway, "failed to send message")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// --- cart ---

// handleGetCart includes a flat shipping estimate; the backend prices the
// real shipping cost at order creation.
func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	total := s.cart.CartTotal()
	estimated := total
	if total > 0 {
		estimated += s.cfg.ShippingFlatRate
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":             s.cart.CartItems(),
		"total":             total,
		"shipping_estimate": s.cfg.ShippingFlatRate,
		"estimated_total":   estimated,
	})
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var item domain.CartItem
	if err := decodeJSON(r, &item); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if item.ProductID == 0 || item.Store == "" {
		writeError(w, http.StatusBadRequest, "id and store are required")
		return
	}
	s.cart.AddToCart(item)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": s.cart.CartItems(),
		"total": s.cart.CartTotal(),
	})
}

func (s *Server) handleUpdateCartQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req struct {
		Store    string `json:"store"`
		Quantity int    `json:"quantity"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.cart.UpdateCartQuantity(id, req.Store, req.Quantity)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": s.cart.CartItems(),
		"total": s.cart.CartTotal(),
	})
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	s.cart.RemoveFromCart(id, r.URL.Query().Get("store"))
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	s.cart.ClearCart()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// --- favorites ---

func (s *Server) handleGetFavorites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": s.cart.Favorites(),
	})
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var item domain.FavoriteItem
	if err := decodeJSON(r, &item); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if item.ProductID == 0 || item.Store == "" {
		writeError(w, http.StatusBadRequest, "id and store are required")
		return
	}
	s.cart.ToggleFavorite(item)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"favorite": s.cart.IsFavorite(item.ProductID, item.Store),
	})
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	s.cart.RemoveFromFavorites(id, r.URL.Query().Get("store"))
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// --- notifications ---

func (s *Server) handleGetNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": s.center.All(),
		"unread":        s.center.UnreadCount(),
	})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	s.center.MarkAsRead(id)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	s.center.MarkAllAsRead()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := s.center.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusBadGateway, "failed to delete notification")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleNotificationAction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	var req struct {
		Action string `json:"action"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	action := domain.NotificationAction(req.Action)
	if action != domain.ActionConfirm && action != domain.ActionReject {
		writeError(w, http.StatusBadRequest, "action must be confirm or reject")
		return
	}
	if err := s.center.HandleAction(r.Context(), id, action); err != nil {
		writeError(w, http.StatusBadGateway, "failed to apply action")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// --- checkout & orders ---

type checkoutRequest struct {
	ShippingAddress    string `json:"shipping_address"`
	ShippingCity       string `json:"shipping_city"`
	ShippingPostalCode string `json:"shipping_postal_code"`
	PaymentMethod      string `json:"payment_method"`
}

// handleCheckout validates the shipping fields before any backend call; a
// missing field is a blocking inline error, not a network round-trip.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateCheckout(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	items := s.cart.CartItems()
	if len(items) == 0 {
		writeError(w, http.StatusBadRequest, "cart is empty")
		return
	}
	order, err := s.backend.CreateOrder(r.Context(), api.CreateOrderRequest{
		CartItems:          items,
		ShippingAddress:    req.ShippingAddress,
		ShippingCity:       req.ShippingCity,
		ShippingPostalCode: req.ShippingPostalCode,
		PaymentMethod:      req.PaymentMethod,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to create order")
		return
	}
	s.cart.ClearCart()
	s.center.Add(domain.Notification{
		Type:        domain.NotificationOrderConfirmed,
		Message:     "Commande " + orderLabel(order) + " confirmée",
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
	}, true)
	writeJSON(w, http.StatusOK, order)
}

func validateCheckout(req checkoutRequest) string {
	switch {
	case strings.TrimSpace(req.ShippingAddress) == "":
		return "shipping_address is required"
	case strings.TrimSpace(req.ShippingCity) == "":
		return "shipping_city is required"
	case strings.TrimSpace(req.ShippingPostalCode) == "":
		return "shipping_postal_code is required"
	}
	return ""
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.backend.Orders(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to fetch orders")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

func (s *Server) handleConfirmDelivery(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	var req struct {
		Confirmed bool `json:"confirmed"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.watcher.ConfirmDelivery(r.Context(), id, req.Confirmed); err != nil {
		writeError(w, http.StatusBadGateway, "failed to confirm delivery")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// --- driver ---

func (s *Server) handleDriverDashboard(w http.ResponseWriter, r *http.Request) {
	assignments, err := s.backend.DriverDashboard(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to fetch dashboard")
		return
	}
	resp := map[string]interface{}{
		"assignments": assignments,
		"counts":      driver.TabCounts(assignments),
	}
	if tab := r.URL.Query().Get("tab"); tab != "" {
		resp["assignments"] = driver.FilterByTab(assignments, driver.Tab(tab))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAcceptAssignment(w http.ResponseWriter, r *http.Request) {
	s.forwardAssignment(w, r, s.backend.AcceptAssignment)
}

func (s *Server) handleRejectAssignment(w http.ResponseWriter, r *http.Request) {
	s.forwardAssignment(w, r, s.backend.RejectAssignment)
}

func (s *Server) handleCompleteAssignment(w http.ResponseWriter, r *http.Request) {
	s.forwardAssignment(w, r, s.backend.CompleteAssignment)
}

func (s *Server) forwardAssignment(w http.ResponseWriter, r *http.Request, call func(ctx context.Context, id int64) error) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid assignment id")
		return
	}
	if err := call(r.Context(), id); err != nil {
		writeError(w, http.StatusBadGateway, "assignment update failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleGetAvailability(w http.ResponseWriter, r *http.Request) {
	av, err := s.backend.DriverAvailability(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to fetch availability")
		return
	}
	writeJSON(w, http.StatusOK, av)
}

func (s *Server) handleSetAvailability(w http.ResponseWriter, r *http.Request) {
	var av api.Availability
	if err := decodeJSON(r, &av); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.backend.SetDriverAvailability(r.Context(), av); err != nil {
		writeError(w, http.StatusBadGateway, "failed to save availability")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleDriverCalendar(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	year := parseInt(r.URL.Query().Get("year"), now.Year())
	month := parseInt(r.URL.Query().Get("month"), int(now.Month()))
	days, err := s.backend.DriverCalendar(r.Context(), year, time.Month(month))
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to fetch calendar")
		return
	}
	type coloredDay struct {
		domain.DeliveryDay
		Color driver.DayColor `json:"color"`
	}
	out := make([]coloredDay, 0, len(days))
	for _, d := range days {
		out = append(out, coloredDay{DeliveryDay: d, Color: driver.ColorFor(d)})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"days": out})
}

func (s *Server) handleDeliveryDays(w http.ResponseWriter, r *http.Request) {
	days, err := s.backend.DeliveryDays(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to fetch delivery days")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"days": days})
}

// --- products ---

func (s *Server) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	products, err := s.backend.SearchProducts(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusBadGateway, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

func (s *Server) handleStoreCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.backend.StoreCounts(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to fetch store counts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"counts": counts})
}

func (s *Server) handleStoreProducts(w http.ResponseWriter, r *http.Request) {
	store := chi.URLParam(r, "store")
	products, err := s.backend.StoreProducts(r.Context(), store)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to fetch products")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

func (s *Server) handleProductDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	product, err := s.backend.ProductDetail(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to fetch product")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// --- middleware & helpers ---

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.session.Authenticated() {
			writeError(w, http.StatusUnauthorized, "not signed in")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func orderLabel(order domain.Order) string {
	if order.OrderNumber != "" {
		return order.OrderNumber
	}
	return strconv.FormatInt(order.ID, 10)
}
