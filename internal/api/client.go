package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"shopsync/internal/domain"
	"shopsync/internal/session"
)

// ErrNoToken is returned when a protected call is attempted without a stored
// access token. Callers treat it as a silent no-op rather than an outage.
var ErrNoToken = errors.New("no access token stored")

// Client talks to the shop backend. Every protected request carries the
// session's bearer token; calls short-circuit with ErrNoToken when the
// session is signed out so no unauthenticated request ever goes out.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Manager
}

func NewClient(baseURL string, timeout time.Duration, sess *session.Manager) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		session:    sess,
	}
}

// --- auth ---

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type loginResponse struct {
	Tokens domain.TokenPair `json:"tokens"`
}

func (c *Client) Login(ctx context.Context, creds Credentials) (domain.TokenPair, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login/", creds, &resp, false); err != nil {
		return domain.TokenPair{}, err
	}
	return resp.Tokens, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (domain.TokenPair, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register/", req, &resp, false); err != nil {
		return domain.TokenPair{}, err
	}
	return resp.Tokens, nil
}

// FacialLogin exchanges a captured face image (base64) for a token pair.
func (c *Client) FacialLogin(ctx context.Context, image string) (domain.TokenPair, error) {
	var resp loginResponse
	body := map[string]string{"image": image}
	if err := c.do(ctx, http.MethodPost, "/api/auth/facial-login/", body, &resp, false); err != nil {
		return domain.TokenPair{}, err
	}
	return resp.Tokens, nil
}

func (c *Client) SendContactMessage(ctx context.Context, msg domain.ContactMessage) error {
	return c.do(ctx, http.MethodPost, "/api/contact/", msg, nil, false)
}

// --- orders ---

type CreateOrderRequest struct {
	CartItems          []domain.CartItem `json:"cart_items"`
	ShippingAddress    string            `json:"shipping_address"`
	ShippingCity       string            `json:"shipping_city"`
	ShippingPostalCode string            `json:"shipping_postal_code"`
	PaymentMethod      string            `json:"payment_method"`
	ClientReference    string            `json:"client_reference,omitempty"`
}

func (c *Client) Orders(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	if err := c.getList(ctx, "/api/auth/orders/", &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (domain.Order, error) {
	if req.ClientReference == "" {
		req.ClientReference = uuid.NewString()
	}
	var order domain.Order
	if err := c.do(ctx, http.MethodPost, "/api/auth/orders/", req, &order, true); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// ConfirmDelivery reports the customer's confirm/dispute decision for a
// delivered order.
func (c *Client) ConfirmDelivery(ctx context.Context, orderID int64, confirmed bool) error {
	status := domain.OrderStatusReceived
	if !confirmed {
		status = domain.OrderStatusDisputed
	}
	body := map[string]interface{}{
		"confirmed": confirmed,
		"status":    status,
	}
	path := fmt.Sprintf("/api/auth/orders/%d/confirm-delivery/", orderID)
	return c.do(ctx, http.MethodPost, path, body, nil, true)
}

// --- notifications ---

type backendNotification struct {
	ID          int64  `json:"id"`
	Type        string `json:"notification_type"`
	Message     string `json:"message"`
	CreatedAt   string `json:"created_at"`
	IsRead      bool   `json:"is_read"`
	ActionTaken string `json:"action_taken,omitempty"`
	OrderID     int64  `json:"order_id,omitempty"`
	OrderNumber string `json:"order_number,omitempty"`
}

func (c *Client) Notifications(ctx context.Context) ([]domain.Notification, error) {
	var raw []backendNotification
	if err := c.getList(ctx, "/api/accounts/notifications/", &raw, true); err != nil {
		return nil, err
	}
	out := make([]domain.Notification, 0, len(raw))
	for _, n := range raw {
		ts, err := time.Parse(time.RFC3339, n.CreatedAt)
		if err != nil {
			ts = time.Now().UTC()
		}
		out = append(out, domain.Notification{
			ID:          n.ID,
			BackendID:   n.ID,
			Type:        domain.NotificationType(n.Type),
			Message:     n.Message,
			Timestamp:   ts,
			IsRead:      n.IsRead,
			ActionTaken: domain.NotificationAction(n.ActionTaken),
			OrderID:     n.OrderID,
			OrderNumber: n.OrderNumber,
		})
	}
	return out, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, backendID int64) error {
	path := fmt.Sprintf("/api/accounts/notifications/%d/mark-as-read/", backendID)
	return c.do(ctx, http.MethodPost, path, struct{}{}, nil, true)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/accounts/notifications/mark-all-as-read/", struct{}{}, nil, true)
}

func (c *Client) DeleteNotification(ctx context.Context, backendID int64) error {
	path := fmt.Sprintf("/api/accounts/notifications/%d/delete/", backendID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, true)
}

func (c *Client) SendNotificationAction(ctx context.Context, backendID int64, action domain.NotificationAction) error {
	path := fmt.Sprintf("/api/accounts/notifications/%d/action/", backendID)
	return c.do(ctx, http.MethodPost, path, map[string]string{"action": string(action)}, nil, true)
}

// --- driver ---

func (c *Client) DriverDashboard(ctx context.Context) ([]domain.Assignment, error) {
	var out []domain.Assignment
	if err := c.getList(ctx, "/api/auth/driver/dashboard/", &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AcceptAssignment(ctx context.Context, assignmentID int64) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/auth/driver/orders/%d/accept/", assignmentID), struct{}{}, nil, true)
}

func (c *Client) RejectAssignment(ctx context.Context, assignmentID int64) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/auth/driver/orders/%d/reject/", assignmentID), struct{}{}, nil, true)
}

func (c *Client) CompleteAssignment(ctx context.Context, assignmentID int64) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/auth/driver/orders/%d/complete/", assignmentID), struct{}{}, nil, true)
}

type Availability struct {
	Weekdays  []string `json:"weekdays"`
	StartHour int      `json:"start_hour"`
	EndHour   int      `json:"end_hour"`
}

func (c *Client) DriverAvailability(ctx context.Context) (Availability, error) {
	var out Availability
	if err := c.do(ctx, http.MethodGet, "/api/auth/driver/availability/", nil, &out, true); err != nil {
		return Availability{}, err
	}
	return out, nil
}

func (c *Client) SetDriverAvailability(ctx context.Context, av Availability) error {
	return c.do(ctx, http.MethodPost, "/api/auth/driver/availability/", av, nil, true)
}

func (c *Client) DriverCalendar(ctx context.Context, year int, month time.Month) ([]domain.DeliveryDay, error) {
	path := "/api/auth/driver/calendar/?year=" + strconv.Itoa(year) + "&month=" + strconv.Itoa(int(month))
	var out []domain.DeliveryDay
	if err := c.getList(ctx, path, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeliveryDays(ctx context.Context) ([]domain.DeliveryDay, error) {
	var out []domain.DeliveryDay
	if err := c.getList(ctx, "/api/auth/driver/delivery-days/", &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// --- products ---

func (c *Client) StoreProducts(ctx context.Context, store string) ([]domain.Product, error) {
	path := "/api/products/store/" + url.PathEscape(store) + "/"
	var out []domain.Product
	if err := c.getList(ctx, path, &out, false); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) StoreCounts(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int)
	if err := c.do(ctx, http.MethodGet, "/api/products/counts/", nil, &out, false); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	path := "/api/products/search/?q=" + url.QueryEscape(query)
	var out []domain.Product
	if err := c.getList(ctx, path, &out, false); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ProductDetail(ctx context.Context, id int64) (domain.Product, error) {
	var out domain.Product
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/products/%d/", id), nil, &out, false); err != nil {
		return domain.Product{}, err
	}
	return out, nil
}

// --- transport ---

// getList decodes endpoints that return either a plain JSON array or a
// paginated {"results": [...]} envelope.
func (c *Client) getList(ctx context.Context, path string, out interface{}, authed bool) error {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw, authed); err != nil {
		return err
	}
	if len(bytes.TrimSpace(raw)) > 0 && bytes.TrimSpace(raw)[0] == '[' {
		return json.Unmarshal(raw, out)
	}
	var envelope struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return err
	}
	if envelope.Results == nil {
		return fmt.Errorf("unexpected list response for %s", path)
	}
	return json.Unmarshal(envelope.Results, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, authed bool) error {
	var token string
	if authed {
		token = c.session.AccessToken()
		if token == "" {
			return ErrNoToken
		}
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(raw))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
