package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusAssigned       OrderStatus = "assigned"
	OrderStatusAccepted       OrderStatus = "accepted"
	OrderStatusInTransit      OrderStatus = "in_transit"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusReadyForPickup OrderStatus = "ready_for_pickup"
	// Confirmed and Delivered stay distinct statuses: the calendar colors
	// them differently while the dashboard tabs group them together.
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusReceived  OrderStatus = "received"
	OrderStatusDisputed  OrderStatus = "disputed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type NotificationType string

const (
	NotificationOrderConfirmed    NotificationType = "order_confirmed"
	NotificationOrderAssigned     NotificationType = "order_assigned"
	NotificationOrderAccepted     NotificationType = "order_accepted"
	NotificationOrderRejected     NotificationType = "order_rejected"
	NotificationOrderInTransit    NotificationType = "order_in_transit"
	NotificationOrderDelivered    NotificationType = "order_delivered"
	NotificationDeliveryAccepted  NotificationType = "delivery_accepted"
	NotificationDeliveryConfirmed NotificationType = "delivery_confirmed"
	NotificationDeliveryRejected  NotificationType = "delivery_rejected"
	NotificationOrderCancelled    NotificationType = "order_cancelled"
	NotificationInfo              NotificationType = "info"
	NotificationSuccess           NotificationType = "success"
	NotificationError             NotificationType = "error"
)

type NotificationAction string

const (
	ActionNone    NotificationAction = ""
	ActionConfirm NotificationAction = "confirm"
	ActionReject  NotificationAction = "reject"
)

type CartItem struct {
	ProductID int64   `json:"id"`
	Store     string  `json:"store"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`
}

type FavoriteItem struct {
	ProductID int64   `json:"id"`
	Store     string  `json:"store"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	PrevPrice float64 `json:"prev_price,omitempty"`
	Image     string  `json:"image,omitempty"`
}

type Product struct {
	ID        int64   `json:"id"`
	Store     string  `json:"store"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	PrevPrice float64 `json:"prev_price,omitempty"`
	Image     string  `json:"image,omitempty"`
	Link      string  `json:"link,omitempty"`
	Category  string  `json:"category,omitempty"`
}

type Order struct {
	ID           int64       `json:"id"`
	OrderNumber  string      `json:"order_number,omitempty"`
	Status       OrderStatus `json:"status"`
	Subtotal     float64     `json:"subtotal,omitempty"`
	ShippingCost float64     `json:"shipping_cost,omitempty"`
	Total        float64     `json:"total,omitempty"`
	Items        []CartItem  `json:"items,omitempty"`
	CreatedAt    time.Time   `json:"created_at,omitempty"`
}

// Notification is one entry in the notification center. Backend-sourced
// entries carry a durable BackendID; system messages are local-only, keyed by
// a client-generated timestamp id, and expire unless AutoClose is disabled.
type Notification struct {
	ID              int64              `json:"id"`
	BackendID       int64              `json:"backend_id,omitempty"`
	Type            NotificationType   `json:"type"`
	Message         string             `json:"message"`
	Timestamp       time.Time          `json:"timestamp"`
	IsRead          bool               `json:"is_read"`
	IsSystemMessage bool               `json:"is_system_message"`
	ActionTaken     NotificationAction `json:"action_taken,omitempty"`
	OrderID         int64              `json:"order_id,omitempty"`
	OrderNumber     string             `json:"order_number,omitempty"`
}

// Assignment is a driver's linkage to one customer order.
type Assignment struct {
	ID          int64       `json:"id"`
	OrderID     int64       `json:"order_id"`
	OrderNumber string      `json:"order_number,omitempty"`
	Status      OrderStatus `json:"status"`
	Address     string      `json:"address,omitempty"`
	ScheduledAt time.Time   `json:"scheduled_at,omitempty"`
}

// DeliveryDay is one day on the driver's delivery calendar.
type DeliveryDay struct {
	Date          string       `json:"date"`
	NumDeliveries int          `json:"num_deliveries"`
	Assignments   []Assignment `json:"assignments"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}
