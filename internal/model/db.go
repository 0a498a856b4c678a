package model

import "time"

type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:128;not null" json:"name"`
	Email       string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password    string    `gorm:"size:255;not null" json:"-"`
	Role        string    `gorm:"size:32;index;not null;default:customer" json:"role"` // customer, sales_manager, product_manager
	HomeAddress string    `gorm:"size:512" json:"home_address"`
	TaxID       string    `gorm:"size:64" json:"tax_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:128;uniqueIndex;not null" json:"name"`
}

type Product struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"size:255;not null" json:"name"`
	Description string  `gorm:"type:text" json:"description"`
	CategoryID  *uint   `gorm:"index" json:"category_id"`
	ImageURL    string  `gorm:"size:512" json:"image_url"`
	Price       float64 `gorm:"type:decimal(10,2);not null" json:"price"`
	// Cost backs margin reporting; defaults to half of price when unset.
	Cost  *float64 `gorm:"type:decimal(10,2)" json:"cost,omitempty"`
	Stock int      `gorm:"not null;default:0" json:"stock"`

	// Discount state. discount_active is true exactly when discount_rate > 0,
	// list_price holds the pre-discount price and discounted_price the rounded
	// result of applying the rate to it.
	ListPrice       *float64 `gorm:"type:decimal(10,2)" json:"list_price"`
	DiscountRate    int      `gorm:"not null;default:0" json:"discount_rate"`
	DiscountedPrice *float64 `gorm:"type:decimal(10,2)" json:"discounted_price"`
	DiscountActive  bool     `gorm:"not null;default:false" json:"discount_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Cart struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"index:idx_cart_product,unique;not null" json:"cart_id"`
	ProductID uint      `gorm:"index:idx_cart_product,unique;not null" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	OrderStatusProcessing = "processing"
	OrderStatusInTransit  = "in_transit"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

type Order struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"index;not null" json:"user_id"`
	// Snapshot of the item subtotals at creation time, immutable afterwards.
	TotalPrice float64   `gorm:"type:decimal(10,2);not null" json:"total_price"`
	Address    string    `gorm:"size:512" json:"address"`
	Status     string    `gorm:"size:32;index;not null;default:processing" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type OrderItem struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	OrderID   uint `gorm:"index;not null" json:"order_id"`
	ProductID uint `gorm:"index;not null" json:"product_id"`
	Quantity  int  `gorm:"not null" json:"quantity"`
	// Unit price frozen at order time, never recomputed.
	Price     float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	RefundStatusPending  = "pending"
	RefundStatusApproved = "approved"
	RefundStatusRejected = "rejected"
)

type RefundRequest struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	OrderID      uint      `gorm:"index;not null" json:"order_id"`
	OrderItemID  uint      `gorm:"index;not null" json:"order_item_id"`
	Quantity     int       `gorm:"not null" json:"quantity"`
	Reason       string    `gorm:"type:text;not null" json:"reason"`
	Status       string    `gorm:"size:16;index;not null;default:pending" json:"status"`
	RefundAmount float64   `gorm:"type:decimal(10,2);not null" json:"refund_amount"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Wishlist struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index:idx_user_product,unique;not null" json:"user_id"`
	ProductID uint      `gorm:"index:idx_user_product,unique;not null" json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	NotificationTypeDiscount = "DISCOUNT"
	NotificationTypeRefund   = "refund"
)

type Notification struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	UserID  uint   `gorm:"index;not null" json:"user_id"`
	Type    string `gorm:"size:32;index;not null" json:"type"`
	Title   string `gorm:"size:255;not null" json:"title"`
	Message string `gorm:"type:text;not null" json:"message"`
	// Opaque structured payload, stored as JSON text.
	Data      string     `gorm:"type:text" json:"data,omitempty"`
	IsRead    bool       `gorm:"not null;default:false" json:"is_read"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}

const (
	ConversationStatusWaiting = "waiting"
	ConversationStatusActive  = "active"
	ConversationStatusClosed  = "closed"
)

type ChatConversation struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	CustomerID *uint      `gorm:"index" json:"customer_id"`
	AgentID    *uint      `gorm:"index" json:"agent_id"`
	GuestName  string     `gorm:"size:128" json:"guest_name"`
	GuestEmail string     `gorm:"size:255" json:"guest_email"`
	Status     string     `gorm:"size:16;index;not null;default:waiting" json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	ClosedAt   *time.Time `json:"closed_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

const (
	SenderTypeCustomer = "customer"
	SenderTypeAgent    = "agent"
	SenderTypeGuest    = "guest"
)

type ChatMessage struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ConversationID uint       `gorm:"index;not null" json:"conversation_id"`
	SenderID       *uint      `json:"sender_id"`
	SenderType     string     `gorm:"size:16;not null" json:"sender_type"`
	Message        string     `gorm:"type:text;not null" json:"message"`
	IsRead         bool       `gorm:"not null;default:false" json:"is_read"`
	ReadAt         *time.Time `json:"read_at"`
	CreatedAt      time.Time  `json:"created_at"`

	Attachments []ChatAttachment `gorm:"-" json:"attachments,omitempty"`
}

type ChatAttachment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID uint      `gorm:"index;not null" json:"message_id"`
	FileName  string    `gorm:"size:255;not null" json:"file_name"`
	FileURL   string    `gorm:"size:512;not null" json:"file_url"`
	FileType  string    `gorm:"size:128;not null" json:"file_type"`
	FileSize  int64     `json:"file_size"`
	CreatedAt time.Time `json:"created_at"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	ProductID uint      `gorm:"index;not null" json:"product_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
	Approved  bool      `gorm:"not null;default:false" json:"approved"`
	CreatedAt time.Time `json:"created_at"`
}
