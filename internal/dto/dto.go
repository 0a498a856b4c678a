package dto

import "time"

// Response is the common JSON envelope: {success, data|error}.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// -------- orders --------

type CreateOrderRequest struct {
	Address string `json:"address"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type OrderItemResponse struct {
	ID         uint    `json:"id"`
	ProductID  uint    `json:"productId"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
}

type OrderResponse struct {
	ID         uint                `json:"id"`
	Status     string              `json:"status"`
	TotalPrice float64             `json:"totalPrice"`
	Address    string              `json:"address"`
	CreatedAt  time.Time           `json:"createdAt"`
	Items      []OrderItemResponse `json:"items"`
}

// -------- pricing --------

type UpdatePriceRequest struct {
	Price float64 `json:"price"`
}

type ApplyDiscountRequest struct {
	DiscountRate float64 `json:"discountRate"`
}

type DiscountResult struct {
	ProductID       uint    `json:"productId"`
	ProductName     string  `json:"productName"`
	DiscountRate    int     `json:"discountRate"`
	DiscountedPrice float64 `json:"discountedPrice,omitempty"`
	NotifiedUsers   int     `json:"notifiedUsers"`
	EmailedUsers    int     `json:"emailedUsers"`
}

type UpdateStockRequest struct {
	Stock *int `json:"stock"`
}

// -------- refunds --------

type CreateRefundRequest struct {
	OrderID     uint   `json:"orderId"`
	OrderItemID uint   `json:"orderItemId"`
	Reason      string `json:"reason"`
	Quantity    *int   `json:"quantity,omitempty"`
}

type UpdateRefundStatusRequest struct {
	Status string `json:"status"`
}

// RefundSummary is the manager-facing listing row, joined with the
// customer's email and the refunded product.
type RefundSummary struct {
	ID            uint      `json:"id"`
	Reason        string    `json:"reason"`
	Status        string    `json:"status"`
	Quantity      int       `json:"quantity"`
	RefundAmount  float64   `json:"refund_amount"`
	CustomerEmail string    `json:"customer_email"`
	ProductID     uint      `json:"product_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// -------- wishlist --------

type AddWishlistRequest struct {
	ProductID uint `json:"product_id"`
}

type WishlistItem struct {
	WishlistID uint      `json:"wishlist_id"`
	ProductID  uint      `json:"product_id"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	ImageURL   string    `json:"image_url"`
	AddedAt    time.Time `json:"added_at"`
}

// -------- chat --------

type StartConversationRequest struct {
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
}

type SendMessageRequest struct {
	ConversationID uint   `json:"conversation_id"`
	Message        string `json:"message"`
	SenderType     string `json:"sender_type"`
}

// AttachmentUpload carries the stored-file metadata produced by the
// multipart handler, ready for persistence.
type AttachmentUpload struct {
	FileName string
	FileURL  string
	FileType string
	FileSize int64
}
