package service

import (
	"context"
	"errors"
	"urban-threads-api/internal/apperr"
	"urban-threads-api/internal/dto"
	"urban-threads-api/internal/model"
	"urban-threads-api/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var orderStatuses = map[string]bool{
	model.OrderStatusProcessing: true,
	model.OrderStatusInTransit:  true,
	model.OrderStatusDelivered:  true,
	model.OrderStatusCancelled:  true,
	model.OrderStatusRefunded:   true,
}

type OrderService interface {
	Create(ctx context.Context, userID uint, address string) (*dto.OrderResponse, error)
	List(ctx context.Context, userID uint) ([]*dto.OrderResponse, error)
	Get(ctx context.Context, userID, orderID uint) (*dto.OrderResponse, error)
	UpdateStatus(ctx context.Context, orderID uint, status string) (*dto.OrderResponse, error)
	Cancel(ctx context.Context, userID, orderID uint) (*dto.OrderResponse, error)
}

type orderServiceImpl struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	log         *logrus.Logger
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	log *logrus.Logger,
) OrderService {
	return &orderServiceImpl{
		db:          db,
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		log:         log,
	}
}

// Create turns the caller's cart into an order. The order row, its items,
// the stock decrement of every line and the cart wipe commit together or
// not at all; a line with insufficient stock aborts the whole order.
func (s *orderServiceImpl) Create(ctx context.Context, userID uint, address string) (*dto.OrderResponse, error) {
	cart, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.Validation, "Cart is empty")
		}
		return nil, err
	}

	lines, err := s.cartRepo.Lines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperr.New(apperr.Validation, "Cart is empty")
	}

	total := decimal.Zero
	for _, line := range lines {
		subtotal := decimal.NewFromFloat(line.Price).Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(subtotal)
	}

	order := &model.Order{
		UserID:     userID,
		TotalPrice: total.Round(2).InexactFloat64(),
		Address:    address,
		Status:     model.OrderStatusProcessing,
	}

	var items []*model.OrderItem
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return err
		}

		items = make([]*model.OrderItem, 0, len(lines))
		for _, line := range lines {
			ok, err := s.productRepo.DecrementStock(ctx, tx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.New(apperr.Validation, "Insufficient stock")
			}

			items = append(items, &model.OrderItem{
				OrderID:   order.ID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     line.Price,
			})
		}

		if err := s.orderRepo.CreateItems(ctx, tx, items); err != nil {
			return err
		}

		return s.cartRepo.ClearItems(ctx, tx, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  userID,
		"total":    order.TotalPrice,
	}).Info("order created")

	return mapOrder(order, items), nil
}

func (s *orderServiceImpl) List(ctx context.Context, userID uint) ([]*dto.OrderResponse, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []*dto.OrderResponse{}, nil
	}

	orderIDs := make([]uint, len(orders))
	for i, order := range orders {
		orderIDs[i] = order.ID
	}

	items, err := s.orderRepo.ItemsForOrders(ctx, orderIDs)
	if err != nil {
		return nil, err
	}

	itemsByOrder := make(map[uint][]*model.OrderItem, len(orders))
	for _, item := range items {
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}

	responses := make([]*dto.OrderResponse, len(orders))
	for i, order := range orders {
		responses[i] = mapOrder(order, itemsByOrder[order.ID])
	}

	return responses, nil
}

func (s *orderServiceImpl) Get(ctx context.Context, userID, orderID uint) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.FindOwned(ctx, nil, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Order not found")
		}
		return nil, err
	}

	items, err := s.orderRepo.Items(ctx, nil, order.ID)
	if err != nil {
		return nil, err
	}

	return mapOrder(order, items), nil
}

// UpdateStatus accepts any member of the status enum; it deliberately does
// not constrain which status may follow which.
func (s *orderServiceImpl) UpdateStatus(ctx context.Context, orderID uint, status string) (*dto.OrderResponse, error) {
	if !orderStatuses[status] {
		return nil, apperr.New(apperr.Validation, "Invalid status")
	}

	rows, err := s.orderRepo.UpdateStatus(ctx, nil, orderID, status)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, apperr.New(apperr.NotFound, "Order not found")
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	items, err := s.orderRepo.Items(ctx, nil, orderID)
	if err != nil {
		return nil, err
	}

	return mapOrder(order, items), nil
}

// Cancel restores every item's stock and flips the order to cancelled in
// one transaction. Only processing orders can be cancelled: the conditional
// status flip is the guard, so two concurrent cancels of the same order can
// never both restore stock — the snapshot check only shapes the error for
// the caller who lost.
func (s *orderServiceImpl) Cancel(ctx context.Context, userID, orderID uint) (*dto.OrderResponse, error) {
	var order *model.Order
	var items []*model.OrderItem

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.orderRepo.FindOwned(ctx, tx, orderID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.NotFound, "Order not found")
			}
			return err
		}

		if order.Status != model.OrderStatusProcessing {
			return apperr.New(apperr.Validation, "Order can only be cancelled if status is 'processing'")
		}

		rows, err := s.orderRepo.MarkCancelled(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return apperr.New(apperr.Conflict, "Order already cancelled")
		}

		items, err = s.orderRepo.Items(ctx, tx, orderID)
		if err != nil {
			return err
		}

		for _, item := range items {
			if err := s.productRepo.IncrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = model.OrderStatusCancelled

	s.log.WithFields(logrus.Fields{
		"order_id": orderID,
		"user_id":  userID,
	}).Info("order cancelled, stock restored")

	return mapOrder(order, items), nil
}

func mapOrder(order *model.Order, items []*model.OrderItem) *dto.OrderResponse {
	resp := &dto.OrderResponse{
		ID:         order.ID,
		Status:     order.Status,
		TotalPrice: order.TotalPrice,
		Address:    order.Address,
		CreatedAt:  order.CreatedAt,
		Items:      make([]dto.OrderItemResponse, len(items)),
	}

	for i, item := range items {
		resp.Items[i] = dto.OrderItemResponse{
			ID:         item.ID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  item.Price,
			TotalPrice: item.Price * float64(item.Quantity),
		}
	}

	return resp
}
