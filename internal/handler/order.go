package handler

import (
	"urban-threads-api/internal/dto"
	"urban-threads-api/internal/middleware"
	"urban-threads-api/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	order, err := h.orderService.Create(ctx, middleware.UserID(c), req.Address)
	if err != nil {
		return err
	}

	return created(c, order)
}

func (h *OrderHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	orders, err := h.orderService.List(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return ok(c, orders)
}

func (h *OrderHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := uintParam(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orderService.Get(ctx, middleware.UserID(c), orderID)
	if err != nil {
		return err
	}

	return ok(c, order)
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := uintParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	order, err := h.orderService.UpdateStatus(ctx, orderID, req.Status)
	if err != nil {
		return err
	}

	return ok(c, order)
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := uintParam(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orderService.Cancel(ctx, middleware.UserID(c), orderID)
	if err != nil {
		return err
	}

	return ok(c, order)
}
