package handler

import (
	"urban-threads-api/internal/dto"
	"urban-threads-api/internal/middleware"
	"urban-threads-api/internal/service"

	"github.com/labstack/echo/v4"
)

type RefundHandler struct {
	refundService service.RefundService
}

func NewRefundHandler(refundService service.RefundService) *RefundHandler {
	return &RefundHandler{
		refundService: refundService,
	}
}

func (h *RefundHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateRefundRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	refund, err := h.refundService.CreateRequest(ctx, middleware.UserID(c), &req)
	if err != nil {
		return err
	}

	return ok(c, refund)
}

func (h *RefundHandler) ListMine(c echo.Context) error {
	ctx := c.Request().Context()

	refunds, err := h.refundService.ListMine(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return ok(c, refunds)
}

func (h *RefundHandler) ListAll(c echo.Context) error {
	ctx := c.Request().Context()

	refunds, err := h.refundService.ListAll(ctx)
	if err != nil {
		return err
	}

	return ok(c, refunds)
}

func (h *RefundHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	refundID, err := uintParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateRefundStatusRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	if err := h.refundService.Decide(ctx, refundID, req.Status); err != nil {
		return err
	}

	return ok(c, nil)
}
