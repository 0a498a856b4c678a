package handler

import (
	"urban-threads-api/internal/middleware"
	"urban-threads-api/internal/service"

	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

func (h *NotificationHandler) ListMine(c echo.Context) error {
	ctx := c.Request().Context()

	notifications, err := h.notificationService.ListMine(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return ok(c, notifications)
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	ctx := c.Request().Context()

	count, err := h.notificationService.UnreadCount(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return ok(c, map[string]int64{"count": count})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	ctx := c.Request().Context()

	notificationID, err := uintParam(c, "id")
	if err != nil {
		return err
	}

	updated, err := h.notificationService.MarkRead(ctx, middleware.UserID(c), notificationID)
	if err != nil {
		return err
	}

	return ok(c, map[string]int64{"updated": updated})
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	ctx := c.Request().Context()

	updated, err := h.notificationService.MarkAllRead(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return ok(c, map[string]int64{"updated": updated})
}
