package handler

import (
	"urban-threads-api/internal/dto"
	"urban-threads-api/internal/middleware"
	"urban-threads-api/internal/service"

	"github.com/labstack/echo/v4"
)

type WishlistHandler struct {
	wishlistService service.WishlistService
}

func NewWishlistHandler(wishlistService service.WishlistService) *WishlistHandler {
	return &WishlistHandler{
		wishlistService: wishlistService,
	}
}

func (h *WishlistHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	items, err := h.wishlistService.Get(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return ok(c, items)
}

func (h *WishlistHandler) Add(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.AddWishlistRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	if err := h.wishlistService.Add(ctx, middleware.UserID(c), req.ProductID); err != nil {
		return err
	}

	return created(c, nil)
}

func (h *WishlistHandler) Remove(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := uintParam(c, "productId")
	if err != nil {
		return err
	}

	if err := h.wishlistService.Remove(ctx, middleware.UserID(c), productID); err != nil {
		return err
	}

	return ok(c, nil)
}

func (h *WishlistHandler) Count(c echo.Context) error {
	ctx := c.Request().Context()

	count, err := h.wishlistService.Count(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return ok(c, map[string]int64{"count": count})
}
