package handler

import (
	"errors"
	"net/http"
	"urban-threads-api/internal/apperr"
	"urban-threads-api/internal/dto"
	"urban-threads-api/internal/repository"
	"urban-threads-api/internal/service"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type ProductHandler struct {
	pricingService service.PricingService
	productRepo    repository.ProductRepository
}

func NewProductHandler(pricingService service.PricingService, productRepo repository.ProductRepository) *ProductHandler {
	return &ProductHandler{
		pricingService: pricingService,
		productRepo:    productRepo,
	}
}

func (h *ProductHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	products, err := h.productRepo.List(ctx)
	if err != nil {
		return err
	}

	return ok(c, products)
}

func (h *ProductHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := uintParam(c, "id")
	if err != nil {
		return err
	}

	product, err := h.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "Product not found")
		}
		return err
	}

	return ok(c, product)
}

func (h *ProductHandler) UpdatePrice(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := uintParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdatePriceRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	product, err := h.pricingService.UpdatePrice(ctx, productID, req.Price)
	if err != nil {
		return err
	}

	return ok(c, product)
}

func (h *ProductHandler) ApplyDiscount(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := uintParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.ApplyDiscountRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	result, err := h.pricingService.ApplyDiscount(ctx, productID, req.DiscountRate)
	if err != nil {
		return err
	}

	return ok(c, result)
}

func (h *ProductHandler) UpdateStock(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := uintParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateStockRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Stock == nil || *req.Stock < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Stock must be a non-negative integer")
	}

	rows, err := h.productRepo.SetStock(ctx, productID, *req.Stock)
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.New(apperr.NotFound, "Product not found")
	}

	product, err := h.productRepo.FindByID(ctx, productID)
	if err != nil {
		return err
	}

	return ok(c, product)
}
