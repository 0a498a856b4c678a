package handler

import (
	"net/http"
	"strconv"
	"urban-threads-api/internal/dto"

	"github.com/labstack/echo/v4"
)

func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, dto.Response{Success: true, Data: data})
}

func created(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, dto.Response{Success: true, Data: data})
}

func uintParam(c echo.Context, name string) (uint, error) {
	raw := c.Param(name)
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || value == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return uint(value), nil
}

func parseFormUint(raw string) (uint, error) {
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || value == 0 {
		return 0, strconv.ErrSyntax
	}
	return uint(value), nil
}
