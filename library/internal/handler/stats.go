package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *Handler) GetStats(c echo.Context) error {
	stats, err := h.statsSvc.Stats(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}
