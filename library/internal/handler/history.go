package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *Handler) GetEditHistory(c echo.Context) error {
	records, err := h.historySvc.ListEdits(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, records)
}

func (h *Handler) GetDeleteHistory(c echo.Context) error {
	records, err := h.historySvc.ListDeletes(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, records)
}

func (h *Handler) RestoreBook(c echo.Context) error {
	recordUid := c.Param("recordUid")
	if recordUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "recordUid is empty")
	}

	book, err := h.historySvc.RestoreBook(c.Request().Context(), recordUid)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, book)
}
