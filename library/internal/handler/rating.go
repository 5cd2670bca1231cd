package handler

import (
	"net/http"

	"github.com/bookden/library-service/library/internal/model"
	"github.com/bookden/library-service/pkg/auth"
	"github.com/labstack/echo/v4"
)

func (h *Handler) Rate(c echo.Context) error {
	ctx := c.Request().Context()
	userName, err := auth.GetUserName(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	var req model.RatingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rating, err := h.ratingSvc.Rate(ctx, c.Param("bookUid"), userName, req.Stars)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rating)
}

func (h *Handler) GetRatings(c echo.Context) error {
	ratings, err := h.ratingSvc.ListRatings(c.Request().Context(), c.Param("bookUid"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, ratings)
}

func (h *Handler) CreateReview(c echo.Context) error {
	ctx := c.Request().Context()
	userName, err := auth.GetUserName(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	var req model.CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	review, err := h.ratingSvc.CreateReview(ctx, c.Param("bookUid"), userName, req.Comment)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, review)
}

func (h *Handler) GetReviews(c echo.Context) error {
	reviews, err := h.ratingSvc.ListReviews(c.Request().Context(), c.Param("bookUid"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, reviews)
}

func (h *Handler) DeleteReview(c echo.Context) error {
	ctx := c.Request().Context()
	userName, err := auth.GetUserName(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	if err := h.ratingSvc.DeleteReview(ctx, c.Param("reviewUid"), userName, auth.IsAdmin(ctx)); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
