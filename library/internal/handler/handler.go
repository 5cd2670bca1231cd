package handler

import (
	"net/http"

	md "github.com/bookden/library-service/pkg/middleware"

	"github.com/bookden/library-service/library/internal/errs"
	"github.com/bookden/library-service/pkg/auth"
	"github.com/bookden/library-service/pkg/validate"
	_ "github.com/bookden/library-service/swagger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
)

type Handler struct {
	catalogSvc CatalogService
	loanSvc    LoanService
	ratingSvc  RatingService
	historySvc HistoryService
	statsSvc   StatsService
	authSvc    AuthService
	log        *zap.Logger
}

type Services struct {
	Catalog CatalogService
	Loan    LoanService
	Rating  RatingService
	History HistoryService
	Stats   StatsService
	Auth    AuthService
}

func New(svc Services, log *zap.Logger) *Handler {
	return &Handler{
		catalogSvc: svc.Catalog,
		loanSvc:    svc.Loan,
		ratingSvc:  svc.Rating,
		historySvc: svc.History,
		statsSvc:   svc.Stats,
		authSvc:    svc.Auth,
		log:        log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.POST("/auth/login", h.Login)

	authed := api.Group("", md.JwtAuthentication)

	authed.GET("/books", h.GetBooks)
	authed.GET("/books/:bookUid", h.GetBook)
	authed.GET("/books/:bookUid/ratings", h.GetRatings)
	authed.POST("/books/:bookUid/rating", h.Rate)
	authed.GET("/books/:bookUid/reviews", h.GetReviews)
	authed.POST("/books/:bookUid/reviews", h.CreateReview)
	authed.DELETE("/reviews/:reviewUid", h.DeleteReview)

	authed.GET("/loans", h.GetLoans)
	authed.POST("/loans", h.CreateLoan)
	authed.POST("/loans/:loanUid/return", h.ReturnLoan)
	authed.POST("/loans/:loanUid/extend", h.ExtendLoan)

	admin := authed.Group("", adminOnly)
	admin.POST("/books", h.CreateBook)
	admin.PATCH("/books/:bookUid", h.UpdateBook)
	admin.DELETE("/books/:bookUid", h.DeleteBook)
	admin.POST("/books/bulk-delete", h.BulkDeleteBooks)
	admin.POST("/books/:bookUid/cover", h.RegenerateCover)
	admin.GET("/books/:bookUid/loans", h.GetBookLoans)
	admin.GET("/history/edits", h.GetEditHistory)
	admin.GET("/history/deletes", h.GetDeleteHistory)
	admin.POST("/history/deletes/:recordUid/restore", h.RestoreBook)
	admin.GET("/stats", h.GetStats)

	return e
}

func adminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !auth.IsAdmin(c.Request().Context()) {
			return echo.NewHTTPError(http.StatusForbidden, errs.ErrForbidden.Error())
		}
		return next(c)
	}
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// httpError maps the error taxonomy onto status codes. Business-rule refusals
// are conflicts, not crashes.
func httpError(err error) *echo.HTTPError {
	var remote *errs.RemoteError
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrOutOfStock),
		errors.Is(err, errs.ErrOverdueBlock),
		errors.Is(err, errs.ErrAlreadyReturned),
		errors.Is(err, errs.ErrAlreadyExtended),
		errors.Is(err, errs.ErrStockConflict),
		errors.Is(err, errs.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, errs.ErrBadCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.As(err, &remote):
		return echo.NewHTTPError(http.StatusBadGateway, remote.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
