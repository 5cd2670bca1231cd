package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/bookden/library-service/library/config"
	"github.com/bookden/library-service/library/internal/errs"
	cb "github.com/bookden/library-service/pkg/circuit_breaker"
	"go.uber.org/zap"
)

// CoverService calls the external cover provider. Requests go through a
// circuit breaker; failures carry the provider message verbatim and are
// never retried.
type CoverService struct {
	log     *zap.Logger
	client  *http.Client
	breaker cb.CircuitBreaker
	baseURL string
}

func NewCoverService(cfg config.Covers, log *zap.Logger) *CoverService {
	return &CoverService{
		log:     log.Named("covers"),
		client:  &http.Client{Timeout: time.Minute},
		breaker: cb.New(10, 30*time.Second, 0.5, 3),
		baseURL: cfg.BaseURL,
	}
}

func (s *CoverService) Regenerate(ctx context.Context, bookUid string) (string, error) {
	if s.baseURL == "" {
		return "", &errs.RemoteError{Message: "cover provider is not configured"}
	}

	var coverURL string
	err := s.breaker.Call(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/covers/%s", s.baseURL, bookUid), http.NoBody)
		if err != nil {
			return err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return &errs.RemoteError{Message: err.Error()}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			var body struct {
				Message string `json:"message"`
			}
			_ = json.NewDecoder(resp.Body).Decode(&body) //nolint:errcheck
			return &errs.RemoteError{Message: body.Message}
		}

		var payload struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return &errs.RemoteError{Message: err.Error()}
		}
		coverURL = payload.URL
		return nil
	})
	if err != nil {
		if errors.Is(err, cb.ErrOpenCB) {
			return "", &errs.RemoteError{Message: "cover provider unavailable"}
		}
		return "", err
	}
	return coverURL, nil
}
