package service_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bookden/library-service/library/config"
	"github.com/bookden/library-service/library/internal/errs"
	"github.com/bookden/library-service/library/internal/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCoverService_Regenerate(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/covers/b1":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"url":"https://img.example.com/b1.png"}`))
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"no such book"}`))
		}
	}))
	defer srv.Close()

	svc := service.NewCoverService(config.Covers{BaseURL: srv.URL}, zap.NewNop())

	url, err := svc.Regenerate(context.Background(), "b1")
	require.NoError(t, err)
	require.Equal(t, "https://img.example.com/b1.png", url)

	_, err = svc.Regenerate(context.Background(), "missing")
	var remote *errs.RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, "no such book", remote.Message)
}

func TestCoverService_NotConfigured(t *testing.T) {
	t.Parallel()
	svc := service.NewCoverService(config.Covers{}, zap.NewNop())

	_, err := svc.Regenerate(context.Background(), "b1")
	var remote *errs.RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, "cover provider is not configured", remote.Message)
}
