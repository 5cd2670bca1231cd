package service_test

import (
	"context"
	"testing"

	"github.com/bookden/library-service/library/config"
	"github.com/bookden/library-service/library/internal/errs"
	"github.com/bookden/library-service/library/internal/service"
	"github.com/bookden/library-service/pkg/auth"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAuthService_Login(t *testing.T) {
	t.Parallel()
	svc, err := service.NewAuthService(config.Auth{
		AdminUser:      "admin",
		AdminPassword:  "secret",
		ReaderUser:     "reader",
		ReaderPassword: "books",
	}, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()

	resp, err := svc.Login(ctx, "admin", "secret")
	require.NoError(t, err)
	require.Equal(t, auth.RoleAdmin, resp.Role)
	require.NotEmpty(t, resp.Token)

	resp, err = svc.Login(ctx, "reader", "books")
	require.NoError(t, err)
	require.Equal(t, auth.RoleReader, resp.Role)

	_, err = svc.Login(ctx, "admin", "wrong")
	require.ErrorIs(t, err, errs.ErrBadCredentials)
	_, err = svc.Login(ctx, "nobody", "secret")
	require.ErrorIs(t, err, errs.ErrBadCredentials)
}
