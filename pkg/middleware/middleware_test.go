package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/bookden/library-service/pkg/auth"
	"github.com/bookden/library-service/pkg/middleware"
)

func signToken(t *testing.T, claims auth.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(auth.JWTKey)
	require.NoError(t, err)
	return token
}

func TestJwtAuthentication(t *testing.T) {
	t.Parallel()

	validToken, err := auth.NewToken("reader", auth.RoleReader, time.Hour)
	require.NoError(t, err)
	expiredToken, err := auth.NewToken("reader", auth.RoleReader, -time.Hour)
	require.NoError(t, err)
	// a correctly signed token may omit exp entirely
	noExpiryToken := signToken(t, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "reader"},
		Profile:          auth.Profile{Username: "reader", Role: auth.RoleReader},
	})

	tests := []struct {
		name         string
		header       string
		expectedCode int
		expectedUser string
	}{
		{
			name:         "valid token",
			header:       "Bearer " + validToken,
			expectedCode: http.StatusOK,
			expectedUser: "reader",
		},
		{
			name:         "token without expiry",
			header:       "Bearer " + noExpiryToken,
			expectedCode: http.StatusOK,
			expectedUser: "reader",
		},
		{
			name:         "expired token",
			header:       "Bearer " + expiredToken,
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "no header",
			header:       "",
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "not a bearer scheme",
			header:       "Basic cmVhZGVyOnBhc3M=",
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "garbage token",
			header:       "Bearer not-a-token",
			expectedCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := echo.New()
			var gotUser string
			e.GET("/ping", func(c echo.Context) error {
				gotUser, _ = auth.GetUserName(c.Request().Context())
				return c.NoContent(http.StatusOK)
			}, middleware.JwtAuthentication)

			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.header != "" {
				req.Header.Set(middleware.AuthorizationHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			require.Equal(t, tt.expectedCode, rec.Code)
			if tt.expectedUser != "" {
				require.Equal(t, tt.expectedUser, gotUser)
			}
		})
	}
}
