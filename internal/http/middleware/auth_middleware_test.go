package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"

	"socialnotes/internal/domain/entity"
	"socialnotes/internal/domain/sqlite"
	"socialnotes/internal/domain/sqlite/repository"
	"socialnotes/internal/http/middleware"
	"socialnotes/internal/utils"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := utils.InitTokenSigner("middleware-test-secret"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newProtectedServer(t *testing.T, dbName string) (*echo.Echo, *repository.DefaultUserRepository) {
	t.Helper()

	db, err := sqlite.Init("file:" + dbName + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	userRepo := repository.NewUserRepository(db)
	authed := middleware.NewAuthMiddleware(&middleware.AuthMiddlewareConfig{UserRepo: userRepo})

	e := echo.New()
	e.GET("/probe", func(c echo.Context) error {
		user, apierr := utils.GetUserFromContext(c)
		if apierr != nil {
			return c.JSON(apierr.Code(), apierr)
		}
		return c.String(http.StatusOK, strconv.FormatInt(user.ID, 10))
	}, authed)
	return e, userRepo
}

func probe(e *echo.Echo, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	e, userRepo := newProtectedServer(t, "middleware_auth")

	now := utils.NowUTC()
	require.NoError(t, userRepo.Save(&entity.User{
		ID:        1,
		Email:     "alice@mail.com",
		Username:  "alice",
		Provider:  entity.ProviderLocal,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}))

	pair, err := utils.GenerateTokenPair(1, "alice@mail.com")
	require.NoError(t, err)

	rec := probe(e, "Bearer "+pair.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1", rec.Body.String())

	// The scheme prefix is optional
	rec = probe(e, pair.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = probe(e, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = probe(e, "Bearer not-a-token")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Refresh tokens cannot be spent on regular endpoints
	rec = probe(e, "Bearer "+pair.RefreshToken)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_UnknownAndSuspended(t *testing.T) {
	e, userRepo := newProtectedServer(t, "middleware_auth_edge")

	pair, err := utils.GenerateTokenPair(99, "ghost@mail.com")
	require.NoError(t, err)

	rec := probe(e, "Bearer "+pair.AccessToken)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	now := utils.NowUTC()
	require.NoError(t, userRepo.Save(&entity.User{
		ID:        7,
		Email:     "banned@mail.com",
		Username:  "banned",
		Provider:  entity.ProviderLocal,
		Active:    true,
		Suspended: true,
		CreatedAt: now,
		UpdatedAt: now,
	}))

	pair, err = utils.GenerateTokenPair(7, "banned@mail.com")
	require.NoError(t, err)

	rec = probe(e, "Bearer "+pair.AccessToken)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
