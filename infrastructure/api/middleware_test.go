package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "converse/errors"
	"converse/mocks"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newAuthRouter(resolver *mocks.MockIdentityResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/me", RequireAuth(resolver), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
	})
	return router
}

func TestRequireAuth(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver := mocks.NewMockIdentityResolver(ctrl)
	router := newAuthRouter(resolver)

	t.Run("should resolve the identity from the Authorization header", func(t *testing.T) {
		req := require.New(t)
		resolver.EXPECT().Resolve("Bearer good-token").Return("user-1", nil).Times(1)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/me", nil)
		request.Header.Set("Authorization", "Bearer good-token")
		router.ServeHTTP(recorder, request)

		req.Equal(http.StatusOK, recorder.Code)
		req.JSONEq(`{"user_id":"user-1"}`, recorder.Body.String())
	})

	t.Run("should fall back to the token query parameter", func(t *testing.T) {
		req := require.New(t)
		resolver.EXPECT().Resolve("query-token").Return("user-2", nil).Times(1)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/me?token=query-token", nil)
		router.ServeHTTP(recorder, request)

		req.Equal(http.StatusOK, recorder.Code)
		req.JSONEq(`{"user_id":"user-2"}`, recorder.Body.String())
	})

	t.Run("should answer 401 when resolution fails", func(t *testing.T) {
		req := require.New(t)
		resolver.EXPECT().Resolve("").Return("", apperrors.ErrUnauthenticated).Times(1)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/me", nil)
		router.ServeHTTP(recorder, request)

		req.Equal(http.StatusUnauthorized, recorder.Code)
	})
}
