package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-salary/internal/auth"
	autherrors "go-salary/internal/auth/errors"
	authMock "go-salary/internal/auth/mock"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestHandler_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := authMock.NewMockService(ctrl)
	handler := auth.NewHandler(mockService, false)
	router := setupAuthRouter()
	router.POST("/login", handler.Login)

	t.Run("Success Login - Web Client (Cookie Check)", func(t *testing.T) {
		reqBody := auth.LoginRequest{Email: "test@example.com", Password: "password123"}
		body, _ := json.Marshal(reqBody)

		mockService.EXPECT().
			Login(gomock.Any(), reqBody.Email, reqBody.Password).
			Return(auth.TokenPair{AccessToken: "access-token", RefreshToken: "refresh-token"},
				auth.AuthResponse{ID: "user-1", Email: "test@example.com"}, nil)

		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Client-Type", "WEB")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 2)
		assert.Equal(t, "access_token", cookies[0].Name)
		assert.Equal(t, "access-token", cookies[0].Value)

		var res map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		data := res["data"].(map[string]interface{})
		assert.Equal(t, "test@example.com", data["user"].(map[string]interface{})["email"])
	})

	t.Run("Success Login - API Client has no cookies", func(t *testing.T) {
		mockService.EXPECT().
			Login(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(auth.TokenPair{AccessToken: "a", RefreshToken: "r"}, auth.AuthResponse{}, nil)

		body, _ := json.Marshal(auth.LoginRequest{Email: "test@example.com", Password: "x"})
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("Failed Login - Invalid Credentials", func(t *testing.T) {
		mockService.EXPECT().
			Login(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(auth.TokenPair{}, auth.AuthResponse{}, autherrors.ErrInvalidCredentials)

		body, _ := json.Marshal(auth.LoginRequest{Email: "wrong@test.com", Password: "123"})
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHandler_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := authMock.NewMockService(ctrl)
	handler := auth.NewHandler(mockService, false)
	router := setupAuthRouter()
	router.POST("/register", handler.Register)

	reqData := auth.RegisterRequest{
		Email:    "new@example.com",
		Name:     "New User",
		Password: "newpassword",
		Role:     "HR",
	}

	t.Run("Success Register", func(t *testing.T) {
		body, _ := json.Marshal(reqData)
		mockService.EXPECT().
			Register(gomock.Any(), reqData).
			Return(auth.AuthResponse{Email: reqData.Email, Name: reqData.Name, Role: "HR"}, nil)

		req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Failed Register - Validation Error", func(t *testing.T) {
		body := []byte(`{"email": "invalid-email", "name": ""}`)
		req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Failed Register - Email Already Exists", func(t *testing.T) {
		body, _ := json.Marshal(reqData)
		mockService.EXPECT().
			Register(gomock.Any(), gomock.Any()).
			Return(auth.AuthResponse{}, autherrors.ErrEmailAlreadyRegistered)

		req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestHandler_RefreshToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := authMock.NewMockService(ctrl)
	handler := auth.NewHandler(mockService, false)
	router := setupAuthRouter()
	router.POST("/refresh", handler.RefreshToken)

	t.Run("web client without cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
		req.Header.Set("X-Client-Type", "web")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("api client body token", func(t *testing.T) {
		mockService.EXPECT().
			RefreshToken(gomock.Any(), "old-refresh").
			Return(auth.TokenPair{AccessToken: "new-a", RefreshToken: "new-r"}, auth.AuthResponse{}, nil)

		req := httptest.NewRequest(http.MethodPost, "/refresh", bytes.NewBufferString(`{"refresh_token":"old-refresh"}`))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "new-a")
	})
}

func TestHandler_Me(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := authMock.NewMockService(ctrl)
	handler := auth.NewHandler(mockService, false)
	router := setupAuthRouter()
	router.GET("/me", func(c *gin.Context) {
		c.Set("user_id", "user-1")
		c.Next()
	}, handler.Me)

	mockService.EXPECT().GetMe(gomock.Any(), "user-1").Return(auth.AuthResponse{ID: "user-1"}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
