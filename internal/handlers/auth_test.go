package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/navflow/navflow-api/internal/constants"
	"github.com/navflow/navflow-api/internal/database"
	"github.com/navflow/navflow-api/internal/dto"
	"github.com/navflow/navflow-api/internal/repository"
	"github.com/navflow/navflow-api/internal/services"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type authTestEnv struct {
	db          *gorm.DB
	handler     *AuthHandler
	authService *services.AuthService
}

func setupAuthTestEnv(t *testing.T) authTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.MigrateModels(db))
	require.NoError(t, database.AddIndexes(db))
	database.SetDB(db)

	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	recorder := services.NewRecorder(nil)
	authService := services.NewAuthService(db, userRepo, orgRepo, recorder)
	handler := NewAuthHandler(authService)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return authTestEnv{
		db:          db,
		handler:     handler,
		authService: authService,
	}
}

func newAuthRouter(env authTestEnv) *gin.Engine {
	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.POST("/api/auth/register", env.handler.Register)
	r.POST("/api/auth/login", env.handler.Login)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Register(t *testing.T) {
	env := setupAuthTestEnv(t)
	r := newAuthRouter(env)

	w := postJSON(t, r, "/api/auth/register", map[string]string{
		"email":      "newuser@example.com",
		"username":   "newuser",
		"password":   "supersecret",
		"first_name": "New",
		"last_name":  "User",
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "newuser", response.Username)
	require.Equal(t, "newuser@example.com", response.Email)
	require.Equal(t, "New User", response.Name)
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	env := setupAuthTestEnv(t)
	r := newAuthRouter(env)

	w := postJSON(t, r, "/api/auth/register", map[string]string{
		"email":    "not-an-email",
		"username": "newuser",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, r, "/api/auth/register", map[string]string{
		"email":    "newuser@example.com",
		"username": "newuser",
		"password": "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_RegisterDuplicate(t *testing.T) {
	env := setupAuthTestEnv(t)
	r := newAuthRouter(env)

	payload := map[string]string{
		"email":    "newuser@example.com",
		"username": "newuser",
		"password": "supersecret",
	}
	require.Equal(t, http.StatusCreated, postJSON(t, r, "/api/auth/register", payload).Code)
	require.Equal(t, http.StatusConflict, postJSON(t, r, "/api/auth/register", payload).Code)
}

func TestAuthHandler_Login(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, err := env.authService.Register(services.RegisterInput{
		Email:    "existing@example.com",
		Username: "existing",
		Password: "supersecret",
	})
	require.NoError(t, err)

	r := newAuthRouter(env)

	w := postJSON(t, r, "/api/auth/login", map[string]string{
		"identifier": "existing",
		"password":   "supersecret",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "existing", response.Username)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "expected session cookie to be set")

	// The email works as an identifier too.
	w = postJSON(t, r, "/api/auth/login", map[string]string{
		"identifier": "existing@example.com",
		"password":   "supersecret",
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuthHandler_LoginRejectsBadCredentials(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, err := env.authService.Register(services.RegisterInput{
		Email:    "existing@example.com",
		Username: "existing",
		Password: "supersecret",
	})
	require.NoError(t, err)

	r := newAuthRouter(env)

	w := postJSON(t, r, "/api/auth/login", map[string]string{
		"identifier": "existing",
		"password":   "wrongpass",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(t, r, "/api/auth/login", map[string]string{
		"identifier": "ghost",
		"password":   "supersecret",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_LoginDeactivatedAccount(t *testing.T) {
	env := setupAuthTestEnv(t)

	user, err := env.authService.Register(services.RegisterInput{
		Email:    "existing@example.com",
		Username: "existing",
		Password: "supersecret",
	})
	require.NoError(t, err)
	require.NoError(t, env.authService.SoftDelete(user.ID))

	r := newAuthRouter(env)

	w := postJSON(t, r, "/api/auth/login", map[string]string{
		"identifier": "existing",
		"password":   "supersecret",
	})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	env := setupAuthTestEnv(t)

	user, err := env.authService.Register(services.RegisterInput{
		Email:    "current@example.com",
		Username: "currentuser",
		Password: "supersecret",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(constants.ContextKeyUserID, user.ID)

	env.handler.GetCurrentUser(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, user.Username, response.Username)
}
