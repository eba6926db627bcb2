package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/parley-chat/identity/internal/auth"
	"github.com/parley-chat/identity/internal/config"
	"github.com/parley-chat/identity/internal/database"
	"github.com/parley-chat/identity/internal/handlers"
	middlewareCustom "github.com/parley-chat/identity/internal/middleware"
	"github.com/parley-chat/identity/internal/repositories"
	"github.com/parley-chat/identity/internal/routes"
	"github.com/parley-chat/identity/internal/services"
	pkgauth "github.com/parley-chat/identity/pkg/auth"
	pkglogger "github.com/parley-chat/identity/pkg/logger"
)

// CapturingMailer records outbound messages for test assertions instead
// of calling SES.
type CapturingMailer struct {
	mu   sync.Mutex
	sent []services.Message
}

// Send records the message
func (m *CapturingMailer) Send(ctx context.Context, msg services.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// LastMessage returns the most recent message sent, or nil
func (m *CapturingMailer) LastMessage() *services.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return nil
	}
	msg := m.sent[len(m.sent)-1]
	return &msg
}

// TestServer wraps httptest.Server with database and all dependencies
type TestServer struct {
	Server *httptest.Server
	DB     *database.DB
	Mailer *CapturingMailer
	Config *config.Config

	logger *slog.Logger
}

// NewTestServer initializes a complete HTTP server with real database + captured email
func NewTestServer(db *database.DB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	// Create test config
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-32-characters-long-for-testing",
			SessionTokenTTL: time.Hour,
			BcryptCost:      4,
			OTPTTL:          10 * time.Minute,
			ResetTokenTTL:   10 * time.Minute,
		},
		Email: config.EmailConfig{
			FromAddress:  "noreply@test.local",
			ResetURLBase: "http://localhost:3000",
			SendTimeout:  2 * time.Second,
		},
		Server: config.ServerConfig{
			Port:           "0",
			Env:            "test",
			AllowedOrigins: []string{},
		},
	}

	// Credential codec and store
	codec := pkgauth.NewCodec(cfg.Auth.BcryptCost)
	userRepo := repositories.NewUserRepository(db, codec)

	// Captured mail instead of SES
	mailer := &CapturingMailer{}

	// Token manager and audit logging
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTokenTTL)
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Services
	authService := services.NewAuthService(userRepo, codec, tokenManager, mailer, logger, auditLogger, cfg.Auth.OTPTTL)
	resetService := services.NewPasswordResetService(userRepo, codec, tokenManager, mailer, logger, auditLogger, cfg.Auth.ResetTokenTTL, cfg.Email.ResetURLBase)

	// Handlers
	cookieConfig := auth.CookieConfig{SameSite: "lax"}
	authHandler := handlers.NewAuthHandler(authService, resetService, cookieConfig, int(cfg.Auth.SessionTokenTTL.Seconds()))
	userHandler := handlers.NewUserHandler(userRepo)

	// Setup Chi router with middleware
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Setup routes using production pattern
	routes.RegisterRoutes(r, authHandler, userHandler, tokenManager, userRepo)

	// Create httptest.Server
	server := httptest.NewServer(r)

	return &TestServer{
		Server: server,
		DB:     db,
		Mailer: mailer,
		Config: cfg,
		logger: logger,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	url := ts.Server.URL + path

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	// Set headers
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// RequestWithAuth makes an authenticated HTTP request with a session token
func (ts *TestServer) RequestWithAuth(method, path, sessionToken string, body interface{}) (*http.Response, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + sessionToken,
	}
	return ts.Request(method, path, body, headers)
}

// ParseJSONResponse parses JSON response body into target struct
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// ExtractSessionToken extracts the session token from an auth response
func ExtractSessionToken(resp *http.Response) (string, error) {
	defer resp.Body.Close()

	var authResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return "", err
	}

	if token, ok := authResp["token"].(string); ok {
		return token, nil
	}
	return "", nil
}

// GetErrorMessage extracts error message from error response
func GetErrorMessage(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	var errResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return "", err
	}
	if msg, ok := errResp["message"].(string); ok {
		return msg, nil
	}
	return "", nil
}
