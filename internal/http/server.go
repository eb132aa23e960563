package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	gauth "spendtrack/internal/auth/google"
	applog "spendtrack/internal/log"
	"spendtrack/internal/services"
)

// Options carries the deployment-specific knobs of the HTTP surface.
type Options struct {
	// FrontendURL receives the post-login redirect with the owner token.
	FrontendURL string
	// CORSOrigins lists the origins allowed to call the API from a browser.
	CORSOrigins []string
	// Logger handles request logging. A default HTTP-component logger is
	// created when nil.
	Logger *applog.Logger
}

type Server struct {
	http.Server
	ledger      *services.LedgerService
	reports     *services.ReportService
	auth        *gauth.Authenticator
	frontendURL string
	corsOrigins map[string]bool
	rateLimiter *rateLimiter
	logger      *applog.Logger
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

// startCleanup runs periodic cleanup to remove stale client entries
func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// stop gracefully shuts down the rate limiter cleanup goroutine
func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, ledger *services.LedgerService, reports *services.ReportService, auth *gauth.Authenticator, opts Options) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr: addr,
		},
		ledger:      ledger,
		reports:     reports,
		auth:        auth,
		frontendURL: opts.FrontendURL,
		corsOrigins: make(map[string]bool, len(opts.CORSOrigins)),
		rateLimiter: newRateLimiter(),
		logger:      opts.Logger,
	}
	if s.logger == nil {
		s.logger = applog.New(applog.Config{Component: applog.ComponentHTTP})
	}
	for _, origin := range opts.CORSOrigins {
		s.corsOrigins[origin] = true
	}

	mux.HandleFunc("GET /{$}", handleRoot)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/expenses/add", s.handleExpenseAdd)
	mux.HandleFunc("GET /api/expenses/list", s.handleExpenseList)
	mux.HandleFunc("PUT /api/expenses/update/{id}", s.handleExpenseUpdate)
	mux.HandleFunc("DELETE /api/expenses/delete/{id}", s.handleExpenseDelete)
	mux.HandleFunc("GET /api/expenses/summary", s.handleExpenseSummary)

	mux.HandleFunc("POST /api/savings/add", s.handleSavingsAdd)
	mux.HandleFunc("POST /api/savings/use", s.handleSavingsUse)
	mux.HandleFunc("GET /api/savings/get", s.handleSavingsGet)
	mux.HandleFunc("GET /api/savings/summary", s.handleSavingsSummary)

	mux.HandleFunc("POST /api/settings/save", s.handleSettingsSave)
	mux.HandleFunc("GET /api/settings/get", s.handleSettingsGet)
	mux.HandleFunc("POST /api/profile/update", s.handleProfileUpdate)
	mux.HandleFunc("POST /api/admin/reset", s.handleAdminReset)

	mux.HandleFunc("GET /api/analytics", s.handleAnalytics)

	mux.HandleFunc("GET /api/auth/google/login", s.handleGoogleLogin)
	mux.HandleFunc("GET /api/auth/google/callback", s.handleGoogleCallback)
	mux.HandleFunc("POST /api/auth/google", s.handleGoogleCredential)
	mux.HandleFunc("POST /api/auth/login", s.handleLoginFinalize)

	// The logger middleware runs outermost so every inner layer can pull the
	// request-tagged logger out of the context.
	handler := s.withCommon(mux)
	handler = applog.RequestIDMiddleware(func(*http.Request) string { return generateRequestID() })(handler)
	s.Handler = applog.Middleware(s.logger)(handler)
	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.rateLimiter != nil {
		s.rateLimiter.stop()
	}
	return s.Server.Shutdown(ctx)
}

// withCommon adds request logging, security headers, CORS, and rate limiting
// around the whole route table. CORS preflights are answered here so method
// patterns in the mux never see OPTIONS.
func (s *Server) withCommon(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		ctx := r.Context()
		logger := applog.FromContext(ctx)

		logger.InfoContext(ctx, "Request started",
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if origin := r.Header.Get("Origin"); origin != "" && s.corsOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// Rate limit mutating requests only
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			if !s.rateLimiter.allow(clientIP) {
				logger.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
				return
			}
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		applog.LogHTTPEnd(ctx, logger, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "Expense Tracker Backend is running successfully 🚀",
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
