package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"fairytale-chat/internal/logger"
	"fairytale-chat/internal/persona"
	"fairytale-chat/internal/session"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher interface for SSE support
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

var relayMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete,
}

// RouterDeps are the collaborators the HTTP surface is built from
type RouterDeps struct {
	Registry       *persona.Registry
	Relay          ChatRelay
	Sender         OrderSender
	OrderRecipient string
	Manager        *session.Manager
	Broadcaster    *EventBroadcaster
	Orders         OrderHistory
	StaticDir      string
}

// Router holds the HTTP multiplexer and dependencies
type Router struct {
	mux              *http.ServeMux
	chatHandler      *ChatHandler
	sendOrderHandler *SendOrderHandler
	personaHandler   *PersonaHandler
	healthHandler    *HealthHandler
	sessionHandler   *SessionHandler
	eventsHandler    *SessionEventsHandler
	orderHandler     *OrderHandler
	broadcaster      *EventBroadcaster
	staticDir        string
	log              *log.Logger
}

// NewRouter creates a new router with all routes configured
func NewRouter(deps RouterDeps) *Router {
	broadcaster := deps.Broadcaster
	if broadcaster == nil {
		broadcaster = NewEventBroadcaster()
	}

	r := &Router{
		mux:              http.NewServeMux(),
		chatHandler:      NewChatHandler(deps.Relay),
		sendOrderHandler: NewSendOrderHandler(deps.Sender),
		personaHandler:   NewPersonaHandler(deps.Registry),
		healthHandler:    NewHealthHandler(deps.Manager, broadcaster),
		broadcaster:      broadcaster,
		staticDir:        deps.StaticDir,
		log:              logger.With("HTTP"),
	}
	if deps.Manager != nil {
		r.sessionHandler = NewSessionHandler(deps.Manager, broadcaster, deps.Sender, deps.OrderRecipient)
		r.eventsHandler = NewSessionEventsHandler(deps.Manager, broadcaster)
	}
	if deps.Orders != nil {
		r.orderHandler = NewOrderHandler(deps.Orders)
	}
	r.setupRoutes()
	return r
}

// setupRoutes configures all HTTP routes
func (r *Router) setupRoutes() {
	// Health check
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	// Stateless relay endpoints answer 405 themselves. Methods are listed so
	// the patterns stay more specific than the static "GET /".
	for _, method := range relayMethods {
		r.mux.HandleFunc(method+" /chat", r.chatHandler.Chat)
		r.mux.HandleFunc(method+" /send-order", r.sendOrderHandler.SendOrder)
	}

	// Persona catalog
	r.mux.HandleFunc("GET /api/personas", r.personaHandler.List)

	if r.sessionHandler != nil {
		// Session routes
		r.mux.HandleFunc("POST /api/sessions", r.sessionHandler.Create)
		r.mux.HandleFunc("GET /api/sessions/{id}", r.sessionHandler.Get)
		r.mux.HandleFunc("DELETE /api/sessions/{id}", r.sessionHandler.Delete)
		r.mux.HandleFunc("POST /api/sessions/{id}/messages", r.sessionHandler.SendMessage)
		r.mux.HandleFunc("POST /api/sessions/{id}/suggestions/{index}", r.sessionHandler.SelectSuggestion)
		r.mux.HandleFunc("PUT /api/sessions/{id}/persona", r.sessionHandler.SwitchPersona)
		r.mux.HandleFunc("PUT /api/sessions/{id}/prompt", r.sessionHandler.ApplyPrompt)

		// Order builder routes
		r.mux.HandleFunc("PUT /api/sessions/{id}/builder", r.sessionHandler.UpdateBuilder)
		r.mux.HandleFunc("POST /api/sessions/{id}/packaging", r.sessionHandler.AppendPackaging)
		r.mux.HandleFunc("POST /api/sessions/{id}/order", r.sessionHandler.CompileOrder)
		r.mux.HandleFunc("POST /api/sessions/{id}/order/send", r.sessionHandler.SendOrder)

		// SSE events route
		r.mux.HandleFunc("GET /api/sessions/{id}/events", r.eventsHandler.HandleEvents)
	}

	if r.orderHandler != nil {
		// Sent order history
		r.mux.HandleFunc("GET /api/orders", r.orderHandler.List)
		r.mux.HandleFunc("GET /api/orders/{id}", r.orderHandler.Get)
	}

	// Static file serving (for frontend)
	if r.staticDir != "" {
		r.mux.HandleFunc("GET /", r.serveStatic)
	}
}

// serveStatic serves static files from the static directory
func (r *Router) serveStatic(w http.ResponseWriter, req *http.Request) {
	path := req.URL.Path
	if path == "/" {
		path = "/index.html"
	}

	filePath := filepath.Join(r.staticDir, filepath.FromSlash(path))

	// Check if file exists
	if info, err := os.Stat(filePath); err != nil || info.IsDir() {
		// Serve index.html for SPA routing
		filePath = filepath.Join(r.staticDir, "index.html")
	}

	http.ServeFile(w, req, filePath)
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if req.Method == http.MethodOptions {
		r.log.Debug("CORS preflight", "path", req.URL.Path)
		w.WriteHeader(http.StatusOK)
		return
	}

	// Skip logging for static files, health checks, and SSE endpoints
	shouldLog := isLoggedPath(req.URL.Path)

	if shouldLog {
		r.log.Info("Request started", "method", req.Method, "path", req.URL.Path)
	}

	// Wrap response writer to capture status code
	wrapped := newResponseWriter(w)
	r.mux.ServeHTTP(wrapped, req)

	if shouldLog {
		r.log.Info("Request completed", "method", req.Method, "path", req.URL.Path,
			"status", wrapped.statusCode, "duration", time.Since(start))
	}
}

// Broadcaster returns the event broadcaster
func (r *Router) Broadcaster() *EventBroadcaster {
	return r.broadcaster
}

func isLoggedPath(path string) bool {
	if path == "/chat" || path == "/send-order" {
		return true
	}
	return strings.HasPrefix(path, "/api/") && !strings.HasSuffix(path, "/events")
}
