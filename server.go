package main

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"finnduel-overlay-backend/config"
	"finnduel-overlay-backend/handlers"
	"finnduel-overlay-backend/metrics"
	"finnduel-overlay-backend/services"
	"finnduel-overlay-backend/suspension"
)

// app wires services and handlers together
type app struct {
	cfg           *config.Config
	schedule      *suspension.Schedule
	stateService  *services.StateService
	marketService *services.MarketService
	hub           *services.Hub
}

func newApp(cfg *config.Config, overlay *config.Overlay, clock clockwork.Clock) (*app, error) {
	schedule, err := suspension.NewSchedule(overlay.Windows)
	if err != nil {
		return nil, err
	}

	stateService := services.NewStateService(schedule, overlay.CategoryIDs(), clock)
	marketService := services.NewMarketService(cfg, overlay)

	hubConfig := services.DefaultHubConfig()
	hubConfig.PingInterval = cfg.WSPingInterval
	hubConfig.WriteTimeout = cfg.WSWriteTimeout
	hubConfig.CheckOrigin = checkOrigin(cfg.AllowedOrigins)

	return &app{
		cfg:           cfg,
		schedule:      schedule,
		stateService:  stateService,
		marketService: marketService,
		hub:           services.NewHub(stateService, hubConfig),
	}, nil
}

func (a *app) routes() http.Handler {
	stateHandler := handlers.NewStateHandler(a.stateService, a.schedule, a.hub)
	marketHandler := handlers.NewMarketHandler(a.marketService, a.stateService)
	pageHandler := handlers.NewPageHandler(a.marketService, a.stateService)

	r := mux.NewRouter()
	r.Use(createLoggingMiddleware())

	r.HandleFunc("/", pageHandler.ServeOverlay).Methods("GET")
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	// Overlay state
	r.HandleFunc("/api/overlay/state", stateHandler.GetState).Methods("GET")
	r.HandleFunc("/api/overlay/playback", stateHandler.UpdatePlayback).Methods("POST")
	r.HandleFunc("/api/overlay/category", stateHandler.SelectCategory).Methods("POST")
	r.HandleFunc("/api/overlay/evaluate", stateHandler.Evaluate).Methods("GET")
	r.HandleFunc("/api/overlay/windows", stateHandler.GetWindows).Methods("GET")
	r.HandleFunc("/api/overlay/ws", stateHandler.Stream).Methods("GET")

	// Catalogue and media
	r.HandleFunc("/api/categories", marketHandler.GetCategories).Methods("GET")
	r.HandleFunc("/api/markets/{category}", marketHandler.GetMarkets).Methods("GET")
	r.HandleFunc("/api/video", marketHandler.ServeVideo).Methods("GET", "HEAD")

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: a.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Range", "Accept-Ranges"},
	})
	return corsHandler.Handler(r)
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		// Same-host pages are always allowed.
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}

// createLoggingMiddleware logs each request and records request metrics
func createLoggingMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
			metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(duration.Seconds())

			// timeupdate fires several times a second, keep it out of info logs
			event := log.Info()
			if route == "/api/overlay/playback" || route == "/metrics" {
				event = log.Debug()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Int("status", wrapped.statusCode).
				Dur("duration", duration).
				Msg("request")
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack passes websocket upgrades through to the underlying connection
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	conn, brw, err := h.Hijack()
	if err == nil {
		rw.statusCode = http.StatusSwitchingProtocols
	}
	return conn, brw, err
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
