package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"interview-assistant/internal/application"
)

const MaxClipBytes = 10 * 1024 * 1024

// HTTPSource receives answer clips uploaded from another device, for the
// console front end when the candidate records on a phone.
type HTTPSource struct {
	addr        string
	server      *http.Server
	clips       chan application.Clip
	logger      *slog.Logger
	mu          sync.Mutex
	running     bool
	router      chi.Router
	closeOnce   sync.Once
	rateLimiter *RateLimiter
	authToken   string
}

func NewHTTPSource(addr string, authToken string, rateLimit int, logger *slog.Logger) *HTTPSource {
	h := &HTTPSource{
		addr:        addr,
		clips:       make(chan application.Clip, 1),
		logger:      logger,
		router:      chi.NewRouter(),
		rateLimiter: NewRateLimiter(rateLimit, time.Minute),
		authToken:   authToken,
	}

	h.router.Use(middleware.RealIP)
	h.router.Use(middleware.Recoverer)
	h.router.Get("/health", h.handleHealth)
	h.router.With(h.rateLimiter.Middleware).Post("/audio", h.handleAudio)
	return h
}

func (h *HTTPSource) Name() string {
	return "http"
}

func (h *HTTPSource) Start(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return nil
	}

	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      h.router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		h.logger.Info("clip upload server starting", "addr", h.addr)
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("clip upload server error", "error", err)
		}
	}()

	h.running = true
	return nil
}

func (h *HTTPSource) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return nil
	}

	if h.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.server.Shutdown(ctx); err != nil {
			h.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := h.server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	h.closeOnce.Do(func() {
		close(h.clips)
	})
	h.running = false
	return nil
}

func (h *HTTPSource) NextClip(ctx context.Context) (application.Clip, error) {
	select {
	case <-ctx.Done():
		return application.Clip{}, ctx.Err()
	case clip, ok := <-h.clips:
		if !ok {
			return application.Clip{}, fmt.Errorf("clip channel closed")
		}
		return clip, nil
	}
}

func (h *HTTPSource) Handler() http.Handler {
	return h.router
}

func (h *HTTPSource) handleAudio(w http.ResponseWriter, r *http.Request) {
	if h.authToken != "" {
		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token != h.authToken {
			h.logger.Warn("unauthorized clip upload", "remote_addr", r.RemoteAddr)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, MaxClipBytes+1))
	if err != nil {
		h.logger.Error("reading clip body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(data) > MaxClipBytes {
		http.Error(w, "clip too large", http.StatusRequestEntityTooLarge)
		return
	}
	if len(data) == 0 {
		http.Error(w, "empty audio", http.StatusBadRequest)
		return
	}

	clip := application.Clip{ContentType: r.Header.Get("Content-Type"), Data: data}

	select {
	case h.clips <- clip:
		h.logger.Info("received clip via HTTP", "bytes", len(data), "contentType", clip.ContentType)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintf(w, `{"status":"received","bytes":%d}`, len(data))
	default:
		http.Error(w, "previous clip not consumed yet, try again", http.StatusServiceUnavailable)
	}
}

func (h *HTTPSource) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	running := h.running
	pending := len(h.clips)
	h.mu.Unlock()

	status := "ok"
	statusCode := http.StatusOK

	if !running {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	fmt.Fprintf(w, `{"status":"%s","running":%t,"pending":%d}`, status, running, pending)
}
