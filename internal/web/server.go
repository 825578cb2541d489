// Package web serves the browser front end of the interview assistant.
package web

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"interview-assistant/internal/application"
	"interview-assistant/internal/domain"
	"interview-assistant/internal/infra/audio"
)

const (
	CookieName   = "interview_session"
	maxFormBytes = 64 * 1024
)

//go:embed templates/*.html
var templateFS embed.FS

type Options struct {
	Controller *application.Controller
	Registry   *Registry
	Logger     *slog.Logger
	// History backs the /history page; nil disables it.
	History application.History

	// RateLimit caps audio uploads per client per minute; 0 disables it.
	RateLimit int
	// MetricsPath and Metrics mount a scrape endpoint when both are set.
	MetricsPath string
	Metrics     http.Handler
	Mock        bool

	// OnFatal is called once the result log can no longer be written.
	OnFatal func(error)
}

type Server struct {
	controller *application.Controller
	registry   *Registry
	logger     *slog.Logger
	templates  *template.Template
	limiter    *audio.RateLimiter
	opts       Options
}

func New(opts Options) (*Server, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"inc":   func(i int) int { return i + 1 },
		"score": func(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	if opts.Registry == nil {
		opts.Registry = NewRegistry(0)
	}
	if opts.OnFatal == nil {
		opts.OnFatal = func(error) {}
	}

	return &Server{
		controller: opts.Controller,
		registry:   opts.Registry,
		logger:     opts.Logger,
		templates:  tmpl,
		limiter:    audio.NewRateLimiter(opts.RateLimit, time.Minute),
		opts:       opts,
	}, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))

	r.Get("/", s.handleHome)
	r.Post("/interviews", s.handleStart)
	if s.opts.History != nil {
		r.Get("/history", s.handleHistory)
	}

	r.Route("/interview", func(r chi.Router) {
		r.Get("/", s.handleInterview)
		r.With(s.limiter.Middleware).Post("/audio", s.handleAudio)
		r.Post("/submit", s.handleSubmit)
		r.Post("/restart", s.handleRestart)
	})

	if s.opts.Metrics != nil && s.opts.MetricsPath != "" {
		r.Handle(s.opts.MetricsPath, s.opts.Metrics)
	}

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type startForm struct {
	Candidate      string
	Role           string
	JobDescription string
	Count          int
}

type page struct {
	Mock    bool
	Notice  string
	Error   string
	Form    startForm
	Session *domain.Session

	Question string
	Number   int
	Total    int
	Last     *domain.AnswerRecord
	MaxBytes int

	History []domain.AnswerRecord
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data page) {
	data.Mock = s.opts.Mock
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("rendering template", "template", name, "error", err)
	}
}

func (s *Server) current(r *http.Request) (*entry, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil, false
	}
	return s.registry.get(c.Value)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.current(r); ok {
		http.Redirect(w, r, "/interview", http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "start.html", page{})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, "start.html", page{Error: "The form could not be read."})
		return
	}

	form := startForm{
		Candidate:      r.PostForm.Get("candidate"),
		Role:           r.PostForm.Get("role"),
		JobDescription: r.PostForm.Get("job_description"),
	}
	if v := r.PostForm.Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.render(w, http.StatusBadRequest, "start.html", page{Form: form, Error: "The number of questions must be a positive number."})
			return
		}
		form.Count = n
	}

	e := s.registry.create()
	e.mu.Lock()
	err := s.controller.Start(r.Context(), e.session, application.StartInput{
		Candidate:      form.Candidate,
		Role:           form.Role,
		JobDescription: form.JobDescription,
		Count:          form.Count,
	})
	e.mu.Unlock()

	if err != nil {
		s.registry.remove(e.session.ID)
		s.render(w, statusFor(err), "start.html", page{Form: form, Error: userMessage(err)})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    e.session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/interview", http.StatusSeeOther)
}

func (s *Server) handleInterview(w http.ResponseWriter, r *http.Request) {
	e, ok := s.current(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sess := e.session
	data := page{
		Session:  sess,
		Notice:   e.takeNotice(),
		Total:    sess.Total(),
		MaxBytes: audio.MaxClipBytes,
	}
	if n := len(sess.Records); n > 0 {
		last := sess.Records[n-1]
		data.Last = &last
	}

	switch sess.State {
	case domain.StateComplete:
		s.render(w, http.StatusOK, "summary.html", data)
	case domain.StateAwaitingAnswer, domain.StateEvaluating:
		data.Question, _ = sess.CurrentQuestion()
		data.Number = sess.Index + 1
		s.render(w, http.StatusOK, "question.html", data)
	default:
		s.registry.remove(sess.ID)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	e, ok := s.current(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "No interview in progress."})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, audio.MaxClipBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "The recording is too large."})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "The recording could not be read."})
		return
	}

	e.mu.Lock()
	_, err = s.controller.Record(r.Context(), e.session, r.Header.Get("Content-Type"), data)
	e.mu.Unlock()

	if err != nil {
		writeJSON(w, statusFor(err), map[string]string{"error": userMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "recorded", "bytes": len(data)})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	e, ok := s.current(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	e.mu.Lock()
	_, err := s.controller.Submit(r.Context(), e.session)
	if err != nil {
		var stepErr *application.StepError
		if errors.As(err, &stepErr) && stepErr.Fatal() {
			e.mu.Unlock()
			s.logger.Error("result log failed, shutting down", "session", e.session.ID, "error", err)
			s.render(w, http.StatusInternalServerError, "fatal.html", page{Error: stepErr.UserMessage()})
			s.opts.OnFatal(err)
			return
		}
		e.notice = userMessage(err)
	}
	e.mu.Unlock()

	http.Redirect(w, r, "/interview", http.StatusSeeOther)
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	if e, ok := s.current(r); ok {
		s.registry.remove(e.session.ID)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.render(w, http.StatusBadRequest, "history.html", page{Error: "limit must be a positive number."})
			return
		}
		limit = min(n, 500)
	}

	records, err := s.opts.History.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("loading history", "error", err)
		s.render(w, http.StatusInternalServerError, "history.html", page{Error: "The interview history could not be loaded."})
		return
	}
	s.render(w, http.StatusOK, "history.html", page{History: records})
}

func userMessage(err error) string {
	var stepErr *application.StepError
	if errors.As(err, &stepErr) {
		return stepErr.UserMessage()
	}
	return "Something went wrong, please retry."
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrServiceUnavailable), errors.Is(err, domain.ErrUnparseableResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}
