package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	eventbus "github.com/hanpama/querytrainer/internal/eventbus"
	events "github.com/hanpama/querytrainer/internal/events"
	grader "github.com/hanpama/querytrainer/internal/grader"
	progress "github.com/hanpama/querytrainer/internal/progress"
	reqid "github.com/hanpama/querytrainer/internal/reqid"
	schema "github.com/hanpama/querytrainer/internal/schema"
	trainer "github.com/hanpama/querytrainer/internal/trainer"
)

// Server is the HTTP API of the trainer.
type Server struct {
	trainer *trainer.Trainer
	opt     Options
	router  chi.Router
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithMetrics(h http.Handler) Option { return func(o *Options) { o.Metrics = h } }

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

// New builds the router for tr.
func New(tr *trainer.Trainer, opts ...Option) *Server {
	op := Options{Timeout: 10 * time.Second}
	for _, f := range opts {
		f(&op)
	}
	s := &Server{trainer: tr, opt: op}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	r.Use(s.timeout)
	r.Use(s.cors)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	if op.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", op.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/schema", s.handleSchema)

		r.Get("/graphql", s.handleQuery(""))
		r.Post("/graphql", s.handleQuery(""))
		r.Options("/graphql", s.handlePreflight)
		for _, root := range []string{schema.RootOrders, schema.RootUsers} {
			r.Get("/graphql/"+root, s.handleQuery(root))
			r.Post("/graphql/"+root, s.handleQuery(root))
			r.Options("/graphql/"+root, s.handlePreflight)
		}

		r.Get("/tasks", s.handleListTasks)
		r.Route("/tasks/{taskId}", func(r chi.Router) {
			r.Get("/", s.handleGetTask)
			r.Post("/grade", s.handleGrade)
			r.Options("/grade", s.handlePreflight)
		})
		r.Get("/progress/{learner}", s.handleProgress)
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ------------------ Middleware ------------------

// observe assigns the request ID and publishes HTTPStart/HTTPFinish.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(reqid.Header)
		var ctx context.Context
		if rid == "" {
			ctx, rid = reqid.NewContext(r.Context())
		} else {
			ctx = reqid.WithID(r.Context(), rid)
		}
		w.Header().Set(reqid.Header, rid)
		r = r.WithContext(ctx)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		eventbus.Publish(ctx, events.HTTPStart{Request: r, RequestID: rid})
		defer func() {
			route := ""
			if rc := chi.RouteContext(r.Context()); rc != nil {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			eventbus.Publish(ctx, events.HTTPFinish{
				Request:   r,
				RequestID: rid,
				Route:     route,
				Status:    status,
				Duration:  time.Since(start),
			})
		}()
		next.ServeHTTP(ww, r)
	})
}

func (s *Server) timeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if _, ok := ctx.Deadline(); !ok && s.opt.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.opt.Timeout)
			defer cancel()
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, s.opt.CORS)
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------ Handlers ------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "tasks": len(s.trainer.Tasks())}, s.opt.Pretty)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.trainer.SchemaSDL()))
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// handleQuery answers a query. Rejected queries are still 200: the envelope
// carries the error.
func (s *Server) handleQuery(root string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, rerr := parseRequest(r, s.opt.MaxBodyBytes)
		if rerr != nil {
			s.writeError(w, rerr.status, rerr.Message)
			return
		}
		res := s.trainer.Query(r.Context(), req.Query, root)
		writeJSON(w, http.StatusOK, res, s.opt.Pretty)
	}
}

type taskView struct {
	ID        int               `json:"id"`
	Title     string            `json:"title"`
	Root      string            `json:"root"`
	Required  []string          `json:"required,omitempty"`
	Forbidden []string          `json:"forbidden,omitempty"`
	Args      map[string]string `json:"args,omitempty"`
	Hint      string            `json:"hint,omitempty"`
}

func viewOf(t *grader.Task, detail bool) taskView {
	v := taskView{ID: t.ID, Title: t.Title, Root: t.Root}
	if detail {
		v.Required, v.Forbidden, v.Args, v.Hint = t.Required, t.Forbidden, t.Args, t.Hint
	}
	return v
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks := s.trainer.Tasks()
	out := make([]taskView, len(tasks))
	for i, t := range tasks {
		out[i] = viewOf(t, false)
	}
	writeJSON(w, http.StatusOK, out, s.opt.Pretty)
}

func (s *Server) task(w http.ResponseWriter, r *http.Request) (*grader.Task, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "taskId"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, "unknown task")
		return nil, false
	}
	t, ok := s.trainer.Task(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown task")
		return nil, false
	}
	return t, true
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, ok := s.task(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(t, true), s.opt.Pretty)
}

func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	t, ok := s.task(w, r)
	if !ok {
		return
	}
	req, rerr := parseSubmission(r, s.opt.MaxBodyBytes)
	if rerr != nil {
		s.writeError(w, rerr.status, rerr.Message)
		return
	}
	res, err := s.trainer.Grade(r.Context(), t.ID, req.Query, strings.TrimSpace(req.Learner))
	switch {
	case errors.Is(err, grader.ErrUnknownTask):
		s.writeError(w, http.StatusNotFound, "unknown task")
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, res, s.opt.Pretty)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	learner := chi.URLParam(r, "learner")
	out, err := s.trainer.Progress(r.Context(), learner)
	switch {
	case errors.Is(err, progress.ErrNoLearner):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"learner": learner, "tasks": out}, s.opt.Pretty)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse(msg), s.opt.Pretty)
}
