package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/roach88/toolserve/internal/dispatch"
	"github.com/roach88/toolserve/internal/ir"
	"github.com/roach88/toolserve/internal/metrics"
)

// DefaultPath is the resource path when Options.Path is empty.
const DefaultPath = "/app_package"

const healthPath = "/healthz"

// allowHeader lists the methods the resource path accepts.
var allowHeader = strings.Join(dispatch.Methods, ", ")

// Dispatcher executes one decoded request.
type Dispatcher interface {
	Dispatch(ctx context.Context, method string, payload ir.Row) (dispatch.Envelope, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the handler.
type Options struct {
	Path       string     // Resource path, e.g. /app_package
	Dispatcher Dispatcher // Required
	Health     Pinger     // Optional; /healthz answers 200 without it

	Metrics *metrics.Metrics // Optional; enables /metrics and request metrics
	Logger  *slog.Logger     // Defaults to slog.Default()
	IDs     IDGenerator      // Defaults to UUIDv7Generator
}

type handler struct {
	dispatcher Dispatcher
	decoder    *decoder
	health     Pinger
	logger     *slog.Logger
}

// NewHandler builds the router for the resource, health and metrics paths.
func NewHandler(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ids := opts.IDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}

	h := &handler{
		dispatcher: opts.Dispatcher,
		decoder:    newDecoder(),
		health:     opts.Health,
		logger:     logger,
	}

	router := mux.NewRouter()
	if opts.Metrics != nil {
		router.Handle("/metrics", opts.Metrics.Handler()).Methods(http.MethodGet)
	}

	path := strings.TrimSuffix(opts.Path, "/")
	if path == "" {
		path = DefaultPath
	}
	for _, p := range []string{path, path + "/"} {
		router.HandleFunc(p, h.serveResource).Methods(dispatch.Methods...)
	}
	router.HandleFunc(healthPath, h.serveHealth).Methods(http.MethodGet)
	router.MethodNotAllowedHandler = http.HandlerFunc(h.serveMethodNotAllowed)
	router.NotFoundHandler = http.HandlerFunc(serveNotFound)

	// mux runs Use middleware for matched routes only; wrap the router so
	// 404 and 405 answers carry request ids too.
	var root http.Handler = router
	if opts.Metrics != nil {
		root = opts.Metrics.Middleware(root, path, healthPath)
	}
	root = accessLogMiddleware(logger)(root)
	root = requestIDMiddleware(ids)(root)
	return root
}

func (h *handler) serveResource(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	payload, err := h.decoder.Decode(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	env, err := h.dispatcher.Dispatch(r.Context(), r.Method, payload)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (h *handler) serveMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, dispatch.NewError(dispatch.KindUnsupportedMethod, "unsupported method "+r.Method))
}

func serveNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
}

func (h *handler) serveHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			h.logger.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fail logs err with the request id and writes the error response.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := dispatch.KindOf(err)
	level := slog.LevelWarn
	if kind == dispatch.KindStore {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		"request_id", RequestID(r.Context()),
		"method", r.Method,
		"code", string(kind),
		"error", err,
	)
	writeError(w, err)
}

// ServerTimeouts bounds connection phases of the HTTP server.
type ServerTimeouts struct {
	Read     time.Duration
	Write    time.Duration
	Idle     time.Duration
	Shutdown time.Duration
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully within timeouts.Shutdown.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, timeouts ServerTimeouts) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       timeouts.Read,
		ReadHeaderTimeout: timeouts.Read,
		WriteTimeout:      timeouts.Write,
		IdleTimeout:       timeouts.Idle,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
