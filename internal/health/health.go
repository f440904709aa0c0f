// Package health serves the operational endpoint a long collection run
// exposes next to its Prometheus metrics:
//
//   - /healthz: liveness; a process that can answer HTTP is alive.
//   - /readyz: readiness; 200 only while every registered [Checker]
//     (archive connection, data directory, ...) passes.
//   - /metrics: the Prometheus scrape endpoint.
//
// Probe responses are JSON objects with a top-level "status" field ("ok" or
// "fail") and a "checks" map naming each checker's result.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// checkTimeout bounds a single readiness check.
const checkTimeout = 5 * time.Second

// Checker is a named readiness probe. Check returns nil while the dependency
// is usable and an error describing the failure otherwise.
type Checker struct {
	// Name labels the check in the /readyz response (e.g. "archive",
	// "data_dir").
	Name string

	// Check probes the dependency. It must respect context cancellation.
	Check func(ctx context.Context) error
}

// Pinger is the connection probe the archive store exposes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Postgres returns a Checker named "archive" that pings p.
func Postgres(p Pinger) Checker {
	return Checker{Name: "archive", Check: p.Ping}
}

// Directory returns a Checker that passes while path exists and is a
// directory. Collection runs register their data directory this way so a
// deleted or misconfigured artifact root flips readiness instead of
// surfacing as per-interview write failures.
func Directory(name, path string) Checker {
	return Checker{
		Name: name,
		Check: func(context.Context) error {
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", path)
			}
			return nil
		},
	}
}

// probeResult is the JSON body for both probe endpoints.
type probeResult struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler answers the liveness and readiness probes. The checker list is
// fixed at construction; the handler is safe for concurrent use.
type Handler struct {
	checkers []Checker
}

// New returns a Handler evaluating the given checkers on each /readyz
// request.
func New(checkers ...Checker) *Handler {
	return &Handler{checkers: append([]Checker(nil), checkers...)}
}

// Healthz always answers 200 OK.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, probeResult{Status: "ok"})
}

// Readyz runs every checker and answers 200 when all pass, 503 otherwise.
// Checkers run concurrently, each under its own [checkTimeout], so a hung
// dependency delays the probe by at most one timeout rather than the sum.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	var (
		mu     sync.Mutex
		checks = make(map[string]string, len(h.checkers))
		ready  = true
	)

	g, ctx := errgroup.WithContext(r.Context())
	for _, c := range h.checkers {
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, checkTimeout)
			err := c.Check(probeCtx)
			cancel()

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				checks[c.Name] = "fail: " + err.Error()
				ready = false
			} else {
				checks[c.Name] = "ok"
			}
			return nil
		})
	}
	// Check failures are reported in the body, never as group errors.
	_ = g.Wait()

	res := probeResult{Status: "ok", Checks: checks}
	status := http.StatusOK
	if !ready {
		res.Status = "fail"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, res)
}

// Mux assembles the operational endpoint: both probes plus the Prometheus
// /metrics handler, all wrapped by middleware when one is given.
func Mux(h *Handler, middleware func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	mux.Handle("GET /metrics", promhttp.Handler())
	if middleware == nil {
		return mux
	}
	return middleware(mux)
}

// Server runs the operational endpoint on its own listener for the duration
// of a collection run.
type Server struct {
	srv *http.Server
}

// NewServer returns an unstarted Server for addr serving handler, normally
// the result of [Mux].
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// ListenAndServe blocks serving the endpoint until [Server.Shutdown] or a
// listener error. It returns [http.ErrServerClosed] after a clean shutdown.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight probe requests and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// writeJSON encodes v with the given status code. On encoding failure it
// degrades to a plain 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
