package http

import (
	"context"
	"net/http"
	"net/http/pprof"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/firecat2d/firecat/spatial"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ShutdownTimeout is the time given to servers to finish their requests once
// ListenAndServe stops them.
var ShutdownTimeout = time.Second * 5

// AdminConfig describes what the admin server exposes.
type AdminConfig struct {
	Version string

	// Reports whether the simulation is running. Nil means always ready.
	Ready func() bool

	// Returns the grid occupancy served on /debug/grid. The endpoint is not
	// registered when nil.
	DebugGrid func() spatial.DebugInfo
}

// NewAdminHandler returns the admin endpoints: metrics, health, readiness,
// version, grid occupancy and pprof. Requests are counted with their path.
func NewAdminHandler(conf AdminConfig) http.Handler {
	ready := conf.Ready
	if ready == nil {
		ready = func() bool { return true }
	}

	var mux http.ServeMux
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", HandleHealthCheck)
	mux.HandleFunc("/ready", HandleReadyCheck(ready))
	mux.HandleFunc("/version", HandleVersion(conf.Version))
	if conf.DebugGrid != nil {
		mux.HandleFunc("/debug/grid", HandleDebugGrid(conf.DebugGrid))
	}

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	mux.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	mux.Handle("/debug/pprof/block", pprof.Handler("block"))

	return metrics.HTTPHandler(&mux, MetricsPathFormatter)
}

// ListenAndServe runs the servers until ctx is done or one of them fails, then
// shuts all of them down. It returns the first server failure.
func ListenAndServe(ctx context.Context, servers ...*http.Server) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	failures := make(chan error, len(servers))
	var wg sync.WaitGroup

	for _, s := range servers {
		wg.Add(1)

		go func(s *http.Server) {
			defer wg.Done()

			logs.WithTag("addr", s.Addr).Info("starting server")

			if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				failures <- errors.New("server stopped").
					WithTag("addr", s.Addr).
					Wrap(err)
				cancel()
				return
			}
			logs.WithTag("addr", s.Addr).Info("stopping server")
		}(s)
	}

	<-ctx.Done()
	shutdown(servers)
	wg.Wait()

	close(failures)
	return <-failures
}

func shutdown(servers []*http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	for _, s := range servers {
		if err := s.Shutdown(ctx); err != nil {
			logs.Warn(errors.New("shutting down the server failed").
				WithTag("addr", s.Addr).
				Wrap(err))
		}
	}
}

// MetricsPathFormatter returns empty string on HTTP 301, 400, 404 or 405
// statusCode so that unknown paths do not create metric labels.
func MetricsPathFormatter(statusCode int, path string) string {
	switch statusCode {
	case http.StatusMovedPermanently,
		http.StatusBadRequest,
		http.StatusNotFound,
		http.StatusMethodNotAllowed:
		return ""
	}
	return path
}
