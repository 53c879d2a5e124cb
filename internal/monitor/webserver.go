// Package monitor serves the live simulation over HTTP: JSON state, a
// websocket snapshot stream, echarts debug pages and PNG plots.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/banshee-data/pursuit/internal/db"
	"github.com/banshee-data/pursuit/internal/httputil"
	"github.com/banshee-data/pursuit/internal/monitoring"
	"github.com/banshee-data/pursuit/internal/sim"
	"github.com/banshee-data/pursuit/internal/vec"
	"github.com/banshee-data/pursuit/internal/version"
)

var logf = monitoring.Component("monitor")

// WebServer exposes a running simulation for inspection.
type WebServer struct {
	address string
	sim     *sim.Simulation
	hub     *Hub
	stats   *sim.Stats
	db      *db.DB
	server  *http.Server
	started time.Time
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address string
	Sim     *sim.Simulation // live state; optional when only browsing runs
	Hub     *Hub            // live stream and chart history
	Stats   *sim.Stats
	DB      *db.DB // recorded runs and admin routes; optional
}

// NewWebServer creates a new web server with the provided configuration.
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address: config.Address,
		sim:     config.Sim,
		hub:     config.Hub,
		stats:   config.Stats,
		db:      config.DB,
		started: time.Now(),
	}
	ws.server = &http.Server{
		Addr:              ws.address,
		Handler:           ws.setupRoutes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return ws
}

// Handler returns the route multiplexer, for tests and embedding.
func (ws *WebServer) Handler() http.Handler { return ws.server.Handler }

// Start serves until ctx is cancelled, then shuts down gracefully. It
// returns an error only if the listener cannot be opened.
func (ws *WebServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", ws.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", ws.address, err)
	}
	return ws.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (ws *WebServer) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		logf("starting HTTP server on %s", ln.Addr())
		if err := ws.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		logf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			logf("HTTP server force close error: %v", err)
		}
	}
	logf("HTTP server routine stopped")
	return nil
}

func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/state", ws.handleState)
	mux.HandleFunc("/api/stats", ws.handleStats)
	mux.HandleFunc("/api/runs", ws.handleRuns)
	mux.HandleFunc("/api/runs/ticks", ws.handleRunTicks)
	mux.HandleFunc("/api/runs/trajectory", ws.handleRunTrajectory)
	mux.HandleFunc("/ws", ws.handleStream)
	mux.HandleFunc("/charts/trajectory", ws.handleTrajectoryChart)
	mux.HandleFunc("/charts/estimator", ws.handleEstimatorChart)
	mux.HandleFunc("/charts/trajectory.png", ws.handleTrajectoryPNG)

	if ws.db != nil {
		if err := ws.db.AttachAdminRoutes(mux); err != nil {
			logf("admin routes disabled: %v", err)
		}
	}
	return mux
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]interface{}{
		"status":  "ok",
		"version": version.String(),
		"uptime":  time.Since(ws.started).Round(time.Second).String(),
	})
}

func (ws *WebServer) handleState(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	if ws.sim == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "no live simulation")
		return
	}
	httputil.WriteJSONOK(w, ws.sim.Last())
}

// statsResponse mirrors sim.StatsSummary with NaN mapped to null.
type statsResponse struct {
	Ticks            uint64   `json:"ticks"`
	ActiveTicks      uint64   `json:"active_ticks"`
	Hits             int      `json:"hits"`
	MeanMissDistance *float64 `json:"mean_miss_distance"`
	StdMissDistance  *float64 `json:"std_miss_distance"`
	MinMissDistance  *float64 `json:"min_miss_distance"`
	MeanTimeToHit    *float64 `json:"mean_time_to_hit"`
	StdTimeToHit     *float64 `json:"std_time_to_hit"`
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func newStatsResponse(s sim.StatsSummary) statsResponse {
	return statsResponse{
		Ticks:            s.Ticks,
		ActiveTicks:      s.ActiveTicks,
		Hits:             s.Hits,
		MeanMissDistance: finite(s.MeanMissDistance),
		StdMissDistance:  finite(s.StdMissDistance),
		MinMissDistance:  finite(s.MinMissDistance),
		MeanTimeToHit:    finite(s.MeanTimeToHit),
		StdTimeToHit:     finite(s.StdTimeToHit),
	}
}

func (ws *WebServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	if ws.stats == nil {
		httputil.NotFound(w, "no statistics collected")
		return
	}
	httputil.WriteJSONOK(w, newStatsResponse(ws.stats.Summary()))
}

// handleRuns lists recorded runs.
// Query params:
//
//	limit (optional, default 20, max 500)
func (ws *WebServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	if ws.db == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}
	limit := httputil.QueryInt(r, "limit", 20, 1, 500)
	runs, err := ws.db.Runs(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	httputil.WriteJSONOK(w, runs)
}

// handleRunTicks returns the recorded snapshots of one run.
// Query params:
//
//	run_id (required)
func (ws *WebServer) handleRunTicks(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	if ws.db == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}
	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		httputil.BadRequest(w, "missing 'run_id' parameter")
		return
	}
	if _, err := ws.db.GetRun(runID); err != nil {
		if errors.Is(err, db.ErrRunNotFound) {
			httputil.NotFound(w, err.Error())
			return
		}
		httputil.InternalServerError(w, err.Error())
		return
	}
	ticks, err := ws.db.Ticks(runID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("load ticks: %v", err))
		return
	}
	if ticks == nil {
		ticks = []sim.Snapshot{}
	}
	httputil.WriteJSONOK(w, ticks)
}

// RunTrajectory is the body of /api/runs/trajectory.
type RunTrajectory struct {
	RunID   string     `json:"run_id"`
	Target  []vec.Vec2 `json:"target"`
	Pursuer []vec.Vec2 `json:"pursuer"`
}

// handleRunTrajectory returns only the target and pursuer paths of one run.
// Query params:
//
//	run_id (required)
func (ws *WebServer) handleRunTrajectory(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	if ws.db == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}
	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		httputil.BadRequest(w, "missing 'run_id' parameter")
		return
	}
	if _, err := ws.db.GetRun(runID); err != nil {
		if errors.Is(err, db.ErrRunNotFound) {
			httputil.NotFound(w, err.Error())
			return
		}
		httputil.InternalServerError(w, err.Error())
		return
	}
	target, pursuer, err := ws.db.Trajectory(runID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("load trajectory: %v", err))
		return
	}
	out := RunTrajectory{RunID: runID, Target: target, Pursuer: pursuer}
	if out.Target == nil {
		out.Target = []vec.Vec2{}
	}
	if out.Pursuer == nil {
		out.Pursuer = []vec.Vec2{}
	}
	httputil.WriteJSONOK(w, out)
}

// snapshots resolves the data set for chart handlers: a recorded run when
// run_id is given, else the live history.
func (ws *WebServer) snapshots(r *http.Request) ([]sim.Snapshot, string, error) {
	if runID := r.URL.Query().Get("run_id"); runID != "" {
		if ws.db == nil {
			return nil, "", errors.New("no database configured")
		}
		ticks, err := ws.db.Ticks(runID)
		return ticks, "run " + runID, err
	}
	if ws.hub == nil {
		return nil, "", errors.New("no live history")
	}
	return ws.hub.History(), "live", nil
}

// maxPointsParam reads max_points (default 4000, 100..50000).
func maxPointsParam(r *http.Request) int {
	return httputil.QueryInt(r, "max_points", 4000, 100, 50000)
}

// downsample keeps every stride-th snapshot so at most maxPoints remain.
// The last snapshot is always kept.
func downsample(snaps []sim.Snapshot, maxPoints int) ([]sim.Snapshot, int) {
	if len(snaps) <= maxPoints || maxPoints <= 0 {
		return snaps, 1
	}
	stride := int(math.Ceil(float64(len(snaps)) / float64(maxPoints)))
	out := make([]sim.Snapshot, 0, len(snaps)/stride+1)
	for i := 0; i < len(snaps); i += stride {
		out = append(out, snaps[i])
	}
	if last := snaps[len(snaps)-1]; out[len(out)-1].Tick != last.Tick {
		out = append(out, last)
	}
	return out, stride
}

func (ws *WebServer) world() (float64, float64) {
	if ws.sim == nil {
		return 1600, 1200
	}
	w := ws.sim.World()
	return w.X, w.Y
}
