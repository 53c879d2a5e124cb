package monitor

import (
	"fmt"
	"image/color"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/banshee-data/pursuit/internal/httputil"
	"github.com/banshee-data/pursuit/internal/sim"
	"github.com/banshee-data/pursuit/internal/vec"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	targetColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	pursuerColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	hitColor     = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

// TrajectoryPlotter collects snapshots while enabled and writes PNG plots
// of the engagement: the flight paths, and the estimator diagnostics.
type TrajectoryPlotter struct {
	mu        sync.Mutex
	enabled   bool
	outputDir string
	label     string
	world     vec.Vec2
	samples   []sim.Snapshot
}

// NewTrajectoryPlotter creates a disabled plotter for a world of the given
// extent. label names the output files.
func NewTrajectoryPlotter(label string, world vec.Vec2) *TrajectoryPlotter {
	return &TrajectoryPlotter{label: label, world: world}
}

// Start enables sampling into outputDir, discarding earlier samples.
func (tp *TrajectoryPlotter) Start(outputDir string) error {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	tp.outputDir = outputDir
	tp.enabled = true
	tp.samples = nil
	return nil
}

// Stop disables sampling. Collected samples are kept for Save.
func (tp *TrajectoryPlotter) Stop() {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.enabled = false
}

// IsEnabled reports whether the plotter is sampling.
func (tp *TrajectoryPlotter) IsEnabled() bool {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return tp.enabled
}

// ObserveTick implements sim.Observer.
func (tp *TrajectoryPlotter) ObserveTick(s sim.Snapshot) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	if tp.enabled {
		tp.samples = append(tp.samples, s)
	}
}

// Samples returns the number of collected snapshots.
func (tp *TrajectoryPlotter) Samples() int {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return len(tp.samples)
}

// Save writes <label>_trajectory.png and <label>_estimator.png to the
// output directory and returns their paths.
func (tp *TrajectoryPlotter) Save() ([]string, error) {
	tp.mu.Lock()
	samples := append([]sim.Snapshot(nil), tp.samples...)
	dir, label, world := tp.outputDir, tp.label, tp.world
	tp.mu.Unlock()

	if dir == "" {
		return nil, fmt.Errorf("plotter was never started")
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples to plot")
	}

	base := sanitizeFilename(label)
	traj, err := TrajectoryPlot(samples, world)
	if err != nil {
		return nil, err
	}
	est, err := EstimatorPlot(samples)
	if err != nil {
		return nil, err
	}

	trajFile := filepath.Join(dir, base+"_trajectory.png")
	if err := traj.Save(10*vg.Inch, 7.5*vg.Inch, trajFile); err != nil {
		return nil, fmt.Errorf("failed to save trajectory plot: %w", err)
	}
	estFile := filepath.Join(dir, base+"_estimator.png")
	if err := est.Save(14*vg.Inch, 6*vg.Inch, estFile); err != nil {
		return nil, fmt.Errorf("failed to save estimator plot: %w", err)
	}
	logf("saved plots %s, %s (%d samples)", trajFile, estFile, len(samples))
	return []string{trajFile, estFile}, nil
}

// TrajectoryPlot draws the target and pursuer paths. Paths are split where
// the target wraps across the world so no line spans the whole plot.
func TrajectoryPlot(samples []sim.Snapshot, world vec.Vec2) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Pursuit trajectory"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y (screen, down)"
	p.X.Min, p.X.Max = 0, world.X
	p.Y.Min, p.Y.Max = 0, world.Y

	var targetPath, pursuerPath []vec.Vec2
	var hits plotter.XYs
	for _, s := range samples {
		targetPath = append(targetPath, s.Target)
		if s.Active || s.Hit {
			pursuerPath = append(pursuerPath, s.Pursuer)
		}
		if s.Hit {
			hits = append(hits, plotter.XY{X: s.Target.X, Y: s.Target.Y})
		}
	}

	if err := addPath(p, "plane", targetPath, world, targetColor); err != nil {
		return nil, err
	}
	if err := addPath(p, "rocket", pursuerPath, world, pursuerColor); err != nil {
		return nil, err
	}
	if len(hits) > 0 {
		sc, err := plotter.NewScatter(hits)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = hitColor
		sc.GlyphStyle.Radius = vg.Points(5)
		p.Add(sc)
		p.Legend.Add("hit", sc)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// addPath adds one line per continuous run of path.
func addPath(p *plot.Plot, name string, path []vec.Vec2, world vec.Vec2, c color.Color) error {
	legend := false
	for _, seg := range splitAtWrap(path, world) {
		if len(seg) < 2 {
			continue
		}
		line, err := plotter.NewLine(seg)
		if err != nil {
			return err
		}
		line.Color = c
		line.Width = vg.Points(1)
		p.Add(line)
		if !legend {
			p.Legend.Add(name, line)
			legend = true
		}
	}
	return nil
}

// splitAtWrap cuts path wherever consecutive points jump more than half the
// world on either axis.
func splitAtWrap(path []vec.Vec2, world vec.Vec2) []plotter.XYs {
	var segs []plotter.XYs
	var cur plotter.XYs
	for i, pt := range path {
		if i > 0 {
			prev := path[i-1]
			if abs(pt.X-prev.X) > world.X/2 || abs(pt.Y-prev.Y) > world.Y/2 {
				segs = append(segs, cur)
				cur = nil
			}
		}
		cur = append(cur, plotter.XY{X: pt.X, Y: pt.Y})
	}
	if len(cur) > 0 {
		segs = append(segs, cur)
	}
	return segs
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// EstimatorPlot draws covariance trace and miss distance against tick.
// Miss distance is only plotted while the pursuer is driven.
func EstimatorPlot(samples []sim.Snapshot) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Estimator diagnostics"
	p.X.Label.Text = "Tick"
	p.Y.Label.Text = "Value"

	trace := make(plotter.XYs, 0, len(samples))
	miss := make(plotter.XYs, 0, len(samples))
	for _, s := range samples {
		trace = append(trace, plotter.XY{X: float64(s.Tick), Y: s.CovarianceTrace})
		if s.Active || s.Hit {
			miss = append(miss, plotter.XY{X: float64(s.Tick), Y: s.MissDistance})
		}
	}

	traceLine, err := plotter.NewLine(trace)
	if err != nil {
		return nil, err
	}
	traceLine.Color = targetColor
	traceLine.Width = vg.Points(1)
	p.Add(traceLine)
	p.Legend.Add("trace(P)", traceLine)

	if len(miss) > 0 {
		missLine, err := plotter.NewLine(miss)
		if err != nil {
			return nil, err
		}
		missLine.Color = pursuerColor
		missLine.Width = vg.Points(1)
		p.Add(missLine)
		p.Legend.Add("miss distance", missLine)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// WritePNG renders p as a PNG of the given size to w.
func WritePNG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("failed to create png writer: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// handleTrajectoryPNG serves TrajectoryPlot as an image. Takes run_id like
// the chart handlers.
func (ws *WebServer) handleTrajectoryPNG(w http.ResponseWriter, r *http.Request) {
	snaps, _, err := ws.snapshots(r)
	if err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	if len(snaps) == 0 {
		httputil.NotFound(w, "no snapshots available")
		return
	}
	width, height := ws.world()
	p, err := TrajectoryPlot(snaps, vec.New(width, height))
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("plot: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := WritePNG(w, p, 8*vg.Inch, 6*vg.Inch); err != nil {
		logf("png render failed: %v", err)
	}
}

// sanitizeFilename keeps ASCII letters, digits, dot, underscore and dash,
// collapsing every other run of characters into one underscore.
func sanitizeFilename(s string) string {
	const maxLen = 128
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "run"
	}
	return out
}
