package monitor

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/banshee-data/pursuit/internal/httputil"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// echartsAssetsHost serves the echarts JavaScript bundles.
const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// handleTrajectoryChart renders target, pursuer and measurement positions
// as an echarts scatter plot.
// Query params:
//   - run_id (optional; defaults to the live history)
//   - max_points (optional; default 4000)
func (ws *WebServer) handleTrajectoryChart(w http.ResponseWriter, r *http.Request) {
	snaps, source, err := ws.snapshots(r)
	if err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	if len(snaps) == 0 {
		httputil.NotFound(w, "no snapshots available")
		return
	}
	snaps, stride := downsample(snaps, maxPointsParam(r))
	width, height := ws.world()

	targetData := make([]opts.ScatterData, 0, len(snaps))
	pursuerData := make([]opts.ScatterData, 0, len(snaps))
	hitData := make([]opts.ScatterData, 0)
	for _, s := range snaps {
		targetData = append(targetData, opts.ScatterData{Value: []interface{}{s.Target.X, s.Target.Y, s.Tick}})
		if s.Active || s.Hit {
			pursuerData = append(pursuerData, opts.ScatterData{Value: []interface{}{s.Pursuer.X, s.Pursuer.Y, s.Tick}})
		}
		if s.Hit {
			hitData = append(hitData, opts.ScatterData{Value: []interface{}{s.Target.X, s.Target.Y, s.Tick}})
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Pursuit trajectory", Theme: "dark", Width: "1200px", Height: "900px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Pursuit trajectory", Subtitle: fmt.Sprintf("%s points=%d stride=%d", source, len(snaps), stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: 0, Max: width, Name: "x", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: 0, Max: height, Name: "y (screen, down)", NameLocation: "middle", NameGap: 40}),
	)
	scatter.AddSeries("plane", targetData, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	scatter.AddSeries("rocket", pursuerData, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	scatter.AddSeries("hit", hitData, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 14}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleEstimatorChart renders the filter diagnostics over time: trace of
// the covariance, miss distance and innovation magnitude, one chart each.
// Takes the same query params as handleTrajectoryChart.
func (ws *WebServer) handleEstimatorChart(w http.ResponseWriter, r *http.Request) {
	snaps, source, err := ws.snapshots(r)
	if err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	if len(snaps) == 0 {
		httputil.NotFound(w, "no snapshots available")
		return
	}
	snaps, _ = downsample(snaps, maxPointsParam(r))

	ticks := make([]string, len(snaps))
	trace := make([]opts.LineData, len(snaps))
	miss := make([]opts.LineData, len(snaps))
	innovation := make([]opts.LineData, len(snaps))
	for i, s := range snaps {
		ticks[i] = strconv.FormatUint(s.Tick, 10)
		trace[i] = opts.LineData{Value: s.CovarianceTrace}
		miss[i] = opts.LineData{Value: s.MissDistance}
		innovation[i] = opts.LineData{Value: s.Innovation.Len()}
	}

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsHost)
	page.PageTitle = "Estimator diagnostics"
	page.AddCharts(
		lineChart("Covariance trace", source, ticks, "trace(P)", trace),
		lineChart("Miss distance", source, ticks, "distance", miss),
		lineChart("Innovation magnitude", source, ticks, "|z - Hx|", innovation),
	)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func lineChart(title, subtitle string, ticks []string, series string, data []opts.LineData) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "100%", Height: "320px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "tick", NameLocation: "middle", NameGap: 25}),
	)
	line.SetXAxis(ticks).AddSeries(series, data)
	return line
}
