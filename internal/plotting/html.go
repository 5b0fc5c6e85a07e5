package plotting

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/peaktrace/internal/tracking"
)

// RenderTracksHTML writes a standalone interactive scatter of all tracks to
// w as an HTML page, one hoverable series per track.
func RenderTracksHTML(tracks map[int][]tracking.Observation, title, xLabel, yLabel string, w io.Writer) error {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1000px", Height: "650px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("tracks=%d", len(tracks))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: xLabel, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: yLabel, NameLocation: "middle", NameGap: 30}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	for _, id := range sortedTrackIDs(tracks) {
		data := make([]opts.ScatterData, 0, len(tracks[id]))
		for _, obs := range tracks[id] {
			data = append(data, opts.ScatterData{Value: []interface{}{obs.Control, obs.Signal}})
		}
		scatter.AddSeries(fmt.Sprintf("track %d", id), data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	}

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("render track chart: %w", err)
	}
	return nil
}
