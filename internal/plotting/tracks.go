// Package plotting renders tracked peak trajectories, either as a static
// PNG via gonum/plot or as a self-contained interactive HTML page via
// go-echarts. The control axis is plotted horizontally, the signal axis
// vertically, one series per track.
package plotting

import (
	"fmt"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/peaktrace/internal/tracking"
)

// SaveTrackPlot writes a PNG of all tracks to path. xLabel and yLabel name
// the control and signal axes respectively.
func SaveTrackPlot(tracks map[int][]tracking.Observation, title, xLabel, yLabel, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Legend.Top = true

	for i, id := range sortedTrackIDs(tracks) {
		pts := make(plotter.XYs, 0, len(tracks[id]))
		for _, obs := range tracks[id] {
			pts = append(pts, plotter.XY{X: obs.Control, Y: obs.Signal})
		}

		line, scatter, err := plotter.NewLinePoints(pts)
		if err != nil {
			return fmt.Errorf("build series for track %d: %w", id, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		scatter.Color = plotutil.Color(i)
		scatter.Shape = plotutil.Shape(i)

		p.Add(line, scatter)
		p.Legend.Add(fmt.Sprintf("track %d", id), line, scatter)
	}

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save track plot: %w", err)
	}
	return nil
}

func sortedTrackIDs(tracks map[int][]tracking.Observation) []int {
	ids := make([]int, 0, len(tracks))
	for id := range tracks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
