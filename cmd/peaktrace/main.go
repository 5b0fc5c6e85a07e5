// Command peaktrace runs the peak detection and tracking pipeline over a
// swept 2D field stored as CSV, and writes the resulting tracks as JSON,
// SQLite, PNG, or interactive HTML.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/banshee-data/peaktrace/internal/config"
	"github.com/banshee-data/peaktrace/internal/field"
	"github.com/banshee-data/peaktrace/internal/peaks"
	"github.com/banshee-data/peaktrace/internal/plotting"
	"github.com/banshee-data/peaktrace/internal/trackdb"
	"github.com/banshee-data/peaktrace/internal/tracking"
)

func main() {
	input := flag.String("input", "", "Input CSV file holding the 2D field (required)")
	signalAxis := flag.Int("signal-axis", 0, "Field axis carrying the signal: 0 (rows) or 1 (columns)")
	minima := flag.Bool("minima", false, "Track valleys instead of peaks")

	sigmaSignal := flag.Float64("sigma-signal", peaks.DefaultKernel().SigmaSignal, "Gaussian sigma along the signal axis (grid units)")
	sigmaControl := flag.Float64("sigma-control", peaks.DefaultKernel().SigmaControl, "Gaussian sigma along the control axis (grid units)")
	truncate := flag.Float64("truncate", peaks.DefaultKernel().Truncate, "Kernel support in sigmas per side")

	follow := flag.Bool("follow", true, "Extrapolate each track along its last displacement when matching")
	assignment := flag.String("assignment", tracking.AssignmentGreedy.String(), "Matching strategy: greedy, greedy-unique, or optimal")

	signalStart := flag.Float64("signal-start", 0, "Physical value of the first signal-axis grid index")
	signalStep := flag.Float64("signal-step", 1, "Physical spacing between signal-axis grid indices")
	controlStart := flag.Float64("control-start", 0, "Physical value of the first control-axis grid index")
	controlStep := flag.Float64("control-step", 1, "Physical spacing between control-axis grid indices")

	rangeStart := flag.Int("range-start", 0, "First control grid index to traverse")
	rangeEnd := flag.Int("range-end", -1, "Last control grid index to traverse (inclusive, -1 = last slice)")

	configPath := flag.String("config", "", "Optional JSON tuning file overriding detector/tracker parameters")
	jsonOut := flag.String("json", "", "Write tracks as JSON to this file ('-' for stdout)")
	dbPath := flag.String("db", "", "Persist the run to this SQLite database")
	plotPath := flag.String("plot", "", "Write a PNG plot of the tracks to this file")
	htmlPath := flag.String("html", "", "Write an interactive HTML chart of the tracks to this file")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		log.Fatal("missing required -input")
	}
	if *signalAxis != 0 && *signalAxis != 1 {
		log.Fatalf("invalid -signal-axis %d: must be 0 or 1", *signalAxis)
	}

	kernel := peaks.Kernel{
		SigmaSignal:  *sigmaSignal,
		SigmaControl: *sigmaControl,
		Truncate:     *truncate,
	}
	trackerCfg := tracking.DefaultConfig()
	trackerCfg.FollowTrajectory = *follow
	mode, err := tracking.ParseAssignmentMode(*assignment)
	if err != nil {
		log.Fatalf("invalid -assignment: %v", err)
	}
	trackerCfg.Assignment = mode

	if *configPath != "" {
		cfg, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("load tuning config: %v", err)
		}
		cfg.ApplyKernel(&kernel)
		cfg.ApplyTracker(&trackerCfg)
		if cfg.FindMaxima != nil {
			*minima = !*cfg.FindMaxima
		}
	}

	data, err := field.LoadCSV(*input)
	if err != nil {
		log.Fatalf("load field: %v", err)
	}
	rows, cols := data.Dims()
	log.Printf("loaded %dx%d field from %s", rows, cols, *input)

	dims := [2]int{rows, cols}
	signalLen := dims[*signalAxis]
	controlLen := dims[1-*signalAxis]
	axes := [2]field.Axis{}
	axes[*signalAxis] = field.LinearAxis("signal", *signalStart,
		*signalStart+*signalStep*float64(signalLen-1), signalLen)
	axes[1-*signalAxis] = field.LinearAxis("control", *controlStart,
		*controlStart+*controlStep*float64(controlLen-1), controlLen)

	f, err := field.New(data, axes[0], axes[1])
	if err != nil {
		log.Fatalf("build field: %v", err)
	}

	indices, values, err := peaks.Detect(f, *signalAxis, !*minima, kernel)
	if err != nil {
		log.Fatalf("detect extrema: %v", err)
	}
	nDetections := 0
	if values != nil {
		_, nDetections = values.Dims()
	}
	log.Printf("detected %d extrema across %d slices", nDetections, controlLen)

	end := *rangeEnd
	if end < 0 || end >= controlLen {
		end = controlLen - 1
	}
	if *rangeStart < 0 || *rangeStart > end {
		log.Fatalf("invalid traversal range [%d, %d]", *rangeStart, end)
	}
	controlRange := make([]int, 0, end-*rangeStart+1)
	for k := *rangeStart; k <= end; k++ {
		controlRange = append(controlRange, k)
	}

	tracker := tracking.NewTracker(trackerCfg)
	tracks, err := tracker.Track(controlRange, indices, values)
	if err != nil {
		log.Fatalf("track extrema: %v", err)
	}
	log.Printf("linked %d extrema into %d tracks", nDetections, len(tracks))
	logTrackSummary(tracks)

	if *jsonOut != "" {
		if err := writeJSON(*jsonOut, tracks); err != nil {
			log.Fatalf("write JSON: %v", err)
		}
	}
	if *dbPath != "" {
		store, err := trackdb.Open(*dbPath)
		if err != nil {
			log.Fatalf("open run database: %v", err)
		}
		defer store.Close()
		meta := trackdb.RunMeta{
			Source:           *input,
			SignalAxis:       *signalAxis,
			FindMaxima:       !*minima,
			FollowTrajectory: trackerCfg.FollowTrajectory,
			Assignment:       trackerCfg.Assignment.String(),
		}
		runID, err := store.SaveRun(meta, tracks)
		if err != nil {
			log.Fatalf("save run: %v", err)
		}
		log.Printf("saved run %s to %s", runID, *dbPath)
	}
	if *plotPath != "" {
		if err := plotting.SaveTrackPlot(tracks, "peak tracks", "control", "signal", *plotPath); err != nil {
			log.Fatalf("save plot: %v", err)
		}
		log.Printf("wrote plot to %s", *plotPath)
	}
	if *htmlPath != "" {
		out, err := os.Create(*htmlPath)
		if err != nil {
			log.Fatalf("create HTML output: %v", err)
		}
		defer out.Close()
		if err := plotting.RenderTracksHTML(tracks, "peak tracks", "control", "signal", out); err != nil {
			log.Fatalf("render HTML: %v", err)
		}
		log.Printf("wrote chart to %s", *htmlPath)
	}
}

// logTrackSummary prints one line per track in id order.
func logTrackSummary(tracks map[int][]tracking.Observation) {
	ids := make([]int, 0, len(tracks))
	for id := range tracks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		obs := tracks[id]
		log.Printf("  track %d: %d observations, signal %.4g -> %.4g",
			id, len(obs), obs[0].Signal, obs[len(obs)-1].Signal)
	}
}

// writeJSON marshals the tracks keyed by id to path, or stdout for "-".
func writeJSON(path string, tracks map[int][]tracking.Observation) error {
	data, err := json.MarshalIndent(tracks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tracks: %w", err)
	}
	data = append(data, '\n')
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
