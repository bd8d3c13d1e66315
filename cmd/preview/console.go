package main

import (
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"uniform-preview/internal/commands"
	"uniform-preview/internal/logger"
	"uniform-preview/internal/measure"
	"uniform-preview/internal/preview"
	"uniform-preview/internal/view"
)

// newConsole registers the stdin commands. retry asks the main loop to remount; quit stops the process.
func newConsole(v *preview.Viewer, log *logger.Logger, out io.Writer, retry, quit func()) *commands.Registry {
	r := commands.NewRegistry()

	viewFS := flag.NewFlagSet("view", flag.ContinueOnError)
	r.Register("view", "view <front|side|back>: turn the camera to a preset", viewFS, func() error {
		if viewFS.NArg() != 1 {
			return fmt.Errorf("usage: view <front|side|back>")
		}
		p, err := view.ParsePreset(viewFS.Arg(0))
		if err != nil {
			return err
		}
		return v.RequestView(p)
	})

	mock := measure.Mock()
	measureFS := flag.NewFlagSet("measure", flag.ContinueOnError)
	height := measureFS.Float64("height", float64(mock.Height), "height in cm")
	shoulder := measureFS.Float64("shoulder", float64(mock.ShoulderWidth), "shoulder width in cm")
	chest := measureFS.Float64("chest", float64(mock.ChestWidth), "chest width in cm")
	waist := measureFS.Float64("waist", float64(mock.WaistWidth), "waist width in cm")
	confidence := measureFS.Float64("confidence", float64(mock.Confidence), "landmark confidence 0..1")
	landmarks := measureFS.Int("landmarks", mock.LandmarksDetected, "landmarks detected")
	r.Register("measure", "measure -height -shoulder ...: apply a new measurement record", measureFS, func() error {
		rec := &measure.Record{
			Height:            float32(*height),
			ShoulderWidth:     float32(*shoulder),
			ChestWidth:        float32(*chest),
			WaistWidth:        float32(*waist),
			Confidence:        float32(*confidence),
			LandmarksDetected: *landmarks,
		}
		v.OnMeasurementsChanged(rec)
		sum := v.Summary()
		fmt.Fprintf(out, "height %d%%  width %d%%\n", sum.HeightPercent, sum.WidthPercent)
		return nil
	})

	r.Register("retry", "remount after an error", flag.NewFlagSet("retry", flag.ContinueOnError), func() error {
		if st := v.Status(); st.Phase != preview.Failed {
			return fmt.Errorf("nothing to retry, preview is %s", st)
		}
		retry()
		return nil
	})

	r.Register("status", "show lifecycle, view and scale", flag.NewFlagSet("status", flag.ContinueOnError), func() error {
		st := v.Status()
		vs := v.View()
		sum := v.Summary()
		fmt.Fprintf(out, "status:  %s\n", st)
		if st.Surface != "" {
			fmt.Fprintf(out, "surface: %s %s %dx%d\n", st.Backend, st.Surface, st.Width, st.Height)
		}
		if vs.Transitioning {
			fmt.Fprintf(out, "view:    %s -> %s\n", vs.Current, vs.Target)
		} else {
			fmt.Fprintf(out, "view:    %s\n", vs.Current)
		}
		fmt.Fprintf(out, "scale:   height %d%%  width %d%%\n", sum.HeightPercent, sum.WidthPercent)
		if rec := v.Latest(); rec != nil {
			fmt.Fprintf(out, "record:  %s\n", rec)
		}
		fmt.Fprintf(out, "frames:  %d\n", vs.Frames)
		return nil
	})

	snapFS := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	snapOut := snapFS.String("out", "", "output file (.webp, .png or .jpg)")
	r.Register("snapshot", "snapshot -out file: save the last frame", snapFS, func() error {
		path := *snapOut
		if path == "" {
			path = filepath.Join("snapshots", "snapshot-"+time.Now().Format("20060102-150405")+".webp")
		}
		if err := v.SaveSnapshot(path); err != nil {
			return err
		}
		fmt.Fprintf(out, "saved %s\n", path)
		return nil
	})

	logsFS := flag.NewFlagSet("logs", flag.ContinueOnError)
	logsN := logsFS.Int("n", 20, "number of lines")
	r.Register("logs", "logs -n N: show recent log lines", logsFS, func() error {
		for _, line := range log.Lines(*logsN) {
			fmt.Fprintln(out, line)
		}
		return nil
	})

	r.Register("quit", "close the preview", flag.NewFlagSet("quit", flag.ContinueOnError), func() error {
		quit()
		return commands.ErrQuit
	})
	return r
}
