package measure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Load reads a measurement file. The file holds either a bare Record or a full
// service response body; the latter is detected by its "measurements" key.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("measure: read %s: %w", path, err)
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("measure: parse %s: %w", path, err)
	}
	if _, ok := probe["measurements"]; ok {
		resp, err := DecodeResponse(http.StatusOK, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return resp.Measurements, nil
	}
	return DecodeRecord(bytes.NewReader(data))
}

// Watch loads path once, then reloads it whenever it is written or replaced, calling fn with
// every record that decodes. Files that fail to decode are logged and skipped, so the last good
// record stays in force. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, log *zap.Logger, fn func(*Record)) error {
	if log == nil {
		log = zap.NewNop()
	}
	path = filepath.Clean(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("measure: watch: %w", err)
	}
	defer w.Close()
	// The directory is watched rather than the file so editors that replace the file
	// by rename are still seen.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("measure: watch %s: %w", path, err)
	}

	reload := func() {
		rec, err := Load(path)
		if err != nil {
			log.Warn("measurement file ignored", zap.String("path", path), zap.Error(err))
			return
		}
		log.Info("measurements loaded", zap.String("path", path), zap.Stringer("record", rec))
		fn(rec)
	}
	if _, err := os.Stat(path); err == nil {
		reload()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				reload()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("measurement watcher error", zap.Error(err))
		}
	}
}
