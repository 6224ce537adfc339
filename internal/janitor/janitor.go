// FilePath: internal/janitor/janitor.go
package janitor

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/skyfield/archivehub/internal/config"
)

// Markers of transient files the storage pipeline leaves behind when a
// process dies mid-operation: retrieval copies, ffmpeg trim scratch files,
// and abandoned day-long build outputs.
var tempMarkers = []string{"_Storage_Copy", "_Trim_Temp", "_build_"}

// Janitor periodically sweeps the storage tree for transient files that
// outlived their operation.
type Janitor struct {
	root     string
	interval time.Duration
	maxAge   time.Duration
	now      func() time.Time
}

// New creates a janitor for the given storage root.
func New(root string, cfg config.JanitorConfig) *Janitor {
	return &Janitor{
		root:     root,
		interval: cfg.Interval,
		maxAge:   cfg.MaxAge,
		now:      time.Now,
	}
}

// Run sweeps on the configured interval until the context is canceled. It
// blocks, so callers run it in its own goroutine.
func (j *Janitor) Run(ctx context.Context) {
	nuts.L.Infof("[Janitor] sweeping %s every %s for leftovers older than %s", j.root, j.interval, j.maxAge)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			nuts.L.Infof("[Janitor] stopped")
			return
		case <-ticker.C:
			if removed, err := j.Sweep(); err != nil {
				nuts.L.Errorf("[Janitor] sweep failed: %v", err)
			} else if removed > 0 {
				nuts.L.Infof("[Janitor] removed %d leftover file(s)", removed)
			}
		}
	}
}

// Sweep walks the storage tree once and deletes aged transient files,
// returning how many were removed. Files younger than maxAge are left
// alone; their operation may still be running.
func (j *Janitor) Sweep() (int, error) {
	cutoff := j.now().Add(-j.maxAge)
	removed := 0
	err := filepath.WalkDir(j.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// A directory vanishing mid-walk is routine here.
			return nil
		}
		if d.IsDir() || !isTempName(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			nuts.L.Warnf("[Janitor] could not remove %s: %v", path, err)
			return nil
		}
		removed++
		return nil
	})
	return removed, err
}

func isTempName(name string) bool {
	for _, marker := range tempMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}
