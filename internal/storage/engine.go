// FilePath: internal/storage/engine.go
package storage

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/skyfield/archivehub/internal/config"
	"github.com/skyfield/archivehub/internal/daylight"
	"github.com/skyfield/archivehub/internal/errors"
	"github.com/skyfield/archivehub/internal/models"
	"github.com/skyfield/archivehub/internal/video"
)

// Suffix inserted before the extension of transient copies made while
// serving today's day-long movie. The janitor sweeps stragglers.
const storageCopySuffix = "_Storage_Copy"

// Engine ties path derivation, resolution, and retrieval together and
// implements the store and provide operations on top of them.
type Engine struct {
	paths     *Paths
	resolver  *Resolver
	retriever *Retriever
	tools     video.Toolset
	cfg       config.StorageConfig
	now       func() time.Time
}

// NewEngine wires an engine over the storage root described by cfg.
func NewEngine(cfg config.StorageConfig, advisor *daylight.Advisor, tools video.Toolset) *Engine {
	paths := NewPaths(cfg.Root)
	resolver := NewResolver(paths, advisor)
	return &Engine{
		paths:     paths,
		resolver:  resolver,
		retriever: NewRetriever(paths, resolver),
		tools:     tools,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Paths exposes the engine's path deriver.
func (e *Engine) Paths() *Paths { return e.paths }

// Resolver exposes the engine's movie resolver.
func (e *Engine) Resolver() *Resolver { return e.resolver }

// SetClock replaces the engine's time source. Tests only.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// EnsureGenericFolders creates the system-wide and per-resource placeholder
// directories so defaults can be stored before any real data arrives.
func (e *Engine) EnsureGenericFolders(resources []models.Resource) error {
	if err := os.MkdirAll(e.paths.RootGenericDir(), 0o755); err != nil {
		return errors.NewFilesystemError("could not create generic movies folder", err)
	}
	for i := range resources {
		if resources[i].IsWeatherStation() {
			continue
		}
		if err := os.MkdirAll(e.paths.ResourceGenericDir(&resources[i]), 0o755); err != nil {
			return errors.NewFilesystemError("could not create generic movies folder for "+resources[i].StorageFolder, err)
		}
	}
	return nil
}

// StoreUnit persists a single image, hour-long movie, or weather-station
// log at its canonical location.
func (e *Engine) StoreUnit(resource *models.Resource, unit *models.DataUnit) error {
	if err := unit.Validate(); err != nil {
		return err
	}
	if len(unit.Data) == 0 {
		return errors.NewMissingPayloadError("store command carried no payload", nil)
	}

	var path string
	switch unit.Kind {
	case models.UnitMovie:
		// Hour movies are always filed under the hour they start in.
		hour := hourFloor(unit.Start, resource.Location())
		path = e.paths.StorageFile(resource, hour, unit.Format, false, unit.IsLowQuality())
	case models.UnitImage:
		path = e.paths.StorageFile(resource, unit.Start, "", false, false)
	case models.UnitWeatherLog:
		if !resource.IsWeatherStation() {
			return errors.NewWrongUnitKindError("resource "+resource.Name+" does not accept weather logs", nil)
		}
		path = e.paths.StorageFile(resource, unit.Start, "", true, false)
	}

	if err := unit.WriteTo(path); err != nil {
		return err
	}
	nuts.L.Debugf("[Storage] stored %s for resource %d at %s", unit.Kind, resource.ID, path)
	return nil
}

// StoreDayLong persists an externally assembled day-long movie pair. The
// low-quality unit is optional.
func (e *Engine) StoreDayLong(resource *models.Resource, standard, low *models.DataUnit) error {
	if err := standard.Validate(); err != nil {
		return err
	}
	if len(standard.Data) == 0 {
		return errors.NewMissingPayloadError("day-long store carried no payload", nil)
	}
	path := e.paths.StorageFile(resource, standard.Start, models.FormatMP4, true, false)
	if err := standard.WriteTo(path); err != nil {
		return err
	}
	if low != nil && len(low.Data) > 0 {
		lowPath := e.paths.StorageFile(resource, low.Start, models.FormatMP4, true, true)
		if err := low.WriteTo(lowPath); err != nil {
			return err
		}
	}
	nuts.L.Infof("[Storage] stored day-long movie for resource %d (%s)", resource.ID, path)
	return nil
}

// StoreDefaultMovie replaces a resource's daytime or nighttime placeholder.
// The previous placeholder, when present, is kept as a dated copy under
// Backup/ before being overwritten.
func (e *Engine) StoreDefaultMovie(resource *models.Resource, unit *models.DataUnit, daytime bool) error {
	if err := unit.Validate(); err != nil {
		return err
	}
	if len(unit.Data) == 0 {
		return errors.NewMissingPayloadError("default movie store carried no payload", nil)
	}
	path := e.paths.DefaultMoviePath(resource, daytime, unit.Format)
	if err := e.backupExisting(path); err != nil {
		return err
	}
	return unit.WriteTo(path)
}

// StoreNoData replaces the system-wide NoData placeholder for the given
// container format, backing up the previous one.
func (e *Engine) StoreNoData(unit *models.DataUnit, format models.FileFormat) error {
	if unit == nil || len(unit.Data) == 0 {
		return errors.NewMissingPayloadError("no-data store carried no payload", nil)
	}
	path := e.paths.NoDataPath(format)
	if err := e.backupExisting(path); err != nil {
		return err
	}
	return unit.WriteTo(path)
}

func (e *Engine) backupExisting(path string) error {
	if !fileExists(path) {
		return nil
	}
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)
	backup := e.paths.BackupPath(dir, base, ext, e.now())
	if err := os.MkdirAll(filepath.Dir(backup), 0o755); err != nil {
		return errors.NewFilesystemError("could not create backup folder", err)
	}
	if err := copyFile(path, backup); err != nil {
		return errors.NewFilesystemError("could not back up "+path, err)
	}
	return nil
}

// Provide retrieves images, hour-long movies, or weather-station logs for
// the request's range and returns them as a batch with loaded payloads.
func (e *Engine) Provide(resource *models.Resource, req *models.InstanceRequest) (*models.InstanceBatch, error) {
	var items []Item
	switch {
	case resource.IsWeatherStation():
		items = e.retriever.FetchWeatherLogs(resource, req.Range)
	case req.WantMovie:
		format := req.Format
		if !format.IsMovie() {
			format = models.FormatMP4
		}
		items = e.retriever.FetchMovies(resource, req.Range, req.Count, format)
	default:
		items = e.retriever.FetchImages(resource, req.Range, req.Count)
	}

	units := make([]*models.DataUnit, 0, len(items))
	for _, item := range items {
		unit := e.unitFor(resource, req, item)
		if err := unit.ReadFrom(item.Path); err != nil {
			nuts.L.Warnf("[Storage] skipping unreadable file %s: %v", item.Path, err)
			continue
		}
		units = append(units, unit)
	}
	return models.NewInstanceBatch(units, req.Range), nil
}

func (e *Engine) unitFor(resource *models.Resource, req *models.InstanceRequest, item Item) *models.DataUnit {
	switch {
	case resource.IsWeatherStation():
		return models.NewWeatherLogUnit(resource.ID, resource.Format, item.Range.Start, item.Range.Stop)
	case req.WantMovie:
		format := req.Format
		if !format.IsMovie() {
			format = models.FormatMP4
		}
		return models.NewMovieUnit(resource.ID, format, models.QualityStandard, item.Range.Start, item.Range.Stop)
	default:
		return models.NewImageUnit(resource.ID, resource.Format, item.Range.Start)
	}
}

// ProvideDayLong retrieves day-long movies in both qualities, one unit per
// day of the range. Days without an assembled movie fall back to generic
// placeholders; days where not even a placeholder exists yield nil units so
// the caller can keep positions aligned. Today's assembled movie is served
// as a trimmed transient copy so it never claims coverage beyond the
// current time minus the retrieval grace.
func (e *Engine) ProvideDayLong(resource *models.Resource, rng models.TimeRange) (*models.DayLongBatches, error) {
	days := e.retriever.DaysOf(resource, rng, e.now())

	standard := make([]*models.DataUnit, 0, len(days))
	low := make([]*models.DataUnit, 0, len(days))
	for _, d := range days {
		standard = append(standard, e.dayLongUnit(resource, d, models.QualityStandard))
		low = append(low, e.dayLongUnit(resource, d, models.QualityLow))
	}
	return &models.DayLongBatches{
		Standard: models.NewInstanceBatch(standard, rng),
		Low:      models.NewInstanceBatch(low, rng),
	}, nil
}

func (e *Engine) dayLongUnit(resource *models.Resource, d DayLongDay, quality models.MovieQuality) *models.DataUnit {
	lowQuality := quality == models.QualityLow
	path, ok := e.resolver.ResolveDayLong(resource, d.Day, lowQuality)
	if !ok {
		return nil
	}
	// Whatever resolved for today — assembled movie or generic
	// placeholder — must not claim footage past the current time.
	transient := false
	if d.IsToday {
		if trimmed, err := e.trimmedTodayCopy(resource, path, d.Day); err == nil {
			transient = trimmed != path
			path = trimmed
		} else {
			nuts.L.Warnf("[Storage] serving untrimmed day-long movie for resource %d: %v", resource.ID, err)
		}
	}
	r := dayRange(d.Day)
	unit := models.NewMovieUnit(resource.ID, models.FormatMP4, quality, r.Start, r.Stop)
	err := unit.ReadFrom(path)
	if transient {
		os.Remove(path)
	}
	if err != nil {
		nuts.L.Warnf("[Storage] skipping unreadable day-long movie %s: %v", path, err)
		return nil
	}
	return unit
}

// trimmedTodayCopy copies today's day-long movie aside and trims the copy
// to the fraction of the day that has already elapsed, less the grace.
func (e *Engine) trimmedTodayCopy(resource *models.Resource, path string, day time.Time) (string, error) {
	length, err := e.tools.Length(path)
	if err != nil {
		return "", err
	}
	elapsed := e.now().In(resource.Location()).Sub(day) - e.cfg.RetrievalGrace
	if elapsed <= 0 {
		return "", errors.NewInternalError("day has not elapsed past the retrieval grace", nil)
	}
	fraction := float64(elapsed) / float64(24*time.Hour)
	if fraction >= 1 {
		return path, nil
	}
	target := int(fraction * length.Seconds())
	if target < 1 {
		target = 1
	}

	ext := filepath.Ext(path)
	copyPath := strings.TrimSuffix(path, ext) + storageCopySuffix + ext
	if err := copyFile(path, copyPath); err != nil {
		return "", errors.NewFilesystemError("could not copy day-long movie for trimming", err)
	}
	if err := e.tools.Trim(copyPath, target); err != nil {
		os.Remove(copyPath)
		return "", err
	}
	return copyPath, nil
}

// FolderList returns the sorted names of the top-level storage folders.
func (e *Engine) FolderList() (*models.FolderList, error) {
	entries, err := os.ReadDir(e.paths.Root())
	if err != nil {
		return nil, errors.NewFilesystemError("could not list storage root", err)
	}
	folders := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			folders = append(folders, entry.Name())
		}
	}
	sort.Strings(folders)
	return &models.FolderList{Folders: folders}, nil
}

// HasEnoughHourMovies reports whether the day already holds at least the
// configured number of stored hour movies. Day-long rebuilds are pointless
// below that threshold.
func (e *Engine) HasEnoughHourMovies(resource *models.Resource, day time.Time) bool {
	dir := e.paths.DataDir(resource, day, true)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".avi" && ext != ".mp4" {
			continue
		}
		// Only hour movies carry an exact timestamp; day-long movies and
		// transient copies do not parse.
		if _, ok := e.paths.ParseNameTime(resource, entry.Name()); ok &&
			!strings.Contains(entry.Name(), lowQualitySuffix) &&
			!strings.Contains(entry.Name(), storageCopySuffix) {
			count++
		}
	}
	return count >= e.cfg.MinOldVideoCount
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
