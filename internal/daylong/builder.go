// FilePath: internal/daylong/builder.go
package daylong

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/skyfield/archivehub/internal/config"
	"github.com/skyfield/archivehub/internal/errors"
	"github.com/skyfield/archivehub/internal/models"
	"github.com/skyfield/archivehub/internal/notify"
	"github.com/skyfield/archivehub/internal/storage"
	"github.com/skyfield/archivehub/internal/video"
)

const (
	// A movie below this size is garbage left by an interrupted encode.
	minMovieBytes = 50

	// Length tolerance for an already-assembled day file and for a
	// single hour segment. Encoders drift a little per segment; a file
	// more than two seconds off its expected length is rejected and the
	// segment substituted or the day rebuilt.
	lengthTolerance = 2 * time.Second

	buildMarker = "_build_"
)

// Builder maintains the rolling day-long movie of a resource. After every
// stored hour movie the current day's file is extended; past days can be
// rebuilt wholesale. Builds for the same (resource, day) are mutually
// exclusive across the whole deployment via the Locker.
type Builder struct {
	engine   *storage.Engine
	tools    video.Toolset
	locker   Locker
	notifier notify.Notifier
	vcfg     config.VideoConfig
	hourLen  time.Duration
}

// NewBuilder wires a day-long builder. hourSeconds is the expected length
// of one hour-long movie segment.
func NewBuilder(engine *storage.Engine, tools video.Toolset, locker Locker, notifier notify.Notifier, vcfg config.VideoConfig, hourSeconds int) *Builder {
	return &Builder{
		engine:   engine,
		tools:    tools,
		locker:   locker,
		notifier: notifier,
		vcfg:     vcfg,
		hourLen:  time.Duration(hourSeconds) * time.Second,
	}
}

// ExtendForHour brings the day-long movie of the day containing hourStart
// up to date through that hour. When another builder holds the day's slot
// the call is a no-op; the holder will pick up the new segment on its next
// run anyway.
func (b *Builder) ExtendForHour(ctx context.Context, resource *models.Resource, hourStart time.Time) error {
	local := hourStart.In(resource.Location())
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())

	release, ok, err := b.locker.Acquire(ctx, resource.ID, day)
	if err != nil {
		return errors.NewInternalError("could not acquire day-long build lock", err)
	}
	if !ok {
		nuts.L.Debugf("[DayLong] build for resource %d on %s already in progress, skipping", resource.ID, day.Format("2006-01-02"))
		return nil
	}
	defer release()

	return b.build(ctx, resource, day, local.Hour())
}

// RebuildDay reassembles a past day from its stored hour movies. Days with
// fewer stored segments than the configured minimum are left alone; a
// rebuild from mostly placeholders would replace a stale file with a worse
// one.
func (b *Builder) RebuildDay(ctx context.Context, resource *models.Resource, day time.Time) error {
	if !b.engine.HasEnoughHourMovies(resource, day) {
		nuts.L.Infof("[DayLong] not enough hour movies to rebuild %s for resource %d", day.Format("2006-01-02"), resource.ID)
		return nil
	}
	release, ok, err := b.locker.Acquire(ctx, resource.ID, day)
	if err != nil {
		return errors.NewInternalError("could not acquire day-long build lock", err)
	}
	if !ok {
		return nil
	}
	defer release()

	return b.build(ctx, resource, day, 23)
}

// build assembles hours 0..throughHour into the day's movie, then refreshes
// the low-quality copy. The first hour of a day is a plain copy; any later
// hour first tries a single append onto an existing file that covers
// exactly the preceding hours, and on ANY append failure falls back to a
// full rebuild from a fresh temp. Only when the last applicable strategy
// fails does the operator get a notification, aggregating every cause from
// the whole invocation.
func (b *Builder) build(ctx context.Context, resource *models.Resource, day time.Time, throughHour int) error {
	report := notify.NewCollector(b.notifier, fmt.Sprintf("day-long assembly failed for %s on %s", resource.Name, day.Format("2006-01-02")))

	canonical, exists := b.engine.Resolver().DayLongFile(resource, day, false)
	if err := os.MkdirAll(filepath.Dir(canonical), 0o755); err != nil {
		return errors.NewFilesystemError("could not create day-long movie folder", err)
	}

	if throughHour == 0 {
		if err := b.attempt(resource, day, canonical, func(temp string) error {
			return b.copyFirstHour(resource, day, temp)
		}); err != nil {
			report.Add("first-hour copy: " + err.Error())
			report.Flush()
			return err
		}
		nuts.L.Infof("[DayLong] assembled %s through hour 0 for resource %d", day.Format("2006-01-02"), resource.ID)
		return nil
	}

	if exists && b.validMovie(canonical, time.Duration(throughHour)*b.hourLen, lengthTolerance) {
		err := b.attempt(resource, day, canonical, func(temp string) error {
			return b.appendHour(resource, day, throughHour, canonical, temp)
		})
		if err == nil {
			nuts.L.Infof("[DayLong] assembled %s through hour %d for resource %d", day.Format("2006-01-02"), throughHour, resource.ID)
			return nil
		}
		nuts.L.Warnf("[DayLong] append for resource %d on %s failed, rebuilding: %v", resource.ID, day.Format("2006-01-02"), err)
		report.Add("append: " + err.Error())
	}

	if err := b.attempt(resource, day, canonical, func(temp string) error {
		return b.rebuild(ctx, resource, day, throughHour, temp)
	}); err != nil {
		report.Add("rebuild: " + err.Error())
		report.Flush()
		return err
	}
	nuts.L.Infof("[DayLong] assembled %s through hour %d for resource %d", day.Format("2006-01-02"), throughHour, resource.ID)
	return nil
}

// attempt runs one assembly strategy into a fresh uniquely named temp and,
// on success, promotes the temp over the canonical file and refreshes the
// low-quality copy. The temp is removed on every exit, so each strategy
// starts from a clean slate.
func (b *Builder) attempt(resource *models.Resource, day time.Time, canonical string, strategy func(temp string) error) error {
	temp := b.tempPath(canonical)
	defer os.Remove(temp)
	if err := strategy(temp); err != nil {
		return err
	}
	if err := os.Rename(temp, canonical); err != nil {
		return errors.NewFilesystemError("could not promote assembled day-long movie", err)
	}
	return b.refreshLowQuality(resource, day, canonical)
}

func (b *Builder) copyFirstHour(resource *models.Resource, day time.Time, temp string) error {
	input := b.hourInput(resource, day, 0)
	if input == "" {
		return errors.NewNothingProducedError("no usable segment for the first hour", nil)
	}
	if err := b.tools.MakeMP4Copy(input, temp); err != nil {
		return errors.NewToolError("could not copy first hour segment", err)
	}
	return b.trimToExpected(temp, 1)
}

func (b *Builder) appendHour(resource *models.Resource, day time.Time, hour int, canonical, temp string) error {
	input := b.hourInput(resource, day, hour)
	if input == "" {
		return errors.NewNothingProducedError(fmt.Sprintf("no usable segment for hour %d", hour), nil)
	}
	if err := b.tools.Concatenate([]string{canonical, input}, temp, b.vcfg.DefaultWidth, b.vcfg.DefaultHeight); err != nil {
		return errors.NewToolError("could not append hour segment", err)
	}
	return b.trimToExpected(temp, hour+1)
}

func (b *Builder) rebuild(ctx context.Context, resource *models.Resource, day time.Time, throughHour int, temp string) error {
	inputs := make([]string, 0, throughHour+1)
	for hour := 0; hour <= throughHour; hour++ {
		if err := ctx.Err(); err != nil {
			return errors.NewInternalError("day-long rebuild canceled", err)
		}
		if input := b.hourInput(resource, day, hour); input != "" {
			inputs = append(inputs, input)
		}
	}
	if len(inputs) == 0 {
		return errors.NewNothingProducedError("no usable segments for the whole day", nil)
	}
	if err := b.tools.Concatenate(inputs, temp, b.vcfg.DefaultWidth, b.vcfg.DefaultHeight); err != nil {
		return errors.NewToolError("could not concatenate day segments", err)
	}
	return b.trimToExpected(temp, len(inputs))
}

// hourInput picks the segment for one hour: the stored hour movie when it
// passes the length and size checks, the resource's default placeholder
// otherwise. An empty result means not even a placeholder exists.
// Substitutions are routine and only logged.
func (b *Builder) hourInput(resource *models.Resource, day time.Time, hour int) string {
	hourTime := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
	stored := b.engine.Paths().StorageFile(resource, hourTime, models.FormatMP4, false, false)
	if b.validMovie(stored, b.hourLen, lengthTolerance) {
		return stored
	}
	fallback, ok := b.engine.Resolver().DefaultMovie(resource, hourTime, models.FormatMP4)
	if !ok {
		nuts.L.Warnf("[DayLong] resource %d hour %d: no segment and no placeholder", resource.ID, hour)
		return ""
	}
	nuts.L.Infof("[DayLong] resource %d hour %d: substituted placeholder", resource.ID, hour)
	return fallback
}

// validMovie checks a segment is present, non-trivial in size, and close
// enough to its expected length.
func (b *Builder) validMovie(path string, expected, tolerance time.Duration) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() <= minMovieBytes {
		return false
	}
	length, err := b.tools.Length(path)
	if err != nil {
		return false
	}
	diff := length - expected
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

// trimToExpected cuts encoder drift after concatenation so the file length
// stays a reliable hour counter for the next append.
func (b *Builder) trimToExpected(path string, hours int) error {
	seconds := int(time.Duration(hours) * b.hourLen / time.Second)
	if err := b.tools.Trim(path, seconds); err != nil {
		return errors.NewToolError("could not trim assembled movie", err)
	}
	return nil
}

func (b *Builder) refreshLowQuality(resource *models.Resource, day time.Time, canonical string) error {
	lowCanonical, _ := b.engine.Resolver().DayLongFile(resource, day, true)
	temp := b.tempPath(lowCanonical)
	defer os.Remove(temp)
	if err := b.tools.MakeLowQualityCopy(canonical, temp); err != nil {
		return errors.NewToolError("could not produce low-quality day-long copy", err)
	}
	if err := os.Rename(temp, lowCanonical); err != nil {
		return errors.NewFilesystemError("could not promote low-quality day-long movie", err)
	}
	return nil
}

// tempPath returns a uniquely named sibling of target. The marker lets the
// janitor recognize abandoned build outputs.
func (b *Builder) tempPath(target string) string {
	ext := filepath.Ext(target)
	return strings.TrimSuffix(target, ext) + buildMarker + nuts.NID("bld", 10) + ext
}
