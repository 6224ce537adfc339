// FilePath: internal/storage/retriever.go
package storage

import (
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/skyfield/archivehub/internal/models"
)

// Item is a located piece of stored data together with the time range it
// covers.
type Item struct {
	Path  string
	Range models.TimeRange
}

// Retriever collects stored data for a resource over a time range.
type Retriever struct {
	paths    *Paths
	resolver *Resolver
}

// NewRetriever creates a retriever over the given path deriver and resolver.
func NewRetriever(paths *Paths, resolver *Resolver) *Retriever {
	return &Retriever{paths: paths, resolver: resolver}
}

// FetchImages collects every stored image inside the range and thins the
// list to at most count entries. The target count is scaled by coverage:
// when only part of the range has data, the caller gets proportionally
// fewer images rather than a tight cluster from the covered stretch.
func (rt *Retriever) FetchImages(resource *models.Resource, rng models.TimeRange, count int) []Item {
	loc := resource.Location()
	hour := hourFloor(rng.Start, loc)

	var candidates []Item
	var coveredMillis int64
	for !hour.After(rng.Stop) {
		found := rt.imagesInHour(resource, hour, rng)
		if len(found) > 0 {
			candidates = append(candidates, found...)
			coveredMillis += overlapMillis(hour, rng)
		}
		hour = hour.Add(time.Hour)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Range.Start.Before(candidates[j].Range.Start)
	})

	if count <= 0 || len(candidates) == 0 {
		return candidates
	}
	target := int(math.Round(float64(count) * float64(coveredMillis) / float64(rng.Millis())))
	if target < 1 {
		target = 1
	}
	return sample(candidates, target)
}

// FetchMovies returns one movie per hour of the range, resolved through the
// placeholder fallback chain, thinned to at most count entries. Hours for
// which not even a placeholder exists are dropped.
func (rt *Retriever) FetchMovies(resource *models.Resource, rng models.TimeRange, count int, format models.FileFormat) []Item {
	loc := resource.Location()
	hour := hourFloor(rng.Start, loc)

	var items []Item
	for !hour.After(rng.Stop) {
		if path, ok := rt.resolver.ResolveMovie(resource, hour, format); ok {
			items = append(items, Item{Path: path, Range: hourRange(hour)})
		}
		hour = hour.Add(time.Hour)
	}
	if count > 0 && count < len(items) {
		items = sample(items, count)
	}
	return items
}

// FetchWeatherLogs returns the per-day log file for each day of the range
// that has one.
func (rt *Retriever) FetchWeatherLogs(resource *models.Resource, rng models.TimeRange) []Item {
	loc := resource.Location()
	day := midnight(rng.Start.In(loc))
	stop := rng.Stop.In(loc)

	var items []Item
	for !day.After(stop) {
		path := rt.paths.StorageFile(resource, day, "", true, false)
		if fileExists(path) {
			items = append(items, Item{Path: path, Range: dayRange(day)})
		}
		day = day.AddDate(0, 0, 1)
	}
	return items
}

// DayLongDay describes one day of a day-long movie series.
type DayLongDay struct {
	Day     time.Time
	IsToday bool
}

// DaysOf enumerates the local midnights covered by the range, skipping days
// that lie entirely in the future.
func (rt *Retriever) DaysOf(resource *models.Resource, rng models.TimeRange, now time.Time) []DayLongDay {
	loc := resource.Location()
	day := midnight(rng.Start.In(loc))
	stop := rng.Stop.In(loc)
	today := midnight(now.In(loc))

	var days []DayLongDay
	for !day.After(stop) {
		if day.After(today) {
			break
		}
		days = append(days, DayLongDay{Day: day, IsToday: day.Equal(today)})
		day = day.AddDate(0, 0, 1)
	}
	return days
}

func (rt *Retriever) imagesInHour(resource *models.Resource, hour time.Time, rng models.TimeRange) []Item {
	dir := rt.paths.DataDir(resource, hour, false)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	prefix := rt.paths.HourPrefix(resource, hour)

	var items []Item
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		t, ok := rt.paths.ParseNameTime(resource, entry.Name())
		if !ok || !rng.Contains(t) {
			continue
		}
		items = append(items, Item{
			Path:  filepath.Join(dir, entry.Name()),
			Range: models.TimeRange{Start: t, Stop: t},
		})
	}
	return items
}

// sample thins items to target entries with an even stride, always keeping
// the first entry. target is assumed positive.
func sample(items []Item, target int) []Item {
	if target >= len(items) {
		return items
	}
	stride := float64(len(items)) / float64(target)
	out := make([]Item, 0, target)
	for f := 0.0; len(out) < target; f += stride {
		idx := int(math.Round(f))
		if idx >= len(items) {
			break
		}
		out = append(out, items[idx])
	}
	return out
}

func overlapMillis(hour time.Time, rng models.TimeRange) int64 {
	start := hour
	if rng.Start.After(start) {
		start = rng.Start
	}
	stop := hour.Add(time.Hour - time.Millisecond)
	if rng.Stop.Before(stop) {
		stop = rng.Stop
	}
	if stop.Before(start) {
		return 0
	}
	return stop.Sub(start).Milliseconds() + 1
}

func hourRange(hour time.Time) models.TimeRange {
	return models.TimeRange{Start: hour, Stop: hour.Add(time.Hour - time.Millisecond)}
}

func dayRange(day time.Time) models.TimeRange {
	return models.TimeRange{Start: day, Stop: day.AddDate(0, 0, 1).Add(-time.Millisecond)}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// hourFloor returns the start of t's wall-clock hour in loc. Truncate
// works on absolute time and misses hour boundaries in zones with
// fractional UTC offsets.
func hourFloor(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), lt.Hour(), 0, 0, 0, loc)
}
