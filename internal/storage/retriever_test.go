// FilePath: internal/storage/retriever_test.go
package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/skyfield/archivehub/internal/daylight"
	"github.com/skyfield/archivehub/internal/models"
)

func newTestRetriever(t *testing.T) (*Retriever, *Paths) {
	t.Helper()
	paths := NewPaths(t.TempDir())
	advisor := daylight.NewAdvisor(daylight.FixedCalculator{SunriseHour: 6, SunsetHour: 20})
	resolver := NewResolver(paths, advisor)
	return NewRetriever(paths, resolver), paths
}

func writeFileAt(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeImage(t *testing.T, paths *Paths, resource *models.Resource, at time.Time) string {
	t.Helper()
	path := paths.StorageFile(resource, at, "", false, false)
	writeFileAt(t, path)
	return path
}

func TestFetchImagesReturnsAllWhenCountCoversThem(t *testing.T) {
	rt, paths := newTestRetriever(t)
	camera := testCamera()

	base := time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		writeImage(t, paths, camera, base.Add(time.Duration(i)*10*time.Minute))
	}

	rng := models.TimeRange{Start: base, Stop: base.Add(time.Hour - time.Millisecond)}
	items := rt.FetchImages(camera, rng, 10)
	if len(items) != 4 {
		t.Fatalf("FetchImages() returned %d items, want 4", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].Range.Start.Before(items[i-1].Range.Start) {
			t.Errorf("items not sorted by time: %v before %v", items[i].Range.Start, items[i-1].Range.Start)
		}
	}
}

func TestFetchImagesIgnoresFilesOutsideRange(t *testing.T) {
	rt, paths := newTestRetriever(t)
	camera := testCamera()

	base := time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC)
	writeImage(t, paths, camera, base.Add(5*time.Minute))
	writeImage(t, paths, camera, base.Add(50*time.Minute)) // outside

	rng := models.TimeRange{Start: base, Stop: base.Add(30 * time.Minute)}
	items := rt.FetchImages(camera, rng, 10)
	if len(items) != 1 {
		t.Fatalf("FetchImages() returned %d items, want 1", len(items))
	}
}

func TestFetchImagesScalesCountByCoverage(t *testing.T) {
	rt, paths := newTestRetriever(t)
	camera := testCamera()

	// Two-hour range, data only in the first hour. Asking for 4 images
	// must yield 2: half the range is covered.
	base := time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		writeImage(t, paths, camera, base.Add(time.Duration(i)*10*time.Minute))
	}

	rng := models.TimeRange{Start: base, Stop: base.Add(2*time.Hour - time.Millisecond)}
	items := rt.FetchImages(camera, rng, 4)
	if len(items) != 2 {
		t.Fatalf("FetchImages() returned %d items, want 2", len(items))
	}
}

func TestFetchImagesSamplesEvenly(t *testing.T) {
	rt, paths := newTestRetriever(t)
	camera := testCamera()

	base := time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		writeImage(t, paths, camera, base.Add(time.Duration(i)*6*time.Minute))
	}

	rng := models.TimeRange{Start: base, Stop: base.Add(time.Hour - time.Millisecond)}
	items := rt.FetchImages(camera, rng, 5)
	if len(items) != 5 {
		t.Fatalf("FetchImages() returned %d items, want 5", len(items))
	}
	// Even stride over 10 candidates keeps every second one, starting at
	// the first.
	if !items[0].Range.Start.Equal(base) {
		t.Errorf("first sampled item at %v, want %v", items[0].Range.Start, base)
	}
	if want := base.Add(12 * time.Minute); !items[1].Range.Start.Equal(want) {
		t.Errorf("second sampled item at %v, want %v", items[1].Range.Start, want)
	}
}

func TestFetchMoviesFallsBackToPlaceholders(t *testing.T) {
	rt, paths := newTestRetriever(t)
	camera := testCamera()

	day := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	stored := paths.StorageFile(camera, day.Add(10*time.Hour), models.FormatMP4, false, false)
	writeFileAt(t, stored)
	noData := paths.NoDataPath(models.FormatMP4)
	writeFileAt(t, noData)

	rng := models.TimeRange{Start: day.Add(10 * time.Hour), Stop: day.Add(12*time.Hour - time.Millisecond)}
	items := rt.FetchMovies(camera, rng, 0, models.FormatMP4)
	if len(items) != 2 {
		t.Fatalf("FetchMovies() returned %d items, want 2", len(items))
	}
	if items[0].Path != stored {
		t.Errorf("hour 10 path = %q, want stored movie %q", items[0].Path, stored)
	}
	if items[1].Path != noData {
		t.Errorf("hour 11 path = %q, want placeholder %q", items[1].Path, noData)
	}
}

func TestFetchWeatherLogs(t *testing.T) {
	rt, paths := newTestRetriever(t)
	station := testStation()

	day1 := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	day3 := day1.AddDate(0, 0, 2)
	writeFileAt(t, paths.StorageFile(station, day1, "", true, false))
	writeFileAt(t, paths.StorageFile(station, day3, "", true, false))

	rng := models.TimeRange{Start: day1, Stop: day3.Add(23 * time.Hour)}
	items := rt.FetchWeatherLogs(station, rng)
	if len(items) != 2 {
		t.Fatalf("FetchWeatherLogs() returned %d items, want 2", len(items))
	}
	if !items[0].Range.Start.Equal(day1) {
		t.Errorf("first log covers %v, want %v", items[0].Range.Start, day1)
	}
}

func TestDaysOfSkipsFutureDays(t *testing.T) {
	rt, _ := newTestRetriever(t)
	camera := testCamera()

	now := time.Date(2026, time.March, 5, 15, 0, 0, 0, time.UTC)
	rng := models.TimeRange{
		Start: time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC),
		Stop:  time.Date(2026, time.March, 7, 23, 59, 59, 0, time.UTC),
	}
	days := rt.DaysOf(camera, rng, now)
	if len(days) != 3 {
		t.Fatalf("DaysOf() returned %d days, want 3", len(days))
	}
	if days[0].IsToday || days[1].IsToday {
		t.Error("past days marked as today")
	}
	if !days[2].IsToday {
		t.Error("current day not marked as today")
	}
}
