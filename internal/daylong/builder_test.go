// FilePath: internal/daylong/builder_test.go
package daylong

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/skyfield/archivehub/internal/config"
	"github.com/skyfield/archivehub/internal/daylight"
	"github.com/skyfield/archivehub/internal/models"
	"github.com/skyfield/archivehub/internal/storage"
)

const hourSeconds = 20

// fakeTools answers length probes per path and fakes the encoder calls by
// writing plausible output files. Setting concatFailLen makes Concatenate
// fail for input lists of exactly that size.
type fakeTools struct {
	lengths       map[string]time.Duration
	concatted     [][]string
	trimmed       map[string]int
	mp4Copies     int
	lowCopies     int
	concatFailLen int
}

func newFakeTools() *fakeTools {
	return &fakeTools{
		lengths: make(map[string]time.Duration),
		trimmed: make(map[string]int),
	}
}

func (f *fakeTools) Trim(path string, seconds int) error {
	f.trimmed[path] = seconds
	return nil
}

func (f *fakeTools) Concatenate(inputs []string, output string, width, height int) error {
	f.concatted = append(f.concatted, append([]string(nil), inputs...))
	if f.concatFailLen > 0 && len(inputs) == f.concatFailLen {
		return errors.New("encoder crashed")
	}
	return os.WriteFile(output, []byte(strings.Repeat("v", 100)), 0o644)
}

func (f *fakeTools) MakeLowQualityCopy(input, output string) error {
	f.lowCopies++
	return os.WriteFile(output, []byte(strings.Repeat("l", 100)), 0o644)
}

func (f *fakeTools) Length(path string) (time.Duration, error) {
	return f.lengths[path], nil
}

func (f *fakeTools) MakeMP4Copy(input, output string) error {
	f.mp4Copies++
	return os.WriteFile(output, []byte(strings.Repeat("c", 100)), 0o644)
}

// captureNotifier records flushed notifications.
type captureNotifier struct {
	subjects []string
	bodies   []string
}

func (c *captureNotifier) Notify(subject, body string) {
	c.subjects = append(c.subjects, subject)
	c.bodies = append(c.bodies, body)
}

func testCamera() *models.Resource {
	return &models.Resource{
		ID:            3,
		Name:          "North Meadow Cam",
		StorageFolder: "NorthMeadow",
		TimeZone:      "UTC",
		Kind:          models.KindCamera,
		Format:        models.FormatJPEG,
		Span:          models.SpanFullTime,
	}
}

func newTestBuilder(t *testing.T) (*Builder, *storage.Engine, *fakeTools, *captureNotifier) {
	t.Helper()
	tools := newFakeTools()
	cfg := config.StorageConfig{
		Root:             t.TempDir(),
		HourMovieLength:  hourSeconds,
		MinOldVideoCount: 3,
		RetrievalGrace:   10 * time.Minute,
	}
	advisor := daylight.NewAdvisor(daylight.FixedCalculator{SunriseHour: 6, SunsetHour: 20})
	engine := storage.NewEngine(cfg, advisor, tools)
	sink := &captureNotifier{}
	vcfg := config.VideoConfig{DefaultWidth: 640, DefaultHeight: 480}
	return NewBuilder(engine, tools, NewLocalLocker(), sink, vcfg, hourSeconds), engine, tools, sink
}

func writeMovie(t *testing.T, tools *fakeTools, path string, length time.Duration) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(strings.Repeat("m", 120)), 0o644); err != nil {
		t.Fatal(err)
	}
	tools.lengths[path] = length
}

func day() time.Time {
	return time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
}

func TestExtendForHourFirstHourCopies(t *testing.T) {
	builder, engine, tools, _ := newTestBuilder(t)
	camera := testCamera()

	hour0 := engine.Paths().StorageFile(camera, day(), models.FormatMP4, false, false)
	writeMovie(t, tools, hour0, hourSeconds*time.Second)

	if err := builder.ExtendForHour(context.Background(), camera, day()); err != nil {
		t.Fatalf("ExtendForHour() error: %v", err)
	}
	if tools.mp4Copies != 1 {
		t.Errorf("MakeMP4Copy called %d times, want 1", tools.mp4Copies)
	}
	if len(tools.concatted) != 0 {
		t.Errorf("Concatenate called for the first hour of the day")
	}
	canonical, ok := engine.Resolver().DayLongFile(camera, day(), false)
	if !ok {
		t.Fatalf("day-long movie missing at %s", canonical)
	}
	if _, ok := engine.Resolver().DayLongFile(camera, day(), true); !ok {
		t.Error("low-quality day-long copy missing")
	}
}

func TestExtendForHourAppendsToValidFile(t *testing.T) {
	builder, engine, tools, _ := newTestBuilder(t)
	camera := testCamera()

	// Existing day file covering hours 0..4, measuring within tolerance.
	canonical, _ := engine.Resolver().DayLongFile(camera, day(), false)
	writeMovie(t, tools, canonical, 5*hourSeconds*time.Second+time.Second)

	hour5Start := day().Add(5 * time.Hour)
	hour5 := engine.Paths().StorageFile(camera, hour5Start, models.FormatMP4, false, false)
	writeMovie(t, tools, hour5, hourSeconds*time.Second)

	if err := builder.ExtendForHour(context.Background(), camera, hour5Start); err != nil {
		t.Fatalf("ExtendForHour() error: %v", err)
	}
	if len(tools.concatted) != 1 {
		t.Fatalf("Concatenate called %d times, want 1", len(tools.concatted))
	}
	inputs := tools.concatted[0]
	if len(inputs) != 2 || inputs[0] != canonical || inputs[1] != hour5 {
		t.Errorf("append inputs = %v, want [existing file, hour 5]", inputs)
	}
	var trimSeconds []int
	for _, s := range tools.trimmed {
		trimSeconds = append(trimSeconds, s)
	}
	if len(trimSeconds) != 1 || trimSeconds[0] != 6*hourSeconds {
		t.Errorf("trim seconds = %v, want [%d]", trimSeconds, 6*hourSeconds)
	}
}

func TestExtendForHourLengthToleranceBoundary(t *testing.T) {
	tests := []struct {
		name       string
		drift      time.Duration
		wantAppend bool
	}{
		{"two seconds over is appended", 2 * time.Second, true},
		{"three seconds over forces rebuild", 3 * time.Second, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder, engine, tools, _ := newTestBuilder(t)
			camera := testCamera()

			canonical, _ := engine.Resolver().DayLongFile(camera, day(), false)
			writeMovie(t, tools, canonical, 5*hourSeconds*time.Second+tt.drift)

			hour5Start := day().Add(5 * time.Hour)
			hour5 := engine.Paths().StorageFile(camera, hour5Start, models.FormatMP4, false, false)
			writeMovie(t, tools, hour5, hourSeconds*time.Second)
			writeMovie(t, tools, engine.Paths().DefaultMoviePath(camera, true, models.FormatMP4), hourSeconds*time.Second)
			writeMovie(t, tools, engine.Paths().DefaultMoviePath(camera, false, models.FormatMP4), hourSeconds*time.Second)

			if err := builder.ExtendForHour(context.Background(), camera, hour5Start); err != nil {
				t.Fatalf("ExtendForHour() error: %v", err)
			}
			if len(tools.concatted) != 1 {
				t.Fatalf("Concatenate called %d times, want 1", len(tools.concatted))
			}
			gotAppend := len(tools.concatted[0]) == 2
			if gotAppend != tt.wantAppend {
				t.Errorf("concat inputs = %d, append = %v, want %v",
					len(tools.concatted[0]), gotAppend, tt.wantAppend)
			}
		})
	}
}

func TestExtendForHourRebuildsDriftedFile(t *testing.T) {
	builder, engine, tools, sink := newTestBuilder(t)
	camera := testCamera()

	// Existing file claims hours 0..4 but is a minute off, so the builder
	// must rebuild instead of appending.
	canonical, _ := engine.Resolver().DayLongFile(camera, day(), false)
	writeMovie(t, tools, canonical, 5*hourSeconds*time.Second+time.Minute)

	// Only hours 2 and 5 have stored segments; the rest substitute the
	// daytime/nighttime placeholders.
	for _, h := range []int{2, 5} {
		path := engine.Paths().StorageFile(camera, day().Add(time.Duration(h)*time.Hour), models.FormatMP4, false, false)
		writeMovie(t, tools, path, hourSeconds*time.Second)
	}
	writeMovie(t, tools, engine.Paths().DefaultMoviePath(camera, true, models.FormatMP4), hourSeconds*time.Second)
	writeMovie(t, tools, engine.Paths().DefaultMoviePath(camera, false, models.FormatMP4), hourSeconds*time.Second)

	if err := builder.ExtendForHour(context.Background(), camera, day().Add(5*time.Hour)); err != nil {
		t.Fatalf("ExtendForHour() error: %v", err)
	}
	if len(tools.concatted) != 1 {
		t.Fatalf("Concatenate called %d times, want 1", len(tools.concatted))
	}
	if got := len(tools.concatted[0]); got != 6 {
		t.Errorf("rebuild used %d inputs, want 6", got)
	}
	// Placeholder substitution is routine; a successful build must not
	// page the operator.
	if len(sink.bodies) != 0 {
		t.Errorf("got %d notifications for a successful build, want 0", len(sink.bodies))
	}
}

func TestExtendForHourFallsBackToRebuildWhenAppendFails(t *testing.T) {
	builder, engine, tools, sink := newTestBuilder(t)
	camera := testCamera()

	// A perfectly valid existing day file and hour segment, but the
	// two-input append concat dies. The builder must retry with a full
	// rebuild instead of giving up.
	canonical, _ := engine.Resolver().DayLongFile(camera, day(), false)
	writeMovie(t, tools, canonical, 5*hourSeconds*time.Second)

	hour5Start := day().Add(5 * time.Hour)
	hour5 := engine.Paths().StorageFile(camera, hour5Start, models.FormatMP4, false, false)
	writeMovie(t, tools, hour5, hourSeconds*time.Second)
	writeMovie(t, tools, engine.Paths().DefaultMoviePath(camera, true, models.FormatMP4), hourSeconds*time.Second)
	writeMovie(t, tools, engine.Paths().DefaultMoviePath(camera, false, models.FormatMP4), hourSeconds*time.Second)
	tools.concatFailLen = 2

	if err := builder.ExtendForHour(context.Background(), camera, hour5Start); err != nil {
		t.Fatalf("ExtendForHour() error: %v", err)
	}
	if len(tools.concatted) != 2 {
		t.Fatalf("Concatenate called %d times, want append then rebuild", len(tools.concatted))
	}
	if got := len(tools.concatted[1]); got != 6 {
		t.Errorf("rebuild used %d inputs, want 6", got)
	}
	if len(sink.bodies) != 0 {
		t.Errorf("got %d notifications although the rebuild recovered, want 0", len(sink.bodies))
	}
}

func TestRebuildTrimsToAvailableHours(t *testing.T) {
	builder, engine, tools, _ := newTestBuilder(t)
	camera := testCamera()

	// Only hour 5 exists and there are no placeholders, so the rebuild
	// concatenates a single segment; the result is still trimmed, to the
	// one hour it actually covers.
	hour5Start := day().Add(5 * time.Hour)
	hour5 := engine.Paths().StorageFile(camera, hour5Start, models.FormatMP4, false, false)
	writeMovie(t, tools, hour5, hourSeconds*time.Second)

	if err := builder.ExtendForHour(context.Background(), camera, hour5Start); err != nil {
		t.Fatalf("ExtendForHour() error: %v", err)
	}
	if len(tools.trimmed) != 1 {
		t.Fatalf("Trim called %d times, want 1", len(tools.trimmed))
	}
	for _, seconds := range tools.trimmed {
		if seconds != hourSeconds {
			t.Errorf("trimmed to %ds, want %ds", seconds, hourSeconds)
		}
	}
}

func TestExtendForHourFailsWithNothingToAssemble(t *testing.T) {
	builder, _, _, sink := newTestBuilder(t)
	camera := testCamera()

	if err := builder.ExtendForHour(context.Background(), camera, day()); err == nil {
		t.Fatal("ExtendForHour() succeeded with no segments and no placeholders")
	}
	// Exactly one aggregated notification for the whole failed invocation.
	if len(sink.bodies) != 1 {
		t.Fatalf("got %d notifications, want 1", len(sink.bodies))
	}
	if !strings.Contains(sink.bodies[0], "no usable segment") {
		t.Errorf("notification %q does not carry the failure cause", sink.bodies[0])
	}
}

func TestExtendForHourSkipsWhenLockHeld(t *testing.T) {
	locker := NewLocalLocker()
	release, ok, err := locker.Acquire(context.Background(), 3, day())
	if err != nil || !ok {
		t.Fatalf("could not pre-acquire lock: ok=%v err=%v", ok, err)
	}
	defer release()

	builder, _, tools, _ := newTestBuilder(t)
	builder.locker = locker
	camera := testCamera()

	if err := builder.ExtendForHour(context.Background(), camera, day()); err != nil {
		t.Fatalf("ExtendForHour() error: %v", err)
	}
	if tools.mp4Copies != 0 || len(tools.concatted) != 0 {
		t.Error("build ran despite a held lock")
	}
}

func TestRebuildDaySkipsSparseDays(t *testing.T) {
	builder, engine, tools, _ := newTestBuilder(t)
	camera := testCamera()

	// Two stored hours, threshold is three.
	for _, h := range []int{1, 2} {
		path := engine.Paths().StorageFile(camera, day().Add(time.Duration(h)*time.Hour), models.FormatMP4, false, false)
		writeMovie(t, tools, path, hourSeconds*time.Second)
	}
	if err := builder.RebuildDay(context.Background(), camera, day()); err != nil {
		t.Fatalf("RebuildDay() error: %v", err)
	}
	if len(tools.concatted) != 0 {
		t.Error("rebuild ran for a day below the segment threshold")
	}
}

func TestLocalLockerExcludesPerDay(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	release, ok, err := locker.Acquire(ctx, 1, day())
	if err != nil || !ok {
		t.Fatalf("first acquire failed: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := locker.Acquire(ctx, 1, day()); ok {
		t.Error("second acquire for the same (resource, day) succeeded")
	}
	if rel, ok, _ := locker.Acquire(ctx, 2, day()); !ok {
		t.Error("acquire for a different resource blocked")
	} else {
		rel()
	}
	release()
	if rel, ok, _ := locker.Acquire(ctx, 1, day()); !ok {
		t.Error("re-acquire after release failed")
	} else {
		rel()
	}
}
