// FilePath: internal/models/models_test.go
package models

import (
	"testing"
	"time"

	"github.com/skyfield/archivehub/internal/errors"
)

func TestFileFormatExtension(t *testing.T) {
	tests := []struct {
		format FileFormat
		want   string
	}{
		{FormatJPEG, ".jpg"},
		{FormatGIF, ".gif"},
		{FormatPNG, ".png"},
		{FormatMJPG, ".mjpg"},
		{FormatAVI, ".avi"},
		{FormatMP4, ".mp4"},
		{FormatCSV, ".csv"},
		{FormatSSV, ".ssv"},
		{FormatText, ".txt"},
		{FileFormat("mystery"), ".txt"},
	}
	for _, tt := range tests {
		if got := tt.format.Extension(); got != tt.want {
			t.Errorf("Extension(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestResourceLocationFallsBackToUTC(t *testing.T) {
	res := &Resource{TimeZone: "Not/AZone"}
	if loc := res.Location(); loc != time.UTC {
		t.Errorf("Location() = %v, want UTC", loc)
	}
	res = &Resource{TimeZone: "Europe/Berlin"}
	if loc := res.Location(); loc.String() != "Europe/Berlin" {
		t.Errorf("Location() = %v, want Europe/Berlin", loc)
	}
}

func TestTimeRangeMillisInclusive(t *testing.T) {
	start := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	r := TimeRange{Start: start, Stop: start.Add(time.Hour - time.Millisecond)}
	if got := r.Millis(); got != 3600_000 {
		t.Errorf("Millis() = %d, want 3600000", got)
	}
}

func TestDataUnitValidate(t *testing.T) {
	movie := NewMovieUnit(1, FormatMP4, QualityStandard, time.Now(), time.Now())
	if err := movie.Validate(); err != nil {
		t.Errorf("valid movie rejected: %v", err)
	}

	badMovie := NewMovieUnit(1, FormatJPEG, QualityStandard, time.Now(), time.Now())
	if err := badMovie.Validate(); errors.CodeOf(err) != errors.CodeBadFormat {
		t.Errorf("jpeg movie error code = %d, want %d", errors.CodeOf(err), errors.CodeBadFormat)
	}

	var nilUnit *DataUnit
	if err := nilUnit.Validate(); errors.CodeOf(err) != errors.CodeMissingPayload {
		t.Errorf("nil unit error code = %d, want %d", errors.CodeOf(err), errors.CodeMissingPayload)
	}

	unknown := &DataUnit{Kind: UnitKind("hologram")}
	if err := unknown.Validate(); errors.CodeOf(err) != errors.CodeWrongUnitKind {
		t.Errorf("unknown kind error code = %d, want %d", errors.CodeOf(err), errors.CodeWrongUnitKind)
	}
}
