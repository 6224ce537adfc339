// FilePath: internal/models/models.dataunit.go
package models

import (
	"os"
	"path/filepath"
	"time"

	"github.com/skyfield/archivehub/internal/errors"
)

// UnitKind tags the variant of a DataUnit.
type UnitKind string

const (
	UnitImage      UnitKind = "image"
	UnitMovie      UnitKind = "movie"
	UnitWeatherLog UnitKind = "weather_log"
)

// MovieQuality selects between the standard and reduced-bitrate encodings of
// a stored movie.
type MovieQuality string

const (
	QualityStandard MovieQuality = "standard"
	QualityLow      MovieQuality = "low"
)

// DataUnit is a single stored artifact: one image, one movie, or one
// weather-station log, carrying its own time range and resource id. Payload
// bytes travel inline (base64 on the wire via encoding/json).
type DataUnit struct {
	Kind       UnitKind     `json:"kind"`
	ResourceID int          `json:"resource_id"`
	Start      time.Time    `json:"start"`
	End        time.Time    `json:"end"`
	Format     FileFormat   `json:"format"`
	Quality    MovieQuality `json:"quality,omitempty"`
	Data       []byte       `json:"data,omitempty"`
}

// NewMovieUnit builds a movie DataUnit covering [start, end].
func NewMovieUnit(resourceID int, format FileFormat, quality MovieQuality, start, end time.Time) *DataUnit {
	return &DataUnit{
		Kind:       UnitMovie,
		ResourceID: resourceID,
		Format:     format,
		Quality:    quality,
		Start:      start,
		End:        end,
	}
}

// NewImageUnit builds an image DataUnit. Images are instants, so the start
// and end times coincide.
func NewImageUnit(resourceID int, format FileFormat, taken time.Time) *DataUnit {
	return &DataUnit{
		Kind:       UnitImage,
		ResourceID: resourceID,
		Format:     format,
		Start:      taken,
		End:        taken,
	}
}

// NewWeatherLogUnit builds a weather-station log DataUnit covering one day.
func NewWeatherLogUnit(resourceID int, format FileFormat, start, end time.Time) *DataUnit {
	return &DataUnit{
		Kind:       UnitWeatherLog,
		ResourceID: resourceID,
		Format:     format,
		Start:      start,
		End:        end,
	}
}

// IsLowQuality reports whether the unit is the reduced-bitrate variant.
func (u *DataUnit) IsLowQuality() bool {
	return u.Quality == QualityLow
}

// ReadFrom loads the unit's payload from a file on disk.
func (u *DataUnit) ReadFrom(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewFilesystemError("could not read data unit from "+path, err)
	}
	u.Data = data
	return nil
}

// WriteTo persists the unit's payload to a file on disk, creating parent
// directories as needed.
func (u *DataUnit) WriteTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewFilesystemError("could not create directory for "+path, err)
	}
	if err := os.WriteFile(path, u.Data, 0o644); err != nil {
		return errors.NewFilesystemError("could not write data unit to "+path, err)
	}
	return nil
}

// Validate checks the minimal shape shared by every stored unit.
func (u *DataUnit) Validate() error {
	if u == nil {
		return errors.NewMissingPayloadError("data unit is nil", nil)
	}
	switch u.Kind {
	case UnitImage, UnitMovie, UnitWeatherLog:
	default:
		return errors.NewWrongUnitKindError("unknown data unit kind "+string(u.Kind), nil)
	}
	if u.Kind == UnitMovie && !u.Format.IsMovie() {
		return errors.NewBadFormatError("movie unit must be avi or mp4", nil)
	}
	return nil
}
