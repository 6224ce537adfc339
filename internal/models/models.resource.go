// FilePath: internal/models/models.resource.go
package models

import (
	"time"
)

// CollectionSpan describes when a resource is expected to produce data.
type CollectionSpan string

const (
	SpanFullTime       CollectionSpan = "full_time"
	SpanDaylightHours  CollectionSpan = "daylight_hours"
	SpanSpecifiedTimes CollectionSpan = "specified_times"
)

// FileFormat is the declared output format of a resource.
type FileFormat string

const (
	FormatJPEG FileFormat = "jpeg"
	FormatGIF  FileFormat = "gif"
	FormatPNG  FileFormat = "png"
	FormatMJPG FileFormat = "mjpg"
	FormatAVI  FileFormat = "avi"
	FormatMP4  FileFormat = "mp4"
	FormatCSV  FileFormat = "csv"
	FormatSSV  FileFormat = "ssv"
	FormatText FileFormat = "text"
)

// Extension returns the file extension for the format, including the dot.
// Unrecognized formats fall back to ".txt".
func (f FileFormat) Extension() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatGIF:
		return ".gif"
	case FormatPNG:
		return ".png"
	case FormatMJPG:
		return ".mjpg"
	case FormatAVI:
		return ".avi"
	case FormatMP4:
		return ".mp4"
	case FormatCSV:
		return ".csv"
	case FormatSSV:
		return ".ssv"
	default:
		return ".txt"
	}
}

// IsMovie reports whether the format is a video container.
func (f FileFormat) IsMovie() bool {
	return f == FormatAVI || f == FormatMP4
}

// ResourceKind classifies what a resource collects.
type ResourceKind string

const (
	KindCamera         ResourceKind = "camera"
	KindMapLoop        ResourceKind = "map_loop"
	KindWeatherStation ResourceKind = "weather_station"
)

// Resource is the configuration identity of a data source. It is owned by
// the registry and treated as immutable for the duration of a request.
type Resource struct {
	ID             int            `json:"id" db:"id"`
	Name           string         `json:"name" db:"name"`
	StorageFolder  string         `json:"storage_folder" db:"storage_folder"`
	TimeZone       string         `json:"time_zone" db:"time_zone"`
	Kind           ResourceKind   `json:"kind" db:"kind"`
	Format         FileFormat     `json:"format" db:"format"`
	Span           CollectionSpan `json:"span" db:"span"`
	SpanStartHour  int            `json:"span_start_hour" db:"span_start_hour"`
	SpanStopHour   int            `json:"span_stop_hour" db:"span_stop_hour"`
	SampleInterval int            `json:"sample_interval" db:"sample_interval"` // seconds between captures

	loc *time.Location
}

// Location resolves the resource's time zone, falling back to UTC when the
// zone name is unknown. The lookup is cached on the resource.
func (r *Resource) Location() *time.Location {
	if r.loc != nil {
		return r.loc
	}
	loc, err := time.LoadLocation(r.TimeZone)
	if err != nil {
		loc = time.UTC
	}
	r.loc = loc
	return loc
}

// IsWeatherStation reports whether the resource stores day-granularity text
// logs instead of images and movies.
func (r *Resource) IsWeatherStation() bool {
	return r.Kind == KindWeatherStation
}

// TimeRange is an inclusive [Start, Stop] pair of instants. Path derivation
// always interprets it in the owning resource's time zone.
type TimeRange struct {
	Start time.Time `json:"start"`
	Stop  time.Time `json:"stop"`
}

// Millis returns the inclusive length of the range in milliseconds.
func (tr TimeRange) Millis() int64 {
	return tr.Stop.Sub(tr.Start).Milliseconds() + 1
}

// Contains reports whether t falls inside the range.
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && !t.After(tr.Stop)
}
