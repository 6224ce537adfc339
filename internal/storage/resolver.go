// FilePath: internal/storage/resolver.go
package storage

import (
	"os"
	"time"

	"github.com/skyfield/archivehub/internal/daylight"
	"github.com/skyfield/archivehub/internal/models"
)

// Resolver locates the best available movie file for a resource and time,
// walking the placeholder fallback chain when real data is missing.
type Resolver struct {
	paths   *Paths
	advisor *daylight.Advisor
}

// NewResolver creates a resolver over the given path deriver and daylight
// advisor.
func NewResolver(paths *Paths, advisor *daylight.Advisor) *Resolver {
	return &Resolver{paths: paths, advisor: advisor}
}

// ResolveMovie returns the path of the movie covering the hour containing t,
// or a placeholder when none exists. The fallback order is: the stored hour
// movie, the resource's DefaultDay/DefaultNight (picked by whether the hour
// is a collection hour), and finally the system-wide NoData movie. The
// boolean result is false only when not even NoData exists on disk.
func (r *Resolver) ResolveMovie(resource *models.Resource, t time.Time, format models.FileFormat) (string, bool) {
	path := r.paths.StorageFile(resource, t, format, false, false)
	if fileExists(path) {
		return path, true
	}
	return r.DefaultMovie(resource, t, format)
}

// DefaultMovie returns the placeholder movie for the hour containing t,
// skipping any stored real data. Used when substituting corrupt hour movies
// during day-long assembly.
func (r *Resolver) DefaultMovie(resource *models.Resource, t time.Time, format models.FileFormat) (string, bool) {
	daytime := r.advisor.IsDaytimeHour(resource, t)
	path := r.paths.DefaultMoviePath(resource, daytime, format)
	if fileExists(path) {
		return path, true
	}
	path = r.paths.NoDataPath(format)
	if fileExists(path) {
		return path, true
	}
	return "", false
}

// ResolveDayLong returns the day-long movie for the day containing t, or
// the generic placeholder chain when it has not been assembled: the
// resource's GenericDayVideo first, then the system-wide one.
func (r *Resolver) ResolveDayLong(resource *models.Resource, t time.Time, lowQuality bool) (string, bool) {
	path := r.paths.StorageFile(resource, t, models.FormatMP4, true, lowQuality)
	if fileExists(path) {
		return path, true
	}
	path = r.paths.DayLongDefaultPath(resource, lowQuality)
	if fileExists(path) {
		return path, true
	}
	path = r.paths.DayLongDefaultPath(nil, lowQuality)
	if fileExists(path) {
		return path, true
	}
	return "", false
}

// DayLongFile returns the canonical day-long path without any fallback,
// plus whether it exists.
func (r *Resolver) DayLongFile(resource *models.Resource, t time.Time, lowQuality bool) (string, bool) {
	path := r.paths.StorageFile(resource, t, models.FormatMP4, true, lowQuality)
	return path, fileExists(path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
