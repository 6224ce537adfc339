// FilePath: internal/storage/paths.go
package storage

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/skyfield/archivehub/internal/models"
)

const (
	genericMoviesFolder = "Generic Movies"
	backupFolder        = "Backup"
	lowQualitySuffix    = "_low"

	// Timestamp layouts used inside file names. The hyphenated form carries
	// the exact time; the underscore form is used for day-granularity
	// artifacts. Both are fixed by the on-disk layout of existing archives.
	timestampLayout = "20060102-150405"
	dayLayout       = "_01-02-2006"
	hourLayout      = "20060102-15"
	backupLayout    = "-1-02-2006"
)

// Paths derives file system locations from resource, instant, and kind. All
// methods are pure: the same inputs always yield the same strings, and no
// method touches the disk.
type Paths struct {
	root string
}

// NewPaths creates a deriver rooted at the storage root.
func NewPaths(root string) *Paths {
	return &Paths{root: root}
}

// Root returns the storage root directory.
func (p *Paths) Root() string {
	return p.root
}

// DataDir returns the directory holding data for the given resource at the
// given instant: <root>/<folder>/<year>/<MonthName>/<day>, with a trailing
// "movies" component for movie data. The instant is interpreted in the
// resource's time zone and the month name is the English long form.
func (p *Paths) DataDir(resource *models.Resource, t time.Time, isMovie bool) string {
	local := t.In(resource.Location())
	dir := filepath.Join(
		p.root,
		resource.StorageFolder,
		strconv.Itoa(local.Year()),
		local.Month().String(),
		strconv.Itoa(local.Day()),
	)
	if isMovie {
		dir = filepath.Join(dir, "movies")
	}
	return dir
}

// FileName returns the bare file name for a piece of data. Weather-station
// logs carry no date at all; other artifacts carry either the exact
// timestamp or the day-granularity date.
func (p *Paths) FileName(resource *models.Resource, t time.Time, ext string, withTime, lowQuality bool) string {
	var name strings.Builder
	name.WriteString(resource.StorageFolder)

	if !resource.IsWeatherStation() {
		local := t.In(resource.Location())
		if withTime {
			name.WriteString(local.Format(timestampLayout))
		} else {
			name.WriteString(local.Format(dayLayout))
		}
	}
	if lowQuality {
		name.WriteString(lowQualitySuffix)
	}
	name.WriteString(ext)
	return name.String()
}

// StorageFile returns the full canonical path for newly stored data.
// movieFormat selects the movie container and must be empty for non-movie
// data, in which case the extension comes from the resource's declared
// format (falling back to ".txt" for unrecognized formats).
func (p *Paths) StorageFile(resource *models.Resource, t time.Time, movieFormat models.FileFormat, fullDay, lowQuality bool) string {
	isMovie := movieFormat != ""
	var ext string
	if isMovie {
		ext = movieFormat.Extension()
	} else {
		ext = resource.Format.Extension()
	}
	dir := p.DataDir(resource, t, isMovie)
	name := p.FileName(resource, t, ext, !fullDay, lowQuality)
	return filepath.Join(dir, name)
}

// HourPrefix returns the file-name prefix shared by every image the
// resource captured during the hour containing t.
func (p *Paths) HourPrefix(resource *models.Resource, t time.Time) string {
	local := t.In(resource.Location())
	return resource.StorageFolder + local.Format(hourLayout)
}

// ParseNameTime extracts the capture time encoded in a file name, in the
// resource's time zone. The boolean result is false when the name carries
// no parseable timestamp.
func (p *Paths) ParseNameTime(resource *models.Resource, name string) (time.Time, bool) {
	dash := strings.LastIndex(name, "-")
	if dash < 8 || dash+7 > len(name) {
		return time.Time{}, false
	}
	stamp := name[dash-8 : dash+7]
	t, err := time.ParseInLocation(timestampLayout, stamp, resource.Location())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ResourceGenericDir returns the resource-specific placeholder directory.
func (p *Paths) ResourceGenericDir(resource *models.Resource) string {
	return filepath.Join(p.root, resource.StorageFolder, genericMoviesFolder)
}

// RootGenericDir returns the system-wide placeholder directory.
func (p *Paths) RootGenericDir() string {
	return filepath.Join(p.root, genericMoviesFolder)
}

// DefaultMoviePath returns the resource's DefaultDay or DefaultNight
// placeholder path for the given container format.
func (p *Paths) DefaultMoviePath(resource *models.Resource, daytime bool, format models.FileFormat) string {
	name := "DefaultNight"
	if daytime {
		name = "DefaultDay"
	}
	return filepath.Join(p.ResourceGenericDir(resource), name+format.Extension())
}

// NoDataPath returns the system-wide placeholder used when a resource has
// no data and no defaults for an hour.
func (p *Paths) NoDataPath(format models.FileFormat) string {
	return filepath.Join(p.RootGenericDir(), "NoData"+format.Extension())
}

// DayLongDefaultPath returns a generic day-long placeholder path. When
// resource is nil the system-wide path is returned.
func (p *Paths) DayLongDefaultPath(resource *models.Resource, lowQuality bool) string {
	name := "GenericDayVideo"
	if lowQuality {
		name += lowQualitySuffix
	}
	name += ".mp4"
	if resource == nil {
		return filepath.Join(p.RootGenericDir(), name)
	}
	return filepath.Join(p.ResourceGenericDir(resource), name)
}

// BackupPath returns the dated backup location for a placeholder stored in
// dir: Backup/<base>-M-dd-yyyy<ext>.
func (p *Paths) BackupPath(dir, base, ext string, now time.Time) string {
	return filepath.Join(dir, backupFolder, base+now.Format(backupLayout)+ext)
}
