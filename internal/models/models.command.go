// FilePath: internal/models/models.command.go
package models

// CommandType enumerates the storage server commands a client can send.
type CommandType string

const (
	// Store persists one hour-long movie, one image, or one weather-station
	// log from the first unit.
	CommandStore CommandType = "store"
	// StoreDayLongMovie persists a standard-quality day-long mp4 from the
	// first unit and, when present, its low-quality copy from the second.
	CommandStoreDayLongMovie CommandType = "store_day_long_movie"
	// StoreDefaultDay persists a resource's daytime placeholder movie.
	CommandStoreDefaultDay CommandType = "store_default_day"
	// StoreDefaultNight persists a resource's nighttime placeholder movie.
	CommandStoreDefaultNight CommandType = "store_default_night"
	// StoreNoDataMP4 persists the system-wide mp4 "no data" placeholder.
	CommandStoreNoDataMP4 CommandType = "store_no_data_mp4"
	// StoreNoDataAVI persists the system-wide avi "no data" placeholder.
	CommandStoreNoDataAVI CommandType = "store_no_data_avi"
	// Provide retrieves images, hour-long movies, or weather-station logs
	// for a time range.
	CommandProvide CommandType = "provide"
	// ProvideDayLongMovie retrieves day-long movies in both qualities.
	CommandProvideDayLongMovie CommandType = "provide_day_long_movie"
	// ProvideFolderList lists the top-level storage folder names.
	CommandProvideFolderList CommandType = "provide_folder_list"
)

// IsStore reports whether the command belongs to the store family, which
// answers with a plain success flag.
func (c CommandType) IsStore() bool {
	switch c {
	case CommandStore, CommandStoreDayLongMovie, CommandStoreDefaultDay,
		CommandStoreDefaultNight, CommandStoreNoDataMP4, CommandStoreNoDataAVI:
		return true
	}
	return false
}

// InstanceRequest drives a Provide-family command: the time range, the
// number of units wanted, and what kind of data to look for.
type InstanceRequest struct {
	ResourceID int        `json:"resource_id"`
	Range      TimeRange  `json:"range"`
	Count      int        `json:"count"`
	WantMovie  bool       `json:"want_movie"`
	Format     FileFormat `json:"format"`
}

// StorageCommand is the wire message: one command per connection.
type StorageCommand struct {
	Type    CommandType      `json:"type"`
	First   *DataUnit        `json:"first_unit,omitempty"`
	Second  *DataUnit        `json:"second_unit,omitempty"`
	Request *InstanceRequest `json:"request,omitempty"`
}

// InstanceBatch is the ordered result of a retrieval. Count may be smaller
// than requested; callers treat short or empty batches as normal. Units may
// contain nils for day-long retrievals where no placeholder could be found.
type InstanceBatch struct {
	Units []*DataUnit `json:"units"`
	Count int         `json:"count"`
	Range TimeRange   `json:"range"`
}

// NewInstanceBatch wraps a unit list with its originating range.
func NewInstanceBatch(units []*DataUnit, r TimeRange) *InstanceBatch {
	return &InstanceBatch{Units: units, Count: len(units), Range: r}
}

// StoreResult is the response to every store-family command.
type StoreResult struct {
	OK bool `json:"ok"`
}

// DayLongBatches pairs the standard-quality and low-quality batches returned
// by ProvideDayLongMovie. Each batch counts one unit per unique day.
type DayLongBatches struct {
	Standard *InstanceBatch `json:"standard"`
	Low      *InstanceBatch `json:"low"`
}

// FolderList is the response to ProvideFolderList.
type FolderList struct {
	Folders []string `json:"folders"`
}
