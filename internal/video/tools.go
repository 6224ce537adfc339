// FilePath: internal/video/tools.go

// Package video wraps the external codec utilities the engine drives. The
// engine treats every tool as a black box that takes file paths and reports
// success or failure; only the length probe returns a value.
package video

import "time"

// Trimmer trims a video file in place to a target number of seconds. Excess
// time is removed from the end. Trimming a file shorter than the target is a
// no-op that still reports success.
type Trimmer interface {
	Trim(path string, seconds int) error
}

// Concatenator joins input video files into a single output at a common
// resolution. Width and height must both be even.
type Concatenator interface {
	Concatenate(inputs []string, output string, width, height int) error
}

// LowQualityCopier produces a reduced-bitrate copy of a video.
type LowQualityCopier interface {
	MakeLowQualityCopy(input, output string) error
}

// LengthProber reports the duration of a video file. A probe failure is an
// error, not a zero duration.
type LengthProber interface {
	Length(path string) (time.Duration, error)
}

// Copier re-encodes a video into an mp4 container.
type Copier interface {
	MakeMP4Copy(input, output string) error
}

// Toolset bundles every external video utility the engine needs.
type Toolset interface {
	Trimmer
	Concatenator
	LowQualityCopier
	LengthProber
	Copier
}
