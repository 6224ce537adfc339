// FilePath: internal/video/ffmpeg.go
package video

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/skyfield/archivehub/internal/config"
	"github.com/skyfield/archivehub/internal/errors"
)

// FFmpegToolset implements Toolset by shelling out to ffmpeg and ffprobe.
type FFmpegToolset struct {
	ffmpegPath  string
	ffprobePath string
	codec       string
}

// NewFFmpegToolset builds a toolset from the video configuration.
func NewFFmpegToolset(cfg config.VideoConfig) *FFmpegToolset {
	return &FFmpegToolset{
		ffmpegPath:  cfg.FFmpegPath,
		ffprobePath: cfg.FFprobePath,
		codec:       cfg.Codec,
	}
}

func (t *FFmpegToolset) run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		nuts.L.Errorf("[Video] %s failed: %v (%s)", name, err, strings.TrimSpace(stderr.String()))
		return errors.NewToolError(name+" invocation failed", err)
	}
	return nil
}

// Trim trims the file in place by writing to a sibling temp file and
// copying it back, the same way existing archives were maintained.
func (t *FFmpegToolset) Trim(path string, seconds int) error {
	if seconds <= 0 {
		return errors.NewToolError("trim length must be positive", nil)
	}
	ext := filepath.Ext(path)
	if ext != ".avi" && ext != ".mp4" {
		return errors.NewToolError("trim requires an .avi or .mp4 file", nil)
	}
	tempPath := strings.TrimSuffix(path, ext) + "_Trim_Temp" + ext
	defer os.Remove(tempPath)

	err := t.run(t.ffmpegPath,
		"-y",
		"-i", path,
		"-t", strconv.Itoa(seconds),
		"-c", "copy",
		tempPath,
	)
	if err != nil {
		return err
	}
	if err := os.Rename(tempPath, path); err != nil {
		return errors.NewFilesystemError("could not replace file after trim", err)
	}
	return nil
}

// Concatenate joins the inputs at the given even dimensions.
func (t *FFmpegToolset) Concatenate(inputs []string, output string, width, height int) error {
	if len(inputs) == 0 {
		return errors.NewToolError("concatenation requires at least one input", nil)
	}
	args := []string{"-y"}
	for _, in := range inputs {
		args = append(args, "-i", in)
	}
	var filter strings.Builder
	for i := range inputs {
		fmt.Fprintf(&filter, "[%d:v]scale=%d:%d,setsar=1[v%d];", i, width, height, i)
	}
	for i := range inputs {
		fmt.Fprintf(&filter, "[v%d]", i)
	}
	fmt.Fprintf(&filter, "concat=n=%d:v=1:a=0[out]", len(inputs))
	args = append(args,
		"-filter_complex", filter.String(),
		"-map", "[out]",
		"-c:v", t.codec,
		output,
	)
	return t.run(t.ffmpegPath, args...)
}

// MakeLowQualityCopy writes a reduced-bitrate copy of the input.
func (t *FFmpegToolset) MakeLowQualityCopy(input, output string) error {
	return t.run(t.ffmpegPath,
		"-y",
		"-i", input,
		"-c:v", t.codec,
		"-b:v", "200k",
		"-vf", "scale=iw/2:ih/2",
		output,
	)
}

// Length probes the duration of a video via ffprobe.
func (t *FFmpegToolset) Length(path string) (time.Duration, error) {
	cmd := exec.Command(t.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, errors.NewToolError("ffprobe invocation failed", err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, errors.NewToolError("could not parse ffprobe duration", err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// MakeMP4Copy re-encodes the input into an mp4 container.
func (t *FFmpegToolset) MakeMP4Copy(input, output string) error {
	return t.run(t.ffmpegPath,
		"-y",
		"-i", input,
		"-c:v", t.codec,
		output,
	)
}
