// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// The transcoder boundary. All interaction with the external ffmpeg tool
// goes through the Transcoder interface so pipeline stages can be tested
// with a stub, and "tool not found" is reported distinctly from "tool
// execution failed".
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jaycherian/go-media-insights/internal/core/model"
)

// Transcoder abstracts the external media tool. The production
// implementation shells out to ffmpeg/ffprobe; tests substitute a stub.
type Transcoder interface {
	// ExtractAudio writes the audio track of inputPath to outputPath as a
	// mono 64 kbps MP3.
	ExtractAudio(ctx context.Context, inputPath string, outputPath string) error
	// GrabFrame writes the single video frame nearest to timestampSeconds
	// to outputPath as a JPEG.
	GrabFrame(ctx context.Context, inputPath string, outputPath string, timestampSeconds float64) error
	// ProbeDuration returns the media duration in seconds, or an error when
	// the container does not declare one.
	ProbeDuration(ctx context.Context, inputPath string) (float64, error)
}

// EnvFFmpegPath is the environment variable that overrides transcoder
// discovery with an explicit binary path.
const EnvFFmpegPath = "FFMPEG_PATH"

// wellKnownFFmpegPaths are checked, in order, when no override is set and
// before falling back to PATH lookup.
var wellKnownFFmpegPaths = []string{
	"/usr/bin/ffmpeg",
	"/usr/local/bin/ffmpeg",
	"/opt/homebrew/bin/ffmpeg",
}

// FFmpeg is the production Transcoder backed by the ffmpeg and ffprobe
// command-line tools.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
}

// LocateFFmpeg resolves the ffmpeg binary: the FFMPEG_PATH override first,
// then the well-known install locations, then a PATH lookup. A failure here
// is a ToolMissing extraction error, which the pipeline reports differently
// from a failed transcode run.
func LocateFFmpeg() (string, error) {
	if override := os.Getenv(EnvFFmpegPath); override != "" {
		if fileExists(override) {
			return override, nil
		}
		return "", &model.ExtractionError{
			ToolMissing: true,
			Err:         fmt.Errorf("%s points to %s, which does not exist", EnvFFmpegPath, override),
		}
	}
	for _, candidate := range wellKnownFFmpegPaths {
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	if path, err := exec.LookPath("ffmpeg"); err == nil {
		return path, nil
	}
	return "", &model.ExtractionError{
		ToolMissing: true,
		Err:         errors.New("ffmpeg not found in FFMPEG_PATH, well-known locations, or PATH"),
	}
}

// NewFFmpeg constructs the production transcoder around a resolved ffmpeg
// binary path. ffprobe is assumed to be installed next to ffmpeg; when it is
// not there a PATH lookup is attempted on first use.
func NewFFmpeg(ffmpegPath string) *FFmpeg {
	ffprobe := filepath.Join(filepath.Dir(ffmpegPath), "ffprobe")
	if !fileExists(ffprobe) {
		if found, err := exec.LookPath("ffprobe"); err == nil {
			ffprobe = found
		}
	}
	return &FFmpeg{ffmpegPath: ffmpegPath, ffprobePath: ffprobe}
}

// ExtractAudio transcodes the audio track of inputPath into a mono 64 kbps
// MP3 at outputPath. Mono at a low bitrate keeps the upload small without
// hurting speech-recognition quality.
func (f *FFmpeg) ExtractAudio(ctx context.Context, inputPath string, outputPath string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-b:a", "64k",
		"-f", "mp3",
		outputPath,
	}
	return f.run(ctx, args)
}

// GrabFrame extracts the single frame nearest timestampSeconds as a JPEG.
// Seeking before the input (-ss before -i) makes ffmpeg jump to the nearest
// keyframe first, which is dramatically faster on long videos.
func (f *FFmpeg) GrabFrame(ctx context.Context, inputPath string, outputPath string, timestampSeconds float64) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(timestampSeconds, 'f', 3, 64),
		"-i", inputPath,
		"-frames:v", "1",
		"-q:v", "2",
		outputPath,
	}
	return f.run(ctx, args)
}

// ProbeDuration asks ffprobe for the container-declared duration in seconds.
func (f *FFmpeg) ProbeDuration(ctx context.Context, inputPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, f.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		inputPath,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, &model.ExtractionError{
			Err: fmt.Errorf("ffprobe failed for %s: %w: %s", inputPath, err, strings.TrimSpace(stderr.String())),
		}
	}
	raw := strings.TrimSpace(stdout.String())
	duration, err := strconv.ParseFloat(raw, 64)
	if err != nil || duration <= 0 {
		return 0, &model.ExtractionError{
			Err: fmt.Errorf("ffprobe returned no usable duration for %s (got %q)", inputPath, raw),
		}
	}
	return duration, nil
}

// run executes ffmpeg with the given args and wraps any failure, including
// the tool's stderr, in an ExtractionError.
func (f *FFmpeg) run(ctx context.Context, args []string) error {
	slog.DebugContext(ctx, "running transcoder", "binary", f.ffmpegPath, "args", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &model.ExtractionError{
			Err: fmt.Errorf("ffmpeg %s: %w: %s", args[len(args)-1], err, strings.TrimSpace(stderr.String())),
		}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
