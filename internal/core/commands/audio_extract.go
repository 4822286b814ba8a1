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

// This file defines the command that extracts the audio track from a video
// file via the external transcoding tool. The command is conditional: its
// IsExecutable gate only fires when the classifier marked the file as
// needing extraction, so audio-only requests skip this stage entirely (and
// report an extraction time of zero).
//
// Logic Flow:
//  1. Check the classifier verdict; skip unless extraction is needed.
//  2. Create and register a temp output path for the extracted audio.
//  3. Run the transcoder (mono 64 kbps MP3 keeps the upload small).
//  4. Probe the source duration, best-effort, for the cost estimate.
//  5. Promote the extracted file to the transcription upload slot.
package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jaycherian/go-media-insights/internal/core/cor"
	"github.com/jaycherian/go-media-insights/internal/core/media"
	"github.com/jaycherian/go-media-insights/internal/core/model"
)

const extractTempPrefix = "audio-extract"

// AudioExtract is a command implementation that wraps the external
// transcoding tool to pull a compressed audio track out of a video file.
type AudioExtract struct {
	cor.BaseCommand                  // Embeds the BaseCommand for naming and metrics.
	transcoder      media.Transcoder // The tool boundary; nil when discovery failed at startup.
}

// NewAudioExtract is the constructor for creating a new AudioExtract
// command. A nil transcoder is allowed: the command then fails with a
// tool-not-found error if a video input ever reaches it.
func NewAudioExtract(name string, transcoder media.Transcoder) *AudioExtract {
	base := cor.NewBaseCommand(name)
	// Read the download result by its well-known key rather than the chain
	// pipe, so the stage stays position-independent.
	base.InputParamName = KeyDownload
	return &AudioExtract{
		BaseCommand: *base,
		transcoder:  transcoder,
	}
}

// IsExecutable gates the stage on the classifier verdict: only files marked
// as needing extraction run it. Everything else is a skip, not a failure.
func (c *AudioExtract) IsExecutable(context cor.Context) bool {
	kind, ok := context.Get(KeyFileKind).(media.FileKind)
	return ok && kind == media.NeedsExtraction
}

// Execute contains the core logic for the audio extraction.
func (c *AudioExtract) Execute(context cor.Context) {
	download := context.Get(c.GetInputParam()).(*model.DownloadResult)

	start := time.Now()
	defer func() { context.AddTiming(StageExtraction, time.Since(start)) }()

	if c.transcoder == nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.ExtractionError{
			ToolMissing: true,
			Err:         errors.New("no transcoding tool available on this host"),
		})
		return
	}

	outputPath := media.NewTempPath(extractTempPrefix, ".mp3")
	// Register before running the tool so a partial output is still removed.
	context.AddTempFile(outputPath)

	if err := c.transcoder.ExtractAudio(context.GetContext(), download.Path, outputPath); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	// The probed duration feeds the transcription cost estimate. Probing is
	// best-effort: a container with no declared duration falls back to the
	// size heuristic later.
	if duration, err := c.transcoder.ProbeDuration(context.GetContext(), outputPath); err == nil {
		context.Add(KeyAudioDuration, duration)
	} else {
		slog.WarnContext(context.GetContext(), "could not probe extracted audio duration", "error", err)
	}

	var extractedMB float64
	if info, err := os.Stat(outputPath); err == nil {
		extractedMB = float64(info.Size()) / (1024 * 1024)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.InfoContext(context.GetContext(), "extracted audio track",
		"input", download.Path,
		"output", outputPath,
		"inputMB", fmt.Sprintf("%.2f", download.SizeMB),
		"outputMB", fmt.Sprintf("%.2f", extractedMB))

	context.Add(KeyUploadPath, outputPath)
	context.Add(c.GetOutputParam(), download)
}
