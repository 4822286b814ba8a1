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

// This file defines the command that classifies the downloaded file as
// directly-transcribable audio or as video needing extraction. The decision
// itself lives in the media package; this command only adapts it to the
// pipeline: it publishes the verdict and, for audio-only files, pre-selects
// the download as the transcription upload so the extraction stage can skip.
package commands

import (
	"log/slog"

	"github.com/jaycherian/go-media-insights/internal/core/cor"
	"github.com/jaycherian/go-media-insights/internal/core/media"
	"github.com/jaycherian/go-media-insights/internal/core/model"
)

// FileKindClassify is a command implementation that runs the audio/video
// classifier over the download result.
type FileKindClassify struct {
	cor.BaseCommand // Embeds the BaseCommand for naming and metrics.
}

// NewFileKindClassify is the constructor for creating a new FileKindClassify
// command.
func NewFileKindClassify(name string) *FileKindClassify {
	return &FileKindClassify{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute classifies the downloaded file and routes it: audio-only files are
// promoted to the upload slot directly, video files leave the slot empty for
// the extraction stage to fill.
func (c *FileKindClassify) Execute(context cor.Context) {
	download := context.Get(c.GetInputParam()).(*model.DownloadResult)

	kind := media.Classify(download.Path, download.ContentType)
	context.Add(KeyFileKind, kind)

	if kind == media.AudioOnly {
		context.Add(KeyUploadPath, download.Path)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.InfoContext(context.GetContext(), "classified media file",
		"path", download.Path,
		"contentType", download.ContentType,
		"kind", kind.String())

	context.Add(c.GetOutputParam(), download)
}
