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

// This file defines the command that submits the prepared audio file to the
// speech-to-text API. Transcription sits on the critical path: with no
// transcript there is nothing for the downstream stages to analyze, so any
// failure here is fatal to the request (unlike the enrichment stages, which
// degrade).
//
// The speech API reports no token counts, so the stage records a cost
// estimate instead: the probed audio duration in minutes when the extraction
// stage measured one, otherwise the upload size in megabytes, which for the
// compressed mono output tracks roughly one megabyte per minute.
package commands

import (
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jaycherian/go-media-insights/internal/core/cor"
	"github.com/jaycherian/go-media-insights/internal/core/model"
	"github.com/jaycherian/go-media-insights/internal/provider"
)

// Transcribe is a command implementation that turns the prepared audio file
// into text via the provider's speech API.
type Transcribe struct {
	cor.BaseCommand                           // Embeds the BaseCommand for naming and metrics.
	transcriber     provider.AudioTranscriber // The speech-to-text client.
	modelName       string                    // The provider transcription model (e.g., "whisper-1").
}

// NewTranscribe is the constructor for creating a new Transcribe command.
func NewTranscribe(name string, transcriber provider.AudioTranscriber, modelName string) *Transcribe {
	base := cor.NewBaseCommand(name)
	base.InputParamName = KeyUploadPath
	return &Transcribe{
		BaseCommand: *base,
		transcriber: transcriber,
		modelName:   modelName,
	}
}

// Execute contains the core logic for the transcription call.
func (c *Transcribe) Execute(context cor.Context) {
	uploadPath := context.Get(c.GetInputParam()).(string)

	start := time.Now()

	resp, err := c.transcriber.CreateTranscription(context.GetContext(), openai.AudioRequest{
		Model:    c.modelName,
		FilePath: uploadPath,
	})
	elapsed := time.Since(start)
	context.AddTiming(StageTranscription, elapsed)

	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.TranscriptionError{Err: err})
		return
	}

	result := &model.TranscriptionResult{
		Text:             resp.Text,
		Length:           len(resp.Text),
		WordCount:        len(strings.Fields(resp.Text)),
		ProcessingTimeMs: elapsed.Milliseconds(),
	}

	context.Add(KeyWhisperUsage, c.estimateUsage(context, uploadPath))

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.InfoContext(context.GetContext(), "transcription complete",
		"characters", result.Length,
		"words", result.WordCount,
		"elapsedMs", result.ProcessingTimeMs)

	context.Add(KeyTranscription, result)
	context.Add(c.GetOutputParam(), result)
}

// estimateUsage builds the cost estimate for the transcription call: probed
// duration when available, size-derived approximation otherwise.
func (c *Transcribe) estimateUsage(context cor.Context, uploadPath string) model.WhisperUsage {
	var sizeMB float64
	if mb, err := fileSizeMB(uploadPath); err == nil {
		sizeMB = mb
	}

	usage := model.WhisperUsage{AudioSizeMB: sizeMB}
	if duration, ok := context.Get(KeyAudioDuration).(float64); ok && duration > 0 {
		usage.EstimatedDurationMinutes = duration / 60
	} else {
		// No probed duration (audio-only inputs never run the transcoder).
		// Compressed speech lands near one megabyte per minute.
		usage.EstimatedDurationMinutes = sizeMB
	}
	return usage
}
