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

package commands_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zeebo/assert"

	"github.com/jaycherian/go-media-insights/internal/core/commands"
	"github.com/jaycherian/go-media-insights/internal/core/model"
	test "github.com/jaycherian/go-media-insights/internal/testutil"
)

// writeUpload drops a file of exactly one megabyte so the size-derived cost
// estimate has a predictable value.
func writeUpload(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.mp3")
	assert.NoError(t, os.WriteFile(path, make([]byte, 1024*1024), 0o600))
	return path
}

func TestTranscribeProducesTranscript(t *testing.T) {
	ctx := newCtx(t)
	ctx.Add(commands.KeyUploadPath, writeUpload(t))

	transcribe := commands.NewTranscribe("transcribe", &test.FakeTranscriber{Text: "hello there world"}, "whisper-1")
	transcribe.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	result := ctx.Get(commands.KeyTranscription).(*model.TranscriptionResult)
	assert.Equal(t, "hello there world", result.Text)
	assert.Equal(t, len("hello there world"), result.Length)
	assert.Equal(t, 3, result.WordCount)

	// No probed duration on the context, so the estimate falls back to the
	// one-megabyte-per-minute heuristic.
	usage := ctx.Get(commands.KeyWhisperUsage).(model.WhisperUsage)
	assert.Equal(t, 1.0, usage.AudioSizeMB)
	assert.Equal(t, 1.0, usage.EstimatedDurationMinutes)
}

func TestTranscribePrefersProbedDurationForEstimate(t *testing.T) {
	ctx := newCtx(t)
	ctx.Add(commands.KeyUploadPath, writeUpload(t))
	ctx.Add(commands.KeyAudioDuration, 120.0)

	transcribe := commands.NewTranscribe("transcribe", &test.FakeTranscriber{Text: "ok"}, "whisper-1")
	transcribe.Execute(ctx)

	usage := ctx.Get(commands.KeyWhisperUsage).(model.WhisperUsage)
	assert.Equal(t, 2.0, usage.EstimatedDurationMinutes)
}

func TestTranscribeFailureIsFatal(t *testing.T) {
	ctx := newCtx(t)
	ctx.Add(commands.KeyUploadPath, writeUpload(t))

	transcribe := commands.NewTranscribe("transcribe", &test.FakeTranscriber{Fail: true}, "whisper-1")
	transcribe.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	var transcriptionErr *model.TranscriptionError
	assert.True(t, errors.As(firstError(ctx), &transcriptionErr))
	assert.Nil(t, ctx.Get(commands.KeyTranscription))
}
