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
	"strings"
	"testing"

	"github.com/zeebo/assert"

	"github.com/jaycherian/go-media-insights/internal/core/commands"
	"github.com/jaycherian/go-media-insights/internal/core/cor"
	"github.com/jaycherian/go-media-insights/internal/core/media"
	"github.com/jaycherian/go-media-insights/internal/core/model"
	test "github.com/jaycherian/go-media-insights/internal/testutil"
)

func TestAudioExtractSkipsForAudioOnlyInputs(t *testing.T) {
	ctx := newCtx(t)
	ctx.Add(commands.KeyDownload, &model.DownloadResult{Path: "/tmp/clip.mp3"})
	ctx.Add(commands.KeyFileKind, media.AudioOnly)

	extract := commands.NewAudioExtract("audio_extract", test.NewStubTranscoder(30))
	assert.False(t, extract.IsExecutable(ctx))
}

func TestAudioExtractSkipsWithoutClassifierVerdict(t *testing.T) {
	ctx := newCtx(t)
	ctx.Add(commands.KeyDownload, &model.DownloadResult{Path: "/tmp/clip.mp4"})

	extract := commands.NewAudioExtract("audio_extract", test.NewStubTranscoder(30))
	assert.False(t, extract.IsExecutable(ctx))
}

func TestAudioExtractProducesUploadCandidate(t *testing.T) {
	ctx := newCtx(t)
	ctx.Add(commands.KeyDownload, &model.DownloadResult{Path: "/tmp/clip.mp4", SizeMB: 10})
	ctx.Add(commands.KeyFileKind, media.NeedsExtraction)

	stub := test.NewStubTranscoder(90)
	extract := commands.NewAudioExtract("audio_extract", stub)
	assert.True(t, extract.IsExecutable(ctx))
	extract.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	uploadPath := ctx.Get(commands.KeyUploadPath).(string)
	assert.True(t, strings.HasSuffix(uploadPath, ".mp3"))

	// The extracted file exists, is tracked for cleanup, and its probed
	// duration is published for the cost estimate.
	_, err := os.Stat(uploadPath)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(ctx.GetTempFiles()))
	assert.Equal(t, 90.0, ctx.Get(commands.KeyAudioDuration).(float64))

	// The extraction timing is recorded even on the fast path.
	_, ok := ctx.GetTimings()[commands.StageExtraction]
	assert.True(t, ok)
}

func TestAudioExtractFailsWithoutTranscoder(t *testing.T) {
	ctx := newCtx(t)
	ctx.Add(commands.KeyDownload, &model.DownloadResult{Path: "/tmp/clip.mp4"})
	ctx.Add(commands.KeyFileKind, media.NeedsExtraction)

	extract := commands.NewAudioExtract("audio_extract", nil)
	extract.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	var extractionErr *model.ExtractionError
	assert.True(t, errors.As(firstError(ctx), &extractionErr))
	assert.True(t, extractionErr.ToolMissing)
}

func TestAudioExtractFailsWhenToolFails(t *testing.T) {
	ctx := newCtx(t)
	ctx.Add(commands.KeyDownload, &model.DownloadResult{Path: "/tmp/clip.mp4"})
	ctx.Add(commands.KeyFileKind, media.NeedsExtraction)

	stub := test.NewStubTranscoder(30)
	stub.FailExtract = true
	extract := commands.NewAudioExtract("audio_extract", stub)
	extract.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	// The output path was registered before the tool ran, so the partial
	// output is still released on Close.
	assert.Equal(t, 1, len(ctx.GetTempFiles()))
}

func TestSizeCheckAcceptsFileUnderLimit(t *testing.T) {
	ctx := newCtx(t)
	path := filepath.Join(t.TempDir(), "small.mp3")
	assert.NoError(t, os.WriteFile(path, []byte("tiny"), 0o600))
	ctx.Add(commands.KeyUploadPath, path)

	check := commands.NewSizeCheck("size_check", 25)
	check.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Equal(t, path, ctx.Get(cor.CtxOut).(string))
}

func TestSizeCheckRejectsOversizedFile(t *testing.T) {
	ctx := newCtx(t)
	path := filepath.Join(t.TempDir(), "big.mp3")
	assert.NoError(t, os.WriteFile(path, make([]byte, 2*1024*1024), 0o600))
	ctx.Add(commands.KeyUploadPath, path)

	check := commands.NewSizeCheck("size_check", 1)
	check.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	var tooLarge *model.FileTooLargeError
	assert.True(t, errors.As(firstError(ctx), &tooLarge))
	assert.Equal(t, 1.0, tooLarge.LimitMB)
}

func TestSizeCheckFailsOnMissingFile(t *testing.T) {
	ctx := newCtx(t)
	ctx.Add(commands.KeyUploadPath, filepath.Join(t.TempDir(), "gone.mp3"))

	check := commands.NewSizeCheck("size_check", 25)
	check.Execute(ctx)

	assert.True(t, ctx.HasErrors())
}
