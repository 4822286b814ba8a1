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
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/zeebo/assert"

	"github.com/jaycherian/go-media-insights/internal/core/commands"
	"github.com/jaycherian/go-media-insights/internal/core/cor"
	"github.com/jaycherian/go-media-insights/internal/core/media"
	"github.com/jaycherian/go-media-insights/internal/core/model"
)

// newCtx builds a pipeline context seeded with a Go context, the way the
// HTTP handler does before executing a workflow.
func newCtx(t *testing.T) cor.Context {
	t.Helper()
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	t.Cleanup(ctx.Close)
	return ctx
}

func TestMediaDownloadFetchesToTempFile(t *testing.T) {
	payload := []byte("fake mp3 payload")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	ctx := newCtx(t)
	ctx.Add(cor.CtxIn, &model.MediaRequest{URL: server.URL + "/clip.mp3"})

	download := commands.NewMediaDownload("media_download", 5)
	download.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	result := ctx.Get(commands.KeyDownload).(*model.DownloadResult)
	assert.Equal(t, int64(len(payload)), result.SizeBytes)
	assert.Equal(t, "audio/mpeg", result.ContentType)

	// The fetched bytes landed on disk and the file is tracked for cleanup.
	onDisk, err := os.ReadFile(result.Path)
	assert.NoError(t, err)
	assert.Equal(t, string(payload), string(onDisk))
	assert.Equal(t, 1, len(ctx.GetTempFiles()))

	ctx.Close()
	_, err = os.Stat(result.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestMediaDownloadFailsOnErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	ctx := newCtx(t)
	ctx.Add(cor.CtxIn, &model.MediaRequest{URL: server.URL + "/missing.mp3"})

	download := commands.NewMediaDownload("media_download", 5)
	download.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	var downloadErr *model.DownloadError
	assert.True(t, errors.As(firstError(ctx), &downloadErr))
}

func TestMediaDownloadFailsOnUnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	ctx := newCtx(t)
	ctx.Add(cor.CtxIn, &model.MediaRequest{URL: url + "/clip.mp3"})

	download := commands.NewMediaDownload("media_download", 5)
	download.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	var downloadErr *model.DownloadError
	assert.True(t, errors.As(firstError(ctx), &downloadErr))
}

func TestMediaDownloadPassesThroughLocalResult(t *testing.T) {
	ctx := newCtx(t)
	local := &model.DownloadResult{Path: "/tmp/already-here.mp4", ContentType: "video/mp4"}
	ctx.Add(cor.CtxIn, local)

	download := commands.NewMediaDownload("media_download", 5)
	download.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Equal(t, local, ctx.Get(commands.KeyDownload).(*model.DownloadResult))
	assert.Equal(t, local, ctx.Get(cor.CtxOut).(*model.DownloadResult))
	// The caller owns the file, so nothing was registered for cleanup.
	assert.Equal(t, 0, len(ctx.GetTempFiles()))
}

func TestFileKindClassifyRoutesAudioStraightToUpload(t *testing.T) {
	ctx := newCtx(t)
	download := &model.DownloadResult{Path: "/tmp/clip.mp3", ContentType: "audio/mpeg"}
	ctx.Add(cor.CtxIn, download)

	classify := commands.NewFileKindClassify("file_kind_classify")
	classify.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Equal(t, media.AudioOnly, ctx.Get(commands.KeyFileKind).(media.FileKind))
	assert.Equal(t, download.Path, ctx.Get(commands.KeyUploadPath).(string))
}

func TestFileKindClassifyLeavesUploadToExtractionForVideo(t *testing.T) {
	ctx := newCtx(t)
	ctx.Add(cor.CtxIn, &model.DownloadResult{Path: "/tmp/clip.mp4", ContentType: "video/mp4"})

	classify := commands.NewFileKindClassify("file_kind_classify")
	classify.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Equal(t, media.NeedsExtraction, ctx.Get(commands.KeyFileKind).(media.FileKind))
	assert.Nil(t, ctx.Get(commands.KeyUploadPath))
}

// firstError pulls the single recorded error out of the context.
func firstError(ctx cor.Context) error {
	for _, err := range ctx.GetErrors() {
		return err
	}
	return nil
}
