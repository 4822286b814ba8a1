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

// This file defines the command that fetches the source media over HTTP to a
// local temporary file.
//
// Logic Flow:
//  1. Receives a `model.MediaRequest` from the context. A pre-fetched
//     `model.DownloadResult` passes through unchanged instead.
//  2. Issues a GET for the URL with a bounded timeout.
//  3. Streams the body to a temp file named after the URL's extension; when
//     the URL carries no extension the file's magic bytes choose one, so the
//     transcoding tool always sees a correctly-suffixed input.
//  4. Registers the temp file for cleanup BEFORE writing a single byte, so a
//     failed or partial download still gets removed.
//  5. Publishes a `model.DownloadResult` (path, size, declared content type)
//     for the classifier.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/jaycherian/go-media-insights/internal/core/cor"
	"github.com/jaycherian/go-media-insights/internal/core/media"
	"github.com/jaycherian/go-media-insights/internal/core/model"
)

const downloadTempPrefix = "media-download"

// MediaDownload is a command implementation that fetches the request URL to
// a local temporary file.
type MediaDownload struct {
	cor.BaseCommand              // Embeds the BaseCommand for naming and metrics.
	client          *http.Client // The HTTP client used for fetches; bounded by the configured timeout.
}

// NewMediaDownload is the constructor for creating a new MediaDownload
// command. timeoutSeconds bounds the whole fetch, headers to last byte.
func NewMediaDownload(name string, timeoutSeconds int) *MediaDownload {
	return &MediaDownload{
		BaseCommand: *cor.NewBaseCommand(name),
		client:      &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
	}
}

// Execute contains the core logic for downloading the source media. A caller
// that already has the media on a local path seeds a DownloadResult instead
// of a MediaRequest; the fetch then passes it through untouched, and the file
// stays owned by the caller (it is not registered for cleanup).
func (c *MediaDownload) Execute(context cor.Context) {
	if local, ok := context.Get(c.GetInputParam()).(*model.DownloadResult); ok {
		c.GetSuccessCounter().Add(context.GetContext(), 1)
		context.Add(KeyDownload, local)
		context.Add(c.GetOutputParam(), local)
		return
	}

	request := context.Get(c.GetInputParam()).(*model.MediaRequest)
	context.Add(KeyRequest, request)

	start := time.Now()
	defer func() { context.AddTiming(StageDownload, time.Since(start)) }()

	resp, err := c.client.Get(request.URL)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.DownloadError{URL: request.URL, Err: err})
		return
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close download body", "url", request.URL, "error", err)
		}
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.DownloadError{
			URL: request.URL,
			Err: fmt.Errorf("server responded with status %d", resp.StatusCode),
		})
		return
	}

	tempPath := media.NewTempPath(downloadTempPrefix, urlExtension(request.URL))
	// Register for cleanup before writing: a partial download must not
	// outlive the request.
	context.AddTempFile(tempPath)

	out, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("could not create temp file: %w", err))
		return
	}

	// io.Copy streams in chunks, so even multi-gigabyte media never sits in
	// memory whole.
	written, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.DownloadError{URL: request.URL, Err: err})
		return
	}

	// A URL with no extension yields a ".bin" temp file; let the magic bytes
	// rename it so downstream tools see a real container suffix.
	finalPath := tempPath
	if strings.HasSuffix(tempPath, ".bin") {
		sniffed := strings.TrimSuffix(tempPath, ".bin") + media.DetectExtension(tempPath)
		if sniffed != tempPath {
			if err := os.Rename(tempPath, sniffed); err == nil {
				context.AddTempFile(sniffed)
				finalPath = sniffed
			}
		}
	}

	result := &model.DownloadResult{
		Path:        finalPath,
		SizeBytes:   written,
		SizeMB:      float64(written) / (1024 * 1024),
		ContentType: resp.Header.Get("Content-Type"),
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.InfoContext(context.GetContext(), "downloaded media",
		"url", request.URL,
		"path", finalPath,
		"sizeMB", fmt.Sprintf("%.2f", result.SizeMB),
		"contentType", result.ContentType)

	context.Add(KeyDownload, result)
	context.Add(c.GetOutputParam(), result)
}

// urlExtension pulls a lower-cased extension off the URL path, ignoring any
// query string. URLs without one get ".bin" and are sniffed after download.
func urlExtension(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ".bin"
	}
	ext := strings.ToLower(path.Ext(parsed.Path))
	if ext == "" {
		return ".bin"
	}
	return ext
}
