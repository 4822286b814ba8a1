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

package media_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zeebo/assert"

	"github.com/jaycherian/go-media-insights/internal/core/media"
	"github.com/jaycherian/go-media-insights/internal/core/model"
)

func TestLocateFFmpegHonorsOverride(t *testing.T) {
	fake := filepath.Join(t.TempDir(), "ffmpeg")
	assert.NoError(t, os.WriteFile(fake, []byte("#!/bin/sh\n"), 0o755))
	t.Setenv(media.EnvFFmpegPath, fake)

	path, err := media.LocateFFmpeg()
	assert.NoError(t, err)
	assert.Equal(t, fake, path)
}

func TestLocateFFmpegBrokenOverrideIsToolMissing(t *testing.T) {
	// An explicit override that points nowhere must fail loudly rather than
	// silently falling through to discovery.
	t.Setenv(media.EnvFFmpegPath, filepath.Join(t.TempDir(), "no-such-binary"))

	_, err := media.LocateFFmpeg()
	assert.Error(t, err)

	var extractionErr *model.ExtractionError
	assert.True(t, errors.As(err, &extractionErr))
	assert.True(t, extractionErr.ToolMissing)
}
