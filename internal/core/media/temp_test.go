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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zeebo/assert"

	"github.com/jaycherian/go-media-insights/internal/core/media"
)

func TestNewTempPath(t *testing.T) {
	first := media.NewTempPath("media-download", ".mp3")
	second := media.NewTempPath("media-download", ".mp3")

	assert.True(t, strings.HasPrefix(first, os.TempDir()))
	assert.True(t, strings.HasSuffix(first, ".mp3"))
	assert.True(t, strings.Contains(filepath.Base(first), "media-download-"))

	// Two paths generated back-to-back must not collide.
	assert.True(t, first != second)
}

func TestCreateTempFile(t *testing.T) {
	f, err := media.CreateTempFile("temp-test", ".bin")
	assert.NoError(t, err)
	defer func() {
		_ = f.Close()
		_ = os.Remove(f.Name())
	}()

	_, err = f.WriteString("payload")
	assert.NoError(t, err)

	// The exclusive-create flag means recreating the same path must fail.
	_, err = os.OpenFile(f.Name(), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	assert.Error(t, err)
}

func TestCreateTempDir(t *testing.T) {
	dir, err := media.CreateTempDir("frames-test")
	assert.NoError(t, err)
	defer func() { _ = os.RemoveAll(dir) }()

	info, err := os.Stat(dir)
	assert.NoError(t, err)
	assert.True(t, info.IsDir())
}
