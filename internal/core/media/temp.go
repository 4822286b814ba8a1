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

// Temporary path management for the media pipelines. Every intermediate
// artifact (downloaded media, extracted audio, sampled frames) lives under
// the OS temp directory with a collision-resistant name, and every created
// path is registered on the request context so cleanup happens exactly once
// when the request finishes.
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewTempPath builds a unique path under the OS temp directory. The name
// combines a millisecond timestamp with a UUID fragment: the timestamp keeps
// names sortable when debugging a dirty temp dir, the fragment makes
// collisions between concurrent requests practically impossible. ext should
// include the leading dot (".mp3"); an empty ext is allowed.
func NewTempPath(prefix string, ext string) string {
	fragment := strings.Split(uuid.NewString(), "-")[0]
	name := fmt.Sprintf("%s-%d-%s%s", prefix, time.Now().UnixMilli(), fragment, ext)
	return filepath.Join(os.TempDir(), name)
}

// CreateTempFile creates a new temp file at a NewTempPath location. O_EXCL
// turns the astronomically unlikely name collision into an explicit error
// instead of a silent overwrite of another request's artifact.
func CreateTempFile(prefix string, ext string) (*os.File, error) {
	path := NewTempPath(prefix, ext)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file %s: %w", path, err)
	}
	return f, nil
}

// CreateTempDir creates a new uniquely-named directory under the OS temp
// directory, used to hold the sampled frames of one video-analysis run.
func CreateTempDir(prefix string) (string, error) {
	path := NewTempPath(prefix, "")
	if err := os.Mkdir(path, 0o700); err != nil {
		return "", fmt.Errorf("failed to create temp dir %s: %w", path, err)
	}
	return path, nil
}
