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

// Package cor (Chain of Responsibility) provides the building blocks for the
// media-processing pipelines. This file defines `BaseContext`, the default
// implementation of the `Context` interface.
//
// The Context is the scoped-resource ledger for one request. Each command can
// read data from the context, perform its work, and write results back for
// subsequent commands. In addition to the data and error maps it tracks:
//   - every temporary file and directory allocated during the request, which
//     `Close` releases best-effort exactly once on every exit path;
//   - the wall-clock duration of each pipeline stage, which the response
//     assembler folds into the reply metadata;
//   - a standard Go `context.Context` for cancellation and OpenTelemetry spans.
package cor

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

// BaseContext is the default implementation of the Context interface. It holds
// the shared state for a single pipeline execution. A BaseContext is owned by
// exactly one request, but fan-out stages (enrichment, frame workers) touch
// it from several goroutines at once, so every accessor holds the mutex.
type BaseContext struct {
	mu        sync.Mutex             // Guards all fields below.
	data      map[string]interface{} // Arbitrary key-value data shared between commands.
	errors    map[string]error       // Errors keyed by the command name that produced them.
	tempFiles []string               // Paths of temporary files to delete on Close.
	tempDirs  []string               // Paths of temporary directories to remove recursively on Close.
	timings   map[string]int64       // Elapsed milliseconds per pipeline stage.
	closed    bool                   // Guards against draining the release list twice.
	context   context.Context        // The standard Go context for cancellation and tracing.
}

// NewBaseContext is the constructor for BaseContext.
// It initializes all the internal maps and slices to ensure they are ready for use.
func NewBaseContext() Context {
	return &BaseContext{
		data:      make(map[string]interface{}),
		errors:    make(map[string]error),
		tempFiles: make([]string, 0),
		tempDirs:  make([]string, 0),
		timings:   make(map[string]int64),
	}
}

// SetContext sets the underlying standard Go context. The BaseChain uses this
// to scope each command's OpenTelemetry span.
func (c *BaseContext) SetContext(context context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.context = context
}

// GetContext retrieves the underlying standard Go context.
func (c *BaseContext) GetContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.context
}

// Close drains the release list: every tracked temporary file and directory
// is removed. Removal is best-effort; a path that is already gone is not an
// error, and failures are logged rather than raised so that cleanup can never
// alter the outcome of the request. Subsequent calls are no-ops.
func (c *BaseContext) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	files := c.tempFiles
	dirs := c.tempDirs
	c.mu.Unlock()
	for _, file := range files {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove temporary file", "path", file, "error", err)
		}
	}
	for _, dir := range dirs {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("failed to remove temporary directory", "path", dir, "error", err)
		}
	}
}

// Add stores a key-value pair in the context's data map. It returns the
// context instance, allowing for fluent method chaining.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return c
}

// AddTempFile adds a file path to the list of temporary files that need cleanup.
func (c *BaseContext) AddTempFile(file string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tempFiles = append(c.tempFiles, file)
}

// AddTempDir adds a directory path to the list of temporary directories that
// need recursive cleanup.
func (c *BaseContext) AddTempDir(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tempDirs = append(c.tempDirs, dir)
}

// GetTempFiles returns the slice of all tracked temporary file paths.
func (c *BaseContext) GetTempFiles() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.tempFiles))
	copy(out, c.tempFiles)
	return out
}

// AddTiming records the elapsed duration of a named pipeline stage in
// milliseconds. Recording the same stage twice keeps the latest value.
func (c *BaseContext) AddTiming(stage string, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timings[stage] = elapsed.Milliseconds()
}

// GetTimings returns the per-stage elapsed milliseconds recorded so far.
func (c *BaseContext) GetTimings() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.timings))
	for k, v := range c.timings {
		out[k] = v
	}
	return out
}

// AddError adds an error to the context's error map, keyed by the command name.
func (c *BaseContext) AddError(key string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors[key] = err
}

// GetErrors returns the map of all errors collected during the workflow.
func (c *BaseContext) GetErrors() map[string]error {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]error, len(c.errors))
	for k, v := range c.errors {
		out[k] = v
	}
	return out
}

// Get retrieves a value from the context's data map by its key, or nil if the
// key does not exist.
func (c *BaseContext) Get(key string) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key]
}

// Remove deletes a key-value pair from the context's data map.
func (c *BaseContext) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// HasErrors checks if any errors have been added to the context.
func (c *BaseContext) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors) > 0
}
