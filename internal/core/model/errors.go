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

// Package model defines the core data structures for the application.
// This file defines the error taxonomy for the request pipeline. Every fatal
// failure surfaced by a pipeline stage is one of these types, so the single
// error boundary in the HTTP handler can map failures to status codes and
// messages without string matching.
package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for client- and operator-caused failures.
var (
	// ErrMissingURL indicates the request body had no usable url field.
	ErrMissingURL = errors.New("url is required and must be a string")

	// ErrMissingCredential indicates the provider API key is not configured
	// on the server. Client retries cannot fix this.
	ErrMissingCredential = errors.New("provider API key is not configured")
)

// DownloadError wraps a failure to fetch the source media.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("failed to download media from %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ExtractionError wraps a failure of the external transcoding tool. The
// ToolMissing flag distinguishes "tool not found" from "tool execution
// failed" so the error message can guide operator remediation.
type ExtractionError struct {
	ToolMissing bool
	Err         error
}

func (e *ExtractionError) Error() string {
	if e.ToolMissing {
		return fmt.Sprintf("transcoding tool not found: %v", e.Err)
	}
	return fmt.Sprintf("transcoding tool execution failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// FileTooLargeError indicates the file to be uploaded exceeds the
// transcription API's ceiling. The message states actual vs. limit size.
type FileTooLargeError struct {
	SizeMB  float64
	LimitMB float64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file size %.2f MB exceeds the %.0f MB transcription upload limit", e.SizeMB, e.LimitMB)
}

// TranscriptionError wraps a provider failure in the speech-to-text stage.
// Transcription is on the critical path, so this error is always fatal to
// the request.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }
