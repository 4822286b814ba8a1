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

// Package media provides the local media-handling primitives of the service:
// file-kind classification, temporary path management, and the transcoder
// boundary around the external ffmpeg tool.
//
// This file implements the file-kind classifier: a pure decision function
// over two enumerated lookup tables (MIME patterns and file extensions) that
// decides whether a downloaded file can be uploaded for transcription as-is
// or needs its audio track extracted first.
package media

import (
	"path/filepath"
	"strings"
)

// FileKind is the classifier's verdict for a downloaded media file.
type FileKind int

const (
	// AudioOnly means the file can be submitted to the transcription API
	// directly.
	AudioOnly FileKind = iota
	// NeedsExtraction means the file must go through audio extraction before
	// transcription.
	NeedsExtraction
)

func (k FileKind) String() string {
	if k == AudioOnly {
		return "audio-only"
	}
	return "needs-extraction"
}

// The classification tables. Keeping these as package-level fixtures (rather
// than string literals scattered through the decision code) keeps the
// precedence rule auditable and independently testable.
var (
	// videoMIMEPrefixes match content types that are definitively video.
	videoMIMEPrefixes = []string{"video/"}

	// audioMIMEPrefixes match content types that are definitively audio.
	audioMIMEPrefixes = []string{"audio/"}

	// audioOnlyExtensions are containers that are never video.
	audioOnlyExtensions = map[string]bool{
		".mp3":  true,
		".wav":  true,
		".m4a":  true,
		".flac": true,
		".aac":  true,
		".ogg":  true,
		".mpga": true,
	}

	// ambiguousExtensions are containers that can hold either audio or
	// video. Without content-type evidence they are treated as video.
	ambiguousExtensions = map[string]bool{
		".mp4":  true,
		".mpeg": true,
		".webm": true,
	}
)

// Classify decides the FileKind for a downloaded file. The decision
// precedence, highest first:
//
//  1. A video content type always means extraction, regardless of extension.
//  2. An audio content type always means audio-only.
//  3. An unambiguous audio extension means audio-only.
//  4. An ambiguous extension (mp4, mpeg, webm) means extraction.
//  5. Anything else means extraction.
//
// Content-type evidence always outranks extension evidence, and ambiguity
// always resolves toward the extraction path: extracting audio from an
// already-audio file wastes a little work, but submitting an unextracted
// video as "audio" fails the transcription outright.
func Classify(path string, contentType string) FileKind {
	ct := normalizeContentType(contentType)

	for _, prefix := range videoMIMEPrefixes {
		if strings.HasPrefix(ct, prefix) {
			return NeedsExtraction
		}
	}
	for _, prefix := range audioMIMEPrefixes {
		if strings.HasPrefix(ct, prefix) {
			return AudioOnly
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if audioOnlyExtensions[ext] {
		return AudioOnly
	}
	if ambiguousExtensions[ext] {
		return NeedsExtraction
	}
	return NeedsExtraction
}

// normalizeContentType lower-cases the media type and strips any parameters
// (e.g. "Audio/MPEG; charset=binary" -> "audio/mpeg").
func normalizeContentType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	return ct
}
