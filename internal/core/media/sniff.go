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

// Magic-byte sniffing for downloaded files whose URL and response headers
// give no usable container hint. Sniffing only names the temp file; it never
// participates in the audio/video classification decision, which runs on the
// declared content type and URL extension alone.
package media

import (
	"github.com/h2non/filetype"
)

// DetectExtension sniffs the file's magic bytes and returns its extension
// with a leading dot, or ".bin" when the type is unknown. The returned
// extension gives ffmpeg a correctly-suffixed input name.
func DetectExtension(path string) string {
	kind, err := filetype.MatchFile(path)
	if err != nil || kind == filetype.Unknown {
		return ".bin"
	}
	return "." + kind.Extension
}
