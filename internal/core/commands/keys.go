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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface: one command per stage of
// the transcription pipeline. This file defines the well-known context keys
// the stages use to share state beyond the chain's input/output piping, and
// the stage names under which timings are recorded.
package commands

// Context keys for cross-stage state. The chain's CtxIn/CtxOut piping covers
// the primary data flow; these keys carry state that later, non-adjacent
// stages need (for example, the response assembler reads nearly all of them).
const (
	KeyRequest       = "media_request"        // *model.MediaRequest: the validated inbound request.
	KeyDownload      = "download_result"      // *model.DownloadResult: the fetched media file.
	KeyFileKind      = "file_kind"            // media.FileKind: the classifier verdict.
	KeyUploadPath    = "upload_path"          // string: the file that will be sent for transcription.
	KeyAudioDuration = "audio_duration_secs"  // float64: probed duration of the upload file, when known.
	KeyTranscription = "transcription_result" // *model.TranscriptionResult.
	KeyWhisperUsage  = "whisper_usage"        // model.WhisperUsage: estimated transcription cost.
	KeySentiment     = "sentiment_result"     // *model.SentimentResult (possibly the fallback).
	KeySummary       = "summary_result"       // *model.SummaryResult (possibly the fallback).
	KeyResponse      = "transcribe_response"  // *model.TranscribeResponse: the assembled reply.
)

// Stage names for timing entries. The response assembler maps these onto the
// processingTimes block of the reply.
const (
	StageDownload      = "download"
	StageExtraction    = "extraction"
	StageTranscription = "transcription"
	StageSentiment     = "sentiment"
	StageSummarization = "summarization"
	StageCleanup       = "cleanup"
	StageTotal         = "total"
)
