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
// This file, `transient.go`, contains struct definitions for data models that
// exist only for the lifetime of a single request: nothing here is persisted.
// The structs mirror the JSON shapes exchanged with the HTTP client and with
// the external model provider.
package model

// MediaRequest is the inbound payload for the transcription endpoint. It is
// created once from the request body and treated as immutable afterwards.
type MediaRequest struct {
	URL                 string `json:"url"`                           // The remote media resource to process.
	SummarizationPrompt string `json:"summarizationPrompt,omitempty"` // Optional custom prompt for the summary stage.
}

// DownloadResult describes a media file fetched to local disk: where it
// landed, how large it is, and what content type the origin declared.
type DownloadResult struct {
	Path        string  `json:"path"`
	SizeBytes   int64   `json:"sizeBytes"`
	SizeMB      float64 `json:"sizeMB"`
	ContentType string  `json:"contentType"`
}

// TokenUsage holds the provider-reported token counts for one model call.
// Usages are summable across stages via component-wise addition.
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Add returns the component-wise sum of two usages.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}

// WhisperUsage approximates the cost of a transcription call. The speech API
// does not report token counts, so cost accounting is done on audio minutes
// and upload size instead.
type WhisperUsage struct {
	EstimatedDurationMinutes float64 `json:"estimatedDurationMinutes"`
	AudioSizeMB              float64 `json:"audioSizeMB"`
}

// TranscriptionResult is the output of the speech-to-text stage. It is
// immutable once produced and feeds the sentiment and summary stages as a
// read-only fan-out.
type TranscriptionResult struct {
	Text             string `json:"text"`
	Length           int    `json:"length"`
	WordCount        int    `json:"wordCount"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
}

// SentimentResult is the output of the sentiment classification stage. On a
// provider failure the stage substitutes the neutral fallback (see
// FallbackSentiment) and sets Error rather than propagating the failure.
type SentimentResult struct {
	Sentiment        string     `json:"sentiment"` // One of: positive, negative, neutral, mixed.
	Confidence       float64    `json:"confidence"`
	Emotions         []string   `json:"emotions"`
	Summary          string     `json:"summary"`
	Error            bool       `json:"error"`
	ProcessingTimeMs int64      `json:"processingTimeMs"`
	TokenUsage       TokenUsage `json:"tokenUsage"`
}

// FallbackSentiment is the degraded value substituted when the sentiment
// provider call fails or returns an unparseable payload.
func FallbackSentiment() *SentimentResult {
	return &SentimentResult{
		Sentiment:  "neutral",
		Confidence: 0,
		Emotions:   []string{},
		Summary:    "Sentiment analysis unavailable",
		Error:      true,
	}
}

// SummaryResult is the output of the summarization stage, with the same
// degrade-on-failure policy as sentiment.
type SummaryResult struct {
	Summary    string     `json:"summary"`
	TokenUsage TokenUsage `json:"tokenUsage"`
	Error      bool       `json:"error"`
}

// FallbackSummary is the degraded value substituted when the summarization
// provider call fails.
func FallbackSummary() *SummaryResult {
	return &SummaryResult{Summary: "Summary unavailable", Error: true}
}

// PersonDetail is the model's free-form description of one person in a frame.
type PersonDetail struct {
	Description string `json:"description,omitempty"`
	Position    string `json:"position,omitempty"`
	Activity    string `json:"activity,omitempty"`
}

// PeopleObservation groups the people-related fields of a scene analysis.
// Count is a pointer: a missing count is distinct from an observed zero and
// is excluded from aggregation denominators.
type PeopleObservation struct {
	Count   *int           `json:"count"`
	Details []PersonDetail `json:"details,omitempty"`
}

// LocationObservation describes where the model believes a frame was shot.
type LocationObservation struct {
	Type             string `json:"type,omitempty"` // indoor, outdoor, unknown
	Description      string `json:"description,omitempty"`
	SpecificLocation string `json:"specificLocation,omitempty"`
}

// SceneAnalysis is the loosely-structured JSON object the vision model
// returns for a single frame. Every field is optional; the aggregator must
// tolerate any subset being absent.
type SceneAnalysis struct {
	People           PeopleObservation   `json:"people"`
	Activities       []string            `json:"activities,omitempty"`
	Location         LocationObservation `json:"location"`
	Objects          []string            `json:"objects,omitempty"`
	SceneDescription string              `json:"sceneDescription,omitempty"`
	Mood             string              `json:"mood,omitempty"`
	CameraAngle      string              `json:"cameraAngle,omitempty"`
	Lighting         string              `json:"lighting,omitempty"`
	VideoQuality     string              `json:"videoQuality,omitempty"`
}

// FrameAnalysis pairs one sampled frame with its scene analysis. Failed
// frames are absent from the result collection entirely, so FrameIndex is
// not guaranteed to be contiguous across a batch.
type FrameAnalysis struct {
	FrameIndex       int           `json:"frameIndex"`
	TimestampSeconds float64       `json:"timestampSeconds"`
	Analysis         SceneAnalysis `json:"analysis"`
	TokenUsage       TokenUsage    `json:"tokenUsage"`
}

// PeopleCountStats summarizes the numeric people counts across frames.
type PeopleCountStats struct {
	Min     int     `json:"min"`
	Max     int     `json:"max"`
	Average float64 `json:"average"`
}

// LocationStats lists every distinct location string seen plus the most
// frequent one (ties broken by first encountered).
type LocationStats struct {
	All        []string `json:"all"`
	MostCommon string   `json:"mostCommon"`
}

// AggregatedAnalysis is the derived, read-only view over a collection of
// frame analyses. It is recomputed fresh on each call and never persisted.
type AggregatedAnalysis struct {
	PeopleCount   PeopleCountStats `json:"peopleCount"`
	Activities    []string         `json:"activities"`
	Locations     LocationStats    `json:"locations"`
	CommonObjects []string         `json:"commonObjects"`
	PeopleDetails []PersonDetail   `json:"peopleDetails"`
}

// ProcessingTimes carries the per-stage wall-clock durations, in
// milliseconds, reported in the transcription response metadata.
type ProcessingTimes struct {
	Download      int64 `json:"download"`
	Extraction    int64 `json:"extraction"`
	Transcription int64 `json:"transcription"`
	Sentiment     int64 `json:"sentiment"`
	Summarization int64 `json:"summarization"`
	Cleanup       int64 `json:"cleanup"`
	Total         int64 `json:"total"`
}

// TokenUsageBreakdown is the per-stage cost accounting in the transcription
// response. Total is always the field-wise sum of the chat-stage usages.
type TokenUsageBreakdown struct {
	Whisper       WhisperUsage `json:"whisper"`
	Sentiment     TokenUsage   `json:"sentiment"`
	Summarization TokenUsage   `json:"summarization"`
	Total         TokenUsage   `json:"total"`
}

// TranscribeMetadata is the metadata block of a successful transcription
// response.
type TranscribeMetadata struct {
	TranscriptionLength int                 `json:"transcriptionLength"`
	WordCount           int                 `json:"wordCount"`
	ProcessingTimes     ProcessingTimes     `json:"processingTimes"`
	TokenUsage          TokenUsageBreakdown `json:"tokenUsage"`
	FileWasAudio        bool                `json:"fileWasAudio"`
}

// TranscribeResponse is the 200 payload for POST /api/transcribe.
type TranscribeResponse struct {
	URL           string             `json:"url"`
	Transcription string             `json:"transcription"`
	Sentiment     *SentimentResult   `json:"sentiment"`
	Summary       string             `json:"summary"`
	Metadata      TranscribeMetadata `json:"metadata"`
}

// VideoAnalysisMetadata is the metadata block of a video-analysis result.
type VideoAnalysisMetadata struct {
	FramesAnalyzed   int        `json:"framesAnalyzed"`
	IntervalSeconds  float64    `json:"intervalSeconds"`
	ProcessingTimeMs int64      `json:"processingTimeMs"`
	TokenUsage       TokenUsage `json:"tokenUsage"`
}

// VideoAnalysisResult is the output of the independently-invocable
// frame-sampling pipeline. Summary is the cross-frame narrative object, or
// nil when the narrative call failed or no frames survived analysis.
type VideoAnalysisResult struct {
	Summary            map[string]interface{} `json:"summary"`
	FrameAnalyses      []FrameAnalysis        `json:"frameAnalyses"`
	AggregatedAnalysis *AggregatedAnalysis    `json:"aggregatedAnalysis"`
	Metadata           VideoAnalysisMetadata  `json:"metadata"`
}
