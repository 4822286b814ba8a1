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

// This file defines the final pipeline stage: it folds everything the
// earlier stages left on the context into the response payload. Missing
// enrichment results are replaced by their fallbacks here as a last line of
// defense, so the response shape is always complete. The cleanup and total
// timings are filled in by the HTTP handler after the deferred context close
// runs; this stage only assembles what the pipeline itself measured.
package commands

import (
	"github.com/jaycherian/go-media-insights/internal/core/cor"
	"github.com/jaycherian/go-media-insights/internal/core/media"
	"github.com/jaycherian/go-media-insights/internal/core/model"
)

// ResponseAssembler is a command implementation that builds the
// TranscribeResponse from the accumulated pipeline state.
type ResponseAssembler struct {
	cor.BaseCommand // Embeds the BaseCommand for naming and metrics.
}

// NewResponseAssembler is the constructor for creating a new
// ResponseAssembler command.
func NewResponseAssembler(name string) *ResponseAssembler {
	base := cor.NewBaseCommand(name)
	base.InputParamName = KeyTranscription
	return &ResponseAssembler{BaseCommand: *base}
}

// Execute assembles the response payload.
func (c *ResponseAssembler) Execute(context cor.Context) {
	request := context.Get(KeyRequest).(*model.MediaRequest)
	transcription := context.Get(c.GetInputParam()).(*model.TranscriptionResult)

	sentiment, ok := context.Get(KeySentiment).(*model.SentimentResult)
	if !ok {
		sentiment = model.FallbackSentiment()
	}
	summary, ok := context.Get(KeySummary).(*model.SummaryResult)
	if !ok {
		summary = model.FallbackSummary()
	}

	whisperUsage, _ := context.Get(KeyWhisperUsage).(model.WhisperUsage)
	fileKind, _ := context.Get(KeyFileKind).(media.FileKind)

	timings := context.GetTimings()

	response := &model.TranscribeResponse{
		URL:           request.URL,
		Transcription: transcription.Text,
		Sentiment:     sentiment,
		Summary:       summary.Summary,
		Metadata: model.TranscribeMetadata{
			TranscriptionLength: transcription.Length,
			WordCount:           transcription.WordCount,
			ProcessingTimes: model.ProcessingTimes{
				Download:      timings[StageDownload],
				Extraction:    timings[StageExtraction],
				Transcription: timings[StageTranscription],
				Sentiment:     timings[StageSentiment],
				Summarization: timings[StageSummarization],
			},
			TokenUsage: model.TokenUsageBreakdown{
				Whisper:       whisperUsage,
				Sentiment:     sentiment.TokenUsage,
				Summarization: summary.TokenUsage,
				Total:         sentiment.TokenUsage.Add(summary.TokenUsage),
			},
			FileWasAudio: fileKind == media.AudioOnly,
		},
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(KeyResponse, response)
	context.Add(c.GetOutputParam(), response)
}
