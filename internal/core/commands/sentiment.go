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

// This file defines the command that classifies the sentiment of a
// transcript. The stage degrades instead of failing: any provider error or
// unparseable response is replaced by the neutral fallback result with its
// error flag set, and the pipeline continues. A transcription is still
// valuable without sentiment attached.
//
// Logic Flow:
//  1. Build the prompt from the configured template, a JSON example of the
//     expected output shape (few-shot), and the transcript.
//  2. Make exactly one chat-completion call in JSON mode.
//  3. Decode the response into a SentimentResult; substitute the fallback on
//     any failure.
package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/metric"

	"github.com/jaycherian/go-media-insights/internal/core/cor"
	"github.com/jaycherian/go-media-insights/internal/core/model"
	"github.com/jaycherian/go-media-insights/internal/provider"
)

// SentimentAnalysis is a command implementation that runs sentiment
// classification over the transcript.
type SentimentAnalysis struct {
	cor.BaseCommand                               // Embeds the BaseCommand for naming and metrics.
	chatModel          *provider.QuotaAwareChatModel // The rate-limited chat model for this role.
	promptTemplate     string                        // Template with verbs for the example JSON and the transcript.
	inputTokenCounter  metric.Int64Counter           // Counts prompt tokens spent by this stage.
	outputTokenCounter metric.Int64Counter           // Counts completion tokens produced by this stage.
}

// NewSentimentAnalysis is the constructor for creating a new
// SentimentAnalysis command.
func NewSentimentAnalysis(name string, chatModel *provider.QuotaAwareChatModel, promptTemplate string) *SentimentAnalysis {
	base := cor.NewBaseCommand(name)
	base.InputParamName = KeyTranscription
	inputTokenCounter, err := base.GetMeter().Int64Counter(fmt.Sprintf("%s.tokens.input", name))
	if err != nil {
		slog.Warn("error creating input token counter", "command", name, "error", err)
	}
	outputTokenCounter, err := base.GetMeter().Int64Counter(fmt.Sprintf("%s.tokens.output", name))
	if err != nil {
		slog.Warn("error creating output token counter", "command", name, "error", err)
	}
	return &SentimentAnalysis{
		BaseCommand:        *base,
		chatModel:          chatModel,
		promptTemplate:     promptTemplate,
		inputTokenCounter:  inputTokenCounter,
		outputTokenCounter: outputTokenCounter,
	}
}

// Execute contains the core logic for the sentiment classification.
func (c *SentimentAnalysis) Execute(context cor.Context) {
	transcription := context.Get(c.GetInputParam()).(*model.TranscriptionResult)

	start := time.Now()

	result := c.classify(context, transcription.Text)
	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	context.AddTiming(StageSentiment, time.Since(start))

	if result.Error {
		c.GetErrorCounter().Add(context.GetContext(), 1)
	} else {
		c.GetSuccessCounter().Add(context.GetContext(), 1)
	}
	context.Add(KeySentiment, result)
}

// classify makes the provider call and decodes the result, returning the
// neutral fallback on any failure. Errors are logged, never raised: this
// stage must not fail the request.
func (c *SentimentAnalysis) classify(context cor.Context, transcript string) *model.SentimentResult {
	example, err := json.Marshal(model.GetExampleSentiment())
	if err != nil {
		slog.ErrorContext(context.GetContext(), "failed to marshal sentiment example", "error", err)
		return model.FallbackSentiment()
	}

	prompt := fmt.Sprintf(c.promptTemplate, string(example), transcript)
	messages := []openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	}}

	raw, usage, err := provider.GenerateChatResponse(
		context.GetContext(), c.inputTokenCounter, c.outputTokenCounter, c.chatModel, messages)
	if err != nil {
		slog.WarnContext(context.GetContext(), "sentiment call failed; substituting fallback", "error", err)
		return model.FallbackSentiment()
	}

	result := &model.SentimentResult{}
	if err := json.Unmarshal([]byte(raw), result); err != nil {
		slog.WarnContext(context.GetContext(), "sentiment response was not valid JSON; substituting fallback", "error", err)
		fallback := model.FallbackSentiment()
		fallback.TokenUsage = usage
		return fallback
	}
	if result.Emotions == nil {
		result.Emotions = []string{}
	}
	result.TokenUsage = usage
	return result
}
