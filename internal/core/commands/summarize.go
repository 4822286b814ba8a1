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

// This file defines the command that produces a prose summary of the
// transcript. Like the sentiment stage it degrades on failure: a provider
// error yields the fallback summary text with the error flag set, never a
// failed request.
//
// The request may carry a custom summarization prompt; when present it
// replaces the configured template and the transcript is appended to it.
package commands

import (
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/metric"

	"github.com/jaycherian/go-media-insights/internal/core/cor"
	"github.com/jaycherian/go-media-insights/internal/core/model"
	"github.com/jaycherian/go-media-insights/internal/provider"
)

// Summarize is a command implementation that generates a free-text summary
// of the transcript.
type Summarize struct {
	cor.BaseCommand                               // Embeds the BaseCommand for naming and metrics.
	chatModel          *provider.QuotaAwareChatModel // The rate-limited chat model for this role.
	promptTemplate     string                        // Default template with a verb for the transcript.
	inputTokenCounter  metric.Int64Counter           // Counts prompt tokens spent by this stage.
	outputTokenCounter metric.Int64Counter           // Counts completion tokens produced by this stage.
}

// NewSummarize is the constructor for creating a new Summarize command.
func NewSummarize(name string, chatModel *provider.QuotaAwareChatModel, promptTemplate string) *Summarize {
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
	return &Summarize{
		BaseCommand:        *base,
		chatModel:          chatModel,
		promptTemplate:     promptTemplate,
		inputTokenCounter:  inputTokenCounter,
		outputTokenCounter: outputTokenCounter,
	}
}

// Execute contains the core logic for the summarization call.
func (c *Summarize) Execute(context cor.Context) {
	transcription := context.Get(c.GetInputParam()).(*model.TranscriptionResult)

	start := time.Now()

	result := c.summarize(context, transcription.Text)
	context.AddTiming(StageSummarization, time.Since(start))

	if result.Error {
		c.GetErrorCounter().Add(context.GetContext(), 1)
	} else {
		c.GetSuccessCounter().Add(context.GetContext(), 1)
	}
	context.Add(KeySummary, result)
}

// summarize makes the provider call, returning the fallback on any failure.
func (c *Summarize) summarize(context cor.Context, transcript string) *model.SummaryResult {
	prompt := fmt.Sprintf(c.promptTemplate, transcript)
	if request, ok := context.Get(KeyRequest).(*model.MediaRequest); ok && request.SummarizationPrompt != "" {
		prompt = fmt.Sprintf("%s\n\nTranscription:\n%s", request.SummarizationPrompt, transcript)
	}

	messages := []openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	}}

	raw, usage, err := provider.GenerateChatResponse(
		context.GetContext(), c.inputTokenCounter, c.outputTokenCounter, c.chatModel, messages)
	if err != nil {
		slog.WarnContext(context.GetContext(), "summarization call failed; substituting fallback", "error", err)
		return model.FallbackSummary()
	}

	return &model.SummaryResult{Summary: raw, TokenUsage: usage}
}
