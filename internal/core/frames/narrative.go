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

// This file defines the final stage of the video pipeline: the cross-frame
// narrative call and the assembly of the VideoAnalysisResult. The narrative
// is a nice-to-have layer over the per-frame facts, so its failure policy is
// degrade: a failed call leaves the summary nil while the frame analyses and
// the aggregate still come back.
package frames

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

// NarrativeAssembler is a command implementation that generates the
// cross-frame narrative and assembles the video-analysis result.
type NarrativeAssembler struct {
	cor.BaseCommand                                  // Embeds the BaseCommand for naming and metrics.
	chatModel          *provider.QuotaAwareChatModel // The rate-limited narrative model.
	promptTemplate     string                        // Template with a verb for the frame-analyses JSON.
	inputTokenCounter  metric.Int64Counter           // Counts prompt tokens for the narrative call.
	outputTokenCounter metric.Int64Counter           // Counts completion tokens for the narrative call.
}

// KeyVideoStart carries the wall-clock start of the video pipeline so the
// final stage can report total elapsed time.
const KeyVideoStart = "video_start"

// NewNarrativeAssembler is the constructor for creating a new
// NarrativeAssembler command.
func NewNarrativeAssembler(name string, chatModel *provider.QuotaAwareChatModel, promptTemplate string) *NarrativeAssembler {
	base := cor.NewBaseCommand(name)
	base.InputParamName = KeyFrameAnalyses
	inputTokenCounter, err := base.GetMeter().Int64Counter(fmt.Sprintf("%s.tokens.input", name))
	if err != nil {
		slog.Warn("error creating input token counter", "command", name, "error", err)
	}
	outputTokenCounter, err := base.GetMeter().Int64Counter(fmt.Sprintf("%s.tokens.output", name))
	if err != nil {
		slog.Warn("error creating output token counter", "command", name, "error", err)
	}
	return &NarrativeAssembler{
		BaseCommand:        *base,
		chatModel:          chatModel,
		promptTemplate:     promptTemplate,
		inputTokenCounter:  inputTokenCounter,
		outputTokenCounter: outputTokenCounter,
	}
}

// Execute generates the narrative (best-effort) and assembles the final
// result from everything the earlier stages published.
func (c *NarrativeAssembler) Execute(context cor.Context) {
	analyses := context.Get(c.GetInputParam()).([]model.FrameAnalysis)

	usage, _ := context.Get(KeyVisionUsage).(model.TokenUsage)
	interval, _ := context.Get(KeyVideoInterval).(float64)

	var summary map[string]interface{}
	if len(analyses) > 0 {
		narrative, narrativeUsage, err := c.generateNarrative(context, analyses)
		if err != nil {
			slog.WarnContext(context.GetContext(), "narrative call failed; returning frame analyses without summary", "error", err)
		} else {
			summary = narrative
			usage = usage.Add(narrativeUsage)
		}
	}

	var elapsed int64
	if start, ok := context.Get(KeyVideoStart).(time.Time); ok {
		elapsed = time.Since(start).Milliseconds()
	}

	result := &model.VideoAnalysisResult{
		Summary:            summary,
		FrameAnalyses:      analyses,
		AggregatedAnalysis: Aggregate(analyses),
		Metadata: model.VideoAnalysisMetadata{
			FramesAnalyzed:   len(analyses),
			IntervalSeconds:  interval,
			ProcessingTimeMs: elapsed,
			TokenUsage:       usage,
		},
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(KeyVideoResult, result)
	context.Add(c.GetOutputParam(), result)
}

// generateNarrative makes one chat call over the frame analyses and decodes
// the JSON object it returns.
func (c *NarrativeAssembler) generateNarrative(context cor.Context, analyses []model.FrameAnalysis) (map[string]interface{}, model.TokenUsage, error) {
	encoded, err := json.Marshal(analyses)
	if err != nil {
		return nil, model.TokenUsage{}, fmt.Errorf("could not marshal frame analyses: %w", err)
	}

	messages := []openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleUser,
		Content: fmt.Sprintf(c.promptTemplate, string(encoded)),
	}}

	raw, usage, err := provider.GenerateChatResponse(
		context.GetContext(), c.inputTokenCounter, c.outputTokenCounter, c.chatModel, messages)
	if err != nil {
		return nil, usage, err
	}

	var narrative map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &narrative); err != nil {
		return nil, usage, fmt.Errorf("narrative response was not valid JSON: %w", err)
	}
	return narrative, usage, nil
}
