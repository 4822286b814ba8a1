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

// This file defines the vision-analysis stage of the video pipeline. Each
// sampled frame is sent to the vision model on a bounded worker pool, with
// the frame bytes embedded in the prompt as a base64 data URL. Per-frame
// failure policy is skip, not fail: one bad frame (or one failed provider
// call) costs that frame's observations, never the whole analysis. Only
// when every frame fails is the stage itself a failure.
package frames

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/metric"

	"github.com/jaycherian/go-media-insights/internal/core/cor"
	"github.com/jaycherian/go-media-insights/internal/core/model"
	"github.com/jaycherian/go-media-insights/internal/provider"
)

// FrameAnalyzer is a command implementation that runs the vision model over
// every sampled frame concurrently.
type FrameAnalyzer struct {
	cor.BaseCommand                                  // Embeds the BaseCommand for naming and metrics.
	chatModel          *provider.QuotaAwareChatModel // The rate-limited vision model.
	promptTemplate     string                        // Template with a verb for the example JSON.
	workerCount        int                           // Size of the analysis worker pool.
	inputTokenCounter  metric.Int64Counter           // Counts prompt tokens across all frames.
	outputTokenCounter metric.Int64Counter           // Counts completion tokens across all frames.
}

// NewFrameAnalyzer is the constructor for creating a new FrameAnalyzer
// command.
func NewFrameAnalyzer(name string, chatModel *provider.QuotaAwareChatModel, promptTemplate string, workerCount int) *FrameAnalyzer {
	base := cor.NewBaseCommand(name)
	if workerCount < 1 {
		workerCount = 1
	}
	inputTokenCounter, err := base.GetMeter().Int64Counter(fmt.Sprintf("%s.tokens.input", name))
	if err != nil {
		slog.Warn("error creating input token counter", "command", name, "error", err)
	}
	outputTokenCounter, err := base.GetMeter().Int64Counter(fmt.Sprintf("%s.tokens.output", name))
	if err != nil {
		slog.Warn("error creating output token counter", "command", name, "error", err)
	}
	return &FrameAnalyzer{
		BaseCommand:        *base,
		chatModel:          chatModel,
		promptTemplate:     promptTemplate,
		workerCount:        workerCount,
		inputTokenCounter:  inputTokenCounter,
		outputTokenCounter: outputTokenCounter,
	}
}

// Execute fans the per-frame analyses out over the worker pool, skipping
// failed frames, and publishes the survivors in timestamp order.
func (c *FrameAnalyzer) Execute(context cor.Context) {
	sampled := context.Get(c.GetInputParam()).([]SampledFrame)

	start := time.Now()
	defer func() { context.AddTiming("frame_analysis", time.Since(start)) }()

	results := make([]*model.FrameAnalysis, len(sampled))
	tasks := make(chan int, len(sampled))

	var wg sync.WaitGroup
	for w := 0; w < c.workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				analysis, err := c.analyzeFrame(context, sampled[i])
				if err != nil {
					// Skip, don't fail: the remaining frames still carry
					// signal.
					slog.WarnContext(context.GetContext(), "skipping frame after failed analysis",
						"frame", sampled[i].Index,
						"timestamp", sampled[i].TimestampSeconds,
						"error", err)
					continue
				}
				results[i] = analysis
			}
		}()
	}
	for i := range sampled {
		tasks <- i
	}
	close(tasks)
	wg.Wait()

	analyses := make([]model.FrameAnalysis, 0, len(sampled))
	var usage model.TokenUsage
	for _, r := range results {
		if r != nil {
			analyses = append(analyses, *r)
			usage = usage.Add(r.TokenUsage)
		}
	}
	sort.Slice(analyses, func(a, b int) bool { return analyses[a].FrameIndex < analyses[b].FrameIndex })

	if len(analyses) == 0 && len(sampled) > 0 {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("all %d frame analyses failed", len(sampled)))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(KeyFrameAnalyses, analyses)
	context.Add(KeyVisionUsage, usage)
	context.Add(c.GetOutputParam(), analyses)
}

// analyzeFrame reads one frame image and asks the vision model to describe
// it as structured JSON.
func (c *FrameAnalyzer) analyzeFrame(context cor.Context, frame SampledFrame) (*model.FrameAnalysis, error) {
	imageBytes, err := os.ReadFile(frame.Path)
	if err != nil {
		return nil, fmt.Errorf("could not read frame image: %w", err)
	}

	example, err := json.Marshal(model.GetExampleFrameAnalysis())
	if err != nil {
		return nil, fmt.Errorf("could not marshal frame example: %w", err)
	}

	messages := []openai.ChatCompletionMessage{{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			provider.NewTextPart(fmt.Sprintf(c.promptTemplate, string(example))),
			provider.NewImagePart(imageBytes, "image/jpeg"),
		},
	}}

	raw, usage, err := provider.GenerateChatResponse(
		context.GetContext(), c.inputTokenCounter, c.outputTokenCounter, c.chatModel, messages)
	if err != nil {
		return nil, err
	}

	var analysis model.SceneAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, fmt.Errorf("vision response was not valid JSON: %w", err)
	}

	return &model.FrameAnalysis{
		FrameIndex:       frame.Index,
		TimestampSeconds: frame.TimestampSeconds,
		Analysis:         analysis,
		TokenUsage:       usage,
	}, nil
}
