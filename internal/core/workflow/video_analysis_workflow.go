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

// This file implements the video-analysis workflow: frame sampling, vision
// analysis, aggregation, and the cross-frame narrative. It shares the
// download stage with the transcription pipeline but is otherwise
// independent, and it is not registered on the HTTP router: callers invoke
// it programmatically (today that means the test suite and batch tooling).
package workflow

import (
	"time"

	"github.com/jaycherian/go-media-insights/internal/core/commands"
	"github.com/jaycherian/go-media-insights/internal/core/cor"
	"github.com/jaycherian/go-media-insights/internal/core/frames"
	"github.com/jaycherian/go-media-insights/internal/provider"
)

// VideoAnalysisWorkflow orchestrates the frame-based analysis of one video.
type VideoAnalysisWorkflow struct {
	cor.BaseCommand
	config          *provider.Config
	clients         *provider.ServiceClients
	intervalSeconds float64   // Spacing between sampled frames.
	maxFrames       int       // Cap on sampled frames per video.
	scenePrompt     string    // The per-frame vision prompt template in effect for this workflow.
	chain           cor.Chain // The underlying chain of commands to be executed.
}

// Execute stamps the pipeline start time (for the elapsed-time metadata) and
// runs the underlying chain. The caller owns the context and its deferred
// Close; the per-run frame directory registered by the sampler is removed
// with it.
func (w *VideoAnalysisWorkflow) Execute(context cor.Context) {
	context.Add(frames.KeyVideoStart, time.Now())
	w.chain.Execute(context)
}

// initializeChain constructs the sequence of commands that define the
// video-analysis pipeline.
func (w *VideoAnalysisWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	// Step 1: Fetch the source video to a tracked temp file. Same command
	// as the transcription pipeline. A caller that already has the video on
	// disk seeds a DownloadResult instead of a MediaRequest and the fetch
	// passes it through untouched.
	out.AddCommand(commands.NewMediaDownload("media_download", w.config.Limits.DownloadTimeoutSeconds))

	// Step 2: Sample still frames on a worker pool. Any sampling failure is
	// fatal to the analysis.
	out.AddCommand(frames.NewFrameSampler("frame_sampler",
		w.clients.Transcoder, w.intervalSeconds, w.maxFrames, w.config.Limits.ThreadPoolSize))

	// Step 3: Vision analysis per frame; failed frames are skipped.
	out.AddCommand(frames.NewFrameAnalyzer("frame_analyzer",
		w.clients.AgentModels[provider.AgentVision],
		w.scenePrompt,
		w.config.Limits.ThreadPoolSize))

	// Step 4: Aggregate, narrate (best-effort), and assemble the result.
	out.AddCommand(frames.NewNarrativeAssembler("narrative_assembler",
		w.clients.AgentModels[provider.AgentNarrative],
		w.config.PromptTemplates.Narrative))

	w.chain = out
}

// NewVideoAnalysisWorkflow is the constructor for the VideoAnalysisWorkflow.
// Non-positive interval or frame-cap arguments fall back to the configured
// limits. A non-empty customPrompt replaces the configured per-frame vision
// instructions while keeping the structured-JSON response contract; an empty
// one keeps the configured template.
func NewVideoAnalysisWorkflow(config *provider.Config, clients *provider.ServiceClients, intervalSeconds float64, maxFrames int, customPrompt string) *VideoAnalysisWorkflow {
	if intervalSeconds <= 0 {
		intervalSeconds = config.Limits.FrameIntervalSeconds
	}
	if maxFrames <= 0 {
		maxFrames = config.Limits.MaxFrames
	}
	scenePrompt := config.PromptTemplates.Scene
	if customPrompt != "" {
		scenePrompt = customPrompt + "\n\nRespond with a JSON object shaped like this example:\n%s"
	}

	out := &VideoAnalysisWorkflow{
		BaseCommand:     *cor.NewBaseCommand("video-analysis-workflow"),
		config:          config,
		clients:         clients,
		intervalSeconds: intervalSeconds,
		maxFrames:       maxFrames,
		scenePrompt:     scenePrompt,
	}
	out.initializeChain()
	return out
}
