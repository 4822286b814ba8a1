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

// Package workflow defines the high-level business logic orchestrations,
// combining the individual commands into coherent pipelines. This file
// implements the transcription workflow: the fixed stage ordering behind
// POST /api/transcribe.
//
// Stage order:
//
//	download -> classify -> extract (video only) -> size check ->
//	transcribe -> enrichment (sentiment and summary in parallel) -> assemble response
//
// The chain stops at the first fatal error (download, extraction, size,
// transcription); the enrichment stages degrade internally and never record
// errors on the context.
package workflow

import (
	"github.com/jaycherian/go-media-insights/internal/core/commands"
	"github.com/jaycherian/go-media-insights/internal/core/cor"
	"github.com/jaycherian/go-media-insights/internal/provider"
)

// TranscriptionWorkflow orchestrates the full URL-to-insights pipeline for a
// single request. The struct holds the configuration and clients needed to
// build the chain, plus the chain itself.
type TranscriptionWorkflow struct {
	cor.BaseCommand
	config  *provider.Config
	clients *provider.ServiceClients
	chain   cor.Chain // The underlying chain of commands to be executed.
}

// Execute runs the transcription workflow by invoking the underlying
// command chain. The caller owns the context and its deferred Close.
func (w *TranscriptionWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// initializeChain constructs the fixed sequence of commands that define the
// transcription pipeline.
func (w *TranscriptionWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	// Step 1: Fetch the source media to a tracked temp file.
	out.AddCommand(commands.NewMediaDownload("media_download", w.config.Limits.DownloadTimeoutSeconds))

	// Step 2: Decide audio-only vs. needs-extraction.
	out.AddCommand(commands.NewFileKindClassify("file_kind_classify"))

	// Step 3: Extract the audio track. Skipped for audio-only inputs.
	out.AddCommand(commands.NewAudioExtract("audio_extract", w.clients.Transcoder))

	// Step 4: Enforce the upload ceiling on the file that will be sent.
	out.AddCommand(commands.NewSizeCheck("size_check", w.config.Limits.MaxUploadMB))

	// Step 5: Speech-to-text. Fatal on failure.
	out.AddCommand(commands.NewTranscribe("transcribe", w.clients.Transcriber, w.config.Transcription.Model))

	// Step 6: Sentiment and summary fan out concurrently over the
	// transcript; each degrades to its fallback independently.
	out.AddCommand(commands.NewEnrichment("enrichment",
		commands.NewSentimentAnalysis("sentiment_analysis",
			w.clients.AgentModels[provider.AgentSentiment],
			w.config.PromptTemplates.Sentiment),
		commands.NewSummarize("summarize",
			w.clients.AgentModels[provider.AgentSummarization],
			w.config.PromptTemplates.Summary)))

	// Step 7: Fold the accumulated state into the response payload.
	out.AddCommand(commands.NewResponseAssembler("response_assembler"))

	w.chain = out
}

// NewTranscriptionWorkflow is the constructor for the TranscriptionWorkflow.
// It initializes the workflow with the loaded configuration and service
// clients, and builds the command chain.
func NewTranscriptionWorkflow(config *provider.Config, clients *provider.ServiceClients) *TranscriptionWorkflow {
	out := &TranscriptionWorkflow{
		BaseCommand: *cor.NewBaseCommand("transcription-workflow"),
		config:      config,
		clients:     clients,
	}
	out.initializeChain()
	return out
}
