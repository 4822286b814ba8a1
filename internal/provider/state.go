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

// Package provider contains the external-model plumbing for the service.
// This file is central to the application's architecture: it initializes and
// holds all the client objects needed to talk to the model provider and to
// the local transcoding tool. It acts as a dependency injection container,
// creating a single shared `ServiceClients` struct that is passed throughout
// the application.
//
// Logic Flow:
//  1. The `NewServiceClients` function is called at application startup.
//  2. It reads the provider API key from the environment; a missing key is
//     an error the HTTP layer reports as a server-side configuration fault.
//  3. It constructs the shared provider client and wraps each configured
//     agent model role in a rate-limiting decorator.
//  4. It locates the external transcoding tool on the host.
//  5. Everything is bundled into a single `ServiceClients` struct used by
//     the workflows and API handlers.
//
// Structs:
//   - ServiceClients: A container struct holding the provider clients, the
//     per-role chat model wrappers, and the transcoder.
//
// Functions:
//   - NewServiceClients: A factory function that creates and configures all
//     external dependencies based on the application's configuration.
package provider

import (
	"context"
	"log/slog"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jaycherian/go-media-insights/internal/core/media"
	"github.com/jaycherian/go-media-insights/internal/core/model"
)

// Environment variables read at startup.
const (
	EnvAPIKey        = "OPENAI_API_KEY" // The provider API key. Required.
	EnvModelOverride = "OPENAI_MODEL"   // Optional: overrides the model name of every chat role.
	EnvPort          = "PORT"           // Optional: overrides the configured HTTP listen port.
)

// AudioTranscriber is the part of the provider client the transcription
// stage needs. *openai.Client satisfies it; tests substitute a fake.
type AudioTranscriber interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// ServiceClients is a container for all the clients that interact with
// external dependencies: the model provider and the local transcoding tool.
// This pattern is a form of dependency injection, making it easy to share
// these connections across the application and to substitute fakes in tests.
type ServiceClients struct {
	Transcriber AudioTranscriber                // Speech-to-text client.
	AgentModels map[string]*QuotaAwareChatModel // Rate-limited chat models, keyed by role.
	Transcoder  media.Transcoder                // The external media tool boundary.
}

// NewServiceClients is a factory function that initializes all external
// dependencies based on the provided configuration. It serves as the main
// entry point for setting up the application's external connections.
//
// A missing API key returns model.ErrMissingCredential rather than a panic:
// the server still starts, and the error surfaces per-request as a 500 so
// the health endpoint keeps answering.
func NewServiceClients(ctx context.Context, config *Config) (*ServiceClients, error) {
	apiKey := os.Getenv(EnvAPIKey)
	if apiKey == "" {
		return nil, model.ErrMissingCredential
	}

	client := openai.NewClient(apiKey)

	// The OPENAI_MODEL override remaps every chat role at once, which is the
	// common case when pointing the service at a different provider tier.
	modelOverride := os.Getenv(EnvModelOverride)

	agentModels := make(map[string]*QuotaAwareChatModel)
	for role, settings := range config.AgentModels {
		if modelOverride != "" {
			settings.Model = modelOverride
		}
		agentModels[role] = NewQuotaAwareChatModel(client, settings)
	}

	// A missing transcoder is not fatal at startup: audio-only requests do
	// not need it, and the extraction stage reports a tool-not-found error
	// for the requests that do.
	var transcoder media.Transcoder
	if ffmpegPath, err := media.LocateFFmpeg(); err == nil {
		transcoder = media.NewFFmpeg(ffmpegPath)
	} else {
		slog.Warn("transcoding tool not found; video inputs will fail at the extraction stage", "error", err)
	}

	return &ServiceClients{
		Transcriber: client,
		AgentModels: agentModels,
		Transcoder:  transcoder,
	}, nil
}
