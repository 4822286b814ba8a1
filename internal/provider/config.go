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

// Package provider defines the data structures for application configuration,
// loaded from TOML files, and the client container for the external model
// provider. It provides a structured way to manage settings for the HTTP
// server, AI models, pipeline limits, and prompt templates.
//
// This file centralizes all configuration-related structs, making it easy
// to understand and manage the application's configurable parameters.
//
// Structs:
//   - PromptTemplates: Holds the text templates for prompts sent to the models.
//   - OpenAIChatModel: Configuration for one chat (or vision) model role.
//   - TranscriptionModel: Configuration for the speech-to-text model.
//   - Limits: Hard limits and tunables for the processing pipelines.
//   - Config: The top-level struct that aggregates all other configuration structs.
//
// Functions:
//   - NewConfig: A constructor that initializes a new Config object with
//     usable defaults, so the service runs even with an empty config file.
package provider

// Agent model keys. Each pipeline stage looks up its model by role rather
// than by provider model name, so roles can be remapped in configuration.
const (
	AgentSentiment     = "sentiment"
	AgentSummarization = "summarization"
	AgentVision        = "vision"
	AgentNarrative     = "narrative"
)

// PromptTemplates holds the templates for the different prompt types. The
// %s verbs are filled positionally by the commands that own each prompt.
type PromptTemplates struct {
	Sentiment string `toml:"sentiment"` // Template for the sentiment classification prompt (transcript, example JSON).
	Summary   string `toml:"summary"`   // Template for the summarization prompt (transcript).
	Scene     string `toml:"scene"`     // Template for the per-frame vision prompt (example JSON).
	Narrative string `toml:"narrative"` // Template for the cross-frame narrative prompt (frame analyses JSON).
}

// OpenAIChatModel represents the configuration for one chat-completion model
// role (sentiment, summarization, vision, narrative).
type OpenAIChatModel struct {
	Model              string  `toml:"model"`               // The provider model name (e.g., "gpt-4o-mini").
	SystemInstructions string  `toml:"system_instructions"` // The system message prepended to every call.
	Temperature        float32 `toml:"temperature"`         // The temperature parameter for the model.
	MaxTokens          int     `toml:"max_tokens"`          // The maximum number of tokens for the model output.
	OutputFormat       string  `toml:"output_format"`       // "json_object" to force JSON-mode responses, empty for free text.
	RateLimit          int     `toml:"rate_limit"`          // Requests per second; 0 disables client-side limiting.
}

// TranscriptionModel represents the configuration for the speech-to-text
// model used by the transcription stage.
type TranscriptionModel struct {
	Model string `toml:"model"` // The provider transcription model name (e.g., "whisper-1").
}

// Limits holds the hard limits and tunables of the processing pipelines.
type Limits struct {
	MaxUploadMB            float64 `toml:"max_upload_mb"`            // The transcription API upload ceiling, in megabytes.
	DownloadTimeoutSeconds int     `toml:"download_timeout_seconds"` // Per-request timeout for fetching source media.
	FrameIntervalSeconds   float64 `toml:"frame_interval_seconds"`   // Default spacing between sampled video frames.
	MaxFrames              int     `toml:"max_frames"`               // Default cap on sampled frames per video.
	ThreadPoolSize         int     `toml:"thread_pool_size"`         // The size of the worker pool for parallel frame processing.
}

// Config represents the overall configuration for the application, loaded
// from TOML files. It acts as the root container for all other configuration
// structs.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name string `toml:"name"` // The name of the application, reported by the health endpoint.
		Port string `toml:"port"` // The HTTP listen port; the PORT environment variable overrides it.
	} `toml:"application"`
	Transcription   TranscriptionModel         `toml:"transcription"`    // Speech-to-text model configuration.
	AgentModels     map[string]OpenAIChatModel `toml:"agent_models"`     // Chat model configurations, keyed by role.
	PromptTemplates PromptTemplates            `toml:"prompt_templates"` // Prompt templates configuration.
	Limits          Limits                     `toml:"limits"`           // Pipeline limits and tunables.
}

// NewConfig is a constructor function that creates a new Config instance
// populated with working defaults. The TOML loader overlays files on top of
// these values, so a missing or partial config file still yields a runnable
// service. Initializing the map matters: the loader would otherwise panic
// populating a nil map.
func NewConfig() *Config {
	c := &Config{AgentModels: make(map[string]OpenAIChatModel)}

	c.Application.Name = "go-media-insights"
	c.Application.Port = "8080"

	c.Transcription.Model = "whisper-1"

	for _, role := range []string{AgentSentiment, AgentSummarization, AgentVision, AgentNarrative} {
		c.AgentModels[role] = OpenAIChatModel{
			Model:        "gpt-4o-mini",
			Temperature:  0.2,
			MaxTokens:    1024,
			OutputFormat: "json_object",
		}
	}
	// Summaries are free text, and the narrative stage reads many frame
	// analyses, so it gets more headroom.
	summarization := c.AgentModels[AgentSummarization]
	summarization.OutputFormat = ""
	c.AgentModels[AgentSummarization] = summarization
	narrative := c.AgentModels[AgentNarrative]
	narrative.MaxTokens = 2048
	c.AgentModels[AgentNarrative] = narrative

	c.PromptTemplates = PromptTemplates{
		Sentiment: "Analyze the sentiment of the following transcription. Respond with a JSON object " +
			"with keys sentiment (positive, negative, neutral, or mixed), confidence (0 to 1), " +
			"emotions (array of strings), and summary (one sentence). Example response:\n%s\n\nTranscription:\n%s",
		Summary: "Provide a concise summary of the following transcription in 2-3 sentences:\n\n%s",
		Scene: "Describe this video frame. Respond with a JSON object with keys people " +
			"(object with count and details), activities, location (object with type, description, " +
			"and specificLocation), objects, sceneDescription, mood, cameraAngle, lighting, and " +
			"videoQuality. Example response:\n%s",
		Narrative: "The following JSON array contains scene analyses of frames sampled from one video, " +
			"in timestamp order. Respond with a JSON object with keys narrative (what happens across " +
			"the video), subjects (array), and setting, derived from the analyses.\n\n%s",
	}

	c.Limits = Limits{
		MaxUploadMB:            25,
		DownloadTimeoutSeconds: 120,
		FrameIntervalSeconds:   5,
		MaxFrames:              6,
		ThreadPoolSize:         4,
	}

	return c
}
