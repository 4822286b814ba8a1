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
// This file contains general-purpose utility functions that support the
// provider package: hierarchical configuration loading and the shared helper
// for chat-completion calls.
//
// Functions:
//   - fileExists: A simple helper to check if a file exists.
//   - LoadConfig: Implements a hierarchical configuration loader. It first
//     reads a base configuration file and then overwrites values with a
//     second, environment-specific file (e.g., .env.local.toml,
//     .env.test.toml). The environment is determined by an environment
//     variable.
//   - GenerateChatResponse: A wrapper for chat-completion calls. It records
//     OpenTelemetry token metrics and strips markdown code fences from the
//     response so JSON decoding downstream does not trip on them. Calls are
//     made exactly once: failed stages degrade or fail per their own policy
//     instead of retrying.
//   - NewImagePart, NewTextPart: Factory functions for multi-part vision
//     messages, improving readability when constructing prompts.
package provider

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/metric"

	"github.com/BurntSushi/toml"

	"github.com/jaycherian/go-media-insights/internal/core/model"
)

// Constants for configuration loading.
const (
	ConfigFileBaseName  = ".env"                // The base name for configuration files (e.g., ".env.toml").
	ConfigFileExtension = ".toml"               // The file extension for configuration files.
	ConfigSeparator     = "."                   // The separator used in config file names (e.g., ".env.local.toml").
	EnvConfigFilePrefix = "MEDIA_CONFIG_PREFIX" // The environment variable for specifying the config directory.
	EnvConfigRuntime    = "MEDIA_RUNTIME"       // The environment variable for specifying the runtime context (e.g., "local", "test", "prod").
)

// fileExists checks if a file or directory exists at the given path.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig provides a hierarchical configuration loading mechanism. It
// first loads a base configuration file and then overwrites its values with
// an environment-specific configuration file. The paths and environment are
// determined by environment variables. Missing files are not an error: the
// defaults baked into NewConfig remain in effect.
func LoadConfig(baseConfig interface{}) {
	// Read the directory path for config files from an environment variable.
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	// Read the runtime environment (e.g., "local", "test") from an
	// environment variable. Default to "local" if the variable is not set.
	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "local"
	}

	// Construct the path for the base configuration file (e.g., "configs/.env.toml").
	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension

	// Construct the path for the environment-specific override file (e.g., "configs/.env.local.toml").
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension

	// If the base configuration file exists, decode it into the baseConfig struct.
	if fileExists(baseConfigFileName) {
		_, err := toml.DecodeFile(baseConfigFileName, baseConfig)
		if err != nil {
			log.Fatalf("failed to decode base configuration file %s with error: %s", baseConfigFileName, err)
		}
	}

	// If the environment-specific configuration file exists, decode it. Any
	// values in this file will overwrite the values from the base config.
	if fileExists(envConfigFileName) {
		_, err := toml.DecodeFile(envConfigFileName, baseConfig)
		if err != nil {
			log.Fatalf("failed to decode environment configuration file: %s with error: %s", envConfigFileName, err)
		}
	}
}

// GenerateChatResponse executes one chat-completion request against a
// rate-limited model and returns the text of the first choice plus the
// provider-reported token usage. Token counts are also added to the supplied
// OpenTelemetry counters. The call is made exactly once; the caller decides
// whether a failure is fatal or degrades.
func GenerateChatResponse(
	ctx context.Context,
	inputTokenCounter metric.Int64Counter,
	outputTokenCounter metric.Int64Counter,
	chatModel *QuotaAwareChatModel,
	messages []openai.ChatCompletionMessage) (string, model.TokenUsage, error) {
	resp, err := chatModel.CreateChatCompletion(ctx, messages)
	if err != nil {
		return "", model.TokenUsage{}, err
	}
	if len(resp.Choices) == 0 {
		return "", model.TokenUsage{}, errors.New("chat completion returned no choices")
	}

	usage := model.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	inputTokenCounter.Add(ctx, int64(usage.PromptTokens))
	outputTokenCounter.Add(ctx, int64(usage.CompletionTokens))

	// Models occasionally fence JSON output even in JSON mode; strip the
	// fences so downstream decoding sees bare JSON.
	value := strings.TrimSpace(resp.Choices[0].Message.Content)
	value = strings.TrimPrefix(value, "```json")
	value = strings.TrimPrefix(value, "```")
	value = strings.TrimSuffix(value, "```")
	return strings.TrimSpace(value), usage, nil
}

// NewTextPart is a factory function for the text part of a multi-part
// vision message.
func NewTextPart(in string) openai.ChatMessagePart {
	return openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: in,
	}
}

// NewImagePart is a factory function for the image part of a multi-part
// vision message. The raw image bytes are embedded as a base64 data URL, so
// no externally reachable image host is needed.
func NewImagePart(imageBytes []byte, mimeType string) openai.ChatMessagePart {
	return openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeImageURL,
		ImageURL: &openai.ChatMessageImageURL{
			URL:    fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageBytes)),
			Detail: openai.ImageURLDetailAuto,
		},
	}
}
