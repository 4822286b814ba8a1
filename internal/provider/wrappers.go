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
// This file implements a wrapper around the chat-completion client using the
// Decorator design pattern: it adds client-side rate limiting to a model role
// without altering the underlying client.
//
// Why this is important:
//   - Rate Limiting: Provider accounts have request-per-minute quotas. The
//     frame-analysis stage fans out many concurrent vision calls, and the
//     limiter keeps that burst under the account quota instead of surfacing
//     as 429 errors mid-request.
//
// Failed calls are NOT retried here. Each pipeline stage has its own failure
// policy (fatal for transcription, degrade for sentiment and summary, skip
// for single frames), and an invisible retry layer underneath would blur
// those policies and multiply provider cost.
//
// Structs:
//   - QuotaAwareChatModel: Binds one configured model role to the shared
//     client, with a rate limiter in front of it.
//
// Functions:
//   - NewQuotaAwareChatModel: A constructor to create a new instance of the
//     wrapped model.
//   - CreateChatCompletion: The intercepted call that enforces rate limiting
//     before delegating to the client.
package provider

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// ChatCompleter is the part of the provider client the chat wrapper needs.
// *openai.Client satisfies it; tests substitute a fake.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// QuotaAwareChatModel is a decorator that binds a configured model role
// (name, temperature, system instructions, output format) to the shared
// provider client and gates every call through a rate limiter.
type QuotaAwareChatModel struct {
	Settings OpenAIChatModel // The role configuration this wrapper applies to every call.
	client   ChatCompleter   // The shared provider client.
	limiter  *rate.Limiter   // nil when rate limiting is disabled for this role.
}

// NewQuotaAwareChatModel is a constructor function that creates a new
// QuotaAwareChatModel. A RateLimit of 0 in the role settings disables
// client-side limiting entirely.
func NewQuotaAwareChatModel(client ChatCompleter, settings OpenAIChatModel) *QuotaAwareChatModel {
	var limiter *rate.Limiter
	if settings.RateLimit > 0 {
		// Allows a burst of RateLimit requests, replenished at RateLimit
		// tokens per second.
		limiter = rate.NewLimiter(rate.Limit(settings.RateLimit), settings.RateLimit)
	}
	return &QuotaAwareChatModel{Settings: settings, client: client, limiter: limiter}
}

// CreateChatCompletion assembles the full request from the role settings and
// the given messages, waits for rate-limiter clearance, and makes exactly one
// call to the provider. When the role carries system instructions they are
// prepended as a system message.
func (q *QuotaAwareChatModel) CreateChatCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (openai.ChatCompletionResponse, error) {
	if q.limiter != nil {
		// Wait blocks until a token is available or the context is done, so
		// a canceled request never burns quota.
		if err := q.limiter.Wait(ctx); err != nil {
			return openai.ChatCompletionResponse{}, err
		}
	}

	if q.Settings.SystemInstructions != "" {
		messages = append([]openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleSystem,
			Content: q.Settings.SystemInstructions,
		}}, messages...)
	}

	request := openai.ChatCompletionRequest{
		Model:       q.Settings.Model,
		Messages:    messages,
		Temperature: q.Settings.Temperature,
		MaxTokens:   q.Settings.MaxTokens,
	}
	if q.Settings.OutputFormat == "json_object" {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	return q.client.CreateChatCompletion(ctx, request)
}
