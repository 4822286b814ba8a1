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

// Package test provides utility functions and fakes to support the
// application's test suite. It helps in setting up a consistent test
// environment, loading test-specific configurations, and substituting the
// external dependencies (model provider, transcoding tool) with in-memory
// stand-ins so the pipelines can be exercised end-to-end without network
// access or an ffmpeg install.
package test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jaycherian/go-media-insights/internal/provider"
)

// StateManager acts as a simple in-memory cache for the application
// configuration during test runs, so the TOML files are loaded only once per
// test binary.
type StateManager struct {
	config *provider.Config
}

var state = &StateManager{}

// HandleErr is a simple test helper that fails the test when err is not nil.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// SetupOS configures the environment variables the configuration loader
// depends on, pointing it at the test configuration files.
func SetupOS() (err error) {
	err = os.Setenv(provider.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(provider.EnvConfigRuntime, "test")
	return err
}

// GetConfig is a singleton accessor for the test configuration.
func GetConfig() *provider.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := provider.NewConfig()
		provider.LoadConfig(config)
		state.config = config
	}
	return state.config
}

// FakeChatCompleter is an in-memory stand-in for the provider's chat API.
// Responses are served in FIFO order from the Responses slice; when Fail is
// set (or the responses run out) every call errors.
type FakeChatCompleter struct {
	mu        sync.Mutex
	Responses []string                       // Message contents to serve, in order.
	Fail      bool                           // When true, every call fails.
	Calls     int                            // Number of calls received.
	Requests  []openai.ChatCompletionRequest // Requests received, in order, for prompt assertions.
}

// CreateChatCompletion serves the next canned response with a deterministic
// token usage block.
func (f *FakeChatCompleter) CreateChatCompletion(_ context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	f.Requests = append(f.Requests, request)
	if f.Fail {
		return openai.ChatCompletionResponse{}, errors.New("fake provider failure")
	}
	if len(f.Responses) == 0 {
		return openai.ChatCompletionResponse{}, errors.New("fake provider has no responses left")
	}
	next := f.Responses[0]
	f.Responses = f.Responses[1:]
	return openai.ChatCompletionResponse{
		Model:   request.Model,
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: next}}},
		Usage:   openai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

// FakeTranscriber is an in-memory stand-in for the speech-to-text API.
type FakeTranscriber struct {
	Text string // The transcript to return.
	Fail bool   // When true, every call fails.
}

// CreateTranscription returns the canned transcript.
func (f *FakeTranscriber) CreateTranscription(_ context.Context, _ openai.AudioRequest) (openai.AudioResponse, error) {
	if f.Fail {
		return openai.AudioResponse{}, errors.New("fake transcription failure")
	}
	return openai.AudioResponse{Text: f.Text}, nil
}

// StubTranscoder is an in-memory stand-in for the ffmpeg boundary. Instead
// of transcoding it writes small placeholder files, which is enough for the
// pipelines: they only care that the output paths exist.
type StubTranscoder struct {
	Duration       float64 // The duration ProbeDuration reports; <= 0 makes it fail.
	FailExtract    bool    // When true, ExtractAudio fails.
	FailFrameIndex int     // GrabFrame fails for this 0-based call index; -1 disables.

	mu         sync.Mutex
	grabCalls  int
	ExtractLog []string // Output paths of successful extractions.
}

// NewStubTranscoder returns a stub that succeeds everywhere and reports the
// given duration.
func NewStubTranscoder(duration float64) *StubTranscoder {
	return &StubTranscoder{Duration: duration, FailFrameIndex: -1}
}

// ExtractAudio writes a placeholder MP3 file.
func (s *StubTranscoder) ExtractAudio(_ context.Context, _ string, outputPath string) error {
	if s.FailExtract {
		return errors.New("stub extraction failure")
	}
	s.mu.Lock()
	s.ExtractLog = append(s.ExtractLog, outputPath)
	s.mu.Unlock()
	return os.WriteFile(outputPath, []byte("stub-audio"), 0o600)
}

// GrabFrame writes a placeholder JPEG file, failing for the configured call
// index.
func (s *StubTranscoder) GrabFrame(_ context.Context, _ string, outputPath string, _ float64) error {
	s.mu.Lock()
	call := s.grabCalls
	s.grabCalls++
	s.mu.Unlock()
	if call == s.FailFrameIndex {
		return errors.New("stub frame grab failure")
	}
	return os.WriteFile(outputPath, []byte(fmt.Sprintf("stub-frame-%d", call)), 0o600)
}

// ProbeDuration reports the configured duration.
func (s *StubTranscoder) ProbeDuration(_ context.Context, _ string) (float64, error) {
	if s.Duration <= 0 {
		return 0, errors.New("stub has no duration")
	}
	return s.Duration, nil
}
