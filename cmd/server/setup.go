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

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"

	"github.com/jaycherian/go-media-insights/internal/core/model"
	"github.com/jaycherian/go-media-insights/internal/provider"
)

// StateManager holds the shared components for the application.
type StateManager struct {
	config  *provider.Config
	clients *provider.ServiceClients
}

// state manages the application's dependencies.
var state = &StateManager{}

// SetupOS points the configuration loader at the local config directory
// unless the caller already set the environment.
func SetupOS() (err error) {
	if os.Getenv(provider.EnvConfigFilePrefix) == "" {
		if err = os.Setenv(provider.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if os.Getenv(provider.EnvConfigRuntime) == "" {
		err = os.Setenv(provider.EnvConfigRuntime, "local")
	}
	return err
}

// GetConfig is a singleton accessor for the application configuration. The
// PORT environment variable, when set, overrides the configured listen port.
func GetConfig() *provider.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment: %v\n", err)
		}
		config := provider.NewConfig()
		provider.LoadConfig(config)
		if port := os.Getenv(provider.EnvPort); port != "" {
			config.Application.Port = port
		}
		state.config = config
	}
	return state.config
}

// InitState initializes the provider clients. A missing credential is
// downgraded to a warning: the server still serves /health, and the
// transcription endpoint reports the configuration fault per-request.
func InitState(ctx context.Context) {
	config := GetConfig()

	clients, err := provider.NewServiceClients(ctx, config)
	if err != nil {
		if errors.Is(err, model.ErrMissingCredential) {
			slog.Warn("provider API key is not configured; transcription requests will fail",
				"variable", provider.EnvAPIKey)
			return
		}
		panic(err)
	}
	state.clients = clients
}
