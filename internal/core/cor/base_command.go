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

// Package cor (Chain of Responsibility) provides the building blocks for the
// media-processing pipelines. This file defines `BaseCommand`, the default and
// foundational implementation of the `Command` interface.
//
// Every pipeline stage embeds `BaseCommand` to inherit common functionality:
// a name for identification in logs and telemetry, built-in OpenTelemetry
// tracing and metrics counters, and default input/output parameter keys for
// the piping mechanism in a `BaseChain`.
package cor

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// MeterName is the namespace under which all pipeline commands register
// their metric instruments.
const MeterName = "github.com/jaycherian/go-media-insights/pipeline"

// BaseCommand is the default implementation of the Command interface. It
// provides core functionality that all concrete commands reuse.
type BaseCommand struct {
	Name            string              // A unique name for the command, used for tracing and metrics.
	InputParamName  string              // The key to look up this command's primary input in the context.
	OutputParamName string              // The key to store this command's primary output in the context.
	Tracer          trace.Tracer        // An OpenTelemetry tracer for creating spans.
	Meter           metric.Meter        // An OpenTelemetry meter for creating metrics.
	SuccessCounter  metric.Int64Counter // Increments on successful execution.
	ErrorCounter    metric.Int64Counter // Increments when an error occurs.
}

// NewBaseCommand is the constructor for BaseCommand. It initializes a command
// with a name and sets up the OpenTelemetry instrumentation.
func NewBaseCommand(name string) *BaseCommand {
	meter := otel.Meter(MeterName)

	successCounter, err := meter.Int64Counter(fmt.Sprintf("%s.counter.success", name))
	if err != nil {
		slog.Warn("error creating success counter", "command", name, "error", err)
	}
	errorCounter, err := meter.Int64Counter(fmt.Sprintf("%s.counter.error", name))
	if err != nil {
		slog.Warn("error creating error counter", "command", name, "error", err)
	}

	return &BaseCommand{
		Name:           name,
		Tracer:         otel.Tracer(name),
		Meter:          meter,
		SuccessCounter: successCounter,
		ErrorCounter:   errorCounter,
	}
}

// GetName returns the name of the command.
func (c *BaseCommand) GetName() string {
	return c.Name
}

// GetInputParam returns the key used to look up this command's primary input.
// If no explicit key was configured, the chain's piping key is used.
func (c *BaseCommand) GetInputParam() string {
	if len(c.InputParamName) == 0 {
		return CtxIn
	}
	return c.InputParamName
}

// GetOutputParam returns the key used to store this command's primary output.
// If no explicit key was configured, the chain's piping key is used.
func (c *BaseCommand) GetOutputParam() string {
	if len(c.OutputParamName) == 0 {
		return CtxOut
	}
	return c.OutputParamName
}

// IsExecutable provides the default precondition: the command runs when the
// context carries a value under its input key. Commands with richer
// preconditions override this.
func (c *BaseCommand) IsExecutable(context Context) bool {
	return context != nil && context.Get(c.GetInputParam()) != nil
}

// Execute is a no-op in the base implementation; concrete commands override it.
func (c *BaseCommand) Execute(_ Context) {}

// GetTracer returns the OpenTelemetry tracer for this command.
func (c *BaseCommand) GetTracer() trace.Tracer {
	return c.Tracer
}

// GetMeter returns the OpenTelemetry meter for this command.
func (c *BaseCommand) GetMeter() metric.Meter {
	return c.Meter
}

// GetSuccessCounter returns the counter for successful executions.
func (c *BaseCommand) GetSuccessCounter() metric.Int64Counter {
	return c.SuccessCounter
}

// GetErrorCounter returns the counter for failed executions.
func (c *BaseCommand) GetErrorCounter() metric.Int64Counter {
	return c.ErrorCounter
}
