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
// media-processing pipelines. This file defines the core interfaces that
// govern the behavior of every component in the pattern. By programming
// against interfaces, the pipelines stay flexible: commands, chains, and
// contexts can be swapped independently (for example, a fake provider command
// in tests).
package cor

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are constant keys used to manage the primary data flow
// within a BaseChain.
const (
	// CtxIn is the default key for the primary input of a command. The BaseChain
	// will automatically populate the value of this key with the output from the
	// previous command.
	CtxIn = "__IN__"
	// CtxOut is the default key where a command should place its primary output.
	// The BaseChain will pick up the value from this key to use as the input
	// for the next command.
	CtxOut = "__OUT__"
)

// Context defines the interface for the shared state object passed through a
// chain of commands. It acts as the property bag for a single request's
// pipeline execution, carrying data, errors, stage timings, and the set of
// temporary filesystem resources that must be released when the request ends.
type Context interface {
	// SetContext sets the standard Go `context.Context`, used for cancellation
	// signals and OpenTelemetry trace propagation.
	SetContext(context context.Context)

	// GetContext retrieves the standard Go `context.Context`.
	GetContext() context.Context

	// Add stores a key-value pair in the context. This is the primary way
	// commands share data with each other. It returns the Context to allow
	// for fluent method chaining.
	Add(key string, value interface{}) Context

	// AddError records an error that occurred within a command, keyed by the
	// name of the command that produced it.
	AddError(key string, err error)

	// GetErrors returns a map of all errors collected during the workflow.
	GetErrors() map[string]error

	// Get retrieves a value from the context by its key.
	Get(key string) interface{}

	// Remove deletes a key-value pair from the context.
	Remove(key string)

	// HasErrors checks if any errors have been recorded in the context.
	HasErrors() bool

	// AddTempFile registers a temporary file created during the workflow so
	// that Close can release it. Registration happens at creation time,
	// before the file is ever written to.
	AddTempFile(file string)

	// AddTempDir registers a temporary directory (for example a per-video
	// frame directory) for recursive removal on Close.
	AddTempDir(dir string)

	// GetTempFiles returns all tracked temporary file paths.
	GetTempFiles() []string

	// AddTiming records the elapsed wall-clock duration of a named pipeline
	// stage. Timings surface in the response metadata.
	AddTiming(stage string, elapsed time.Duration)

	// GetTimings returns the per-stage durations recorded so far, in
	// milliseconds, keyed by stage name.
	GetTimings() map[string]int64

	// Close drains the release list exactly once: every tracked temp file and
	// directory is removed best-effort. Individual removal failures are
	// logged, never raised. Deferring Close at the start of a workflow
	// guarantees cleanup on every exit path, success or failure.
	Close()
}

// Executable is a simple interface for any object that has a core execution logic.
type Executable interface {
	// Execute contains the primary business logic of the object. It takes a
	// Context object to read its inputs from and write its outputs to.
	Execute(context Context)
}

// Command represents an atomic, testable, and thread-safe unit of work: one
// stage of a media-processing pipeline.
type Command interface {
	Executable // Embeds the Execute method.

	// GetName returns the unique name of the command, used for logging and telemetry.
	GetName() string

	// GetInputParam returns the key that the command will use to look up its
	// primary input in the Context.
	GetInputParam() string

	// GetOutputParam returns the key that the command will use to store its
	// primary output in the Context.
	GetOutputParam() string

	// IsExecutable checks if the command can be run with the current state of
	// the Context. This is a precondition check before calling Execute; a
	// command that returns false is skipped, not failed.
	IsExecutable(context Context) bool

	// GetTracer returns the OpenTelemetry tracer for this command.
	GetTracer() trace.Tracer

	// GetMeter returns the OpenTelemetry meter for creating metrics.
	GetMeter() metric.Meter

	// GetSuccessCounter returns a metric counter for successful executions.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter returns a metric counter for failed executions.
	GetErrorCounter() metric.Int64Counter
}

// Chain represents a sequence of commands. It is itself a Command, which allows
// chains to be nested within other chains (Composite Pattern). The Chain is
// responsible for orchestrating the execution of its child commands.
type Chain interface {
	Command // A Chain is a Command.

	// ContinueOnFailure is a configuration method that tells the chain whether
	// to stop executing if one of its commands fails (adds an error to the context).
	ContinueOnFailure(bool) Chain

	// AddCommand adds a new command to the end of the execution sequence.
	AddCommand(command Command) Chain
}
