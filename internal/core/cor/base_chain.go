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
// media-processing pipelines. This file defines `BaseChain`, the default
// implementation of the `Chain` interface.
//
// A BaseChain executes its commands strictly in order, which is what gives
// the request pipeline its fixed stage ordering. Before each command runs,
// the chain checks the shared context for errors: a fatal error recorded by
// an earlier stage stops the chain (unless continueOnFailure is set), so no
// later stage ever observes a half-built input. Each command execution is
// wrapped in its own OpenTelemetry span. After a command completes, the value
// it stored under CtxOut is moved to CtxIn, piping each stage's output into
// the next stage.
package cor

import (
	"fmt"

	"go.opentelemetry.io/otel/codes"
)

// BaseChain is the default implementation of the Chain interface. It holds a
// slice of commands to be executed sequentially.
type BaseChain struct {
	BaseCommand
	continueOnFailure bool      // When true, later commands run even after an earlier one fails.
	commands          []Command // The ordered list of commands this chain executes.
}

// NewBaseChain is the constructor for BaseChain.
func NewBaseChain(name string) *BaseChain {
	return &BaseChain{BaseCommand: *NewBaseCommand(name)}
}

// ContinueOnFailure is a builder method that sets the error handling behavior
// of the chain. When false (the default), the chain stops at the first
// command that records an error.
func (c *BaseChain) ContinueOnFailure(continueOnFailure bool) Chain {
	c.continueOnFailure = continueOnFailure
	return c
}

// AddCommand is a builder method that appends a command to the chain's
// execution sequence.
func (c *BaseChain) AddCommand(command Command) Chain {
	c.commands = append(c.commands, command)
	return c
}

// IsExecutable checks if the chain can be executed. For a chain, this simply
// means that a valid Go context exists.
func (c *BaseChain) IsExecutable(context Context) bool {
	return context.GetContext() != nil
}

// Execute orchestrates the sequential execution of all commands in the chain.
func (c *BaseChain) Execute(chCtx Context) {
	parentCtx := chCtx.GetContext()

	outerCtx, chainSpan := c.Tracer.Start(parentCtx, fmt.Sprintf("%s_execute", c.GetName()))
	defer chainSpan.End()

	for _, command := range c.commands {
		commandContext, commandSpan := c.Tracer.Start(outerCtx, command.GetName())

		// A fatal error from an earlier stage stops the pipeline here so that
		// no later stage observes a half-built input.
		if chCtx.HasErrors() && !c.continueOnFailure {
			commandSpan.SetStatus(codes.Error, "previous error on chain; skipping execution")
			commandSpan.End()
			break
		}

		if command.IsExecutable(chCtx) {
			// Scope the command to its own span context, then restore the
			// chain's context so sibling spans stay flat rather than nested.
			chCtx.SetContext(commandContext)
			command.Execute(chCtx)
			chCtx.SetContext(outerCtx)
		} else {
			// A non-executable command is a skip, not a failure: the audio
			// extraction stage legitimately declines to run for audio-only
			// inputs.
			commandSpan.SetStatus(codes.Ok, fmt.Sprintf("command skipped: %s", command.GetName()))
		}

		if chCtx.HasErrors() {
			commandSpan.SetStatus(codes.Error, "error during or after command execution")
		} else {
			commandSpan.SetStatus(codes.Ok, "command completed successfully")
		}
		commandSpan.End()

		// Pipe: the output of the command that just ran becomes the input of
		// the next one.
		outputValue := chCtx.Get(CtxOut)
		chCtx.Remove(CtxIn)
		if outputValue != nil {
			chCtx.Add(CtxIn, outputValue)
		}
		chCtx.Remove(CtxOut)
	}

	if !chCtx.HasErrors() {
		chainSpan.SetStatus(codes.Ok, "chain completed successfully")
	} else {
		chainSpan.SetStatus(codes.Error, "chain failed to execute")
	}
}
