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

// This file defines the fan-out command that runs the sentiment and summary
// stages concurrently. Both stages read the same immutable transcript and
// write to disjoint context keys, so they are safe to run in parallel, and
// neither can fail the request: each degrades to its own fallback
// independently. A sentiment failure never costs the caller the summary,
// and vice versa.
package commands

import (
	"sync"

	"github.com/jaycherian/go-media-insights/internal/core/cor"
)

// Enrichment is a command implementation that executes its child commands
// concurrently over the shared context and waits for all of them.
type Enrichment struct {
	cor.BaseCommand               // Embeds the BaseCommand for naming and metrics.
	children        []cor.Command // The commands to fan out; each owns its own failure policy.
}

// NewEnrichment is the constructor for creating a new Enrichment command
// wrapping the given children.
func NewEnrichment(name string, children ...cor.Command) *Enrichment {
	base := cor.NewBaseCommand(name)
	base.InputParamName = KeyTranscription
	return &Enrichment{BaseCommand: *base, children: children}
}

// Execute fans the children out on goroutines and blocks until every one has
// finished. The shared context is mutex-guarded, so concurrent writes to
// disjoint keys are safe.
func (c *Enrichment) Execute(context cor.Context) {
	var wg sync.WaitGroup
	for _, child := range c.children {
		if !child.IsExecutable(context) {
			continue
		}
		wg.Add(1)
		go func(cmd cor.Command) {
			defer wg.Done()
			cmd.Execute(context)
		}(child)
	}
	wg.Wait()

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	// Re-emit the transcript so the chain pipe stays primed for the
	// response assembler.
	context.Add(c.GetOutputParam(), context.Get(KeyTranscription))
}
