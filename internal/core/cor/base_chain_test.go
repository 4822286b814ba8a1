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

package cor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zeebo/assert"

	"github.com/jaycherian/go-media-insights/internal/core/cor"
)

// appendCommand appends its tag to the string flowing down the chain pipe.
type appendCommand struct {
	cor.BaseCommand
	tag  string
	fail bool
	skip bool
}

func newAppendCommand(name, tag string) *appendCommand {
	return &appendCommand{BaseCommand: *cor.NewBaseCommand(name), tag: tag}
}

func (c *appendCommand) IsExecutable(ctx cor.Context) bool {
	return !c.skip && c.BaseCommand.IsExecutable(ctx)
}

func (c *appendCommand) Execute(ctx cor.Context) {
	if c.fail {
		ctx.AddError(c.GetName(), errors.New("boom"))
		return
	}
	in, _ := ctx.Get(c.GetInputParam()).(string)
	ctx.Add(c.GetOutputParam(), in+c.tag)
}

func newChainContext() cor.Context {
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	return ctx
}

func TestBaseChainPipesOutputsInOrder(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, "start:")

	chain := cor.NewBaseChain("pipe")
	chain.AddCommand(newAppendCommand("first", "a"))
	chain.AddCommand(newAppendCommand("second", "b"))
	chain.AddCommand(newAppendCommand("third", "c"))
	chain.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Equal(t, "start:abc", ctx.Get(cor.CtxIn).(string))
}

func TestBaseChainStopsOnFirstError(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, "start:")

	failing := newAppendCommand("failing", "x")
	failing.fail = true

	chain := cor.NewBaseChain("stop")
	chain.AddCommand(newAppendCommand("first", "a"))
	chain.AddCommand(failing)
	chain.AddCommand(newAppendCommand("after", "z"))
	chain.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	// The command after the failure never ran.
	assert.Nil(t, ctx.Get(cor.CtxIn))
}

func TestBaseChainSkipIsNotFailure(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, "start:")

	skipped := newAppendCommand("skipped", "x")
	skipped.skip = true

	// The command after a skip reads its input by a named key, the way the
	// pipeline stages downstream of the conditional extraction do: a skip
	// leaves the pipe empty.
	ctx.Add("named_input", "named:")
	after := newAppendCommand("after", "y")
	after.InputParamName = "named_input"

	chain := cor.NewBaseChain("skip")
	chain.AddCommand(newAppendCommand("first", "a"))
	chain.AddCommand(skipped)
	chain.AddCommand(after)
	chain.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Equal(t, "named:y", ctx.Get(cor.CtxIn).(string))
}

func TestBaseContextCloseReleasesTempResourcesOnce(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "scratch.bin")
	assert.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	sub := filepath.Join(dir, "frames")
	assert.NoError(t, os.Mkdir(sub, 0o700))

	ctx := cor.NewBaseContext()
	ctx.AddTempFile(file)
	ctx.AddTempDir(sub)

	ctx.Close()
	_, err := os.Stat(file)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(sub)
	assert.True(t, os.IsNotExist(err))

	// A second close is a no-op, not a double release.
	ctx.Close()
}

func TestBaseContextTimingsKeepLatestValue(t *testing.T) {
	ctx := cor.NewBaseContext()
	ctx.AddTiming("stage", 100*time.Millisecond)
	ctx.AddTiming("stage", 250*time.Millisecond)
	assert.Equal(t, int64(250), ctx.GetTimings()["stage"])
}
