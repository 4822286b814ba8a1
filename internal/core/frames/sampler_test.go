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

package frames_test

import (
	"context"
	"os"
	"testing"

	"github.com/zeebo/assert"

	"github.com/jaycherian/go-media-insights/internal/core/cor"
	"github.com/jaycherian/go-media-insights/internal/core/frames"
	"github.com/jaycherian/go-media-insights/internal/core/model"
	test "github.com/jaycherian/go-media-insights/internal/testutil"
)

func TestTimestamps(t *testing.T) {
	tests := []struct {
		name      string
		duration  float64
		interval  float64
		maxFrames int
		want      []float64
	}{
		{"even coverage under the cap", 37, 5, 10, []float64{0, 5, 10, 15, 20, 25, 30, 35}},
		{"cap truncates the sequence", 37, 5, 6, []float64{0, 5, 10, 15, 20, 25}},
		{"video shorter than one interval", 3, 5, 6, []float64{0}},
		{"unknown duration falls back to opening frame", 0, 5, 6, []float64{0}},
		{"timestamp equal to duration is excluded", 10, 5, 6, []float64{0, 5}},
		{"cap of one", 100, 5, 1, []float64{0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := frames.Timestamps(tc.duration, tc.interval, tc.maxFrames)
			assert.Equal(t, len(tc.want), len(got))
			for i := range tc.want {
				assert.Equal(t, tc.want[i], got[i])
			}
		})
	}
}

func newSamplerContext(t *testing.T) cor.Context {
	t.Helper()
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(cor.CtxIn, &model.DownloadResult{Path: "input.mp4", ContentType: "video/mp4"})
	return ctx
}

func TestFrameSamplerExtractsAllFrames(t *testing.T) {
	ctx := newSamplerContext(t)
	defer ctx.Close()

	sampler := frames.NewFrameSampler("frame_sampler", test.NewStubTranscoder(27), 5, 6, 3)
	sampler.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	sampled := ctx.Get(frames.KeySampledFrames).([]frames.SampledFrame)
	assert.Equal(t, 6, len(sampled))
	for i, frame := range sampled {
		assert.Equal(t, i, frame.Index)
		assert.Equal(t, float64(i*5), frame.TimestampSeconds)
		_, err := os.Stat(frame.Path)
		assert.NoError(t, err)
	}
}

func TestFrameSamplerSingleFrameOnUnknownDuration(t *testing.T) {
	ctx := newSamplerContext(t)
	defer ctx.Close()

	// Duration 0 makes the stub's probe fail, which must degrade to a
	// single frame at the start of the video.
	sampler := frames.NewFrameSampler("frame_sampler", test.NewStubTranscoder(0), 5, 6, 2)
	sampler.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	sampled := ctx.Get(frames.KeySampledFrames).([]frames.SampledFrame)
	assert.Equal(t, 1, len(sampled))
	assert.Equal(t, 0.0, sampled[0].TimestampSeconds)
}

func TestFrameSamplerFailsOnAnyGrabFailure(t *testing.T) {
	ctx := newSamplerContext(t)
	defer ctx.Close()

	stub := test.NewStubTranscoder(27)
	stub.FailFrameIndex = 2
	sampler := frames.NewFrameSampler("frame_sampler", stub, 5, 6, 1)
	sampler.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.Nil(t, ctx.Get(frames.KeySampledFrames))
}

func TestFrameSamplerFailsWithoutTranscoder(t *testing.T) {
	ctx := newSamplerContext(t)
	defer ctx.Close()

	sampler := frames.NewFrameSampler("frame_sampler", nil, 5, 6, 1)
	sampler.Execute(ctx)

	assert.True(t, ctx.HasErrors())
}
