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

// Package frames implements the video-analysis pipeline: sampling still
// frames from a video, analyzing each frame with a vision model, and
// aggregating the per-frame observations into video-level statistics.
//
// This file defines the frame sampler. Timestamp selection is a pure
// function over (duration, interval, cap); the extraction of the selected
// frames fans out over a bounded worker pool. Sampling failures are fatal to
// the video analysis: unlike a failed vision call, a failed extraction means
// the local tooling is broken and later frames would fail the same way.
package frames

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jaycherian/go-media-insights/internal/core/cor"
	"github.com/jaycherian/go-media-insights/internal/core/media"
	"github.com/jaycherian/go-media-insights/internal/core/model"
)

// Context keys for the video-analysis pipeline.
const (
	KeySampledFrames = "sampled_frames"   // []SampledFrame: extracted frame images, in timestamp order.
	KeyFrameAnalyses = "frame_analyses"   // []model.FrameAnalysis: surviving per-frame analyses.
	KeyVisionUsage   = "vision_usage"     // model.TokenUsage: accumulated across all vision calls.
	KeyVideoInterval = "video_interval"   // float64: the sampling interval actually used.
	KeyVideoResult   = "video_result"     // *model.VideoAnalysisResult.
	StageVideoTotal  = "video_processing" // Timing entry for the whole video pipeline.
)

const frameDirPrefix = "video-frames"

// SampledFrame is one still image pulled from the video.
type SampledFrame struct {
	Index            int     // Position in the sampling sequence.
	TimestampSeconds float64 // Where in the video the frame was taken.
	Path             string  // Local path of the extracted JPEG.
}

// Timestamps selects the sampling points for a video: 0, interval,
// 2*interval, strictly less than the duration, capped at maxFrames. A video
// shorter than one interval still yields its opening frame. An unknown
// duration (<= 0) also falls back to the single opening frame, which every
// video has.
func Timestamps(durationSeconds float64, intervalSeconds float64, maxFrames int) []float64 {
	if maxFrames < 1 {
		maxFrames = 1
	}
	if durationSeconds <= 0 || intervalSeconds <= 0 {
		return []float64{0}
	}
	points := make([]float64, 0, maxFrames)
	for ts := 0.0; ts < durationSeconds && len(points) < maxFrames; ts += intervalSeconds {
		points = append(points, ts)
	}
	if len(points) == 0 {
		points = append(points, 0)
	}
	return points
}

// FrameSampler is a command implementation that extracts still frames from
// the downloaded video on a bounded worker pool.
type FrameSampler struct {
	cor.BaseCommand                  // Embeds the BaseCommand for naming and metrics.
	transcoder      media.Transcoder // The tool boundary used to probe and grab frames.
	intervalSeconds float64          // Spacing between sampled frames.
	maxFrames       int              // Cap on the number of frames per video.
	workerCount     int              // Size of the extraction worker pool.
}

// NewFrameSampler is the constructor for creating a new FrameSampler command.
func NewFrameSampler(name string, transcoder media.Transcoder, intervalSeconds float64, maxFrames int, workerCount int) *FrameSampler {
	if workerCount < 1 {
		workerCount = 1
	}
	return &FrameSampler{
		BaseCommand:     *cor.NewBaseCommand(name),
		transcoder:      transcoder,
		intervalSeconds: intervalSeconds,
		maxFrames:       maxFrames,
		workerCount:     workerCount,
	}
}

// Execute probes the video duration, selects the sampling points, and fans
// the frame grabs out over the worker pool. The first extraction failure
// fails the whole stage.
func (c *FrameSampler) Execute(context cor.Context) {
	download := context.Get(c.GetInputParam()).(*model.DownloadResult)

	start := time.Now()
	defer func() { context.AddTiming("frame_sampling", time.Since(start)) }()

	if c.transcoder == nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.ExtractionError{
			ToolMissing: true,
			Err:         fmt.Errorf("no transcoding tool available for frame sampling"),
		})
		return
	}

	// An unprobeable duration is not fatal: Timestamps degrades to the
	// single opening frame.
	duration, err := c.transcoder.ProbeDuration(context.GetContext(), download.Path)
	if err != nil {
		duration = 0
	}
	points := Timestamps(duration, c.intervalSeconds, c.maxFrames)
	context.Add(KeyVideoInterval, c.intervalSeconds)

	frameDir, err := media.CreateTempDir(frameDirPrefix)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}
	// One directory per run; removed recursively with the request.
	context.AddTempDir(frameDir)

	frames := make([]SampledFrame, len(points))
	errs := make([]error, len(points))
	tasks := make(chan int, len(points))

	var wg sync.WaitGroup
	for w := 0; w < c.workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				path := fmt.Sprintf("%s/frame-%03d.jpg", frameDir, i)
				errs[i] = c.transcoder.GrabFrame(context.GetContext(), download.Path, path, points[i])
				frames[i] = SampledFrame{Index: i, TimestampSeconds: points[i], Path: path}
			}
		}()
	}
	for i := range points {
		tasks <- i
	}
	close(tasks)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), fmt.Errorf("failed to sample frame %d at %.1fs: %w", i, points[i], err))
			return
		}
	}

	sort.Slice(frames, func(a, b int) bool { return frames[a].Index < frames[b].Index })

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(KeySampledFrames, frames)
	context.Add(c.GetOutputParam(), frames)
}
