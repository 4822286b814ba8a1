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

// This file defines the command that enforces the transcription API's upload
// size ceiling. The check runs on the file that will actually be uploaded:
// the original download for audio-only inputs, the extracted audio track for
// video inputs. An oversized original video whose extracted audio fits is
// therefore accepted.
package commands

import (
	"fmt"
	"os"

	"github.com/jaycherian/go-media-insights/internal/core/cor"
	"github.com/jaycherian/go-media-insights/internal/core/model"
)

// SizeCheck is a command implementation that rejects uploads over the
// transcription API's size limit before any provider spend happens.
type SizeCheck struct {
	cor.BaseCommand         // Embeds the BaseCommand for naming and metrics.
	limitMB         float64 // The upload ceiling in megabytes.
}

// NewSizeCheck is the constructor for creating a new SizeCheck command.
func NewSizeCheck(name string, limitMB float64) *SizeCheck {
	base := cor.NewBaseCommand(name)
	base.InputParamName = KeyUploadPath
	return &SizeCheck{BaseCommand: *base, limitMB: limitMB}
}

// Execute stats the upload candidate and fails the pipeline when it exceeds
// the ceiling.
func (c *SizeCheck) Execute(context cor.Context) {
	uploadPath := context.Get(c.GetInputParam()).(string)

	sizeMB, err := fileSizeMB(uploadPath)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("could not stat upload candidate %s: %w", uploadPath, err))
		return
	}

	if sizeMB > c.limitMB {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.FileTooLargeError{SizeMB: sizeMB, LimitMB: c.limitMB})
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), uploadPath)
}

func fileSizeMB(path string) (float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return float64(info.Size()) / (1024 * 1024), nil
}
