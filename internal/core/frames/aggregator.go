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

// This file implements the aggregation fold over per-frame analyses: a pure
// function from a list of observations to video-level statistics. It holds
// no state and touches no I/O, so it is trivially testable and recomputable.
//
// Aggregation rules:
//   - People counts: min, max, and mean over frames that reported a numeric
//     count. Frames with no count are excluded from the denominator, not
//     treated as zero; "the model did not say" must not drag the mean down.
//   - Activities and objects: deduplicated unions in first-encountered order.
//   - Locations: every distinct non-empty location string, plus the most
//     frequent one (ties broken by first encountered).
//   - People details: concatenated across frames in frame order.
//
// An empty input yields a fully zero-valued result, not nil: callers can
// always read the aggregate without a nil check.
package frames

import (
	"github.com/jaycherian/go-media-insights/internal/core/model"
)

// Aggregate folds the per-frame analyses into video-level statistics.
func Aggregate(analyses []model.FrameAnalysis) *model.AggregatedAnalysis {
	result := &model.AggregatedAnalysis{
		Activities:    []string{},
		CommonObjects: []string{},
		PeopleDetails: []model.PersonDetail{},
		Locations:     model.LocationStats{All: []string{}},
	}

	countSeen := 0
	countSum := 0
	activitySeen := make(map[string]bool)
	objectSeen := make(map[string]bool)
	locationCounts := make(map[string]int)
	locationOrder := []string{}

	for _, frame := range analyses {
		if c := frame.Analysis.People.Count; c != nil {
			if countSeen == 0 || *c < result.PeopleCount.Min {
				result.PeopleCount.Min = *c
			}
			if countSeen == 0 || *c > result.PeopleCount.Max {
				result.PeopleCount.Max = *c
			}
			countSum += *c
			countSeen++
		}

		result.PeopleDetails = append(result.PeopleDetails, frame.Analysis.People.Details...)

		for _, activity := range frame.Analysis.Activities {
			if activity != "" && !activitySeen[activity] {
				activitySeen[activity] = true
				result.Activities = append(result.Activities, activity)
			}
		}

		for _, object := range frame.Analysis.Objects {
			if object != "" && !objectSeen[object] {
				objectSeen[object] = true
				result.CommonObjects = append(result.CommonObjects, object)
			}
		}

		if loc := frame.Analysis.Location.SpecificLocation; loc != "" {
			if locationCounts[loc] == 0 {
				locationOrder = append(locationOrder, loc)
			}
			locationCounts[loc]++
		}
	}

	if countSeen > 0 {
		result.PeopleCount.Average = float64(countSum) / float64(countSeen)
	}

	result.Locations.All = locationOrder
	best := 0
	for _, loc := range locationOrder {
		// Strict > keeps the first-encountered location on ties.
		if locationCounts[loc] > best {
			best = locationCounts[loc]
			result.Locations.MostCommon = loc
		}
	}

	return result
}
