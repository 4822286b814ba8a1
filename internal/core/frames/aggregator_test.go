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
	"testing"

	"github.com/zeebo/assert"

	"github.com/jaycherian/go-media-insights/internal/core/frames"
	"github.com/jaycherian/go-media-insights/internal/core/model"
)

func frameWith(count *int, activities []string, objects []string, location string) model.FrameAnalysis {
	return model.FrameAnalysis{
		Analysis: model.SceneAnalysis{
			People:     model.PeopleObservation{Count: count},
			Activities: activities,
			Objects:    objects,
			Location:   model.LocationObservation{SpecificLocation: location},
		},
	}
}

func intPtr(v int) *int { return &v }

func TestAggregateEmptyInputIsZeroValued(t *testing.T) {
	got := frames.Aggregate(nil)

	assert.Equal(t, 0, got.PeopleCount.Min)
	assert.Equal(t, 0, got.PeopleCount.Max)
	assert.Equal(t, 0.0, got.PeopleCount.Average)
	assert.Equal(t, 0, len(got.Activities))
	assert.Equal(t, 0, len(got.CommonObjects))
	assert.Equal(t, 0, len(got.Locations.All))
	assert.Equal(t, "", got.Locations.MostCommon)
	assert.Equal(t, 0, len(got.PeopleDetails))
}

func TestAggregatePeopleCounts(t *testing.T) {
	got := frames.Aggregate([]model.FrameAnalysis{
		frameWith(intPtr(1), nil, nil, ""),
		frameWith(intPtr(2), nil, nil, ""),
		frameWith(intPtr(3), nil, nil, ""),
	})

	assert.Equal(t, 1, got.PeopleCount.Min)
	assert.Equal(t, 3, got.PeopleCount.Max)
	assert.Equal(t, 2.0, got.PeopleCount.Average)
}

func TestAggregateExcludesMissingCountsFromAverage(t *testing.T) {
	// A frame with no count must not drag the mean toward zero.
	got := frames.Aggregate([]model.FrameAnalysis{
		frameWith(intPtr(4), nil, nil, ""),
		frameWith(nil, nil, nil, ""),
		frameWith(intPtr(2), nil, nil, ""),
	})

	assert.Equal(t, 2, got.PeopleCount.Min)
	assert.Equal(t, 4, got.PeopleCount.Max)
	assert.Equal(t, 3.0, got.PeopleCount.Average)
}

func TestAggregateZeroCountIsObserved(t *testing.T) {
	// An observed zero participates; only a missing count is excluded.
	got := frames.Aggregate([]model.FrameAnalysis{
		frameWith(intPtr(0), nil, nil, ""),
		frameWith(intPtr(2), nil, nil, ""),
	})

	assert.Equal(t, 0, got.PeopleCount.Min)
	assert.Equal(t, 2, got.PeopleCount.Max)
	assert.Equal(t, 1.0, got.PeopleCount.Average)
}

func TestAggregateUnionsPreserveFirstEncounteredOrder(t *testing.T) {
	got := frames.Aggregate([]model.FrameAnalysis{
		frameWith(nil, []string{"walking", "talking"}, []string{"bench"}, ""),
		frameWith(nil, []string{"talking", "running"}, []string{"bench", "tree"}, ""),
	})

	assert.Equal(t, 3, len(got.Activities))
	assert.Equal(t, "walking", got.Activities[0])
	assert.Equal(t, "talking", got.Activities[1])
	assert.Equal(t, "running", got.Activities[2])

	assert.Equal(t, 2, len(got.CommonObjects))
	assert.Equal(t, "bench", got.CommonObjects[0])
	assert.Equal(t, "tree", got.CommonObjects[1])
}

func TestAggregateMostCommonLocation(t *testing.T) {
	got := frames.Aggregate([]model.FrameAnalysis{
		frameWith(nil, nil, nil, "park"),
		frameWith(nil, nil, nil, "street"),
		frameWith(nil, nil, nil, "street"),
	})

	assert.Equal(t, 2, len(got.Locations.All))
	assert.Equal(t, "street", got.Locations.MostCommon)
}

func TestAggregateLocationTieBreaksToFirstEncountered(t *testing.T) {
	got := frames.Aggregate([]model.FrameAnalysis{
		frameWith(nil, nil, nil, "park"),
		frameWith(nil, nil, nil, "street"),
	})

	assert.Equal(t, "park", got.Locations.MostCommon)
}

func TestAggregateConcatenatesPeopleDetails(t *testing.T) {
	first := model.FrameAnalysis{Analysis: model.SceneAnalysis{
		People: model.PeopleObservation{Details: []model.PersonDetail{{Description: "a"}}},
	}}
	second := model.FrameAnalysis{Analysis: model.SceneAnalysis{
		People: model.PeopleObservation{Details: []model.PersonDetail{{Description: "b"}, {Description: "c"}}},
	}}

	got := frames.Aggregate([]model.FrameAnalysis{first, second})

	assert.Equal(t, 3, len(got.PeopleDetails))
	assert.Equal(t, "a", got.PeopleDetails[0].Description)
	assert.Equal(t, "c", got.PeopleDetails[2].Description)
}
