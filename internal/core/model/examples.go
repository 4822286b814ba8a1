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

// Package model defines the core data structures for the application.
// This file provides populated example instances used for few-shot prompting:
// the example is serialized to JSON and embedded in the instruction prompt so
// the model returns output in exactly the shape the decoder expects.
package model

// GetExampleSentiment returns a fully populated sentiment result used as the
// JSON example inside the sentiment classification prompt.
func GetExampleSentiment() *SentimentResult {
	return &SentimentResult{
		Sentiment:  "positive",
		Confidence: 0.92,
		Emotions:   []string{"joy", "excitement"},
		Summary:    "The speaker is enthusiastic about the product launch.",
	}
}

// GetExampleFrameAnalysis returns a fully populated scene analysis used as
// the JSON example inside the per-frame vision prompt.
func GetExampleFrameAnalysis() *SceneAnalysis {
	count := 2
	return &SceneAnalysis{
		People: PeopleObservation{
			Count: &count,
			Details: []PersonDetail{
				{Description: "adult in a blue jacket", Position: "left foreground", Activity: "walking"},
				{Description: "child holding a balloon", Position: "center", Activity: "standing"},
			},
		},
		Activities: []string{"walking", "talking"},
		Location: LocationObservation{
			Type:             "outdoor",
			Description:      "city park with trees and a paved path",
			SpecificLocation: "park",
		},
		Objects:          []string{"bench", "balloon", "streetlight"},
		SceneDescription: "Two people walk along a park path on a sunny afternoon.",
		Mood:             "cheerful",
		CameraAngle:      "eye-level",
		Lighting:         "natural daylight",
		VideoQuality:     "good",
	}
}
