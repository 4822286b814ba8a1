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

package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/go-media-insights/internal/api"
	"github.com/jaycherian/go-media-insights/internal/core/model"
	"github.com/jaycherian/go-media-insights/internal/provider"
	test "github.com/jaycherian/go-media-insights/internal/testutil"
)

const sentimentJSON = `{"sentiment":"positive","confidence":0.9,"emotions":["joy"],"summary":"upbeat"}`

// newRouter builds a gin engine with the handler set registered, the way
// main does, minus the middleware that needs a live telemetry pipeline.
func newRouter(t *testing.T, clients *provider.ServiceClients) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api.NewHandlers(test.GetConfig(), clients).Register(r)
	return r
}

// newClients wires fakes into the client container.
func newClients(transcriber provider.AudioTranscriber, chatFakes map[string]*test.FakeChatCompleter) *provider.ServiceClients {
	config := test.GetConfig()
	agentModels := make(map[string]*provider.QuotaAwareChatModel)
	for role, settings := range config.AgentModels {
		fake, ok := chatFakes[role]
		if !ok {
			fake = &test.FakeChatCompleter{Fail: true}
		}
		agentModels[role] = provider.NewQuotaAwareChatModel(fake, settings)
	}
	return &provider.ServiceClients{Transcriber: transcriber, AgentModels: agentModels}
}

// postTranscribe performs a POST /api/transcribe with the given body.
func postTranscribe(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	r := newRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["service"])

	_, err := time.Parse(time.RFC3339, body["timestamp"])
	assert.NoError(t, err, "timestamp must be ISO8601, got %q", body["timestamp"])
}

func TestTranscribeRejectsMissingURL(t *testing.T) {
	r := newRouter(t, newClients(&test.FakeTranscriber{Text: "x"}, nil))

	for _, body := range []string{`{}`, `{"url":123}`, `{"url":""}`, `not json`} {
		w := postTranscribe(r, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
		assert.Contains(t, w.Body.String(), "url is required")
	}
}

func TestTranscribeReportsMissingCredential(t *testing.T) {
	// A nil client container means the provider key was never configured.
	r := newRouter(t, nil)

	w := postTranscribe(r, `{"url":"http://example.com/a.mp3"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "API key")
}

func TestTranscribeEndToEnd(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3 bytes"))
	}))
	defer origin.Close()

	clients := newClients(
		&test.FakeTranscriber{Text: "hello over http"},
		map[string]*test.FakeChatCompleter{
			provider.AgentSentiment:     {Responses: []string{sentimentJSON}},
			provider.AgentSummarization: {Responses: []string{"A greeting."}},
		})
	r := newRouter(t, clients)

	w := postTranscribe(r, `{"url":"`+origin.URL+`/talk.mp3"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var response model.TranscribeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "hello over http", response.Transcription)
	assert.Equal(t, "positive", response.Sentiment.Sentiment)
	assert.Equal(t, "A greeting.", response.Summary)
	assert.True(t, response.Metadata.FileWasAudio)
	assert.Equal(t, 30, response.Metadata.TokenUsage.Total.TotalTokens)
	assert.GreaterOrEqual(t, response.Metadata.ProcessingTimes.Total, response.Metadata.ProcessingTimes.Transcription)
}

// tempWatchRecorder snapshots, at the moment the response body is written,
// how many downloaded temp files are still on disk.
type tempWatchRecorder struct {
	*httptest.ResponseRecorder
	leftoverAtWrite int
}

func (w *tempWatchRecorder) Write(b []byte) (int, error) {
	w.leftoverAtWrite = countDownloadTemps()
	return w.ResponseRecorder.Write(b)
}

func countDownloadTemps() int {
	matches, _ := filepath.Glob(filepath.Join(os.TempDir(), "media-download-*"))
	return len(matches)
}

func TestTranscribeReleasesTempFilesBeforeErrorResponse(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3 bytes"))
	}))
	defer origin.Close()

	// The download succeeds, so a temp file exists when transcription fails.
	r := newRouter(t, newClients(&test.FakeTranscriber{Fail: true}, nil))

	baseline := countDownloadTemps()
	rec := &tempWatchRecorder{ResponseRecorder: httptest.NewRecorder()}
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", bytes.NewBufferString(`{"url":"`+origin.URL+`/talk.mp3"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, baseline, rec.leftoverAtWrite,
		"temp files must be released before the error body is written")
}

func TestTranscribeMapsPipelineFailureTo500(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer origin.Close()

	r := newRouter(t, newClients(&test.FakeTranscriber{Text: "x"}, nil))

	url := origin.URL + "/missing.mp3"
	w := postTranscribe(r, `{"url":"`+url+`"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	// The error shape carries the requested URL for correlation.
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, url, body["url"])
	assert.Contains(t, body["message"], "failed to download")
}
