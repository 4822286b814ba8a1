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

// Package api provides the HTTP surface of the service: the health endpoint
// and the transcription endpoint. The transcription handler is the single
// error boundary for the pipeline: every fatal failure, wherever it arose,
// is reported from here in one shape ({error, message, url}), and the
// deferred context close guarantees temp-file cleanup on every exit path,
// success or failure.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/go-media-insights/internal/core/commands"
	"github.com/jaycherian/go-media-insights/internal/core/cor"
	"github.com/jaycherian/go-media-insights/internal/core/model"
	"github.com/jaycherian/go-media-insights/internal/core/workflow"
	"github.com/jaycherian/go-media-insights/internal/provider"
)

// Handlers bundles the HTTP handlers with their dependencies. Clients may be
// nil when the provider credential is not configured; the transcribe handler
// then answers 500 while the health endpoint keeps working.
type Handlers struct {
	Config  *provider.Config
	Clients *provider.ServiceClients

	transcription *workflow.TranscriptionWorkflow
}

// NewHandlers wires the handler set. The transcription workflow is built
// once and reused across requests; per-request state lives on the COR
// context, never on the workflow.
func NewHandlers(config *provider.Config, clients *provider.ServiceClients) *Handlers {
	h := &Handlers{Config: config, Clients: clients}
	if clients != nil {
		h.transcription = workflow.NewTranscriptionWorkflow(config, clients)
	}
	return h
}

// Register attaches the routes to the gin engine.
func (h *Handlers) Register(r *gin.Engine) {
	r.GET("/health", h.Health)
	api := r.Group("/api")
	{
		api.POST("/transcribe", h.Transcribe)
	}
}

// Health reports liveness plus the configured service name, so operators
// can tell which deployment answered and when.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   h.Config.Application.Name,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// transcribeBody is decoded loosely so a non-string url can be told apart
// from a missing one and rejected with the same client-facing message.
type transcribeBody struct {
	URL                 json.RawMessage `json:"url"`
	SummarizationPrompt string          `json:"summarizationPrompt"`
}

// Transcribe handles POST /api/transcribe: it validates the request, runs
// the pipeline, and maps the outcome onto the wire.
//
// Status mapping:
//   - 400: the body has no usable string url. This is the only client error.
//   - 500: everything the server or its dependencies got wrong — missing
//     credential, download/extraction/size/transcription failures.
//   - 200: a transcript exists; enrichment stages may have degraded.
func (h *Handlers) Transcribe(c *gin.Context) {
	started := time.Now()

	var body transcribeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, model.ErrMissingURL, "")
		return
	}
	var mediaURL string
	if err := json.Unmarshal(body.URL, &mediaURL); err != nil || mediaURL == "" {
		writeError(c, http.StatusBadRequest, model.ErrMissingURL, "")
		return
	}

	if h.Clients == nil || h.transcription == nil {
		writeError(c, http.StatusInternalServerError, model.ErrMissingCredential, mediaURL)
		return
	}

	request := &model.MediaRequest{
		URL:                 mediaURL,
		SummarizationPrompt: body.SummarizationPrompt,
	}

	corCtx := cor.NewBaseContext()
	corCtx.SetContext(c.Request.Context())
	corCtx.Add(cor.CtxIn, request)
	// The deferred close backstops every exit path below; Close is
	// idempotent, so the explicit timed close on the success path is safe.
	defer corCtx.Close()

	h.transcription.Execute(corCtx)

	if corCtx.HasErrors() {
		err := firstError(corCtx)
		slog.ErrorContext(c.Request.Context(), "transcription pipeline failed", "url", mediaURL, "error", err)
		// Release the temp files before the failure goes on the wire, the
		// same ordering the success path uses.
		corCtx.Close()
		writeError(c, http.StatusInternalServerError, err, mediaURL)
		return
	}

	response, ok := corCtx.Get(commands.KeyResponse).(*model.TranscribeResponse)
	if !ok {
		writeError(c, http.StatusInternalServerError, errors.New("pipeline finished without producing a response"), mediaURL)
		return
	}

	// Release the temp files now so their cost lands in the reported
	// cleanup time rather than in the connection teardown.
	cleanupStart := time.Now()
	corCtx.Close()
	response.Metadata.ProcessingTimes.Cleanup = time.Since(cleanupStart).Milliseconds()
	response.Metadata.ProcessingTimes.Total = time.Since(started).Milliseconds()

	c.JSON(http.StatusOK, response)
}

// writeError emits the single error shape used by every failure path.
func writeError(c *gin.Context, status int, err error, url string) {
	payload := gin.H{
		"error":   http.StatusText(status),
		"message": err.Error(),
	}
	if url != "" {
		payload["url"] = url
	}
	c.JSON(status, payload)
}

// firstError picks one error out of the context's error map for the wire.
// The chain stops at the first fatal error, so the map holds exactly one
// entry in practice.
func firstError(corCtx cor.Context) error {
	for _, err := range corCtx.GetErrors() {
		return err
	}
	return nil
}
