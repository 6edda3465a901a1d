// internal/server/handler.go
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pagesmith/internal/common/errors"
	"pagesmith/internal/common/logger"
	"pagesmith/internal/common/validation"
	"pagesmith/internal/models"
	"pagesmith/internal/pipeline"
	"pagesmith/internal/runstore"
)

// TaskHandler authenticates inbound task requests and schedules pipeline
// runs. The HTTP response only acknowledges receipt; the pipeline outcome
// reaches the caller later through the evaluation callback.
type TaskHandler struct {
	secret string
	orch   *pipeline.Orchestrator
	store  *runstore.Store
	logger logger.Logger
}

func NewTaskHandler(secret string, orch *pipeline.Orchestrator, store *runstore.Store, log logger.Logger) *TaskHandler {
	return &TaskHandler{
		secret: secret,
		orch:   orch,
		store:  store,
		logger: log,
	}
}

func (h *TaskHandler) HandleTask(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	secret, _ := body["secret"].(string)
	if secret != h.secret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// Schema validation also rejects round values outside {1, 2} up front, so
	// nothing unsupported ever reaches a background goroutine.
	if err := validation.ValidateTaskRequest(body); err != nil {
		stdErr := errors.NewInvalidTaskRequestError(err.Error())
		c.JSON(http.StatusBadRequest, gin.H{
			"error": stdErr.Details,
			"code":  string(stdErr.Code),
		})
		return
	}

	var req models.TaskRequest
	raw, _ := json.Marshal(body)
	if err := json.Unmarshal(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed task request"})
		return
	}

	runID := uuid.NewString()

	h.logger.Info("task request accepted", map[string]interface{}{
		"runId": runID,
		"task":  req.Task,
		"round": req.Round,
	})

	// One goroutine per accepted request; the run outlives this HTTP request
	// and cannot be canceled by it.
	go func() {
		_ = h.orch.Run(context.Background(), runID, &req)
	}()

	c.JSON(http.StatusOK, gin.H{"message": "received", "run_id": runID})
}

func (h *TaskHandler) GetRun(c *gin.Context) {
	record, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err == runstore.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, record)
}
