// internal/common/errors/handler.go
package errors

// ErrorHandler normalizes pipeline errors and logs them with consistent fields.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleRunError logs a failed pipeline run and returns the normalized error
// so callers can record it on the run record.
func (h *ErrorHandler) HandleRunError(runID, task string, round int, err error) *StandardError {
	stdErr := Normalize(err)

	h.logger.Error("pipeline run failed", map[string]interface{}{
		"runId":         runID,
		"task":          task,
		"round":         round,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	})

	return stdErr
}
