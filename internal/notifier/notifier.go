// internal/notifier/notifier.go
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pagesmith/internal/common/config"
	"pagesmith/internal/common/errors"
	"pagesmith/internal/common/logger"
	"pagesmith/internal/common/metrics"
)

// Notifier delivers the final evaluation payload to an unreliable downstream
// endpoint. Success is strictly HTTP 200; any other status or transport error
// is retried with doubling, capped backoff until the attempt budget runs out.
type Notifier struct {
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	client       *http.Client
	logger       logger.Logger
}

func New(cfg config.NotifierConfig, log logger.Logger) *Notifier {
	return &Notifier{
		maxAttempts:  cfg.MaxAttempts,
		initialDelay: config.GetDuration(cfg.InitialDelay),
		maxDelay:     config.GetDuration(cfg.MaxDelay),
		client: &http.Client{
			Timeout: config.GetDuration(cfg.AttemptTimeout),
		},
		logger: log.With(map[string]interface{}{
			"component": "notifier",
		}),
	}
}

// Notify posts the payload to url until one attempt returns HTTP 200. It
// returns nil on delivery and a DELIVERY_EXHAUSTED error once the attempt
// budget is spent, so the caller can record the loss.
func (n *Notifier) Notify(ctx context.Context, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	delay := n.initialDelay

	for attempt := 1; attempt <= n.maxAttempts; attempt++ {
		metrics.NotifierAttempts.Inc()

		status, err := n.post(ctx, url, body)
		if err == nil && status == http.StatusOK {
			n.logger.Info("evaluation callback delivered", map[string]interface{}{
				"url":     url,
				"attempt": attempt,
			})
			metrics.NotifierDeliveries.WithLabelValues("delivered").Inc()
			return nil
		}

		if err != nil {
			n.logger.Warn("evaluation callback attempt failed", map[string]interface{}{
				"url":     url,
				"attempt": attempt,
				"error":   err.Error(),
				"delay":   delay.String(),
			})
		} else {
			n.logger.Warn("evaluation callback rejected", map[string]interface{}{
				"url":     url,
				"attempt": attempt,
				"status":  status,
				"delay":   delay.String(),
			})
		}

		if attempt == n.maxAttempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			metrics.NotifierDeliveries.WithLabelValues("canceled").Inc()
			return ctx.Err()
		}

		delay *= 2
		if delay > n.maxDelay {
			delay = n.maxDelay
		}
	}

	metrics.NotifierDeliveries.WithLabelValues("exhausted").Inc()
	return errors.NewDeliveryExhaustedError(url, n.maxAttempts)
}

func (n *Notifier) post(ctx context.Context, url string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}
