// internal/genai/client.go
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"pagesmith/internal/common/config"
	"pagesmith/internal/common/logger"
	"pagesmith/internal/models"
)

var (
	ErrGenerationTimeout = errors.New("GENERATION_TIMEOUT")
	ErrGenerationFailed  = errors.New("GENERATION_FAILED")
	ErrInvalidOutput     = errors.New("INVALID_GENERATED_OUTPUT")
)

// Client invokes the generation model over an OpenAI-compatible
// chat-completions API and returns validated site files.
type Client struct {
	config config.GenAIConfig
	client *http.Client
	logger logger.Logger
}

func NewClient(cfg config.GenAIConfig, log logger.Logger) *Client {
	return &Client{
		config: cfg,
		// No client timeout; the per-call context deadline governs.
		client: &http.Client{},
		logger: log.With(map[string]interface{}{
			"component": "genai",
		}),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate asks the model for a deployable set of site files. Attachments are
// passed as typed URL references appended to the user message; the model
// resolves them itself.
func (c *Client) Generate(ctx context.Context, brief string, checks []string, attachments []models.Attachment) ([]models.GeneratedFile, error) {
	ctx, cancel := context.WithTimeout(ctx, config.GetDuration(c.config.Timeout))
	defer cancel()

	userContent := buildPrompt(brief, checks)
	if refs := ClassifyAttachments(attachments); len(refs) > 0 {
		refsJSON, _ := json.Marshal(refs)
		userContent += "\n\nATTACHMENTS:\n" + string(refsJSON)
	}

	reqBody := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: userContent},
		},
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}

	body, _ := json.Marshal(reqBody)

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrGenerationTimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewBuffer(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
		}

		resp, lastErr = c.client.Do(req)
		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}

		if ctx.Err() != nil {
			return nil, ErrGenerationTimeout
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrGenerationTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, lastErr)
	}

	if resp == nil {
		return nil, fmt.Errorf("%w: no successful response after retries", ErrGenerationFailed)
	}
	defer resp.Body.Close()

	var apiResponse chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrGenerationFailed, err)
	}

	if len(apiResponse.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion", ErrGenerationFailed)
	}

	files, err := parseFiles(apiResponse.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	if err := validateFiles(files); err != nil {
		return nil, err
	}

	c.logger.Info("content generation completed", map[string]interface{}{
		"fileCount": len(files),
	})

	return files, nil
}

// parseFiles decodes the completion into file records. Models occasionally
// wrap the array in a code fence or emit almost-JSON; both are recovered.
func parseFiles(content string) ([]models.GeneratedFile, error) {
	content = stripFences(content)

	var files []models.GeneratedFile
	if err := json.Unmarshal([]byte(content), &files); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(content)
		if repairErr != nil {
			return nil, fmt.Errorf("%w: unparseable completion: %v", ErrInvalidOutput, err)
		}
		if err := json.Unmarshal([]byte(repaired), &files); err != nil {
			return nil, fmt.Errorf("%w: unparseable completion after repair: %v", ErrInvalidOutput, err)
		}
	}

	return files, nil
}

func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

// validateFiles enforces the deployable-site contract: a root index.html, a
// README, and no fencing markup left inside any file.
func validateFiles(files []models.GeneratedFile) error {
	if len(files) == 0 {
		return fmt.Errorf("%w: model returned no files", ErrInvalidOutput)
	}

	var hasIndex, hasReadme bool
	for _, f := range files {
		if f.Path == "" {
			return fmt.Errorf("%w: file with empty path", ErrInvalidOutput)
		}
		if f.Path == "index.html" {
			hasIndex = true
		}
		if strings.HasPrefix(strings.ToUpper(f.Path), "README") {
			hasReadme = true
		}
		if strings.Contains(f.Content, "```") {
			return fmt.Errorf("%w: file %s contains fencing markup", ErrInvalidOutput, f.Path)
		}
	}

	if !hasIndex {
		return fmt.Errorf("%w: missing root index.html", ErrInvalidOutput)
	}
	if !hasReadme {
		return fmt.Errorf("%w: missing README", ErrInvalidOutput)
	}

	return nil
}
