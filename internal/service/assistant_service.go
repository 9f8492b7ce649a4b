package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/exemption-service/internal/config"
	apperrors "github.com/spec-kit/exemption-service/pkg/util"
)

const assistantMaxAttempts = 3

// AssistantMessage is one turn of an assistant conversation.
type AssistantMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AssistantService proxies chat requests to an OpenAI-compatible completion
// endpoint so the API key never reaches the browser.
type AssistantService struct {
	cfg    config.AssistantConfig
	client *http.Client
	logger *zap.Logger
}

// NewAssistantService constructs the proxy.
func NewAssistantService(cfg config.AssistantConfig, logger *zap.Logger) *AssistantService {
	return &AssistantService{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		logger: logger,
	}
}

type completionRequest struct {
	Model    string             `json:"model"`
	Messages []AssistantMessage `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message AssistantMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete forwards the conversation and returns the assistant's reply.
// Transient upstream failures are retried with exponential backoff.
func (s *AssistantService) Complete(ctx context.Context, messages []AssistantMessage) (string, error) {
	if s.cfg.APIKey == "" {
		return "", apperrors.NewDomainError("ASSISTANT_UNAVAILABLE", "assistant is not configured", 503, nil)
	}
	if len(messages) == 0 {
		return "", apperrors.NewValidationError("at least one message required", nil)
	}
	for _, m := range messages {
		if strings.TrimSpace(m.Content) == "" {
			return "", apperrors.NewValidationError("message content required", nil)
		}
		if m.Role != "user" && m.Role != "assistant" && m.Role != "system" {
			return "", apperrors.NewValidationError("unknown message role", map[string]any{"role": m.Role})
		}
	}

	body, err := json.Marshal(completionRequest{Model: s.cfg.Model, Messages: messages})
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}

	var lastErr error
	for attempt := 1; attempt <= assistantMaxAttempts; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(1<<(attempt-2)) * time.Second
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		reply, retryable, err := s.call(ctx, body)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
		s.logger.Warn("assistant call failed",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return "", apperrors.NewProviderError("assistant", lastErr)
}

func (s *AssistantService) call(ctx context.Context, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", false, apperrors.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", true, err
	}

	if resp.StatusCode >= 500 {
		return "", true, fmt.Errorf("upstream status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		var decoded completionResponse
		msg := fmt.Sprintf("upstream status %d", resp.StatusCode)
		if json.Unmarshal(raw, &decoded) == nil && decoded.Error != nil && decoded.Error.Message != "" {
			msg = decoded.Error.Message
		}
		return "", false, apperrors.NewProviderError("assistant", fmt.Errorf("%s", msg))
	}

	var decoded completionResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", false, apperrors.NewProviderError("assistant", err)
	}
	if len(decoded.Choices) == 0 {
		return "", false, apperrors.NewProviderError("assistant", fmt.Errorf("empty completion"))
	}
	return decoded.Choices[0].Message.Content, false, nil
}
