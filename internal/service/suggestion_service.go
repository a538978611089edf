package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/MK-codes365/greenwipe/internal/llm"
	"go.uber.org/zap"
)

// ErrSuggestionsDisabled is wrapped in UpstreamSuggestionError when no provider is configured
var ErrSuggestionsDisabled = errors.New("suggestions are not configured")

const suggestionSystemPrompt = `You are an expert in data sanitization. Based on the file properties provided, suggest an optimal data wiping procedure that aligns with NIST SP 800-88 standards. Also provide the relevant NIST guidance for this type of digital media.
Answer with a JSON object with the string fields "wipeSuggestion" and "nistGuidance".`

// SuggestionRequest describes the item to be wiped
type SuggestionRequest struct {
	FileName string
	FileSize string
}

// Suggestion is the advisory answer of the provider
type Suggestion struct {
	WipeSuggestion string `json:"wipeSuggestion"`
	NISTGuidance   string `json:"nistGuidance"`
}

// SuggestionService asks the LLM provider for a wipe method
type SuggestionService struct {
	llm    llm.Completer
	logger *zap.Logger
}

// NewSuggestionService creates a suggestion service. A nil completer disables suggestions.
func NewSuggestionService(completer llm.Completer, logger *zap.Logger) *SuggestionService {
	return &SuggestionService{
		llm:    completer,
		logger: logger,
	}
}

// Suggest returns a recommendation. Every provider failure is reported as
// *UpstreamSuggestionError and never affects certificate creation.
func (s *SuggestionService) Suggest(ctx context.Context, req *SuggestionRequest) (*Suggestion, error) {
	if strings.TrimSpace(req.FileName) == "" || strings.TrimSpace(req.FileSize) == "" {
		suggestionsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: fileName and fileSize are required", ErrInvalidRequest)
	}
	if s.llm == nil {
		suggestionsTotal.WithLabelValues("upstream_error").Inc()
		return nil, &UpstreamSuggestionError{Err: ErrSuggestionsDisabled}
	}

	resp, err := s.llm.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: suggestionSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("File Name: %s\nFile Size: %s", req.FileName, req.FileSize)},
		},
		ResponseFormat: llm.JSONObject,
	})
	if err != nil {
		suggestionsTotal.WithLabelValues("upstream_error").Inc()
		s.logger.Warn("Suggestion provider failed", zap.Error(err))
		return nil, &UpstreamSuggestionError{Err: err}
	}

	var suggestion Suggestion
	if err := json.Unmarshal([]byte(resp.Content), &suggestion); err != nil {
		suggestionsTotal.WithLabelValues("upstream_error").Inc()
		return nil, &UpstreamSuggestionError{Err: fmt.Errorf("malformed suggestion: %w", err)}
	}
	if suggestion.WipeSuggestion == "" {
		suggestionsTotal.WithLabelValues("upstream_error").Inc()
		return nil, &UpstreamSuggestionError{Err: errors.New("empty suggestion")}
	}

	suggestionsTotal.WithLabelValues("ok").Inc()
	return &suggestion, nil
}
