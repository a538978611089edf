package service

import (
	"context"
	"fmt"

	"github.com/MK-codes365/greenwipe/internal/llm"
	"go.uber.org/zap"
)

// CreateCertificateTool is the only tool offered to the model
const CreateCertificateTool = "create_certificate"

var createCertificateTool = llm.NewFunctionTool(
	CreateCertificateTool,
	"Creates a new data wipe certificate in the system and returns its ID.",
	map[string]any{
		"type": "object",
		"properties": map[string]any{
			"itemName":   map[string]any{"type": "string"},
			"itemSize":   map[string]any{"type": "string"},
			"clientName": map[string]any{"type": "string"},
			"wipeMethod": map[string]any{"type": "string"},
		},
		"required": []string{"itemName", "itemSize", "clientName", "wipeMethod"},
	},
)

// AssistedCreator routes creation through the LLM tool call. The tool always
// runs the wrapped creator with the caller's request, and any model failure
// falls back to calling it directly, so the result never depends on the model.
type AssistedCreator struct {
	next   CertificateCreator
	llm    llm.Completer
	logger *zap.Logger
}

// NewAssistedCreator wraps next with the LLM-driven path
func NewAssistedCreator(next CertificateCreator, completer llm.Completer, logger *zap.Logger) *AssistedCreator {
	return &AssistedCreator{
		next:   next,
		llm:    completer,
		logger: logger,
	}
}

// Create runs the wrapped creator exactly once
func (a *AssistedCreator) Create(ctx context.Context, req *CreateCertificateRequest) (*CreateCertificateResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	resp, err := a.llm.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "user", Content: fmt.Sprintf(
				"A file wipe has been completed. Use the %s tool to generate a new certificate with the provided details.\n\n"+
					"Item Name: %s\nItem Size: %s\nClient Name: %s\nWipe Method: %s",
				CreateCertificateTool, req.ItemName, req.ItemSize, req.ClientName, req.WipeMethod,
			)},
		},
		Tools: []llm.Tool{createCertificateTool},
	})
	if err != nil {
		a.logger.Warn("Assisted creation unavailable, creating directly", zap.Error(err))
		assistedCreationsTotal.WithLabelValues("direct").Inc()
		return a.next.Create(ctx, req)
	}

	if !requestsTool(resp, CreateCertificateTool) {
		a.logger.Debug("Model did not call the creation tool, creating directly")
		assistedCreationsTotal.WithLabelValues("direct").Inc()
		return a.next.Create(ctx, req)
	}

	assistedCreationsTotal.WithLabelValues("assisted").Inc()
	return a.next.Create(ctx, req)
}

func requestsTool(resp *llm.ChatResponse, name string) bool {
	if resp == nil {
		return false
	}
	for _, call := range resp.ToolCalls {
		if call.Function.Name == name {
			return true
		}
	}
	return false
}
