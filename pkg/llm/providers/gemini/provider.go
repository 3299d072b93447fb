// Package gemini adapts the Google Gemini API to the press LLM contract.
package gemini

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"

	"google.golang.org/genai"

	"pressfeed/pkg/press"
)

const defaultAPIVersion = "v1beta"

// ProviderConfig configures one Gemini-backed provider instance.
type ProviderConfig struct {
	// APIKey is the credential used to authenticate requests.
	APIKey string
	// BaseURL optionally overrides the Gemini endpoint.
	BaseURL string
	// APIVersion optionally overrides Gemini API version.
	//
	// Zero defaults to v1beta.
	APIVersion string
}

// Provider is a press LLM provider backed by the Google Gemini API.
type Provider struct {
	models geminiModelsClient
}

type geminiModelsClient interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// New builds one Gemini API provider instance.
func New(cfg ProviderConfig) (*Provider, error) {
	normalized, err := normalizeProviderConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("new gemini provider: %w", err)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  normalized.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    normalized.BaseURL,
			APIVersion: normalized.APIVersion,
		},
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("new gemini client: %w", err)
	}
	if client == nil || client.Models == nil {
		return nil, fmt.Errorf("new gemini client: models client is nil")
	}

	return &Provider{models: client.Models}, nil
}

// Generate runs one blocking Gemini request.
func (p *Provider) Generate(
	ctx context.Context,
	req press.LLMGenerateRequest,
) (press.LLMGenerateResult, error) {
	if p == nil {
		return press.LLMGenerateResult{}, fmt.Errorf("gemini generate: nil provider")
	}
	if ctx == nil {
		return press.LLMGenerateResult{}, fmt.Errorf("gemini generate: nil context")
	}
	if p.models == nil {
		return press.LLMGenerateResult{}, fmt.Errorf("gemini generate: models client is nil")
	}
	if err := req.Validate(); err != nil {
		return press.LLMGenerateResult{}, fmt.Errorf("gemini generate validate request: %w", err)
	}

	contents, config, err := mapGenerateRequest(req)
	if err != nil {
		return press.LLMGenerateResult{}, fmt.Errorf("gemini generate map request: %w", err)
	}

	response, err := p.models.GenerateContent(ctx, strings.TrimSpace(req.Model), contents, config)
	if err != nil {
		return press.LLMGenerateResult{}, fmt.Errorf("gemini generate: %w", err)
	}
	if response == nil {
		return press.LLMGenerateResult{}, fmt.Errorf("gemini generate: nil response")
	}

	return press.LLMGenerateResult{Text: response.Text()}, nil
}

func mapGenerateRequest(req press.LLMGenerateRequest) ([]*genai.Content, *genai.GenerateContentConfig, error) {
	systemParts := make([]string, 0, len(req.Messages))
	contents := make([]*genai.Content, 0, len(req.Messages))
	for index, message := range req.Messages {
		switch message.Role {
		case press.LLMMessageRoleSystem:
			systemParts = append(systemParts, message.Content)
		case press.LLMMessageRoleUser, press.LLMMessageRoleAssistant:
			role, roleErr := mapMessageRole(message.Role)
			if roleErr != nil {
				return nil, nil, fmt.Errorf("messages[%d] role: %w", index, roleErr)
			}
			contents = append(contents, &genai.Content{
				Role: role,
				Parts: []*genai.Part{
					{Text: message.Content},
				},
			})
		default:
			return nil, nil, fmt.Errorf("messages[%d] role: unsupported role %q", index, message.Role)
		}
	}
	if len(contents) == 0 {
		return nil, nil, fmt.Errorf("missing non-system messages")
	}

	config := &genai.GenerateContentConfig{}
	if len(systemParts) > 0 {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{
				{Text: strings.Join(systemParts, "\n\n")},
			},
		}
	}
	if req.Temperature > 0 {
		temperature := float32(req.Temperature)
		config.Temperature = &temperature
	}
	if req.MaxOutputTokens > 0 {
		if req.MaxOutputTokens > math.MaxInt32 {
			return nil, nil, fmt.Errorf("max_output_tokens exceeds int32 range")
		}
		config.MaxOutputTokens = int32(req.MaxOutputTokens)
	}

	return contents, config, nil
}

func mapMessageRole(role press.LLMMessageRole) (string, error) {
	switch role {
	case press.LLMMessageRoleUser:
		return string(genai.RoleUser), nil
	case press.LLMMessageRoleAssistant:
		return string(genai.RoleModel), nil
	default:
		return "", fmt.Errorf("unsupported role %q", role)
	}
}

func normalizeProviderConfig(cfg ProviderConfig) (ProviderConfig, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.APIVersion = strings.TrimSpace(cfg.APIVersion)

	if cfg.APIKey == "" {
		return ProviderConfig{}, fmt.Errorf("missing api_key")
	}
	if cfg.BaseURL != "" {
		parsed, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return ProviderConfig{}, fmt.Errorf("parse base_url: %w", err)
		}
		if parsed.Scheme == "" || parsed.Host == "" {
			return ProviderConfig{}, fmt.Errorf("parse base_url: must include scheme and host")
		}
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}

	return cfg, nil
}

var _ press.LLMProvider = (*Provider)(nil)
