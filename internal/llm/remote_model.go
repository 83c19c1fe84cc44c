package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Conceptual-Machines/merlai/internal/logger"
	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
)

const (
	healthCheckTimeout       = 5 * time.Second
	defaultGenerationTimeout = 30 * time.Second
	remoteUserAgent          = "Merlai/0.1.0"
)

// RemoteModel delegates generation to an HTTP inference service:
//
//	GET  {endpoint}/health
//	POST {endpoint}/generate/{harmony|bass|drums}
//	POST {endpoint}/analyze
//
// Every call is bounded; generation uses the "timeout" parameter (seconds).
type RemoteModel struct {
	config  ModelConfig
	client  *resty.Client
	timeout time.Duration
}

func NewRemoteModel(cfg ModelConfig) *RemoteModel {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.Endpoint, "/"))
	client.SetHeader("User-Agent", remoteUserAgent)
	client.SetHeader("Content-Type", "application/json")
	client.SetJSONMarshaler(json.Marshal)
	client.SetJSONUnmarshaler(json.Unmarshal)
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		logger.Debug("Remote model request", logger.Fields{"model": cfg.Name, "method": req.Method, "url": req.URL})
		return nil
	})

	timeout := defaultGenerationTimeout
	if secs := cfg.FloatParam("timeout", 0); secs > 0 {
		timeout = time.Duration(secs * float64(time.Second))
	}

	return &RemoteModel{config: cfg, client: client, timeout: timeout}
}

func (m *RemoteModel) IsAvailable(ctx context.Context) bool {
	if m.config.Endpoint == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	resp, err := m.client.R().SetContext(ctx).Get("/health")
	if err != nil {
		logger.Debug("Remote model health check failed", logger.Fields{"model": m.config.Name, "error": err.Error()})
		return false
	}
	return resp.StatusCode() == http.StatusOK
}

// Info does not probe the endpoint; listings stay fast when a service is down.
func (m *RemoteModel) Info() ModelInfo {
	return ModelInfo{
		Name:      m.config.Name,
		Type:      ModelTypeExternalAPI,
		Available: m.config.Endpoint != "",
		Details: map[string]any{
			"endpoint":   m.config.Endpoint,
			"timeout":    m.timeout.Seconds(),
			"parameters": m.config.Parameters,
		},
	}
}

func (m *RemoteModel) GenerateHarmony(ctx context.Context, request *GenerationRequest) *GenerationResponse {
	return m.generate(ctx, KindHarmony, request)
}

func (m *RemoteModel) GenerateBass(ctx context.Context, request *GenerationRequest) *GenerationResponse {
	return m.generate(ctx, KindBass, request)
}

func (m *RemoteModel) GenerateDrums(ctx context.Context, request *GenerationRequest) *GenerationResponse {
	return m.generate(ctx, KindDrums, request)
}

func (m *RemoteModel) AnalyzeMusic(ctx context.Context, midiData []byte) *GenerationResponse {
	return safeCall(m.config.Name, succeed(func(resp *GenerationResponse) error {
		body := map[string]string{"midi_data": base64.StdEncoding.EncodeToString(midiData)}
		data, err := m.post(ctx, "/analyze", body)
		if err != nil {
			return err
		}
		if err := decodePart(KindAnalysis, data, &GenerationRequest{}, resp); err != nil {
			return err
		}
		resp.Metadata["method"] = "external_api"
		return nil
	}))
}

func (m *RemoteModel) generate(ctx context.Context, kind GenerationKind, request *GenerationRequest) *GenerationResponse {
	return safeCall(m.config.Name, succeed(func(resp *GenerationResponse) error {
		payload := *request
		payload.Kind = kind
		payload.Parameters = m.config.WithParameters(request.Parameters).Parameters

		data, err := m.post(ctx, "/generate/"+string(kind), payload)
		if err != nil {
			return err
		}
		if err := decodePart(kind, data, request, resp); err != nil {
			return err
		}
		resp.Metadata["method"] = "external_api"
		resp.Metadata["endpoint"] = m.config.Endpoint
		return nil
	}))
}

func (m *RemoteModel) post(ctx context.Context, path string, body any) ([]byte, error) {
	if m.config.Endpoint == "" {
		return nil, errors.New("API endpoint not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp, err := m.client.R().SetContext(ctx).SetBody(body).Post(path)
	if err != nil {
		return nil, fmt.Errorf("remote model request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("remote model returned status %d: %s", resp.StatusCode(), truncate(string(resp.Body()), maxErrorBodyChars))
	}
	return resp.Body(), nil
}

const maxErrorBodyChars = 200

// truncate cuts s to at most maxLen bytes without splitting a UTF-8 sequence.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
