package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/inferio-2004/recipe-generator/internal/logging"
	"github.com/inferio-2004/recipe-generator/internal/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
)

// OllamaConfig points at an Ollama server hosting the sentence embedding model.
type OllamaConfig struct {
	BaseURL string // e.g. http://localhost:11434
	Model   string // e.g. all-minilm
	Token   string // Bearer token, empty for none
}

// errModelMissing is returned by /api/show when the model has not been pulled.
var errModelMissing = errors.New("model not present on server")

// OllamaLoader loads and serves an embedding model through the Ollama REST API.
// Every HTTP call goes through one circuit breaker so an unreachable host fails
// fast instead of tying up request goroutines.
type OllamaLoader struct {
	cfg        OllamaConfig
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[[]byte]
}

// NewOllamaLoader creates an OllamaLoader.
func NewOllamaLoader(cfg OllamaConfig) *OllamaLoader {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	name := "embedding-model"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// A missing model is an answer from a healthy host.
			return err == nil || errors.Is(err, errModelMissing)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			event := logging.Info()
			if to == gobreaker.StateOpen {
				event = logging.Warn()
			}
			event.Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &OllamaLoader{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		cb:         cb,
	}
}

// Load makes sure the model is present on the server, pulling it when it is
// not, and returns a handle for inference.
func (o *OllamaLoader) Load(ctx context.Context) (FeatureExtractor, error) {
	_, err := o.post(ctx, "/api/show", map[string]any{"model": o.cfg.Model})
	if errors.Is(err, errModelMissing) {
		logging.Info().Str("model", o.cfg.Model).Msg("embedding model not found, pulling")
		if _, err := o.post(ctx, "/api/pull", map[string]any{"model": o.cfg.Model, "stream": false}); err != nil {
			return nil, fmt.Errorf("ollama pull %s: %w", o.cfg.Model, err)
		}
		return &ollamaModel{loader: o}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ollama show %s: %w", o.cfg.Model, err)
	}
	return &ollamaModel{loader: o}, nil
}

type ollamaModel struct {
	loader *OllamaLoader
}

// Extract returns the first embedding of an /api/embed response. Ollama
// mean-pools and L2-normalizes sentence embeddings server side.
func (m *ollamaModel) Extract(ctx context.Context, text string) (any, error) {
	body, err := m.loader.post(ctx, "/api/embed", map[string]any{
		"model": m.loader.cfg.Model,
		"input": text,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}

	var resp struct {
		Embeddings [][]float64 `json:"embeddings"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ollama embed decode: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, errors.New("ollama embed: empty response")
	}
	return resp.Embeddings[0], nil
}

func (o *OllamaLoader) post(ctx context.Context, path string, payload any) ([]byte, error) {
	return o.cb.Execute(func() ([]byte, error) {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+path, bytes.NewReader(payloadBytes))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if o.cfg.Token != "" {
			req.Header.Set("Authorization", "Bearer "+o.cfg.Token)
		}

		resp, err := o.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode == http.StatusNotFound && path == "/api/show" {
			return nil, errModelMissing
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(body))
		}
		return body, nil
	})
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
