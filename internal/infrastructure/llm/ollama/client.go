package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/pdf-summary-service/internal/infrastructure/llm/llmhttp"
)

type Client struct {
	endpoint llmhttp.Endpoint
	genModel string
}

func New(baseURL, genModel string) *Client {
	return &Client{
		endpoint: llmhttp.Endpoint{
			Backend: "ollama",
			BaseURL: strings.TrimRight(baseURL, "/"),
			Client:  &http.Client{Timeout: 180 * time.Second},
		},
		genModel: genModel,
	}
}

func (c *Client) Name() string {
	return "ollama"
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": 0.3,
		},
	}
	var response struct {
		Response string `json:"response"`
	}
	if err := c.endpoint.PostJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return response.Response, nil
}
