package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xavierca1/ligue-crm/internal/infra/metrics"
	"go.uber.org/zap"
)

// MaxErrorDetail é quanto do corpo de erro chega ao usuário.
const MaxErrorDetail = 100

// WebhookError: a automação respondeu fora da faixa 2xx.
type WebhookError struct {
	Path   string
	Status int
	Body   string
}

func (e *WebhookError) Error() string {
	return fmt.Sprintf("webhook %s retornou %d: %s", e.Path, e.Status, e.Body)
}

type Client struct {
	baseURL string
	token   string
	paths   Paths
	http    *http.Client
}

func NewClient(baseURL, token string, paths Paths) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		paths:   paths,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// ChangeStage é o comando de transição: persiste a nova etapa do lead.
// O corpo de sucesso é ignorado.
func (c *Client) ChangeStage(ctx context.Context, input ChangeStageInput) error {
	return c.post(ctx, c.paths.ChangeStage, input, nil)
}

func (c *Client) SendMessage(ctx context.Context, input SendMessageInput) error {
	return c.post(ctx, c.paths.SendMessage, input, nil)
}

func (c *Client) CreateUser(ctx context.Context, input CreateUserInput) (string, error) {
	var out createUserResponse
	if err := c.post(ctx, c.paths.CreateUser, input, &out); err != nil {
		return "", err
	}
	if out.UserID == "" {
		return "", fmt.Errorf("create-user não retornou userId")
	}
	return out.UserID, nil
}

func (c *Client) CreateInstance(ctx context.Context, input CreateInstanceInput) (*InstanceOutput, error) {
	var out InstanceOutput
	if err := c.post(ctx, c.paths.CreateInstance, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteInstance(ctx context.Context, clinicID, instanceID string) error {
	return c.post(ctx, c.paths.DeleteInstance, deleteInstanceRequest{ClinicID: clinicID, InstanceID: instanceID}, nil)
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("erro ao gerar json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordIntegrationError("automation")
		return fmt.Errorf("erro na conexão com a automação: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		metrics.RecordIntegrationError("automation")
		zap.L().Warn("automation webhook rejected request",
			zap.String("path", path), zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return &WebhookError{Path: path, Status: resp.StatusCode, Body: truncate(string(body), MaxErrorDetail)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("erro ao ler resposta da automação: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "LigueCRM/1.0")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n])
}
