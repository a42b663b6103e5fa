package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"scribo/internal/model"
	"scribo/internal/utils"
)

// Client is the typed HTTP client for the document API. No retries, no
// queuing: one call per method, errors surface the server's detail text.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    utils.NewHTTPClient(timeout),
	}
}

// GenerateRequest carries the upload for one generation call.
// Temperature is fixed by the caller's contract; zero means 0.7.
type GenerateRequest struct {
	TemplateName string
	Template     io.Reader
	Topic        string
	Subject      string
	WordCount    int
	Temperature  float32
}

func (c *Client) Health(ctx context.Context) (*model.HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp)
	}

	health := &model.HealthResponse{}
	if err := json.NewDecoder(resp.Body).Decode(health); err != nil {
		return nil, fmt.Errorf("decode health response: %w", err)
	}
	return health, nil
}

func (c *Client) Generate(ctx context.Context, genReq GenerateRequest) (*model.GenerateResponse, error) {
	if genReq.Temperature == 0 {
		genReq.Temperature = 0.7
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("template", genReq.TemplateName)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, genReq.Template); err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}

	fields := map[string]string{
		"topic":       genReq.Topic,
		"subject":     genReq.Subject,
		"word_count":  strconv.Itoa(genReq.WordCount),
		"temperature": strconv.FormatFloat(float64(genReq.Temperature), 'f', 1, 32),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp)
	}

	result := &model.GenerateResponse{}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, fmt.Errorf("decode generate response: %w", err)
	}
	return result, nil
}

func (c *Client) Preview(ctx context.Context, documentID string) (*model.PreviewResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/preview/"+documentID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp)
	}

	result := &model.PreviewResponse{}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, fmt.Errorf("decode preview response: %w", err)
	}
	return result, nil
}

func (c *Client) Chat(ctx context.Context, documentID, userPrompt string) (*model.ChatResponse, error) {
	payload, err := json.Marshal(model.ChatRequest{
		DocumentID: documentID,
		UserPrompt: userPrompt,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp)
	}

	result := &model.ChatResponse{}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	return result, nil
}

func (c *Client) Finalize(ctx context.Context, documentID string) (*model.FinalizeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/finalize/"+documentID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp)
	}

	result := &model.FinalizeResponse{}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, fmt.Errorf("decode finalize response: %w", err)
	}
	return result, nil
}

// Download fetches the finalized document and writes it into destDir,
// returning the saved path. Relative download URLs resolve against the
// client's base URL.
func (c *Client) Download(ctx context.Context, downloadURL, destDir string) (string, error) {
	fullURL := downloadURL
	if strings.HasPrefix(downloadURL, "/") {
		fullURL = c.baseURL + downloadURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.apiError(resp)
	}

	filename := path.Base(downloadURL)
	if filename == "" || filename == "." || filename == "/" {
		filename = "document.docx"
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}

	destPath := filepath.Join(destDir, filename)
	out, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("save download: %w", err)
	}

	return destPath, nil
}

// apiError extracts the server's {detail} message, falling back to a
// generic status line when the body isn't the expected shape.
func (c *Client) apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var errResp model.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Detail != "" {
		return fmt.Errorf("%s", errResp.Detail)
	}

	return fmt.Errorf("server returned status %d", resp.StatusCode)
}
