package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ziadkadry99/ripview/internal/layers"
)

// Client implements Service over the extraction service's HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the service at baseURL. A zero timeout
// leaves requests bounded only by their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type layerEnvelope struct {
	Data     json.RawMessage `json:"data"`
	TimingMS float64         `json:"timing_ms"`
}

type librariesResponse struct {
	Available []string `json:"available"`
}

// Upload sends the PDF as a multipart form field named "file".
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("upload: creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("upload: reading %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("upload: closing form: %w", err)
	}

	var out UploadResult
	if err := c.do(ctx, "upload", http.MethodPost, "/api/upload", nil, &body, mw.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PageInfo(ctx context.Context, page int) (*PageInfo, error) {
	var out PageInfo
	if err := c.do(ctx, "page info", http.MethodGet, pagePath(page, ""), nil, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PageText(ctx context.Context, page int, layout bool) (*TextResult, error) {
	q := url.Values{"layout": {strconv.FormatBool(layout)}}
	var out TextResult
	if err := c.do(ctx, "page text", http.MethodGet, pagePath(page, "text"), q, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Layer(ctx context.Context, page int, layer layers.Layer) (*LayerResult, error) {
	if !layer.Fetchable() {
		return nil, fmt.Errorf("layer %s cannot be fetched directly", layer)
	}
	return c.layer(ctx, string(layer), layer, pagePath(page, string(layer)), nil)
}

func (c *Client) Search(ctx context.Context, page int, query string) (*LayerResult, error) {
	q := url.Values{"q": {query}}
	return c.layer(ctx, "search", layers.Search, pagePath(page, "search"), q)
}

func (c *Client) layer(ctx context.Context, op string, layer layers.Layer, path string, q url.Values) (*LayerResult, error) {
	var env layerEnvelope
	if err := c.do(ctx, op, http.MethodGet, path, q, nil, "", &env); err != nil {
		return nil, err
	}
	recs, err := layers.Decode(layer, env.Data)
	if err != nil {
		return nil, err
	}
	return &LayerResult{Layer: layer, Records: recs, TimingMS: env.TimingMS}, nil
}

func (c *Client) Libraries(ctx context.Context) ([]string, error) {
	var out librariesResponse
	if err := c.do(ctx, "benchmark libraries", http.MethodGet, "/api/benchmark/libraries", nil, nil, "", &out); err != nil {
		return nil, err
	}
	return out.Available, nil
}

func (c *Client) Benchmark(ctx context.Context, page, iterations int) (BenchmarkResult, error) {
	q := url.Values{}
	if iterations > 0 {
		q.Set("iterations", strconv.Itoa(iterations))
	}
	var out BenchmarkResult
	if err := c.do(ctx, "benchmark", http.MethodPost, fmt.Sprintf("/api/benchmark/%d", page), q, nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PDFFile streams the raw bytes of the current document. The caller closes
// the returned reader.
func (c *Client) PDFFile(ctx context.Context) (io.ReadCloser, error) {
	const op = "pdf file"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/pdf-file", nil)
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", op, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, rejected(op, resp.StatusCode, body)
	}
	return resp.Body, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, body io.Reader, contentType string, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return rejected(op, resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}

// rejected builds a RejectedError, pulling "detail" out of a FastAPI-style
// error body. Structured (non-string) details are kept as raw JSON.
func rejected(op string, status int, body []byte) *RejectedError {
	e := &RejectedError{Op: op, StatusCode: status}
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Detail) > 0 {
		var s string
		if err := json.Unmarshal(env.Detail, &s); err == nil {
			e.Detail = s
		} else {
			e.Detail = string(env.Detail)
		}
		return e
	}
	e.Detail = strings.TrimSpace(string(body))
	return e
}

func pagePath(page int, suffix string) string {
	if suffix == "" {
		return fmt.Sprintf("/api/pages/%d", page)
	}
	return fmt.Sprintf("/api/pages/%d/%s", page, suffix)
}
