package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"finance-doc-analyzer/internal/model"
)

const (
	DefaultCallTimeout = 300 * time.Second

	maxResponseBytes = 32 << 20

	msgTimeout  = "timeout"
	msgCanceled = "canceled"
)

// Registration binds an analysis type to the remote endpoint serving it.
type Registration struct {
	Type         model.AnalysisType
	URL          string
	DefaultQuery string
}

// Attachment is the document file sent along with the query.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Invocation is what every analysis call of one run receives.
// It is shared read-only by all concurrent calls.
type Invocation struct {
	Query      string
	Attachment *Attachment
}

// Invoker runs one analysis call. Implementations must not return an error:
// every failure is reported as a failed outcome.
type Invoker interface {
	Invoke(ctx context.Context, reg Registration, in Invocation) model.AnalysisOutcome
}

type HTTPClient struct {
	httpClient *http.Client
	timeout    time.Duration
}

func NewHTTPClient(timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &HTTPClient{
		// The per-call deadline lives on the request context.
		httpClient: &http.Client{},
		timeout:    timeout,
	}
}

func (c *HTTPClient) Invoke(ctx context.Context, reg Registration, in Invocation) model.AnalysisOutcome {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := c.post(callCtx, reg, in)
	if err != nil {
		return model.FailedOutcome(reg.Type, describeError(callCtx, err))
	}
	return model.CompletedOutcome(reg.Type, payload)
}

func (c *HTTPClient) post(ctx context.Context, reg Registration, in Invocation) (json.RawMessage, error) {
	body, contentType, err := buildForm(queryFor(reg, in.Query), in.Attachment)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reg.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build analysis request failed: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return decodePayload(raw)
}

func queryFor(reg Registration, query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return reg.DefaultQuery
	}
	return query
}

func buildForm(query string, att *Attachment) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("query", query); err != nil {
		return nil, "", fmt.Errorf("write query field failed: %w", err)
	}
	if att != nil && len(att.Data) > 0 {
		part, err := w.CreatePart(filePartHeader(att))
		if err != nil {
			return nil, "", fmt.Errorf("create file part failed: %w", err)
		}
		if _, err := part.Write(att.Data); err != nil {
			return nil, "", fmt.Errorf("write file part failed: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer failed: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func filePartHeader(att *Attachment) textproto.MIMEHeader {
	contentType := att.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     "file",
		"filename": att.Filename,
	}))
	h.Set("Content-Type", contentType)
	return h
}

// decodePayload keeps JSON bodies as-is and wraps anything else as a JSON string.
func decodePayload(raw []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return json.RawMessage("null"), nil
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed), nil
	}
	wrapped, err := json.Marshal(string(trimmed))
	if err != nil {
		return nil, fmt.Errorf("encode analysis body failed: %w", err)
	}
	return wrapped, nil
}

// StatusError is a non-2xx answer from an analysis service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d", e.Code)
}

// describeError turns a call failure into the message stored on the outcome.
func describeError(ctx context.Context, err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return msgTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return msgTimeout
	}
	if errors.Is(err, context.Canceled) {
		return msgCanceled
	}
	return err.Error()
}
