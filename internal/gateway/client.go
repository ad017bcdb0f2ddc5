// Package gateway is the typed request layer for the attendance backend.
// Every outbound call goes through it and every failure comes back as a
// single *Error carrying a display-ready message.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// TokenSource supplies the bearer credential attached to authenticated calls.
// It is read-only from the gateway's point of view.
type TokenSource interface {
	Token() string
}

// Error is the normalized failure shape for all gateway calls.
type Error struct {
	Status  int    // HTTP status, 0 when the request never reached the server
	Message string // display-ready
	Network bool   // true for transport failures (offline, DNS, timeout)
}

func (e *Error) Error() string { return e.Message }

// IsNetwork reports whether err is a gateway transport failure, so callers can
// hint at connectivity rather than blaming the server.
func IsNetwork(err error) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.Network
}

const (
	fallbackMessage = "the attendance service rejected the request"
	offlineMessage  = "cannot reach the attendance service, check your connection"
	timeoutMessage  = "the request timed out, try again in a moment"
)

// Client calls the attendance backend.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  TokenSource
}

// New creates a client. The timeout bounds every call including frame
// submissions, so a stalled network surfaces as a failure instead of an
// indefinite wait.
func New(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Tokens:  tokens,
	}
}

var validate = validator.New()

// validateForm runs struct validation and folds the first failure into the
// uniform error shape. Validation failures never produce a network call.
func validateForm(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return &Error{Message: fmt.Sprintf("%s is missing or invalid", strings.ToLower(f.Field()))}
	}
	return &Error{Message: err.Error()}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return &Error{Message: err.Error()}
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return &Error{Message: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return &Error{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// postImage sends a multipart form with the given fields plus a single image
// file part. The image travels as raw JPEG bytes, never as a data URL.
func (c *Client) postImage(ctx context.Context, path string, fields map[string]string, image []byte, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	part, err := w.CreateFormFile("image", "frame.jpg")
	if err != nil {
		return &Error{Message: err.Error()}
	}
	if _, err := io.Copy(part, bytes.NewReader(image)); err != nil {
		return &Error{Message: err.Error()}
	}
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, &buf)
	if err != nil {
		return &Error{Message: err.Error()}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req, out)
}

// do executes one request. There is no automatic retry: a re-submission is
// always a user decision.
func (c *Client) do(req *http.Request, out any) error {
	if c.Tokens != nil {
		if token := c.Tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Status: resp.StatusCode, Message: "malformed response from the attendance service"}
	}
	return nil
}

func transportError(err error) *Error {
	msg := offlineMessage
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		msg = timeoutMessage
	}
	return &Error{Message: msg, Network: true}
}

func isTimeout(err error) bool {
	var nerr interface{ Timeout() bool }
	return errors.As(err, &nerr) && nerr.Timeout()
}

// responseError maps a non-2xx response onto the uniform error shape. The
// backend's "detail" field is surfaced verbatim when it is a plain string;
// validation detail arrays are joined; anything unreadable falls back to a
// generic message.
func responseError(resp *http.Response) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var probe struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && len(probe.Detail) > 0 {
		var s string
		if json.Unmarshal(probe.Detail, &s) == nil && s != "" {
			return &Error{Status: resp.StatusCode, Message: s}
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(probe.Detail, &items) == nil && len(items) > 0 {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				return &Error{Status: resp.StatusCode, Message: strings.Join(msgs, "; ")}
			}
		}
	}
	return &Error{Status: resp.StatusCode, Message: fallbackMessage}
}
