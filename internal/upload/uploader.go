// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package upload sends normalized images to the remote image host and
// fans uploads out across a bounded worker pool.
// Implements: prd004-upload (R1-R6);
//
//	docs/ARCHITECTURE § Image Upload.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/pdiddy/mdpress/pkg/types"
)

// uploadField is the multipart form field the image host reads the payload from.
const uploadField = "image"

// FailureKind classifies a recoverable upload failure (R1.4).
type FailureKind string

const (
	// KindTimeout covers transport errors, including client timeouts.
	KindTimeout FailureKind = "timeout"

	// KindStatus is a non-2xx response from the image host.
	KindStatus FailureKind = "status"

	// KindBadResponse is a 2xx response whose body is not valid JSON.
	KindBadResponse FailureKind = "bad_response"

	// KindEmptyURL is a well-formed response carrying a null or empty URL.
	KindEmptyURL FailureKind = "empty_url"
)

// Error is a typed upload failure. Failures of this type never abort a
// document: the owning image is dropped and the reason surfaced as a
// warning keyed by its ordinal.
type Error struct {
	Kind       FailureKind
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Transient reports whether retrying the upload could help: transport
// timeouts and server-side statuses qualify, client errors do not.
func (e *Error) Transient() bool {
	return e.Kind == KindTimeout || (e.Kind == KindStatus && e.StatusCode >= 500)
}

// Uploader sends one image to the remote host and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, img types.NormalizedImage) (string, error)
}

// HostClient uploads images to the configured host with a single
// multipart POST per call (R1.1). The endpoint, bearer token, and
// timeout all arrive via the config; nothing is read from the process
// environment. Retries belong to the caller, never to this client (R1.5).
type HostClient struct {
	Client *http.Client
	Config types.UploadConfig
}

// Upload performs one POST of img's payload and returns the remote URL.
// Transport errors, non-2xx statuses, unparseable bodies, and empty URLs
// come back as *Error with the matching kind (R1.4).
func (c *HostClient) Upload(ctx context.Context, img types.NormalizedImage) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(uploadField, uploadFilename(img))
	if err != nil {
		return "", fmt.Errorf("building upload body: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return "", fmt.Errorf("building upload body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("building upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Config.Endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.Config.UserAgent != "" {
		req.Header.Set("User-Agent", c.Config.UserAgent)
	}
	if c.Config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Config.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", &Error{Kind: KindTimeout, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return "", &Error{
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("image host returned HTTP %d", resp.StatusCode),
		}
	}

	var hr hostResponse
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		return "", &Error{Kind: KindBadResponse, Message: "parsing image host response: " + err.Error()}
	}
	if hr.URL == "" {
		msg := "image host returned an empty URL"
		if hr.Error != "" {
			msg = "image host rejected the upload: " + hr.Error
		}
		return "", &Error{Kind: KindEmptyURL, Message: msg}
	}
	return hr.URL, nil
}

// uploadFilename names the multipart part after the image's extraction
// position; payloads are PNG by the time they reach the client.
func uploadFilename(img types.NormalizedImage) string {
	return fmt.Sprintf("image-%d.png", img.Ordinal)
}

// Image host JSON response structure.
type hostResponse struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}
