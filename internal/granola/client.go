// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package granola is the client for the note service API: the document
// list and per-document transcripts.
package granola

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/granola-sync/internal/httputil"
	"github.com/pdiddy/granola-sync/pkg/types"
)

const (
	documentsPath  = "/v2/get-documents"
	transcriptPath = "/v1/get-document-transcript"
)

// Client calls the note service API with a bearer token. Every call is a
// single blocking attempt.
type Client struct {
	HTTP  *http.Client
	Token string
	cfg   types.HTTPConfig
}

// NewClient returns a Client for the API rooted at cfg.BaseURL.
func NewClient(httpClient *http.Client, token string, cfg types.HTTPConfig) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{HTTP: httpClient, Token: token, cfg: cfg}
}

type documentsRequest struct {
	Limit                  int  `json:"limit"`
	Offset                 int  `json:"offset"`
	IncludeLastViewedPanel bool `json:"include_last_viewed_panel"`
}

type documentsResponse struct {
	Docs []json.RawMessage `json:"docs"`
}

// Documents fetches up to limit documents with their last viewed panel.
// A response without docs yields an empty batch.
func (c *Client) Documents(ctx context.Context, limit int) ([]types.Document, error) {
	payload := documentsRequest{
		Limit:                  limit,
		Offset:                 0,
		IncludeLastViewedPanel: true,
	}

	var resp documentsResponse
	if err := httputil.PostJSON(ctx, c.HTTP, c.url(documentsPath), c.headers(), payload, &resp); err != nil {
		return nil, fmt.Errorf("get-documents: %w", err)
	}

	docs := make([]types.Document, 0, len(resp.Docs))
	for _, raw := range resp.Docs {
		// A record that is not an object decodes to an empty Document,
		// which the sync stage rejects for lacking an id.
		var d types.Document
		_ = json.Unmarshal(raw, &d)
		docs = append(docs, d)
	}
	return docs, nil
}

type transcriptRequest struct {
	DocumentID string `json:"document_id"`
}

type wireSegment struct {
	Source types.Optional[string] `json:"source"`
	Text   types.Optional[string] `json:"text"`
}

// Transcript fetches the transcript segments of one document in the order
// the service returns them. A missing transcript yields an error wrapping
// httputil.ErrNotFound. Entries that are not objects are dropped.
func (c *Client) Transcript(ctx context.Context, documentID string) ([]types.Segment, error) {
	var raw []json.RawMessage
	payload := transcriptRequest{DocumentID: documentID}
	if err := httputil.PostJSON(ctx, c.HTTP, c.url(transcriptPath), c.headers(), payload, &raw); err != nil {
		return nil, fmt.Errorf("transcript %s: %w", documentID, err)
	}

	segments := make([]types.Segment, 0, len(raw))
	for _, r := range raw {
		var ws wireSegment
		if err := json.Unmarshal(r, &ws); err != nil {
			continue
		}
		segments = append(segments, types.Segment{
			Source: ws.Source.Or(""),
			Text:   ws.Text.Or(""),
		})
	}
	return segments, nil
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}

func (c *Client) headers() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.Token)
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "*/*")
	h.Set("User-Agent", c.cfg.UserAgent)
	if _, version, ok := strings.Cut(c.cfg.UserAgent, "/"); ok {
		h.Set("X-Client-Version", version)
	}
	return h
}
