package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// DocumentStore resolves an attachment id to the contract document text.
// The document store is an external collaborator; the engine only reads.
type DocumentStore interface {
	Fetch(ctx context.Context, attachmentID string) (string, error)
}

type httpDocumentStore struct {
	baseURL string
	client  *http.Client
}

// NewHTTPDocumentStore creates a DocumentStore that fetches attachment text
// from the document service at baseURL.
func NewHTTPDocumentStore(baseURL string, client *http.Client) DocumentStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpDocumentStore{baseURL: baseURL, client: client}
}

var _ DocumentStore = (*httpDocumentStore)(nil)

func (s *httpDocumentStore) Fetch(ctx context.Context, attachmentID string) (string, error) {
	endpoint := fmt.Sprintf("%s/attachments/%s/text", s.baseURL, url.PathEscape(attachmentID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build attachment request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch attachment %s: %w", attachmentID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch attachment %s: unexpected status %d", attachmentID, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read attachment %s: %w", attachmentID, err)
	}

	return string(body), nil
}
