package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

// HTTPStore talks to the hosted media service. Upload is a multipart POST to
// /upload; Delete is a DELETE on /media/{id}.
type HTTPStore struct {
	baseURL string
	apiKey  string
	folder  string
	client  *http.Client
}

func NewHTTPStore(baseURL, apiKey, folder string) *HTTPStore {
	return &HTTPStore{
		baseURL: baseURL,
		apiKey:  apiKey,
		folder:  folder,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *HTTPStore) Upload(ctx context.Context, filename string, content io.Reader) (*Object, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, err
	}
	if err := mw.WriteField("folder", s.folder); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("media upload failed: status %d", resp.StatusCode)
	}

	var obj Object
	if err := json.NewDecoder(resp.Body).Decode(&obj); err != nil {
		return nil, fmt.Errorf("media upload: invalid response: %w", err)
	}
	if obj.ID == "" || obj.URL == "" {
		return nil, fmt.Errorf("media upload: incomplete response")
	}
	return &obj, nil
}

func (s *HTTPStore) Delete(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		s.baseURL+"/media/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("media delete failed: %w", err)
	}
	defer resp.Body.Close()

	// A missing object is treated as already deleted.
	if resp.StatusCode != http.StatusNotFound && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
		return fmt.Errorf("media delete failed: status %d", resp.StatusCode)
	}
	return nil
}
