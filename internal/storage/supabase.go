package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aldoetobex/glojourn-backend/pkg/sanitize"
)

/*
Supabase wraps minimal calls to Supabase Storage REST API.

Notes on authorization:
- A legacy service_role JWT needs both `apikey` and `Authorization: Bearer <token>`.
- A Secret API Key (sb_secret_...) that is not a JWT only needs `apikey`; the
  bearer header is still sent and ignored.
*/
type Supabase struct {
	baseURL string // e.g. https://<project>.supabase.co
	apiKey  string
	bucket  string
	client  *http.Client
}

func NewSupabase(baseURL, apiKey, bucket string) *Supabase {
	return &Supabase{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		bucket:  bucket,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

var _ Store = (*Supabase)(nil)

// MakeObjectKey builds <folder>/<uuid>-<filename> so re-uploads never collide.
func MakeObjectKey(folder, filename string) string {
	return path.Join(folder, uuid.NewString()+"-"+sanitize.FileName(filename))
}

func (s *Supabase) objectURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, key)
}

func (s *Supabase) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	return s.client.Do(req)
}

// Store uploads via POST /storage/v1/object/{bucket}/{objectName}.
func (s *Supabase) Store(ctx context.Context, r io.Reader, size int64, folder, filename, contentType string) (Object, error) {
	key := MakeObjectKey(folder, filename)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.objectURL(key), r)
	if err != nil {
		return Object{}, err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)

	res, err := s.do(req)
	if err != nil {
		return Object{}, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return Object{}, fmt.Errorf("supabase upload error: %s | %s", res.Status, string(body))
	}
	return Object{ID: key, URL: fmt.Sprintf("%s/storage/v1/object/authenticated/%s/%s", s.baseURL, s.bucket, key)}, nil
}

// SignedURL creates a short-lived signed URL:
// POST /storage/v1/object/sign/{bucket}/{objectName}  body: {"expiresIn": <seconds>}
func (s *Supabase) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	url := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", s.baseURL, s.bucket, key)

	body, _ := json.Marshal(map[string]int{"expiresIn": int(ttl.Seconds())})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("supabase sign error: %s | %s", res.Status, string(b))
	}

	var out struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.SignedURL == "" {
		return "", fmt.Errorf("empty signedURL in response")
	}

	// API returns a relative path; convert to absolute URL.
	return s.baseURL + "/storage/v1" + out.SignedURL, nil
}

// Delete removes an object by key. 404 counts as already deleted.
func (s *Supabase) Delete(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.objectURL(key), nil)
	if err != nil {
		return err
	}

	res, err := s.do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("supabase delete error: %s | %s", res.Status, string(b))
	}
	return nil
}

// BulkDelete removes many objects in one call:
// POST /storage/v1/object/{bucket}/remove  body: {"prefixes": [...]}
func (s *Supabase) BulkDelete(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	url := fmt.Sprintf("%s/storage/v1/object/%s/remove", s.baseURL, s.bucket)
	body, _ := json.Marshal(map[string][]string{"prefixes": keys})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("supabase bulk delete error: %s | %s", res.Status, string(b))
	}
	return nil
}

// BulkDeleter is implemented by stores that can drop many objects at once.
type BulkDeleter interface {
	BulkDelete(ctx context.Context, ids []string) error
}

// DeleteAll removes ids through BulkDelete when st supports it, else one by one.
// The first error is returned; remaining ids are still attempted.
func DeleteAll(ctx context.Context, st Store, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if bd, ok := st.(BulkDeleter); ok {
		return bd.BulkDelete(ctx, ids)
	}
	var first error
	for _, id := range ids {
		if err := st.Delete(ctx, id); err != nil && first == nil {
			first = err
		}
	}
	return first
}
