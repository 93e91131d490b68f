package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage persists uploaded files and resolves their public URLs.
type Storage interface {
	Put(folder, filename string, data []byte) (string, error)
	URL(path string) string
}

// LocalStorage writes files under a public directory on disk.
type LocalStorage struct {
	root    string
	baseURL string
}

// NewLocalStorage constructs a LocalStorage rooted at dir.
func NewLocalStorage(dir, baseURL string) *LocalStorage {
	return &LocalStorage{root: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Put writes the file to disk under folder and returns its relative path.
func (s *LocalStorage) Put(folder, filename string, data []byte) (string, error) {
	name := uuid.New().String() + filepath.Ext(filename)
	dir := filepath.Join(s.root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", err
	}
	return folder + "/" + name, nil
}

// URL resolves a relative path to an absolute public URL.
func (s *LocalStorage) URL(path string) string {
	if strings.HasPrefix(path, "http") {
		return path
	}
	return s.baseURL + "/uploads/" + strings.TrimLeft(path, "/")
}

// CDNStorage uploads files to an HTTP CDN endpoint.
type CDNStorage struct {
	uploadURL string
	apiKey    string
}

// NewCDNStorage constructs a CDNStorage.
func NewCDNStorage(uploadURL, apiKey string) *CDNStorage {
	return &CDNStorage{uploadURL: uploadURL, apiKey: apiKey}
}

type cdnUploadResponse struct {
	URL string `json:"url"`
}

// Put uploads the file as multipart form data and returns the CDN URL.
func (s *CDNStorage) Put(folder, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("folder", folder); err != nil {
		return "", err
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, s.uploadURL, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", &ExternalServiceError{Service: "cdn", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", &ExternalServiceError{Service: "cdn", Err: fmt.Errorf("upload returned status %d", resp.StatusCode)}
	}

	var parsed cdnUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &ExternalServiceError{Service: "cdn", Err: err}
	}

	return parsed.URL, nil
}

// URL returns the CDN path unchanged; Put already yields absolute URLs.
func (s *CDNStorage) URL(path string) string {
	return path
}

// FallbackStorage tries a primary backend and falls back to a secondary one on
// failure. Used to prefer the CDN with local-public storage as the fallback.
type FallbackStorage struct {
	primary   Storage
	secondary Storage
}

// NewFallbackStorage constructs a FallbackStorage.
func NewFallbackStorage(primary, secondary Storage) *FallbackStorage {
	return &FallbackStorage{primary: primary, secondary: secondary}
}

// Put stores via the primary backend, falling back on error.
func (s *FallbackStorage) Put(folder, filename string, data []byte) (string, error) {
	path, err := s.primary.Put(folder, filename, data)
	if err == nil {
		return path, nil
	}
	log.Printf("[Storage] primary upload failed, using fallback: %v", err)
	return s.secondary.Put(folder, filename, data)
}

// URL resolves through the backend that produced the path.
func (s *FallbackStorage) URL(path string) string {
	if strings.HasPrefix(path, "http") {
		return s.primary.URL(path)
	}
	return s.secondary.URL(path)
}
