// Package document loads the resume text from a local file or a URL.
// Plain text, Markdown, PDF and DOCX are understood; everything is reduced
// to plain text before chunking.
package document

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"resumechat/internal/domain"
)

// maxDocumentBytes caps how much of a remote document is read.
const maxDocumentBytes = 16 << 20

// Source yields the raw resume text.
type Source interface {
	Fetch(ctx context.Context) (string, error)
}

// New picks an HTTP source for http(s) locations and a file source otherwise.
func New(location string) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return &HTTPSource{URL: location}
	}
	return &FileSource{Path: location}
}

// Load fetches src and wraps the text as a Document identified by location.
func Load(ctx context.Context, src Source, location string) (domain.Document, error) {
	text, err := src.Fetch(ctx)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{ID: hashString(location), Source: location, Content: text}, nil
}

// FileSource reads a document from disk.
type FileSource struct {
	Path string
}

func (s *FileSource) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", unavailable(s.Path, err)
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", unavailable(s.Path, err)
	}
	text, err := Decode(filepath.Base(s.Path), data)
	if err != nil {
		return "", unavailable(s.Path, err)
	}
	log.Debug().Str("path", s.Path).Int("bytes", len(data)).Int("text_len", len(text)).Msg("document loaded")
	return text, nil
}

// HTTPSource downloads a document.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s *HTTPSource) Fetch(ctx context.Context) (string, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return "", unavailable(s.URL, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", unavailable(s.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", unavailable(s.URL, fmt.Errorf("unexpected status %s", resp.Status))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return "", unavailable(s.URL, err)
	}
	name := path.Base(req.URL.Path)
	if ct := resp.Header.Get("Content-Type"); strings.Contains(ct, "pdf") && !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	text, err := Decode(name, data)
	if err != nil {
		return "", unavailable(s.URL, err)
	}
	log.Debug().Str("url", s.URL).Int("bytes", len(data)).Msg("document downloaded")
	return text, nil
}

// Decode converts the bytes of a file called name to plain text, choosing
// the format by extension. Unknown extensions are read as plain text.
func Decode(name string, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		text, err = pdfText(data)
	case ".docx":
		text, err = docxText(data)
	case ".md", ".markdown":
		text = markdownText(data)
	default:
		text = string(data)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("document is empty")
	}
	return text, nil
}

func unavailable(location string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrDocumentUnavailable, location, err)
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
