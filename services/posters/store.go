package posters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"reelvault/utils/slug"
)

var (
	ErrStorageDirRequired = errors.New("poster directory not provided")
	// ErrNotAnImage is returned when the origin responds with something that
	// is not image data. The candidate is dropped; a poster is mandatory.
	ErrNotAnImage = errors.New("downloaded content is not an image")
)

// maxPosterBytes bounds a single poster download.
const maxPosterBytes = 20 << 20

// Store downloads poster images and persists them under durable storage.
type Store struct {
	fs    afero.Fs
	dir   string
	httpc *http.Client
	now   func() time.Time
}

// NewStore creates a poster store backed by the OS filesystem.
func NewStore(dir string, httpc *http.Client) (*Store, error) {
	return NewStoreWithFs(afero.NewOsFs(), dir, httpc)
}

// NewStoreWithFs creates a poster store over an arbitrary filesystem
// (memory-backed in tests).
func NewStoreWithFs(fs afero.Fs, dir string, httpc *http.Client) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, ErrStorageDirRequired
	}
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create poster dir: %w", err)
	}
	return &Store{fs: fs, dir: dir, httpc: httpc, now: time.Now}, nil
}

// Dir returns the directory posters are stored in.
func (s *Store) Dir() string {
	return s.dir
}

// Download fetches the image at imageURL, verifies it really is an image, and
// persists it under a filename derived from the given title. It returns the
// web path of the stored poster ("/posters/<file>").
func (s *Store) Download(ctx context.Context, imageURL, title string) (string, error) {
	data, err := s.fetch(ctx, imageURL)
	if err != nil {
		return "", err
	}

	kind := mimetype.Detect(data)
	if !strings.HasPrefix(kind.String(), "image/") {
		return "", fmt.Errorf("%w: got %s", ErrNotAnImage, kind.String())
	}

	name := fmt.Sprintf("%s-%d%s", slug.Make(title), s.now().Unix(), fileExtension(imageURL, kind.Extension()))
	if err := afero.WriteFile(s.fs, path.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write poster: %w", err)
	}

	return "/posters/" + name, nil
}

func (s *Store) fetch(ctx context.Context, imageURL string) ([]byte, error) {
	var data []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := s.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 500 {
				return fmt.Errorf("poster download failed: %s", resp.Status)
			}
			if resp.StatusCode != http.StatusOK {
				return retry.Unrecoverable(fmt.Errorf("poster download failed: %s", resp.Status))
			}

			body, err := io.ReadAll(io.LimitReader(resp.Body, maxPosterBytes))
			if err != nil {
				return err
			}
			data = body
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(2),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// fileExtension prefers the extension found in the source URL and falls back
// to the sniffed one.
func fileExtension(imageURL, sniffed string) string {
	if u, err := url.Parse(imageURL); err == nil {
		if ext := path.Ext(u.Path); ext != "" && len(ext) <= 5 {
			return ext
		}
	}
	if sniffed != "" {
		return sniffed
	}
	return ".jpg"
}
