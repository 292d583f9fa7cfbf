package storage

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/types"
)

// LocalStore keeps blobs as files in a single directory
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates the directory if needed. baseURL, when set, is used
// to build public URLs (e.g. a static file server in front of dir).
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve blob directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &LocalStore{
		dir:     abs,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Dir returns the backing directory
func (ls *LocalStore) Dir() string {
	return ls.dir
}

// Put writes data under name, replacing any existing blob
func (ls *LocalStore) Put(ctx context.Context, name string, data []byte) (types.BlobRef, error) {
	if err := ctx.Err(); err != nil {
		return types.BlobRef{}, err
	}
	name = sanitizeFilename(name)
	path := filepath.Join(ls.dir, name)

	tmp, err := os.CreateTemp(ls.dir, ".upload-*")
	if err != nil {
		return types.BlobRef{}, fmt.Errorf("failed to create blob: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return types.BlobRef{}, fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return types.BlobRef{}, fmt.Errorf("failed to write blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return types.BlobRef{}, fmt.Errorf("failed to commit blob: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return types.BlobRef{}, fmt.Errorf("failed to stat blob: %w", err)
	}
	return ls.ref(name, info), nil
}

// Get reads the blob stored under name
func (ls *LocalStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(ls.dir, sanitizeFilename(name)))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

// List returns every blob, sorted by name
func (ls *LocalStore) List(ctx context.Context) ([]types.BlobRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(ls.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w", err)
	}

	refs := make([]types.BlobRef, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		refs = append(refs, ls.ref(entry.Name(), info))
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

func (ls *LocalStore) ref(name string, info os.FileInfo) types.BlobRef {
	path := filepath.Join(ls.dir, name)
	locator := (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()

	publicURL := locator
	if ls.baseURL != "" {
		publicURL = ls.baseURL + "/" + url.PathEscape(name)
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return types.BlobRef{
		ID:          name,
		Name:        name,
		ContentType: contentType,
		Size:        info.Size(),
		Locator:     locator,
		PublicURL:   publicURL,
		UpdatedAt:   info.ModTime().UTC(),
	}
}

// sanitizeFilename strips directories and characters that are invalid in filenames
func sanitizeFilename(name string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	for _, ch := range invalid {
		result = strings.ReplaceAll(result, ch, "_")
	}
	result = strings.TrimLeft(result, ".")
	if result == "" {
		result = "untitled"
	}
	if len(result) > 100 {
		result = result[:100] // Limit length
	}
	return result
}
