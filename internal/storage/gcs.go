package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gcs "google.golang.org/api/storage/v1"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/types"
)

// GCSStore stores blobs in a Google Cloud Storage bucket
type GCSStore struct {
	service *gcs.Service
	bucket  string
}

// NewGCSStore creates a bucket-scoped store. With no options, Application
// Default Credentials are used.
func NewGCSStore(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSStore, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("bucket name is required")
	}
	srv, err := gcs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Storage service: %w", err)
	}
	return &GCSStore{service: srv, bucket: bucket}, nil
}

// Bucket returns the bucket name
func (s *GCSStore) Bucket() string {
	return s.bucket
}

// Put uploads data as object name
func (s *GCSStore) Put(ctx context.Context, name string, data []byte) (types.BlobRef, error) {
	obj := &gcs.Object{
		Name:        name,
		ContentType: http.DetectContentType(data),
	}
	created, err := s.service.Objects.Insert(s.bucket, obj).
		Media(bytes.NewReader(data)).
		Context(ctx).
		Do()
	if err != nil {
		return types.BlobRef{}, fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return s.ref(created), nil
}

// Get downloads the object's content
func (s *GCSStore) Get(ctx context.Context, name string) ([]byte, error) {
	resp, err := s.service.Objects.Get(s.bucket, name).Context(ctx).Download()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, name)
		}
		return nil, fmt.Errorf("failed to download %s: %w", name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// List returns every object in the bucket
func (s *GCSStore) List(ctx context.Context) ([]types.BlobRef, error) {
	var refs []types.BlobRef
	err := s.service.Objects.List(s.bucket).Pages(ctx, func(page *gcs.Objects) error {
		for _, obj := range page.Items {
			refs = append(refs, s.ref(obj))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list bucket %s: %w", s.bucket, err)
	}
	return refs, nil
}

func (s *GCSStore) ref(obj *gcs.Object) types.BlobRef {
	updated, _ := time.Parse(time.RFC3339, obj.Updated)
	return types.BlobRef{
		ID:          obj.Id,
		Name:        obj.Name,
		ContentType: obj.ContentType,
		Size:        int64(obj.Size),
		Locator:     fmt.Sprintf("gs://%s/%s", s.bucket, obj.Name),
		SelfLink:    obj.SelfLink,
		MediaLink:   obj.MediaLink,
		PublicURL:   publicURL(s.bucket, obj.Name),
		UpdatedAt:   updated,
	}
}

func publicURL(bucket, name string) string {
	u := url.URL{
		Scheme: "https",
		Host:   "storage.googleapis.com",
		Path:   "/" + bucket + "/" + name,
	}
	return u.String()
}
