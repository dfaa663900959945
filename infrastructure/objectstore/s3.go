// Package objectstore handles the binary objects that hang off entities,
// currently user avatars on S3.
package objectstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"taskboard/application/ports"
)

// S3API is the subset of the SDK client the avatar store uses.
type S3API interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// AvatarStore deletes avatar objects from a single bucket. Avatars are
// referenced by full URL on the user record; the store extracts the object
// key from the URL and ignores the URL's own bucket and host.
type AvatarStore struct {
	api    S3API
	bucket string
	logger *zap.Logger
}

// NewAvatarStore creates an AvatarStore bound to one bucket.
func NewAvatarStore(api S3API, bucket string, logger *zap.Logger) *AvatarStore {
	return &AvatarStore{api: api, bucket: bucket, logger: logger}
}

var _ ports.AvatarStore = (*AvatarStore)(nil)

// Delete removes the object the avatar URL points at. Deleting an object
// that is already gone succeeds.
func (s *AvatarStore) Delete(ctx context.Context, avatarURL string) error {
	key, err := ObjectKey(avatarURL)
	if err != nil {
		return err
	}

	_, err = s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete avatar object %s: %w", key, err)
	}

	s.logger.Debug("avatar object deleted", zap.String("key", key))
	return nil
}

// ObjectKey extracts the S3 object key from an avatar URL. Both addressing
// styles are handled: virtual-hosted URLs carry the key as the whole path,
// path-style URLs (host starting with "s3." or "s3-") carry the bucket as
// the first path segment.
func ObjectKey(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid avatar url %q: %w", raw, err)
	}

	path := strings.TrimPrefix(u.Path, "/")
	if strings.HasPrefix(u.Host, "s3.") || strings.HasPrefix(u.Host, "s3-") {
		_, key, found := strings.Cut(path, "/")
		if !found {
			return "", fmt.Errorf("avatar url %q has no object key", raw)
		}
		return key, nil
	}

	if path == "" {
		return "", fmt.Errorf("avatar url %q has no object key", raw)
	}
	return path, nil
}
