package s3infra

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/medtrax-api/internal/domain"
)

// maxDataURIBytes caps decoded inline uploads.
const maxDataURIBytes = 5 << 20

// ErrInvalidDataURI wraps domain.ErrBadRequest so callers can map it to a 400.
var ErrInvalidDataURI = fmt.Errorf("invalid data URI: %w", domain.ErrBadRequest)

// Store wraps S3 uploads for reminder and shop images.
type Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewClient creates an S3 client. A non-empty endpoint (LocalStack) overrides
// the resolved endpoint and switches to path-style addressing.
func NewClient(awsCfg aws.Config, endpoint string) *s3.Client {
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
}

// NewStore creates a Store. publicBaseURL prefixes object keys in returned URLs;
// when empty the virtual-hosted S3 URL for region is used.
func NewStore(client *s3.Client, bucket, region, publicBaseURL string) *Store {
	base := strings.TrimRight(publicBaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &Store{client: client, bucket: bucket, baseURL: base}
}

// Upload streams r to S3 under key and returns the object's public URL.
func (s *Store) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

// UploadDataURI decodes a base64 "data:<mime>;base64,<payload>" URI and uploads it
// under keyPrefix, picking the file extension from the mime type.
func (s *Store) UploadDataURI(ctx context.Context, keyPrefix, dataURI string) (string, error) {
	mime, data, err := ParseDataURI(dataURI)
	if err != nil {
		return "", err
	}
	return s.Upload(ctx, keyPrefix+extensionFor(mime), bytes.NewReader(data), mime)
}

// IsDataURI reports whether v looks like an inline base64 payload rather than a URL.
func IsDataURI(v string) bool {
	return strings.HasPrefix(v, "data:")
}

// ParseDataURI splits a base64 data URI into its mime type and decoded bytes.
func ParseDataURI(v string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(v, "data:")
	if !ok {
		return "", nil, ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidDataURI
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok || mime == "" {
		return "", nil, ErrInvalidDataURI
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > maxDataURIBytes {
		return "", nil, fmt.Errorf("payload exceeds %d bytes: %w", maxDataURIBytes, ErrInvalidDataURI)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode base64: %w", ErrInvalidDataURI)
	}
	return mime, data, nil
}

func extensionFor(mime string) string {
	switch strings.ToLower(mime) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".bin"
	}
}
