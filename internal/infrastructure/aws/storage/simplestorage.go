package storage

import (
	"bytes"
	"context"
	"errors"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const (
	// PathNoteImages and PathAvatars are the bucket prefixes for the two
	// kinds of uploads this app performs.
	PathNoteImages = "note-images/"
	PathAvatars    = "avatars/"
)

type S3Client interface {
	UploadFile(data []byte, key string) error
	DeleteFile(key string) error
	// PublicURL resolves the key into the URL clients fetch it from.
	PublicURL(key string) string
}

type storageClient struct {
	bucket  string
	baseURL string
	client  *s3.Client
}

func NewStorageClient() (S3Client, error) {
	region := os.Getenv("AWS_S3_REGION")
	bucket := os.Getenv("S3_BUCKET_NAME")
	baseURL := os.Getenv("S3_PUBLIC_BASE_URL") // CDN or bucket website endpoint

	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, err
	}

	if baseURL == "" {
		baseURL = "https://" + bucket + ".s3." + region + ".amazonaws.com"
	}

	client := s3.NewFromConfig(cfg)
	return &storageClient{
		bucket:  bucket,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}, nil
}

func (s *storageClient) UploadFile(data []byte, key string) error {
	if key == "" {
		return errors.New("object key is empty")
	}

	mimeType := mime.TypeByExtension(filepath.Ext(key))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: &mimeType,
	}

	_, err := s.client.PutObject(context.Background(), input)
	return err
}

// DeleteFile removes the object. It is idempotent: a missing key is not an
// error, which keeps the database and the bucket from deadlocking when they
// drift out of sync.
func (s *storageClient) DeleteFile(key string) error {
	if key == "" {
		return errors.New("object key is empty")
	}

	input := &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}

	_, err := s.client.DeleteObject(context.Background(), input)

	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return nil
	}
	return err
}

func (s *storageClient) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	return s.baseURL + "/" + key
}
