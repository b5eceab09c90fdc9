package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3 implements Storage on an S3 bucket under a key prefix. Used when the
// policy service runs with shared state across hosts.
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3 creates an S3 store using the default AWS credential chain.
func NewS3(ctx context.Context, bucket, prefix, region string) (*S3, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &S3{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: strings.TrimSuffix(prefix, "/") + "/",
	}, nil
}

func (s *S3) key(path string) string {
	return s.prefix + strings.TrimPrefix(path, "/")
}

func (s *S3) Read(ctx context.Context, path string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("read s3://%s/%s: %w", s.bucket, s.key(path), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of s3://%s/%s: %w", s.bucket, s.key(path), err)
	}
	return data, nil
}

func (s *S3) Write(ctx context.Context, path string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("write s3://%s/%s: %w", s.bucket, s.key(path), err)
	}
	return nil
}

func (s *S3) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil {
		return fmt.Errorf("delete s3://%s/%s: %w", s.bucket, s.key(path), err)
	}
	return nil
}

func (s *S3) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.key(strings.TrimSuffix(prefix, "/") + "/")
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(fullPrefix),
		Delimiter: aws.String("/"),
	})
	if err != nil {
		return nil, fmt.Errorf("list s3://%s/%s: %w", s.bucket, fullPrefix, err)
	}
	var paths []string
	for _, obj := range out.Contents {
		paths = append(paths, strings.TrimPrefix(aws.ToString(obj.Key), s.prefix))
	}
	return paths, nil
}

func (s *S3) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil {
		// HeadObject reports missing keys as a generic NotFound.
		if isNoSuchKey(err) || strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "404") {
			return false, nil
		}
		return false, fmt.Errorf("stat s3://%s/%s: %w", s.bucket, s.key(path), err)
	}
	return true, nil
}

func isNoSuchKey(err error) bool {
	var nsk *types.NoSuchKey
	return errors.As(err, &nsk) || strings.Contains(err.Error(), "NoSuchKey")
}
