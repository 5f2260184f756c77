package config

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/eventroutes/internal/errors"
)

// maxObjectSize caps how much of a remote config object is read.
const maxObjectSize = 1 << 20

// ObjectGetter is the subset of the S3 client LoadS3 needs.
// *s3.Client satisfies it.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewS3Client creates an S3 client from the default AWS credential chain
// (environment, shared config, instance role).
func NewS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.New("R023").Wrap(err)
	}
	return s3.NewFromConfig(cfg), nil
}

// ParseS3URI splits "s3://bucket/key" into bucket and key.
func ParseS3URI(uri string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(uri, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// LoadS3 reads configuration from an S3 object. The encoding follows the
// key's extension.
func LoadS3(ctx context.Context, client ObjectGetter, bucket, key string) (*Config, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.New("R023").
			WithDetail("GetObject s3://" + bucket + "/" + key + " failed").
			Wrap(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxObjectSize+1))
	if err != nil {
		return nil, errors.New("R023").Wrap(err)
	}
	if len(data) > maxObjectSize {
		return nil, errors.New("R023").
			WithDetail("s3://" + bucket + "/" + key + " is larger than 1 MiB")
	}

	uri := "s3://" + bucket + "/" + key
	cfg, err := Parse(data, FormatOf(key), uri)
	if err != nil {
		return nil, err
	}
	cfg.configPath = uri
	return cfg, nil
}

// LoadSource loads configuration from an "s3://bucket/key" URI, a file or a
// directory. An empty source searches upward from the working directory.
func LoadSource(ctx context.Context, source string) (*Config, error) {
	if source == "" {
		return LoadFromWorkingDir()
	}
	if bucket, key, ok := ParseS3URI(source); ok {
		client, err := NewS3Client(ctx)
		if err != nil {
			return nil, err
		}
		return LoadS3(ctx, client, bucket, key)
	}
	if info, err := os.Stat(source); err == nil && info.IsDir() {
		return Load(source)
	}
	return LoadFile(source)
}
