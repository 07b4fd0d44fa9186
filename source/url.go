package source

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/rlibre/x4grid/blobstore"
	minioblob "github.com/rlibre/x4grid/blobstore/minio"
	s3blob "github.com/rlibre/x4grid/blobstore/s3"
)

// Location describes where Open should fetch from.
//
// Supported forms:
//
//	-                            standard input
//	path/to/file.json            local file (also file:///abs/path)
//	s3://bucket/key              Amazon S3 object
//	minio://host:port/bucket/key MinIO object (minios:// for TLS)
//	dynamodb://table             DynamoDB table scan
type Location struct {
	// Region and Profile select AWS credentials for s3 and dynamodb.
	Region  string
	Profile string
	// AccessKey and SecretKey authenticate minio locations. Empty values
	// fall back to MINIO_ACCESS_KEY and MINIO_SECRET_KEY.
	AccessKey string
	SecretKey string
}

// Open resolves rawURL into a Source.
func (loc Location) Open(ctx context.Context, rawURL string, opts ...Option) (Source, error) {
	if rawURL == "-" {
		return NewReaderSource("stdin", os.Stdin, opts...), nil
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain paths, including Windows drive letters.
		return openFile(rawURL, opts...), nil
	}

	switch u.Scheme {
	case "file":
		return openFile(u.Path, opts...), nil
	case "s3":
		cfg, err := NewAWSConfig(ctx, loc.Region, loc.Profile)
		if err != nil {
			return nil, err
		}
		store := s3blob.NewStore(awss3.NewFromConfig(cfg), u.Host, "")
		return NewBlobSource(store, strings.TrimPrefix(u.Path, "/"), opts...), nil
	case "minio", "minios":
		bucket, key, ok := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		if !ok || bucket == "" || key == "" {
			return nil, fmt.Errorf("%w: %s: want minio://host/bucket/key", ErrUnsupportedURL, rawURL)
		}
		client, err := minio.New(u.Host, &minio.Options{
			Creds:  credentials.NewStaticV4(loc.minioAccessKey(), loc.minioSecretKey(), ""),
			Secure: u.Scheme == "minios",
		})
		if err != nil {
			return nil, err
		}
		return NewBlobSource(minioblob.NewStore(client, bucket, ""), key, opts...), nil
	case "dynamodb":
		cfg, err := NewAWSConfig(ctx, loc.Region, loc.Profile)
		if err != nil {
			return nil, err
		}
		return NewDynamoSource(dynamodb.NewFromConfig(cfg), u.Host, WithSourceOptions(opts...)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedURL, rawURL)
	}
}

func (loc Location) minioAccessKey() string {
	if loc.AccessKey != "" {
		return loc.AccessKey
	}
	return os.Getenv("MINIO_ACCESS_KEY")
}

func (loc Location) minioSecretKey() string {
	if loc.SecretKey != "" {
		return loc.SecretKey
	}
	return os.Getenv("MINIO_SECRET_KEY")
}

func openFile(path string, opts ...Option) Source {
	dir, name := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	return NewBlobSource(blobstore.NewLocalStore(dir), name, opts...)
}
