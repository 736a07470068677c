package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"ldpfile/internal/core/types"
	"ldpfile/internal/file"
	"ldpfile/internal/graph"
	"ldpfile/internal/ldp"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Provider implements the Provider interface for repository content
// mirrored into an S3 bucket. Object headers stand in for the LDP HEAD
// response and a sidecar object holds each binary's description.
type S3Provider struct {
	id             string
	cfg            *types.ProviderConfig
	bucket         string
	prefix         string
	metadataSuffix string
	logger         *slog.Logger
	session        *session.Session
	s3Client       *s3.S3
}

// NewS3Provider creates a new S3 provider
func NewS3Provider(cfg types.ProviderConfig, opts Options) (Provider, error) {
	sessionConfig := aws.Config{}
	if cfg.Region != "" {
		sessionConfig.Region = aws.String(cfg.Region)
	}
	if cfg.Endpoint != "" {
		sessionConfig.Endpoint = aws.String(cfg.Endpoint)
		sessionConfig.S3ForcePathStyle = aws.Bool(true)
	}
	if opts.HTTPClient != nil {
		sessionConfig.HTTPClient = opts.HTTPClient
	}

	// An empty profile selects the default credential chain
	sess, err := session.NewSessionWithOptions(session.Options{
		Profile: cfg.Profile,
		Config:  sessionConfig,
	})
	if err != nil {
		return nil, err
	}

	suffix := cfg.MetadataSuffix
	if suffix == "" {
		suffix = types.DefaultMetadataSuffix
	}

	return &S3Provider{
		id:             cfg.ID,
		cfg:            &cfg,
		bucket:         cfg.Bucket,
		prefix:         strings.Trim(cfg.Prefix, "/"),
		metadataSuffix: suffix,
		logger:         opts.logger().With("provider", cfg.ID),
		session:        sess,
		s3Client:       s3.New(sess),
	}, nil
}

// GetName returns the name of the provider
func (p *S3Provider) GetName() string {
	if p.cfg.Name != "" {
		return p.cfg.Name
	}
	return p.cfg.Type
}

// GetID returns the unique ID of the provider
func (p *S3Provider) GetID() string {
	return p.id
}

// Open maps path to an object key under the configured prefix
func (p *S3Provider) Open(ctx context.Context, path string) (file.Source, error) {
	key := strings.Trim(path, "/")
	if key == "" {
		return nil, fmt.Errorf("empty object key")
	}
	if p.prefix != "" {
		key = p.prefix + "/" + key
	}
	return &S3Resource{
		bucket:         p.bucket,
		key:            key,
		metadataSuffix: p.metadataSuffix,
		client:         p.s3Client,
		logger:         p.logger,
	}, nil
}

// S3Resource is one mirrored binary.
type S3Resource struct {
	bucket         string
	key            string
	metadataSuffix string
	client         *s3.S3
	logger         *slog.Logger

	mu       sync.Mutex
	head     *ldp.Response
	metadata *graph.Graph
}

func (r *S3Resource) URI() string {
	return "s3://" + r.bucket + "/" + r.key
}

func (r *S3Resource) Head(ctx context.Context) (*ldp.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.head != nil {
		return r.head, nil
	}

	result, err := r.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key),
	})
	if err != nil {
		return nil, r.wrapError(http.MethodHead, err)
	}

	header := http.Header{}
	setHeader(header, "Content-Type", result.ContentType)
	setHeader(header, "Content-Disposition", result.ContentDisposition)
	setHeader(header, "ETag", result.ETag)
	if result.ContentLength != nil {
		header.Set("Content-Length", strconv.FormatInt(*result.ContentLength, 10))
	}
	if result.LastModified != nil {
		header.Set("Last-Modified", result.LastModified.UTC().Format(http.TimeFormat))
	}

	r.logger.Debug("fetched head", "uri", r.URI(), "content_type", header.Get("Content-Type"))
	r.head = &ldp.Response{URI: r.URI(), StatusCode: http.StatusOK, Header: header}
	return r.head, nil
}

// Metadata reads the sidecar description. A binary mirrored without one
// has an empty graph.
func (r *S3Resource) Metadata(ctx context.Context) (*graph.Graph, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.metadata != nil {
		return r.metadata, nil
	}

	key := r.key + r.metadataSuffix
	result, err := r.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		err = r.wrapError(http.MethodGet, err)
		if errors.Is(err, ldp.ErrNotFound) {
			r.logger.Debug("no metadata sidecar", "bucket", r.bucket, "key", key)
			r.metadata = graph.New()
			return r.metadata, nil
		}
		return nil, fmt.Errorf("metadata for %s: %w", r.URI(), err)
	}
	defer result.Body.Close()

	format, err := graph.FormatForMediaType(aws.StringValue(result.ContentType))
	if err != nil {
		return nil, fmt.Errorf("metadata for %s: %w", r.URI(), err)
	}
	g, err := graph.Parse(result.Body, format)
	if err != nil {
		return nil, fmt.Errorf("metadata for %s: %w", r.URI(), err)
	}

	r.logger.Debug("fetched metadata", "bucket", r.bucket, "key", key, "triples", g.Len())
	r.metadata = g
	return g, nil
}

// Content opens the object body. The caller closes the reader.
func (r *S3Resource) Content(ctx context.Context) (io.ReadCloser, error) {
	result, err := r.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key),
	})
	if err != nil {
		return nil, r.wrapError(http.MethodGet, err)
	}
	return result.Body, nil
}

func (r *S3Resource) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.head = nil
	r.metadata = nil
}

// wrapError turns S3 request failures into the repository's status errors.
func (r *S3Resource) wrapError(method string, err error) error {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: %s", &ldp.StatusError{Method: method, URI: r.URI(), StatusCode: reqErr.StatusCode()}, reqErr.Code())
	}
	return err
}

func setHeader(h http.Header, key string, value *string) {
	if v := aws.StringValue(value); v != "" {
		h.Set(key, v)
	}
}

func init() {
	RegisterProviderFactory("s3", NewS3Provider)
}
