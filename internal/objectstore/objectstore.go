// Package objectstore implementa el almacenamiento de imágenes sobre un
// bucket S3-compatible (MinIO, AWS S3, OSS en modo S3).
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Options son los datos de conexión al bucket.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Client envuelve a minio.Client con las operaciones que usa el catálogo.
type Client struct {
	client *minio.Client
	bucket string
}

// New crea el cliente. No hace llamadas de red: con Region fija minio no
// necesita resolver la ubicación del bucket.
func New(options Options) (*Client, error) {
	if options.Bucket == "" {
		return nil, errors.New("objectstore: bucket is required")
	}

	endpoint, secure := normalizeEndpoint(options.Endpoint, options.UseSSL)
	if endpoint == "" {
		return nil, errors.New("objectstore: endpoint is required")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(options.AccessKey, options.SecretKey, ""),
		Secure: secure,
		Region: options.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: %w", err)
	}

	return &Client{client: client, bucket: options.Bucket}, nil
}

// normalizeEndpoint acepta "host:port" o una URL con esquema.
// El esquema, si viene, manda sobre useSSL.
func normalizeEndpoint(endpoint string, useSSL bool) (string, bool) {
	endpoint = strings.TrimSpace(endpoint)
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		endpoint, useSSL = strings.TrimPrefix(endpoint, "https://"), true
	case strings.HasPrefix(endpoint, "http://"):
		endpoint, useSSL = strings.TrimPrefix(endpoint, "http://"), false
	}
	return strings.TrimSuffix(endpoint, "/"), useSSL
}

// Exists indica si el objeto existe. "No existe" no es un error.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.client.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	response := minio.ToErrorResponse(err)
	if response.Code == "NoSuchKey" || response.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, fmt.Errorf("objectstore: stat %q: %w", key, err)
}

// PresignGet firma una URL GET válida por ttl.
func (c *Client) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	signed, err := c.client.PresignedGetObject(ctx, c.bucket, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("objectstore: presign %q: %w", key, err)
	}
	return signed.String(), nil
}

// Put sube el objeto. size -1 si no se conoce.
func (c *Client) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := c.client.PutObject(ctx, c.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("objectstore: put %q: %w", key, err)
	}
	return nil
}

// Delete borra el objeto. Borrar algo inexistente no es error en S3.
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("objectstore: delete %q: %w", key, err)
	}
	return nil
}
