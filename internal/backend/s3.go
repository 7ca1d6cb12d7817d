package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"

	shverrors "github.com/jaspertzx/shardvault/internal/errors"
)

// S3Adapter stores shards as objects in a single S3 bucket.
type S3Adapter struct {
	client     *s3.Client
	bucketName string
	quiet      bool
}

// NewS3Adapter builds an Adapter bound to bucketName. quiet suppresses
// the progress bar (set true for anything but interactive CLI use).
func NewS3Adapter(client *s3.Client, bucketName string, quiet bool) *S3Adapter {
	return &S3Adapter{client: client, bucketName: bucketName, quiet: quiet}
}

func (a *S3Adapter) Put(ctx context.Context, shardName string, data []byte) error {
	var reader io.Reader = bytes.NewReader(data)
	if !a.quiet {
		bar := progressbar.DefaultBytes(int64(len(data)), "uploading "+shardName)
		pbReader := progressbar.NewReader(reader, bar)
		reader = &pbReader
	}

	size := int64(len(data))
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucketName),
		Key:           aws.String(shardName),
		Body:          reader,
		ContentLength: &size,
	})
	if err != nil {
		log.Warnf("s3 put %s/%s failed: %v", a.bucketName, shardName, err)
		return fmt.Errorf("%w: %v", shverrors.ErrTransient, err)
	}
	return nil
}

func (a *S3Adapter) Get(ctx context.Context, shardName string) ([]byte, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucketName),
		Key:    aws.String(shardName),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, shverrors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", shverrors.ErrTransient, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shverrors.ErrTransient, err)
	}
	return data, nil
}

func (a *S3Adapter) Exists(ctx context.Context, shardName string) (bool, error) {
	_, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucketName),
		Key:    aws.String(shardName),
	})
	if err == nil {
		return true, nil
	}
	if isS3NotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", shverrors.ErrTransient, err)
}

func (a *S3Adapter) Delete(ctx context.Context, shardName string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucketName),
		Key:    aws.String(shardName),
	})
	if err != nil && !isS3NotFound(err) {
		return fmt.Errorf("%w: %v", shverrors.ErrTransient, err)
	}
	return nil
}

func isS3NotFound(err error) bool {
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode() == 404
	}
	return false
}
