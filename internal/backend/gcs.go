package backend

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"

	shverrors "github.com/jaspertzx/shardvault/internal/errors"
)

// GCSAdapter stores shards as objects in a single GCS bucket.
type GCSAdapter struct {
	client     *storage.Client
	bucketName string
	quiet      bool
}

// NewGCSAdapter builds an Adapter bound to bucketName.
func NewGCSAdapter(client *storage.Client, bucketName string, quiet bool) *GCSAdapter {
	return &GCSAdapter{client: client, bucketName: bucketName, quiet: quiet}
}

func (a *GCSAdapter) Put(ctx context.Context, shardName string, data []byte) error {
	obj := a.client.Bucket(a.bucketName).Object(shardName)
	w := obj.NewWriter(ctx)

	var bar *progressbar.ProgressBar
	if !a.quiet {
		bar = progressbar.DefaultBytes(int64(len(data)), "uploading "+shardName)
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		log.Warnf("gcs put %s/%s failed: %v", a.bucketName, shardName, err)
		return fmt.Errorf("%w: %v", shverrors.ErrTransient, err)
	}
	if err := w.Close(); err != nil {
		log.Warnf("gcs put %s/%s failed on close: %v", a.bucketName, shardName, err)
		return fmt.Errorf("%w: %v", shverrors.ErrTransient, err)
	}
	if bar != nil {
		bar.Add(len(data))
	}
	return nil
}

func (a *GCSAdapter) Get(ctx context.Context, shardName string) ([]byte, error) {
	obj := a.client.Bucket(a.bucketName).Object(shardName)
	r, err := obj.NewReader(ctx)
	if err != nil {
		if err == storage.ErrObjectNotExist {
			return nil, shverrors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", shverrors.ErrTransient, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shverrors.ErrTransient, err)
	}
	return data, nil
}

func (a *GCSAdapter) Exists(ctx context.Context, shardName string) (bool, error) {
	obj := a.client.Bucket(a.bucketName).Object(shardName)
	_, err := obj.Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if err == storage.ErrObjectNotExist {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", shverrors.ErrTransient, err)
}

func (a *GCSAdapter) Delete(ctx context.Context, shardName string) error {
	obj := a.client.Bucket(a.bucketName).Object(shardName)
	err := obj.Delete(ctx)
	if err != nil && err != storage.ErrObjectNotExist {
		return fmt.Errorf("%w: %v", shverrors.ErrTransient, err)
	}
	return nil
}
