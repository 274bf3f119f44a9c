package upload

import (
	"bytes"
	"context"

	"github.com/mutualsplus/site/internal/apiclient"
	"github.com/mutualsplus/site/internal/models"
	"github.com/mutualsplus/site/internal/pkg/metrics"
)

// APIUploader streams files to the backend media upload endpoint. The client
// must carry the admin bearer token.
type APIUploader struct {
	client  *apiclient.Client
	metrics *metrics.Collector
}

func NewAPIUploader(client *apiclient.Client, m *metrics.Collector) *APIUploader {
	return &APIUploader{client: client, metrics: m}
}

func (u *APIUploader) Upload(ctx context.Context, f File) (string, error) {
	res, err := u.client.UploadMedia(ctx, apiclient.UploadRequest{
		Filename:    f.Filename,
		ContentType: f.ContentType,
		Body:        bytes.NewReader(f.Data),
		Folder:      f.Folder,
		FileType:    models.FileTypeForMime(f.ContentType),
	})
	u.metrics.ObserveUpload("api", err)
	if err != nil {
		return "", err
	}
	return res.URL, nil
}
