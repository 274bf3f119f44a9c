package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/mutualsplus/site/internal/models"
)

func (c *Client) ListMedia(ctx context.Context, q ListQuery) (Page[models.MediaFile], error) {
	env, err := c.get(ctx, "/media", q.Values())
	if err != nil {
		return Page[models.MediaFile]{}, err
	}
	return decodeList[models.MediaFile](env, "media", "/media")
}

func (c *Client) DeleteMedia(ctx context.Context, id string) error {
	_, err := c.sendJSON(ctx, http.MethodDelete, "/media/"+url.PathEscape(id), nil)
	return err
}

// UploadRequest is one file streamed to the media upload endpoint.
type UploadRequest struct {
	Filename    string
	ContentType string
	Body        io.Reader
	Folder      string
	FileType    models.FileType
}

// UploadResult is the hosted URL of an uploaded file plus the media record
// when the backend returned one.
type UploadResult struct {
	URL  string
	File *models.MediaFile
}

type uploadData struct {
	models.MediaFile
	URL string `json:"url"`
}

// UploadMedia posts the file as multipart form data (file, folder, fileType).
// The hosted URL is read from data.filePath, then data.url, then url.
func (c *Client) UploadMedia(ctx context.Context, in UploadRequest) (UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(in.Filename)))
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload %s: %w", in.Filename, err)
	}
	if _, err := io.Copy(part, in.Body); err != nil {
		return UploadResult{}, fmt.Errorf("upload %s: %w", in.Filename, err)
	}
	if in.Folder != "" {
		_ = mw.WriteField("folder", in.Folder)
	}
	fileType := in.FileType
	if fileType == "" {
		fileType = models.FileTypeForMime(contentType)
	}
	_ = mw.WriteField("fileType", string(fileType))
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("upload %s: %w", in.Filename, err)
	}

	env, err := c.send(ctx, http.MethodPost, "/media/upload", c.uploadURL, &buf, mw.FormDataContentType())
	if err != nil {
		return UploadResult{}, err
	}
	return uploadResultFrom(env)
}

func uploadResultFrom(env *Envelope) (UploadResult, error) {
	var res UploadResult
	if !isNull(env.Data) {
		var data uploadData
		if err := json.Unmarshal(env.Data, &data); err == nil {
			res.URL = firstNonEmpty(data.FilePath, data.URL)
			if data.ID != "" {
				file := data.MediaFile
				res.File = &file
			}
		}
	}
	if res.URL == "" {
		res.URL = strings.TrimSpace(env.URL)
	}
	if res.URL == "" {
		return res, ErrNoUploadURL
	}
	return res, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }
