package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutualsplus/site/internal/apiclient"
	"github.com/mutualsplus/site/internal/config"
)

type fakeUploader struct {
	calls []string
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, file File) (string, error) {
	f.calls = append(f.calls, file.Filename)
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.mutuals.plus/" + file.Filename, nil
}

func TestSubmitUploadsBeforeMutation(t *testing.T) {
	up := &fakeUploader{}
	var order []string
	got, err := Submit(context.Background(), up,
		[]Pending{{Field: "heroMediaUrl", File: &File{Filename: "hero.jpg"}}, {Field: "none"}},
		func(_ context.Context, urls map[string]string) (string, error) {
			order = append(order, "mutate")
			assert.Len(t, up.calls, 1, "upload must finish before the mutation")
			return urls["heroMediaUrl"], nil
		})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.mutuals.plus/hero.jpg", got)
	assert.Equal(t, []string{"mutate"}, order)
}

func TestSubmitSkipsMutationWhenUploadFails(t *testing.T) {
	up := &fakeUploader{err: errors.New("storage down")}
	called := false
	_, err := Submit(context.Background(), up,
		[]Pending{{Field: "heroMediaUrl", File: &File{Filename: "hero.jpg"}}},
		func(context.Context, map[string]string) (struct{}, error) {
			called = true
			return struct{}{}, nil
		})
	require.Error(t, err)
	assert.False(t, called)

	var upErr *Error
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "heroMediaUrl", upErr.Field)
	assert.ErrorContains(t, err, "storage down")
}

func TestSubmitWithoutFilesJustMutates(t *testing.T) {
	got, err := Submit(context.Background(), nil, nil,
		func(_ context.Context, urls map[string]string) (int, error) { return len(urls), nil })
	require.NoError(t, err)
	assert.Zero(t, got)
}

func multipartHeader(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestFromFormFile(t *testing.T) {
	f, err := FromFormFile(multipartHeader(t, "cover.png", []byte("\x89PNG\r\n\x1a\npayload")), "articles", 1<<20)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "cover.png", f.Filename)
	assert.Equal(t, "image/png", f.ContentType)
	assert.Equal(t, "articles", f.Folder)

	_, err = FromFormFile(multipartHeader(t, "big.bin", make([]byte, 64)), "", 16)
	assert.ErrorIs(t, err, ErrTooLarge)

	none, err := FromFormFile(nil, "", 0)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestAPIUploader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer admin", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":{"id":"m1","filePath":"https://cdn/m1.jpg"}}`)
	}))
	defer srv.Close()

	client := apiclient.New(apiclient.Options{BaseURL: srv.URL}).WithToken("admin")
	u, err := NewAPIUploader(client, nil).Upload(context.Background(), File{Filename: "m1.jpg", ContentType: "image/jpeg", Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/m1.jpg", u)
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Uploader(t *testing.T) {
	fake := &fakeS3{}
	u := &S3Uploader{
		client:       fake,
		bucket:       "media",
		customDomain: "https://img.mutuals.plus",
		keyTemplate:  "editor/{Y}/{m}/{filename}-{md5-16}.{ext}",
		maxBytes:     1 << 20,
		now:          func() time.Time { return time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC) },
	}
	got, err := u.Upload(context.Background(), File{Filename: "Inline.JPG", Data: []byte("abc")})
	require.NoError(t, err)
	assert.Equal(t, "https://img.mutuals.plus/editor/2024/05/Inline-900150983cd24fb0.jpg", got)
	assert.Equal(t, "media", *fake.input.Bucket)
	assert.Equal(t, "image/jpeg", *fake.input.ContentType)
	assert.Equal(t, []byte("abc"), fake.body)

	u.maxBytes = 2
	_, err = u.Upload(context.Background(), File{Filename: "x.jpg", Data: []byte("abc")})
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestS3PublicURL(t *testing.T) {
	u := &S3Uploader{bucket: "media", region: "eu-west-2"}
	assert.Equal(t, "https://media.s3.eu-west-2.amazonaws.com/k.jpg", u.publicURL("k.jpg"))
	u.endpoint = "https://minio.local"
	assert.Equal(t, "https://minio.local/media/k.jpg", u.publicURL("k.jpg"))
}

func TestRenderObjectKeyDefaults(t *testing.T) {
	now := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	key := RenderObjectKey("", "noext", nil, now)
	assert.Regexp(t, `^editor/2025/12/[0-9a-f]{32}\.dat$`, key)
	assert.Equal(t, "a/b.png", RenderObjectKey("//a//{filename}.{ext}", "b.PNG", nil, now))
}

func TestNewS3UploaderRequiresCredentials(t *testing.T) {
	_, err := NewS3Uploader(config.ImageBedConfig{Bucket: "media"}, nil)
	assert.Error(t, err)

	u, err := NewS3Uploader(config.ImageBedConfig{
		Bucket: "media", Region: "auto", AccessKeyID: "id", SecretAccessKey: "secret",
		Endpoint: "r2.example.com",
	}, nil)
	require.NoError(t, err)
	assert.True(t, u.pathStyle)
	assert.Equal(t, "https://r2.example.com/media/k.jpg", u.publicURL("k.jpg"))
}
