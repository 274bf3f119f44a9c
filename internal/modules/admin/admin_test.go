package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutualsplus/site/internal/apiclient"
	"github.com/mutualsplus/site/internal/models"
	"github.com/mutualsplus/site/internal/modules/settings"
	"github.com/mutualsplus/site/internal/modules/upload"
	"github.com/mutualsplus/site/internal/pkg/cron"
	"github.com/mutualsplus/site/internal/pkg/validation"
	"github.com/mutualsplus/site/internal/pkg/view"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Night Shift":           "night-shift",
		"  Select+ Episode 7 ":  "selectplus-episode-7",
		"Àfrò -- Beats!":        "fr-beats",
		"already-slugged":       "already-slugged",
		"???":                   "",
		"Lagos, Nigeria (live)": "lagos-nigeria-live",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestArticleFormInput(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	form := ArticleForm{
		Title:         "  Night Shift ",
		ContentFormat: formatMarkdown,
		Markdown:      "# Hello\n\nDeep **cuts**.",
		HeroMediaURL:  "https://cdn.test/old.jpg",
		Category:      "Music",
		Tags:          "house, late night",
		Status:        string(models.ArticlePublished),
		Videos:        "https://v.test/1.mp4\n\n https://v.test/2.mp4 ",
	}
	in := form.Input("https://cdn.test/new.jpg", now)

	assert.Equal(t, "Night Shift", in.Title)
	assert.Equal(t, "night-shift", in.Slug)
	assert.Contains(t, in.Content, "<h1")
	assert.Contains(t, in.Content, "<strong>cuts</strong>")
	assert.Equal(t, "https://cdn.test/new.jpg", in.HeroMediaURL, "a fresh upload replaces the old image")
	assert.Equal(t, []string{"house", "late night"}, in.Tags)
	assert.Equal(t, "1 min read", in.ReadTime)
	require.NotNil(t, in.PublishDate)
	assert.True(t, in.PublishDate.Equal(now), "publishing without a date stamps now")
	assert.Equal(t, []models.Video{{URL: "https://v.test/1.mp4"}, {URL: "https://v.test/2.mp4"}}, in.Videos)

	draft := ArticleForm{Title: "Draft", Content: "<p>x</p>", Status: string(models.ArticleDraft)}.Input("", now)
	assert.Nil(t, draft.PublishDate)
	assert.Empty(t, draft.HeroMediaURL)
}

func TestArticleFormCheck(t *testing.T) {
	errs := validation.Errors{}
	ArticleForm{Content: "<p> </p>", PublishDate: "yesterday"}.Check(errs)
	assert.Equal(t, "Write something before saving.", errs["Content"])
	assert.Equal(t, "Enter a valid date.", errs["PublishDate"])

	errs = validation.Errors{}
	ArticleForm{ContentFormat: formatMarkdown, Markdown: ""}.Check(errs)
	assert.Contains(t, errs, "Markdown")

	errs = validation.Errors{}
	ArticleForm{Content: `<img src="https://cdn.test/a.jpg">`, PublishDate: "2024-05-01T10:00"}.Check(errs)
	assert.True(t, errs.Empty())
}

func TestFeatureFormRoundTrip(t *testing.T) {
	form := FeatureForm{
		ArticleForm:  ArticleForm{Title: "Studio Visit", Content: "<p>hi</p>", Status: "DRAFT", Tags: "interview"},
		CreativeName: "Ada",
		Role:         "Producer",
		Episode:      "7",
		Location:     "Lagos, Nigeria",
		Genre:        "Amapiano",
	}
	in := form.Input("", time.Now())
	assert.Equal(t, models.CategorySelectPlus, in.Category)
	assert.Equal(t, "Ada | Producer", in.Subtitle)
	assert.ElementsMatch(t, []string{"interview", "EP:007", "Lagos, Nigeria", "genre:Amapiano"}, in.Tags)

	back := featureFormFrom(models.Article{
		Title:    in.Title,
		Subtitle: in.Subtitle,
		Tags:     in.Tags,
		Category: in.Category,
		Status:   in.Status,
		Content:  in.Content,
	})
	assert.Equal(t, "Ada", back.CreativeName)
	assert.Equal(t, "Producer", back.Role)
	assert.Equal(t, "7", back.Episode)
	assert.Equal(t, "Lagos, Nigeria", back.Location)
	assert.Equal(t, "Amapiano", back.Genre)
	assert.Equal(t, "interview", back.Tags)
	assert.Empty(t, back.Subtitle)

	noEpisode := FeatureForm{CreativeName: "Ada", Episode: ""}.Feature()
	assert.Nil(t, noEpisode.Episode)
}

func TestEventFormInput(t *testing.T) {
	in := EventForm{Title: "Rooftop Session", EventDate: "2030-06-01T18:30", Status: "UPCOMING", ImageURL: "https://cdn.test/a.jpg"}.Input("https://cdn.test/b.jpg")
	assert.Equal(t, "rooftop-session", in.Slug)
	assert.Equal(t, 18, in.EventDate.Hour())
	assert.Equal(t, "https://cdn.test/b.jpg", in.ImageURL)

	errs := validation.Errors{}
	EventForm{EventDate: "soon"}.Check(errs)
	assert.Equal(t, "Enter a valid date.", errs["EventDate"])
}

// fakeAPI records every backend call in order and answers from per-route
// handlers. Unknown routes answer 404.
type fakeAPI struct {
	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	calls  []string
	bodies map[string][]byte
}

func (f *fakeAPI) handle(method, path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = h
}

func (f *fakeAPI) reply(method, path string, status int, body string) {
	f.handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func (f *fakeAPI) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api")
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.bodies[key] = body
	h, ok := f.routes[key]
	f.mu.Unlock()
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"success":false,"message":"Not found"}`)
		return
	}
	h(w, r)
}

type fixture struct {
	api    *fakeAPI
	router *gin.Engine
	purged int
}

func newFixture(t *testing.T, imageBed upload.Uploader) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	api := &fakeAPI{routes: map[string]http.HandlerFunc{}, bodies: map[string][]byte{}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client := apiclient.New(apiclient.Options{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second})
	renderer, err := view.New(view.Site{Name: "Mutuals+"}, nil)
	require.NoError(t, err)

	f := &fixture{api: api}
	h := NewHandler(Options{
		Client:         client,
		View:           renderer,
		Settings:       settings.NewService(client, nil),
		Scheduler:      cron.New(nil),
		ImageBed:       imageBed,
		MaxUploadBytes: 1 << 10,
		Purge:          func(_ context.Context) { f.purged++ },
	})
	r := gin.New()
	h.RegisterRoutes(r.Group("/admin"))
	f.router = r
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

type filePart struct {
	field, name, contentType string
	data                     []byte
}

func multipartRequest(t *testing.T, path string, fields url.Values, files ...filePart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	for _, fp := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fp.field, fp.name))
		hdr.Set("Content-Type", fp.contentType)
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(fp.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func articleFields() url.Values {
	return url.Values{
		"title":         {"Night Shift"},
		"category":      {"Music"},
		"status":        {"DRAFT"},
		"contentFormat": {"html"},
		"content":       {"<p>Deep cuts from the basement.</p>"},
	}
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n0000")

func TestCreateArticleUploadsBeforeMutation(t *testing.T) {
	f := newFixture(t, nil)
	f.api.reply(http.MethodPost, "/media/upload", http.StatusOK, `{"success":true,"data":{"id":"m1","filePath":"https://cdn.test/hero.png"}}`)
	f.api.reply(http.MethodPost, "/articles", http.StatusCreated, `{"success":true,"data":{"id":"a1","title":"Night Shift"}}`)

	w := f.do(multipartRequest(t, "/admin/articles", articleFields(), filePart{"heroMedia", "hero.png", "image/png", pngBytes}))
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, "/admin/articles", w.Header().Get("Location"))
	assert.Equal(t, []string{"POST /media/upload", "POST /articles"}, f.api.called())

	var sent models.ArticleInput
	require.NoError(t, json.Unmarshal(f.api.bodies["POST /articles"], &sent))
	assert.Equal(t, "https://cdn.test/hero.png", sent.HeroMediaURL)
	assert.Equal(t, "night-shift", sent.Slug)
	assert.Equal(t, "1 min read", sent.ReadTime)
	assert.Equal(t, 1, f.purged)
}

func TestUploadFailureNeverCallsMutation(t *testing.T) {
	f := newFixture(t, nil)
	f.api.reply(http.MethodPost, "/media/upload", http.StatusInternalServerError, `{"success":false,"message":"bucket unavailable"}`)
	f.api.reply(http.MethodPost, "/articles", http.StatusCreated, `{"success":true,"data":{"id":"a1"}}`)

	w := f.do(multipartRequest(t, "/admin/articles", articleFields(), filePart{"heroMedia", "hero.png", "image/png", pngBytes}))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, []string{"POST /media/upload"}, f.api.called())
	body := w.Body.String()
	assert.Contains(t, body, "bucket unavailable")
	assert.Contains(t, body, `value="Night Shift"`, "field values are kept")
	assert.Zero(t, f.purged)
}

func TestOversizedHeroIsRejectedLocally(t *testing.T) {
	f := newFixture(t, nil)
	big := bytes.Repeat([]byte("x"), 2<<10)
	w := f.do(multipartRequest(t, "/admin/articles", articleFields(), filePart{"heroMedia", "hero.png", "image/png", big}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "That file is too large.")
	assert.Empty(t, f.api.called())
}

func TestInvalidArticleIsNotSent(t *testing.T) {
	f := newFixture(t, nil)
	fields := articleFields()
	fields.Set("title", "ab")
	fields.Set("content", "")
	w := f.do(multipartRequest(t, "/admin/articles", fields, filePart{"heroMedia", "hero.png", "image/png", pngBytes}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Must be at least 3 characters.")
	assert.Contains(t, body, "Write something before saving.")
	assert.Empty(t, f.api.called(), "neither the upload nor the mutation runs")
}

func TestCreateFeatureEncodesFields(t *testing.T) {
	f := newFixture(t, nil)
	f.api.reply(http.MethodPost, "/articles", http.StatusCreated, `{"success":true,"data":{"id":"a2","title":"Studio Visit"}}`)
	fields := articleFields()
	fields.Set("title", "Studio Visit")
	fields.Set("category", models.CategorySelectPlus)
	fields.Set("creativeName", "Ada")
	fields.Set("role", "Producer")
	fields.Set("episode", "12")
	fields.Set("location", "Accra")

	w := f.do(multipartRequest(t, "/admin/select-plus", fields))
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())

	var sent models.ArticleInput
	require.NoError(t, json.Unmarshal(f.api.bodies["POST /articles"], &sent))
	assert.Equal(t, models.CategorySelectPlus, sent.Category)
	assert.Equal(t, "Ada | Producer", sent.Subtitle)
	assert.Contains(t, sent.Tags, "EP:012")
	assert.Contains(t, sent.Tags, "location:Accra")
}

func TestFeatureEpisodeMustBeNumeric(t *testing.T) {
	f := newFixture(t, nil)
	fields := articleFields()
	fields.Set("category", models.CategorySelectPlus)
	fields.Set("creativeName", "Ada")
	fields.Set("episode", "seven")
	w := f.do(multipartRequest(t, "/admin/select-plus", fields))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, f.api.called())
}

func TestEditSelectPlusArticleRedirectsToFeatureEditor(t *testing.T) {
	f := newFixture(t, nil)
	f.api.reply(http.MethodGet, "/articles/a2", http.StatusOK, `{"success":true,"data":{"id":"a2","title":"Studio Visit","category":"Select+"}}`)
	w := f.do(httptest.NewRequest(http.MethodGet, "/admin/articles/a2/edit", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/select-plus/a2/edit", w.Header().Get("Location"))
}

func TestEditMissingArticleRendersNotFound(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(httptest.NewRequest(http.MethodGet, "/admin/articles/nope/edit", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Back to articles")
}

func TestArticlesListMergesStatuses(t *testing.T) {
	f := newFixture(t, nil)
	f.api.handle(http.MethodGet, "/articles", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		switch r.URL.Query().Get("status") {
		case "DRAFT":
			_, _ = io.WriteString(w, `{"success":true,"data":[{"id":"d1","title":"Draft Piece","status":"DRAFT","createdAt":"2024-05-03T00:00:00Z"}],"meta":{"total":1}}`)
		case "PUBLISHED":
			_, _ = io.WriteString(w, `{"success":true,"data":[{"id":"p1","title":"Published Piece","status":"PUBLISHED","publishDate":"2024-05-05T00:00:00Z"}],"meta":{"total":150}}`)
		default:
			_, _ = io.WriteString(w, `{"success":true,"data":[{"id":"x1","title":"Archived Piece","status":"ARCHIVED","createdAt":"2024-01-01T00:00:00Z"}],"meta":{"total":1}}`)
		}
	})

	w := f.do(httptest.NewRequest(http.MethodGet, "/admin/articles?status=ALL", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	pub, draft, archived := strings.Index(body, "Published Piece"), strings.Index(body, "Draft Piece"), strings.Index(body, "Archived Piece")
	require.True(t, pub > 0 && draft > 0 && archived > 0)
	assert.Less(t, pub, draft)
	assert.Less(t, draft, archived)
	assert.Contains(t, body, "Only the newest 100 articles per status are shown for PUBLISHED.")
	assert.Len(t, f.api.called(), 3)
}

func TestListFailureRendersEmptyWithFlash(t *testing.T) {
	f := newFixture(t, nil)
	f.api.reply(http.MethodGet, "/events", http.StatusServiceUnavailable, `{"success":false,"message":"maintenance"}`)
	w := f.do(httptest.NewRequest(http.MethodGet, "/admin/events", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "maintenance")
	assert.Contains(t, w.Body.String(), "No events found.")
}

type recordingBed struct {
	files []upload.File
}

func (r *recordingBed) Upload(_ context.Context, f upload.File) (string, error) {
	r.files = append(r.files, f)
	return "https://img.test/" + f.Filename, nil
}

func TestEditorImageUpload(t *testing.T) {
	bed := &recordingBed{}
	f := newFixture(t, bed)

	w := f.do(multipartRequest(t, "/admin/uploads/image", nil, filePart{"file", "inline.png", "image/png", pngBytes}))
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Success bool `json:"success"`
		Data    struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "https://img.test/inline.png", res.Data.URL)
	require.Len(t, bed.files, 1)
	assert.Equal(t, "editor", bed.files[0].Folder)
	assert.Empty(t, f.api.called(), "the image bed bypasses the backend")

	w = f.do(multipartRequest(t, "/admin/uploads/image", nil, filePart{"file", "notes.txt", "text/plain", []byte("hello")}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = f.do(multipartRequest(t, "/admin/uploads/image", nil, filePart{"file", "huge.png", "image/png", bytes.Repeat([]byte("x"), 4<<10)}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestEditorImageUploadFallsBackToBackend(t *testing.T) {
	f := newFixture(t, nil)
	f.api.reply(http.MethodPost, "/media/upload", http.StatusOK, `{"success":true,"url":"https://cdn.test/inline.png"}`)
	w := f.do(multipartRequest(t, "/admin/uploads/image", nil, filePart{"file", "inline.png", "image/png", pngBytes}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://cdn.test/inline.png")
}

func TestPreviewRendersMarkdown(t *testing.T) {
	f := newFixture(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/admin/preview", strings.NewReader(url.Values{
		"contentFormat": {"markdown"},
		"markdown":      {"**bold** move"},
	}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<strong>bold</strong>")
}

func TestSubmissionStatusUpdate(t *testing.T) {
	f := newFixture(t, nil)
	f.api.reply(http.MethodPatch, "/submissions/contact/s1", http.StatusOK, `{"success":true,"data":{"id":"s1","status":"REVIEWED"}}`)

	req := httptest.NewRequest(http.MethodPost, "/admin/submissions/contact/s1/status", strings.NewReader("status=REVIEWED"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := f.do(req)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin/submissions/contact/s1", w.Header().Get("Location"))
	assert.Equal(t, []string{"PATCH /submissions/contact/s1"}, f.api.called())
	assert.JSONEq(t, `{"status":"REVIEWED"}`, string(f.api.bodies["PATCH /submissions/contact/s1"]))

	req = httptest.NewRequest(http.MethodPost, "/admin/submissions/contact/s1/status", strings.NewReader("status=LOST"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = f.do(req)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Len(t, f.api.called(), 1, "an invalid status is never sent")

	w = f.do(httptest.NewRequest(http.MethodGet, "/admin/submissions/spam/s1", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboardCountsDegradeIndependently(t *testing.T) {
	f := newFixture(t, nil)
	f.api.reply(http.MethodGet, "/articles", http.StatusOK, `{"success":true,"data":[],"meta":{"total":4}}`)
	f.api.reply(http.MethodGet, "/events", http.StatusInternalServerError, `{"success":false}`)
	f.api.reply(http.MethodGet, "/submissions/contact", http.StatusOK, `{"success":true,"data":[],"meta":{"total":2}}`)
	f.api.reply(http.MethodGet, "/submissions/artist", http.StatusOK, `{"success":true,"data":[],"meta":{"total":0}}`)

	w := f.do(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<strong>4</strong> draft articles")
	assert.Contains(t, body, "<strong>–</strong> upcoming events")
	assert.Contains(t, body, "<strong>2</strong> new messages")
}
