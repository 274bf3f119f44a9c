package site

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/mmcdole/gofeed"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutualsplus/site/internal/apiclient"
	"github.com/mutualsplus/site/internal/middleware"
	"github.com/mutualsplus/site/internal/modules/settings"
	"github.com/mutualsplus/site/internal/pkg/redis"
	"github.com/mutualsplus/site/internal/pkg/view"
)

// backend is a scripted stand-in for the REST API. Routes are keyed by
// "METHOD /path"; unknown routes answer 404.
type backend struct {
	mu     sync.Mutex
	routes map[string]string
	status map[string]int
	calls  map[string]int
	bodies map[string][]byte
}

func newBackend() *backend {
	return &backend{
		routes: map[string]string{},
		status: map[string]int{},
		calls:  map[string]int{},
		bodies: map[string][]byte{},
	}
}

func (b *backend) on(method, path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = body
	b.status[method+" "+path] = status
}

func (b *backend) count(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method+" "+path]
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api")
	body, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.calls[key]++
	b.bodies[key] = body
	resp, ok := b.routes[key]
	status := b.status[key]
	b.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"success":false,"message":"Not found"}`)
		return
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, resp)
}

type fixture struct {
	api    *backend
	router *gin.Engine
}

func newFixture(t *testing.T, mw ...gin.HandlerFunc) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	api := newBackend()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client := apiclient.New(apiclient.Options{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second})
	renderer, err := view.New(view.Site{Name: "Mutuals+", Currency: "USD"}, nil)
	require.NoError(t, err)

	h := NewHandler(Options{
		Client:   client,
		View:     renderer,
		Settings: settings.NewService(client, nil),
		URL:      "https://mutuals.test/",
	})
	r := gin.New()
	r.Use(mw...)
	h.RegisterRoutes(&r.RouterGroup)
	r.NoRoute(h.NoRoute)
	return &fixture{api: api, router: r}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	return f.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (f *fixture) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(req)
}

const articlesJSON = `{"success":true,"data":[
	{"id":"a1","title":"Night Shift","slug":"night-shift","category":"Music","status":"PUBLISHED","content":"<p>Deep cuts from the basement.</p>","publishDate":"2024-05-02T20:00:00Z"},
	{"id":"a2","title":"Studio Visit","slug":"studio-visit","category":"Select+","subtitle":"Ada | Producer","tags":["EP:004"],"status":"PUBLISHED","content":"<p>Ada opens the doors.</p>","createdAt":"2024-04-01T10:00:00Z"}
],"meta":{"total":2,"page":1,"limit":20,"totalPages":1}}`

func TestHomeRendersSections(t *testing.T) {
	f := newFixture(t)
	f.api.on(http.MethodGet, "/homepage/hero-slides", http.StatusOK, `{"success":true,"data":[{"id":"s1","title":"Summer Series","imageUrl":"https://cdn.test/s1.jpg","linkUrl":"/events","order":1}]}`)
	f.api.on(http.MethodGet, "/articles", http.StatusOK, articlesJSON)
	f.api.on(http.MethodGet, "/events", http.StatusOK, `{"success":true,"data":[{"id":"e1","title":"Rooftop Session","slug":"rooftop","eventDate":"2030-06-01T18:00:00Z","status":"UPCOMING"}]}`)

	w := f.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Summer Series")
	assert.Contains(t, body, "Night Shift")
	assert.Contains(t, body, "Rooftop Session")
	assert.Contains(t, body, "EP 004")
}

func TestHomeWithEveryRequestFailingShowsErrorPage(t *testing.T) {
	f := newFixture(t)
	for _, p := range []string{"/homepage/hero-slides", "/articles", "/events"} {
		f.api.on(http.MethodGet, p, http.StatusInternalServerError, `{"success":false,"message":"database offline"}`)
	}
	w := f.get("/")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "database offline")
}

func TestHomeToleratesPartialFailure(t *testing.T) {
	f := newFixture(t)
	f.api.on(http.MethodGet, "/articles", http.StatusOK, articlesJSON)
	// hero slides and events are missing and answer 404
	w := f.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Night Shift")
}

func TestArticleDetail(t *testing.T) {
	f := newFixture(t)
	f.api.on(http.MethodGet, "/articles/slug/night-shift", http.StatusOK,
		`{"success":true,"data":{"id":"a1","title":"Night Shift","slug":"night-shift","category":"Music","status":"PUBLISHED","content":"<p>Deep cuts</p><script>alert(1)</script>"}}`)

	w := f.get("/editorial/night-shift")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<p>Deep cuts</p>")
	assert.NotContains(t, body, "alert(1)")
	assert.Contains(t, body, "1 min read")
}

func TestArticleNotFound(t *testing.T) {
	f := newFixture(t)
	w := f.get("/editorial/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Back to editorial")
}

func TestDraftArticleIsHidden(t *testing.T) {
	f := newFixture(t)
	f.api.on(http.MethodGet, "/articles/slug/wip", http.StatusOK,
		`{"success":true,"data":{"id":"a9","title":"WIP","slug":"wip","status":"DRAFT"}}`)
	w := f.get("/editorial/wip")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSectionRedirects(t *testing.T) {
	f := newFixture(t)
	f.api.on(http.MethodGet, "/articles/slug/studio-visit", http.StatusOK,
		`{"success":true,"data":{"id":"a2","title":"Studio Visit","slug":"studio-visit","category":"Select+","status":"PUBLISHED"}}`)
	f.api.on(http.MethodGet, "/articles/slug/night-shift", http.StatusOK,
		`{"success":true,"data":{"id":"a1","title":"Night Shift","slug":"night-shift","category":"Music","status":"PUBLISHED"}}`)

	w := f.get("/editorial/studio-visit")
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/select-plus/studio-visit", w.Header().Get("Location"))

	w = f.get("/select-plus/night-shift")
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/editorial/night-shift", w.Header().Get("Location"))
}

func TestFeatureDetailDecodesSelectPlusFields(t *testing.T) {
	f := newFixture(t)
	f.api.on(http.MethodGet, "/articles/slug/studio-visit", http.StatusOK,
		`{"success":true,"data":{"id":"a2","title":"Studio Visit","slug":"studio-visit","category":"Select+","status":"PUBLISHED","subtitle":"Ada | Producer","tags":["EP:012","Lagos, Nigeria"]}}`)
	w := f.get("/select-plus/studio-visit")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "EP 012")
	assert.Contains(t, body, "Ada")
	assert.Contains(t, body, "Producer")
	assert.Contains(t, body, "Lagos, Nigeria")
}

func TestEventsListAsksForStatus(t *testing.T) {
	f := newFixture(t)
	f.api.on(http.MethodGet, "/events", http.StatusOK, `{"success":true,"data":[]}`)
	w := f.get("/events?status=PAST")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Past events")
	assert.Equal(t, 1, f.api.count(http.MethodGet, "/events"))
}

func TestProductPage(t *testing.T) {
	f := newFixture(t)
	f.api.on(http.MethodGet, "/products/slug/tee", http.StatusOK,
		`{"success":true,"data":{"id":"p1","name":"Logo Tee","slug":"tee","price":30,"currency":"USD","sizes":["S","M"],"inStock":true}}`)
	w := f.get("/shop/tee")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Logo Tee")
	assert.Contains(t, body, "$30.00")
	assert.Contains(t, body, `action="/cart/add"`)
	assert.Contains(t, body, `value="M"`)
}

func TestMusicPage(t *testing.T) {
	f := newFixture(t)
	f.api.on(http.MethodGet, "/djs", http.StatusOK, `{"success":true,"data":{"djs":[{"id":"d1","name":"DJ Kola","genres":["Afro House"]}]}}`)
	f.api.on(http.MethodGet, "/playlists", http.StatusOK, `{"success":true,"data":{"items":[{"id":"p1","title":"Sunday Reset"}]}}`)
	w := f.get("/music")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "DJ Kola")
	assert.Contains(t, w.Body.String(), "Sunday Reset")
}

func TestContactValidationNeverReachesBackend(t *testing.T) {
	f := newFixture(t)
	f.api.on(http.MethodPost, "/submissions/contact", http.StatusCreated, `{"success":true,"data":{"id":"c1"}}`)

	w := f.postForm("/contact", url.Values{"name": {"Tobi"}, "email": {"not-an-email"}, "message": {"short"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Enter a valid email address.")
	assert.Contains(t, body, "Must be at least 10 characters.")
	assert.Contains(t, body, `value="Tobi"`, "values are kept")
	assert.Zero(t, f.api.count(http.MethodPost, "/submissions/contact"))
}

func TestContactSubmission(t *testing.T) {
	f := newFixture(t)
	f.api.on(http.MethodPost, "/submissions/contact", http.StatusCreated, `{"success":true,"data":{"id":"c1"}}`)

	w := f.postForm("/contact", url.Values{
		"name":    {" Tobi "},
		"email":   {"tobi@example.com"},
		"subject": {"Booking"},
		"message": {"We would love to book you for June."},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/contact", w.Header().Get("Location"))
	require.Equal(t, 1, f.api.count(http.MethodPost, "/submissions/contact"))

	var sent map[string]string
	require.NoError(t, json.Unmarshal(f.api.bodies["POST /submissions/contact"], &sent))
	assert.Equal(t, "Tobi", sent["name"])
	assert.Equal(t, "Booking", sent["subject"])
}

func TestContactBackendFailureKeepsForm(t *testing.T) {
	f := newFixture(t)
	f.api.on(http.MethodPost, "/submissions/contact", http.StatusTooManyRequests, `{"success":false,"message":"Slow down"}`)
	w := f.postForm("/contact", url.Values{
		"name":    {"Tobi"},
		"email":   {"tobi@example.com"},
		"message": {"We would love to book you for June."},
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Slow down")
	assert.Contains(t, w.Body.String(), "We would love to book you for June.")
}

func TestArtistLinksMustBeURLs(t *testing.T) {
	f := newFixture(t)
	form := url.Values{
		"name":       {"Ada"},
		"email":      {"ada@example.com"},
		"artistName": {"ADA"},
		"links":      {"https://soundcloud.com/ada\nnot a link"},
		"pitch":      {"Lagos-born producer blending amapiano and house."},
	}
	w := f.postForm("/artists", form)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Every link must be a full http(s) URL.")
	assert.Zero(t, f.api.count(http.MethodPost, "/submissions/artist"))

	f.api.on(http.MethodPost, "/submissions/artist", http.StatusCreated, `{"success":true,"data":{"id":"x1"}}`)
	form.Set("links", "https://soundcloud.com/ada\n\nhttps://instagram.com/ada")
	w = f.postForm("/artists", form)
	require.Equal(t, http.StatusSeeOther, w.Code)

	var sent struct {
		Links []string `json:"links"`
	}
	require.NoError(t, json.Unmarshal(f.api.bodies["POST /submissions/artist"], &sent))
	assert.Equal(t, []string{"https://soundcloud.com/ada", "https://instagram.com/ada"}, sent.Links)
}

func TestNewsletter(t *testing.T) {
	f := newFixture(t)
	f.api.on(http.MethodPost, "/newsletter/subscribe", http.StatusOK, `{"success":true}`)

	req := httptest.NewRequest(http.MethodPost, "/newsletter", strings.NewReader(`{"email":"fan@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)

	req = httptest.NewRequest(http.MethodPost, "/newsletter", strings.NewReader("email=nope"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "http://example.com/events")
	w = f.do(req)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/events", w.Header().Get("Location"))
	assert.Equal(t, 1, f.api.count(http.MethodPost, "/newsletter/subscribe"))
}

func TestFeedParses(t *testing.T) {
	f := newFixture(t)
	f.api.on(http.MethodGet, "/articles", http.StatusOK, articlesJSON)

	w := f.get("/feed.xml")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/rss+xml")

	feed, err := gofeed.NewParser().ParseString(w.Body.String())
	require.NoError(t, err)
	assert.Equal(t, "Mutuals+", feed.Title)
	require.Len(t, feed.Items, 2)
	assert.Equal(t, "Night Shift", feed.Items[0].Title)
	assert.Equal(t, "https://mutuals.test/editorial/night-shift", feed.Items[0].Link)
	assert.Equal(t, "https://mutuals.test/select-plus/studio-visit", feed.Items[1].Link)
	assert.Equal(t, "Deep cuts from the basement.", feed.Items[0].Description)
	assert.Contains(t, feed.Items[0].Content, "<p>Deep cuts from the basement.</p>")
	require.NotNil(t, feed.Items[0].PublishedParsed)
	assert.Equal(t, 2024, feed.Items[0].PublishedParsed.Year())
}

func TestSitemapListsContent(t *testing.T) {
	f := newFixture(t)
	f.api.on(http.MethodGet, "/articles", http.StatusOK, articlesJSON)
	f.api.on(http.MethodGet, "/events", http.StatusOK, `{"success":true,"data":[{"id":"e1","slug":"rooftop","title":"Rooftop"}]}`)
	f.api.on(http.MethodGet, "/products", http.StatusOK, `{"success":true,"data":[{"id":"p1","slug":"tee","name":"Tee"}]}`)

	w := f.get("/sitemap.xml")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<loc>https://mutuals.test/editorial/night-shift</loc>")
	assert.Contains(t, body, "<loc>https://mutuals.test/events/rooftop</loc>")
	assert.Contains(t, body, "<loc>https://mutuals.test/shop/tee</loc>")
	assert.Contains(t, body, "<lastmod>2024-04-01</lastmod>")
}

func TestStalePageServedWhenBackendFails(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.New(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	f := newFixture(t, middleware.HTTPCache(rdb, middleware.HTTPCacheOptions{TTL: time.Minute}))
	f.api.on(http.MethodGet, "/articles", http.StatusOK, articlesJSON)

	w := f.get("/editorial")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Night Shift")

	_, err := middleware.PurgeHTTPCache(t.Context(), rdb)
	require.NoError(t, err)
	f.api.on(http.MethodGet, "/articles", http.StatusInternalServerError, `{"success":false,"message":"down"}`)

	w = f.get("/editorial")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stale", w.Header().Get("X-Cache"))
	assert.Contains(t, w.Body.String(), "Night Shift")
}

func TestUnknownPathRendersNotFound(t *testing.T) {
	f := newFixture(t)
	w := f.get("/nowhere")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Back to the homepage")
}
