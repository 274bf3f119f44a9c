package view

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r, err := New(Site{Name: "Mutuals+", Currency: "USD"}, nil)
	require.NoError(t, err)
	return r
}

func TestEveryPageParses(t *testing.T) {
	r := newRenderer(t)
	for _, name := range []string{
		"site/home", "site/editorial/list", "site/editorial/detail",
		"site/selectplus/list", "site/selectplus/detail",
		"site/events/list", "site/events/detail",
		"site/shop/list", "site/shop/product", "site/cart",
		"site/music", "site/contact", "site/artist",
		"site/notfound", "site/error",
		"admin/login", "admin/dashboard", "admin/settings",
		"admin/articles/list", "admin/articles/form",
		"admin/selectplus/list", "admin/selectplus/form",
		"admin/events/list", "admin/events/form",
		"admin/media/list",
		"admin/submissions/list", "admin/submissions/show",
		"fragment/preview",
	} {
		assert.True(t, r.Has(name), name)
	}
	assert.False(t, r.Has("site/missing"))
}

func serve(handler gin.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	e := gin.New()
	e.Any("/*path", handler)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func TestNotFoundShowsBackLink(t *testing.T) {
	r := newRenderer(t)
	w := serve(func(c *gin.Context) {
		r.NotFound(c, "/shop", "Back to the shop")
	}, httptest.NewRequest(http.MethodGet, "/shop/gone", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `href="/shop"`)
	assert.Contains(t, w.Body.String(), "Back to the shop")
}

func TestUnknownPageIsServerError(t *testing.T) {
	r := newRenderer(t)
	w := serve(func(c *gin.Context) {
		r.Render(c, http.StatusOK, "site/nope", "Nope", nil)
	}, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestFlashSurvivesRedirect(t *testing.T) {
	r := newRenderer(t)
	w := serve(func(c *gin.Context) {
		SetFlash(c, FlashSuccess, "Thanks for reaching out!")
		c.Redirect(http.StatusSeeOther, "/contact")
	}, httptest.NewRequest(http.MethodPost, "/contact", nil))
	require.Equal(t, http.StatusSeeOther, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, flashCookie, cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/contact", nil)
	req.AddCookie(cookies[0])
	w = serve(func(c *gin.Context) {
		r.NotFound(c, "/", "")
	}, req)
	assert.Contains(t, w.Body.String(), `class="flash flash-success"`)
	assert.Contains(t, w.Body.String(), "Thanks for reaching out!")

	var cleared bool
	for _, ck := range w.Result().Cookies() {
		if ck.Name == flashCookie && ck.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "the flash is shown once")
}

func TestFlashNowWinsOverCookie(t *testing.T) {
	r := newRenderer(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: flashCookie, Value: "bm90LWpzb24"})
	w := serve(func(c *gin.Context) {
		FlashNow(c, FlashError, "Backend unavailable")
		r.NotFound(c, "/", "")
	}, req)
	assert.Contains(t, w.Body.String(), "Backend unavailable")

	w = serve(func(c *gin.Context) {
		r.NotFound(c, "/", "")
	}, req)
	assert.NotContains(t, w.Body.String(), `class="flash`, "a corrupt cookie is ignored")
}

func TestBack(t *testing.T) {
	cases := []struct {
		referer, want string
	}{
		{"", "/fallback"},
		{"http://example.com/events?status=PAST", "/events?status=PAST"},
		{"http://evil.test/phish", "/fallback"},
		{"/shop", "/shop"},
		{"javascript:alert(1)", "/fallback"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "http://example.com/newsletter", nil)
		if tc.referer != "" {
			req.Header.Set("Referer", tc.referer)
		}
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = req
		assert.Equal(t, tc.want, Back(c, "/fallback"), tc.referer)
	}
}

func TestFuncs(t *testing.T) {
	fm := funcMap(Site{Currency: "USD"})

	money := fm["money"].(func(float64, ...string) string)
	assert.Equal(t, "$45.00", money(45))
	assert.Equal(t, "£12.50", money(12.5, "gbp"))
	assert.Equal(t, "3.00 JPY", money(3, "JPY"))

	pageURL := fm["pageURL"].(func(string, url.Values, int) string)
	assert.Equal(t, "/shop?page=3&search=tee", pageURL("/shop", url.Values{"search": {"tee"}, "page": {"1"}}, 3))

	dict := fm["dict"].(func(...interface{}) (map[string]interface{}, error))
	_, err := dict("a")
	assert.Error(t, err)
	m, err := dict("Form", 1, "Errors", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, m["Form"])
}
