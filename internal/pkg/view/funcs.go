package view

import (
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mutualsplus/site/internal/models"
	"github.com/mutualsplus/site/internal/modules/content/readtime"
	"github.com/mutualsplus/site/internal/modules/content/selectplus"
	"github.com/mutualsplus/site/internal/pkg/htmltext"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"GBP": "£",
	"EUR": "€",
	"NGN": "₦",
}

func funcMap(site Site) template.FuncMap {
	return template.FuncMap{
		"safeHTML": func(raw string) template.HTML {
			return template.HTML(htmltext.Sanitize(raw))
		},
		"excerpt": htmltext.Excerpt,
		"readTime": func(a models.Article) string {
			if a.ReadTime != "" {
				return a.ReadTime
			}
			return readtime.Label(a.Content)
		},
		"feature": selectplus.FromArticle,
		"money": func(amount float64, currency ...string) string {
			code := site.Currency
			if len(currency) > 0 && currency[0] != "" {
				code = strings.ToUpper(currency[0])
			}
			if sym, ok := currencySymbols[code]; ok {
				return fmt.Sprintf("%s%.2f", sym, amount)
			}
			return fmt.Sprintf("%.2f %s", amount, code)
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2 Jan 2006")
		},
		"datePtr": func(t *time.Time) string {
			if t == nil || t.IsZero() {
				return ""
			}
			return t.Format("2 Jan 2006")
		},
		"inputDate": func(t interface{}) string {
			switch v := t.(type) {
			case time.Time:
				if v.IsZero() {
					return ""
				}
				return v.Format("2006-01-02T15:04")
			case *time.Time:
				if v == nil || v.IsZero() {
					return ""
				}
				return v.Format("2006-01-02T15:04")
			}
			return ""
		},
		"join":  strings.Join,
		"lower": strings.ToLower,
		"add":   func(a, b int) int { return a + b },
		"seq": func(n int) []int {
			out := make([]int, n)
			for i := range out {
				out[i] = i + 1
			}
			return out
		},
		// pageURL rewrites the page parameter of the current query string.
		"pageURL": func(path string, query url.Values, page int) string {
			q := url.Values{}
			for k, v := range query {
				q[k] = v
			}
			q.Set("page", strconv.Itoa(page))
			return path + "?" + q.Encode()
		},
		"selected": func(a, b string) template.HTMLAttr {
			if a == b {
				return "selected"
			}
			return ""
		},
		"checked": func(b bool) template.HTMLAttr {
			if b {
				return "checked"
			}
			return ""
		},
		"contains": func(list []string, v string) bool {
			for _, s := range list {
				if s == v {
					return true
				}
			}
			return false
		},
		"dict": func(kv ...interface{}) (map[string]interface{}, error) {
			if len(kv)%2 != 0 {
				return nil, fmt.Errorf("dict: odd number of arguments")
			}
			m := make(map[string]interface{}, len(kv)/2)
			for i := 0; i < len(kv); i += 2 {
				k, ok := kv[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
				}
				m[k] = kv[i+1]
			}
			return m, nil
		},
	}
}
