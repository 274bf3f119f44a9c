package site

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mutualsplus/site/internal/apiclient"
	"github.com/mutualsplus/site/internal/models"
	"github.com/mutualsplus/site/internal/pkg/htmltext"
)

const (
	feedSize       = 20
	summaryRunes   = 280
	contentModule  = "http://purl.org/rss/1.0/modules/content/"
	sitemapXMLNS   = "http://www.sitemaps.org/schemas/sitemap/0.9"
	sitemapMaxRows = 100
)

type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Content string     `xml:"xmlns:content,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        rssGUID  `xml:"guid"`
	PubDate     string   `xml:"pubDate"`
	Description string   `xml:"description"`
	Content     cdata    `xml:"content:encoded"`
	Categories  []string `xml:"category"`
}

type cdata struct {
	Value string `xml:",cdata"`
}

// articleLink is the public URL of an article. Select+ pieces live under their
// own section.
func (h *Handler) articleLink(a models.Article) string {
	if a.Category == models.CategorySelectPlus {
		return h.url + "/select-plus/" + a.Slug
	}
	return h.url + "/editorial/" + a.Slug
}

func (h *Handler) siteName() string {
	return h.settings.Text(models.SettingSiteName, "Mutuals+")
}

func (h *Handler) rss(c *gin.Context) {
	res, err := h.client.ListArticles(c.Request.Context(), apiclient.ListQuery{Limit: feedSize, Status: published})
	if err != nil {
		h.logger.Warn("build feed", zap.Error(err))
		c.String(http.StatusBadGateway, "feed unavailable")
		return
	}
	body, err := buildRSS(rssChannel{
		Title:         h.siteName(),
		Link:          h.url + "/",
		Description:   h.settings.Text(models.SettingSiteDescription, ""),
		LastBuildDate: time.Now().UTC().Format(time.RFC1123Z),
	}, res.Items, h.articleLink)
	if err != nil {
		h.logger.Error("encode feed", zap.Error(err))
		c.String(http.StatusInternalServerError, "feed error")
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", body)
}

func buildRSS(ch rssChannel, articles []models.Article, link func(models.Article) string) ([]byte, error) {
	ch.Items = make([]rssItem, 0, len(articles))
	for _, a := range articles {
		summary := a.Description
		if summary == "" {
			summary = htmltext.Excerpt(a.Content, summaryRunes)
		}
		href := link(a)
		item := rssItem{
			Title:       a.Title,
			Link:        href,
			GUID:        rssGUID{IsPermaLink: true, Value: href},
			PubDate:     a.SortDate().UTC().Format(time.RFC1123Z),
			Description: summary,
			Content:     cdata{Value: htmltext.Sanitize(a.Content)},
		}
		if a.Category != "" {
			item.Categories = append(item.Categories, a.Category)
		}
		ch.Items = append(ch.Items, item)
	}
	out, err := xml.MarshalIndent(rssDoc{Version: "2.0", Content: contentModule, Channel: ch}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

func (h *Handler) sitemap(c *gin.Context) {
	var articles []models.Article
	var events []models.Event
	var products []models.Product
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		res, err := h.client.ListArticles(ctx, apiclient.ListQuery{Limit: sitemapMaxRows, Status: published})
		articles = res.Items
		return err
	})
	g.Go(func() error {
		res, err := h.client.ListEvents(ctx, apiclient.ListQuery{Limit: sitemapMaxRows})
		events = res.Items
		return err
	})
	g.Go(func() error {
		res, err := h.client.ListProducts(ctx, apiclient.ListQuery{Limit: sitemapMaxRows})
		products = res.Items
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Warn("build sitemap", zap.Error(err))
		c.String(http.StatusBadGateway, "sitemap unavailable")
		return
	}

	set := urlSet{XMLNS: sitemapXMLNS}
	for _, p := range []string{"/", "/editorial", "/select-plus", "/events", "/shop", "/music", "/contact", "/artists"} {
		set.URLs = append(set.URLs, sitemapURL{Loc: h.url + p, ChangeFreq: "daily", Priority: "1.0"})
	}
	for _, a := range articles {
		set.URLs = append(set.URLs, sitemapURL{Loc: h.articleLink(a), LastMod: lastMod(a.Base), ChangeFreq: "weekly", Priority: "0.8"})
	}
	for _, e := range events {
		set.URLs = append(set.URLs, sitemapURL{Loc: h.url + "/events/" + e.Slug, LastMod: lastMod(e.Base), ChangeFreq: "weekly", Priority: "0.6"})
	}
	for _, p := range products {
		set.URLs = append(set.URLs, sitemapURL{Loc: h.url + "/shop/" + p.Slug, LastMod: lastMod(p.Base), ChangeFreq: "weekly", Priority: "0.6"})
	}
	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		h.logger.Error("encode sitemap", zap.Error(err))
		c.String(http.StatusInternalServerError, "sitemap error")
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), out...))
}

func lastMod(b models.Base) string {
	t := b.CreatedAt
	if b.UpdatedAt != nil && !b.UpdatedAt.IsZero() {
		t = *b.UpdatedAt
	}
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
