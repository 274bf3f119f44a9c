package models

import "time"

type ArticleStatus string

const (
	ArticleDraft     ArticleStatus = "DRAFT"
	ArticlePublished ArticleStatus = "PUBLISHED"
	ArticleArchived  ArticleStatus = "ARCHIVED"
)

// ArticleStatuses lists every status, in the order the admin list queries them.
var ArticleStatuses = []ArticleStatus{ArticleDraft, ArticlePublished, ArticleArchived}

// CategorySelectPlus marks articles shown in the Select+ spotlight.
const CategorySelectPlus = "Select+"

// Article is an editorial piece. Slug is the public lookup key, ID the admin one.
type Article struct {
	Base
	Title        string        `json:"title"`
	Slug         string        `json:"slug"`
	Subtitle     string        `json:"subtitle,omitempty"`
	Description  string        `json:"description,omitempty"`
	Content      string        `json:"content"`
	HeroMediaURL string        `json:"heroMediaUrl,omitempty"`
	Category     string        `json:"category,omitempty"`
	Tags         StringList    `json:"tags"`
	Status       ArticleStatus `json:"status"`
	Featured     bool          `json:"featured"`
	PublishDate  *time.Time    `json:"publishDate,omitempty"`
	ReadTime     string        `json:"readTime,omitempty"`
	Author       *Author       `json:"author,omitempty"`
	Videos       []Video       `json:"videos,omitempty"`
}

// SortDate is the publish date, falling back to the creation date.
func (a Article) SortDate() time.Time {
	if a.PublishDate != nil && !a.PublishDate.IsZero() {
		return *a.PublishDate
	}
	return a.CreatedAt
}

type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Video struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// ArticleInput is the create/update payload for articles.
type ArticleInput struct {
	Title        string        `json:"title"`
	Slug         string        `json:"slug,omitempty"`
	Subtitle     string        `json:"subtitle,omitempty"`
	Description  string        `json:"description,omitempty"`
	Content      string        `json:"content"`
	HeroMediaURL string        `json:"heroMediaUrl,omitempty"`
	Category     string        `json:"category,omitempty"`
	Tags         []string      `json:"tags"`
	Status       ArticleStatus `json:"status"`
	Featured     bool          `json:"featured"`
	PublishDate  *time.Time    `json:"publishDate,omitempty"`
	ReadTime     string        `json:"readTime,omitempty"`
	Videos       []Video       `json:"videos,omitempty"`
}
