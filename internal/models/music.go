package models

type DJ struct {
	Base
	Name       string     `json:"name"`
	Slug       string     `json:"slug,omitempty"`
	Bio        string     `json:"bio,omitempty"`
	ImageURL   string     `json:"imageUrl,omitempty"`
	Genres     StringList `json:"genres,omitempty"`
	SocialURLs StringList `json:"socialLinks,omitempty"`
}

type Playlist struct {
	Base
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CoverURL    string `json:"coverUrl,omitempty"`
	Platform    string `json:"platform,omitempty"`
	EmbedURL    string `json:"embedUrl,omitempty"`
	URL         string `json:"url,omitempty"`
}

// HeroSlide is one entry of the homepage carousel.
type HeroSlide struct {
	Base
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	ImageURL string `json:"imageUrl"`
	LinkURL  string `json:"linkUrl,omitempty"`
	LinkText string `json:"linkText,omitempty"`
	Order    int    `json:"order"`
}
