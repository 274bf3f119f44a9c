package admin

import (
	"strconv"
	"strings"
	"time"

	"github.com/mutualsplus/site/internal/models"
	"github.com/mutualsplus/site/internal/modules/content/readtime"
	"github.com/mutualsplus/site/internal/modules/content/selectplus"
	"github.com/mutualsplus/site/internal/pkg/htmltext"
	"github.com/mutualsplus/site/internal/pkg/markdown"
	"github.com/mutualsplus/site/internal/pkg/validation"
)

const (
	formatHTML     = "html"
	formatMarkdown = "markdown"

	inputDateLayout = "2006-01-02T15:04"
)

// ArticleForm is the article editor. Content holds editor HTML, or Markdown
// source when ContentFormat is "markdown". HeroMediaURL keeps the current image
// when no new file is chosen.
type ArticleForm struct {
	Title         string `form:"title" binding:"required,min=3,max=200"`
	Slug          string `form:"slug" binding:"omitempty,max=200"`
	Subtitle      string `form:"subtitle" binding:"max=300"`
	Description   string `form:"description" binding:"max=500"`
	ContentFormat string `form:"contentFormat" binding:"omitempty,oneof=html markdown"`
	Content       string `form:"content"`
	Markdown      string `form:"markdown"`
	HeroMediaURL  string `form:"heroMediaUrl" binding:"omitempty,url"`
	Category      string `form:"category" binding:"required"`
	Tags          string `form:"tags"`
	Status        string `form:"status" binding:"required,oneof=DRAFT PUBLISHED ARCHIVED"`
	Featured      bool   `form:"featured"`
	PublishDate   string `form:"publishDate"`
	Videos        string `form:"videos"`
}

// FeatureForm adds the structured Select+ fields to the article editor.
type FeatureForm struct {
	ArticleForm
	CreativeName string `form:"creativeName" binding:"required,max=120"`
	Role         string `form:"role" binding:"max=120"`
	Episode      string `form:"episode" binding:"omitempty,numeric"`
	Location     string `form:"location" binding:"max=120"`
	Genre        string `form:"genre" binding:"max=60"`
}

type EventForm struct {
	Title       string `form:"title" binding:"required,min=3,max=200"`
	Slug        string `form:"slug" binding:"omitempty,max=200"`
	Description string `form:"description"`
	EventDate   string `form:"eventDate" binding:"required"`
	Venue       string `form:"venue" binding:"max=200"`
	Location    string `form:"location" binding:"max=200"`
	TicketURL   string `form:"ticketUrl" binding:"omitempty,url"`
	TicketPrice string `form:"ticketPrice" binding:"max=50"`
	ImageURL    string `form:"imageUrl" binding:"omitempty,url"`
	EventType   string `form:"eventType"`
	Status      string `form:"status" binding:"required,oneof=UPCOMING PAST"`
	Featured    bool   `form:"featured"`
}

type StatusForm struct {
	Status string `form:"status" binding:"required,oneof=NEW REVIEWED ARCHIVED"`
}

// parseInputDate reads an <input type="datetime-local"> value, also accepting a
// plain date or RFC 3339.
func parseInputDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{inputDateLayout, "2006-01-02", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func formatInputDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Local().Format(inputDateLayout)
}

// Slugify lowercases s and joins its ASCII words with dashes.
func Slugify(s string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			sb.WriteRune(r)
			dash = false
		case r == '+':
			sb.WriteString("plus")
			dash = false
		default:
			if !dash && sb.Len() > 0 {
				sb.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.Trim(sb.String(), "-")
}

// HTML returns the article body as HTML, converting Markdown when needed.
func (f ArticleForm) HTML() string {
	if f.ContentFormat == formatMarkdown {
		return markdown.Render(f.Markdown)
	}
	return strings.TrimSpace(f.Content)
}

// Check runs the rules struct tags cannot express.
func (f ArticleForm) Check(errs validation.Errors) {
	if htmltext.WordCount(f.HTML()) == 0 && !strings.Contains(f.HTML(), "<img") {
		field := "Content"
		if f.ContentFormat == formatMarkdown {
			field = "Markdown"
		}
		errs.Add(field, "Write something before saving.")
	}
	if f.PublishDate != "" {
		if _, ok := parseInputDate(f.PublishDate, time.Local); !ok {
			errs.Add("PublishDate", "Enter a valid date.")
		}
	}
}

// Input builds the backend payload. heroURL, when set, replaces the form's
// hero image with a freshly uploaded one.
func (f ArticleForm) Input(heroURL string, now time.Time) models.ArticleInput {
	content := f.HTML()
	in := models.ArticleInput{
		Title:        strings.TrimSpace(f.Title),
		Slug:         strings.TrimSpace(f.Slug),
		Subtitle:     strings.TrimSpace(f.Subtitle),
		Description:  strings.TrimSpace(f.Description),
		Content:      content,
		HeroMediaURL: strings.TrimSpace(f.HeroMediaURL),
		Category:     strings.TrimSpace(f.Category),
		Tags:         []string(models.SplitList(f.Tags)),
		Status:       models.ArticleStatus(f.Status),
		Featured:     f.Featured,
		ReadTime:     readtime.Label(content),
	}
	if in.Slug == "" {
		in.Slug = Slugify(in.Title)
	}
	if heroURL != "" {
		in.HeroMediaURL = heroURL
	}
	if t, ok := parseInputDate(f.PublishDate, time.Local); ok {
		in.PublishDate = &t
	} else if in.Status == models.ArticlePublished {
		in.PublishDate = &now
	}
	for _, line := range strings.Split(f.Videos, "\n") {
		if u := strings.TrimSpace(line); u != "" {
			in.Videos = append(in.Videos, models.Video{URL: u})
		}
	}
	return in
}

func articleFormFrom(a models.Article) ArticleForm {
	videos := make([]string, 0, len(a.Videos))
	for _, v := range a.Videos {
		videos = append(videos, v.URL)
	}
	return ArticleForm{
		Title:         a.Title,
		Slug:          a.Slug,
		Subtitle:      a.Subtitle,
		Description:   a.Description,
		ContentFormat: formatHTML,
		Content:       a.Content,
		HeroMediaURL:  a.HeroMediaURL,
		Category:      a.Category,
		Tags:          strings.Join(a.Tags, ", "),
		Status:        string(a.Status),
		Featured:      a.Featured,
		PublishDate:   formatInputDate(a.PublishDate),
		Videos:        strings.Join(videos, "\n"),
	}
}

// Feature returns the structured Select+ fields. A blank episode is absent.
func (f FeatureForm) Feature() selectplus.Feature {
	feat := selectplus.Feature{
		CreativeName: strings.TrimSpace(f.CreativeName),
		Role:         strings.TrimSpace(f.Role),
		Location:     strings.TrimSpace(f.Location),
		Genre:        strings.TrimSpace(f.Genre),
		Tags:         []string(models.SplitList(f.Tags)),
	}
	if n, err := strconv.Atoi(strings.TrimSpace(f.Episode)); err == nil && n >= 0 {
		feat.Episode = &n
	}
	return feat
}

// Input builds the article payload with the feature encoded into it.
func (f FeatureForm) Input(heroURL string, now time.Time) models.ArticleInput {
	f.ArticleForm.Category = models.CategorySelectPlus
	in := f.ArticleForm.Input(heroURL, now)
	f.Feature().Apply(&in)
	return in
}

func featureFormFrom(a models.Article) FeatureForm {
	feat := selectplus.FromArticle(a)
	form := FeatureForm{
		ArticleForm:  articleFormFrom(a),
		CreativeName: feat.CreativeName,
		Role:         feat.Role,
		Location:     feat.Location,
		Genre:        feat.Genre,
	}
	form.Tags = strings.Join(feat.Tags, ", ")
	form.Subtitle = ""
	if feat.Episode != nil {
		form.Episode = strconv.Itoa(*feat.Episode)
	}
	return form
}

func (f EventForm) Check(errs validation.Errors) {
	if _, ok := parseInputDate(f.EventDate, time.Local); !ok && f.EventDate != "" {
		errs.Add("EventDate", "Enter a valid date.")
	}
}

func (f EventForm) Input(imageURL string) models.EventInput {
	date, _ := parseInputDate(f.EventDate, time.Local)
	in := models.EventInput{
		Title:       strings.TrimSpace(f.Title),
		Slug:        strings.TrimSpace(f.Slug),
		Description: strings.TrimSpace(f.Description),
		EventDate:   date,
		Venue:       strings.TrimSpace(f.Venue),
		Location:    strings.TrimSpace(f.Location),
		TicketURL:   strings.TrimSpace(f.TicketURL),
		TicketPrice: strings.TrimSpace(f.TicketPrice),
		ImageURL:    strings.TrimSpace(f.ImageURL),
		EventType:   strings.TrimSpace(f.EventType),
		Status:      models.EventStatus(f.Status),
		Featured:    f.Featured,
	}
	if in.Slug == "" {
		in.Slug = Slugify(in.Title)
	}
	if imageURL != "" {
		in.ImageURL = imageURL
	}
	return in
}

func eventFormFrom(e models.Event) EventForm {
	date := e.EventDate
	return EventForm{
		Title:       e.Title,
		Slug:        e.Slug,
		Description: e.Description,
		EventDate:   formatInputDate(&date),
		Venue:       e.Venue,
		Location:    e.Location,
		TicketURL:   e.TicketURL,
		TicketPrice: e.TicketPrice,
		ImageURL:    e.ImageURL,
		EventType:   e.EventType,
		Status:      string(e.Status),
		Featured:    e.Featured,
	}
}
