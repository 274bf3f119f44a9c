package site

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mutualsplus/site/internal/apiclient"
	"github.com/mutualsplus/site/internal/middleware"
	"github.com/mutualsplus/site/internal/models"
	"github.com/mutualsplus/site/internal/pkg/response"
	"github.com/mutualsplus/site/internal/pkg/validation"
	"github.com/mutualsplus/site/internal/pkg/view"
)

const (
	msgContactSent = "Thanks for reaching out. We will get back to you soon."
	msgPitchSent   = "Thanks for your submission. We listen to everything."
	msgSubscribed  = "You're on the list."
)

type ContactForm struct {
	Name     string `form:"name" binding:"required,max=120"`
	Email    string `form:"email" binding:"required,email"`
	Phone    string `form:"phone" binding:"max=40"`
	Category string `form:"category" binding:"max=80"`
	Subject  string `form:"subject" binding:"max=200"`
	Message  string `form:"message" binding:"required,min=10,max=5000"`
}

func (f *ContactForm) check(categories []string, errs validation.Errors) {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	if f.Category == "" || len(categories) == 0 {
		return
	}
	for _, c := range categories {
		if c == f.Category {
			return
		}
	}
	errs.Add("Category", "Choose one of the listed categories.")
}

func (f ContactForm) input() models.ContactInput {
	return models.ContactInput{
		Name:     f.Name,
		Email:    f.Email,
		Phone:    strings.TrimSpace(f.Phone),
		Category: f.Category,
		Subject:  strings.TrimSpace(f.Subject),
		Message:  strings.TrimSpace(f.Message),
	}
}

// ArtistForm is the artist pitch. Links holds one URL per line.
type ArtistForm struct {
	Name       string `form:"name" binding:"required,max=120"`
	Email      string `form:"email" binding:"required,email"`
	ArtistName string `form:"artistName" binding:"required,max=120"`
	Genre      string `form:"genre" binding:"max=60"`
	Links      string `form:"links" binding:"max=2000"`
	Pitch      string `form:"pitch" binding:"required,min=20,max=5000"`
}

func (f *ArtistForm) check(errs validation.Errors) {
	for _, l := range f.links() {
		u, err := url.Parse(l)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs.Add("Links", "Every link must be a full http(s) URL.")
			return
		}
	}
}

func (f ArtistForm) links() []string {
	var out []string
	for _, l := range strings.Split(f.Links, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func (f ArtistForm) input() models.ArtistInput {
	return models.ArtistInput{
		Name:       strings.TrimSpace(f.Name),
		Email:      strings.TrimSpace(f.Email),
		ArtistName: strings.TrimSpace(f.ArtistName),
		Genre:      strings.TrimSpace(f.Genre),
		Links:      f.links(),
		Pitch:      strings.TrimSpace(f.Pitch),
	}
}

type NewsletterForm struct {
	Email string `form:"email" json:"email" binding:"required,email"`
	Name  string `form:"name" json:"name" binding:"max=120"`
}

func (h *Handler) contact(c *gin.Context) {
	h.renderContact(c, http.StatusOK, ContactForm{Category: c.Query("category")}, validation.Errors{})
}

func (h *Handler) renderContact(c *gin.Context, status int, form ContactForm, errs validation.Errors) {
	h.view.Render(c, status, "site/contact", "Contact", gin.H{
		"Form":       form,
		"Errors":     errs,
		"Categories": h.settings.ContactCategories(),
	})
}

func (h *Handler) submitContact(c *gin.Context) {
	var form ContactForm
	errs := validation.Errors{}
	if err := c.ShouldBind(&form); err != nil {
		errs = validation.FromBinding(err)
	}
	categories := h.settings.ContactCategories()
	form.check(categories, errs)
	if !errs.Empty() {
		h.renderContact(c, http.StatusUnprocessableEntity, form, errs)
		return
	}
	if _, err := h.client.CreateContactSubmission(c.Request.Context(), form.input()); err != nil {
		h.logger.Warn("contact submission", zap.Error(err))
		view.FlashNow(c, view.FlashError, apiclient.MessageOr(err, "Your message could not be sent. Please try again."))
		h.renderContact(c, http.StatusBadGateway, form, errs)
		return
	}
	view.SetFlash(c, view.FlashSuccess, msgContactSent)
	c.Redirect(http.StatusSeeOther, "/contact")
}

func (h *Handler) artistPage(c *gin.Context) {
	h.renderArtist(c, http.StatusOK, ArtistForm{}, validation.Errors{})
}

func (h *Handler) renderArtist(c *gin.Context, status int, form ArtistForm, errs validation.Errors) {
	h.view.Render(c, status, "site/artist", "Submit your music", gin.H{
		"Form":   form,
		"Errors": errs,
	})
}

func (h *Handler) submitArtist(c *gin.Context) {
	var form ArtistForm
	errs := validation.Errors{}
	if err := c.ShouldBind(&form); err != nil {
		errs = validation.FromBinding(err)
	}
	form.check(errs)
	if !errs.Empty() {
		h.renderArtist(c, http.StatusUnprocessableEntity, form, errs)
		return
	}
	if _, err := h.client.CreateArtistSubmission(c.Request.Context(), form.input()); err != nil {
		h.logger.Warn("artist submission", zap.Error(err))
		view.FlashNow(c, view.FlashError, apiclient.MessageOr(err, "Your submission could not be sent. Please try again."))
		h.renderArtist(c, http.StatusBadGateway, form, errs)
		return
	}
	view.SetFlash(c, view.FlashSuccess, msgPitchSent)
	c.Redirect(http.StatusSeeOther, "/artists")
}

func (h *Handler) subscribe(c *gin.Context) {
	var form NewsletterForm
	jsonMode := middleware.WantsJSON(c)
	if err := c.ShouldBind(&form); err != nil {
		msg := "Enter a valid email address."
		if jsonMode {
			response.UnprocessableEntity(c, msg)
			return
		}
		view.SetFlash(c, view.FlashError, msg)
		c.Redirect(http.StatusSeeOther, view.Back(c, "/"))
		return
	}
	err := h.client.SubscribeNewsletter(c.Request.Context(), strings.TrimSpace(form.Email), strings.TrimSpace(form.Name))
	if jsonMode {
		if err != nil {
			response.UpstreamError(c, err, "Subscription failed.")
			return
		}
		response.OK(c, gin.H{"email": form.Email})
		return
	}
	if err != nil {
		h.logger.Warn("newsletter signup", zap.Error(err))
		view.SetFlash(c, view.FlashError, apiclient.MessageOr(err, "Subscription failed. Please try again."))
	} else {
		view.SetFlash(c, view.FlashSuccess, msgSubscribed)
	}
	c.Redirect(http.StatusSeeOther, view.Back(c, "/"))
}
