// Package selectplus maps the structured fields of a Select+ feature onto the
// article subtitle and tag list, which is where the backend stores them.
//
// Encoding:
//
//	subtitle  "Creative Name | Role"
//	EP:NNN    episode number
//	a tag containing a comma, or "location:<value>", is the location
//	genre:<value>
//
// Every other tag is kept untouched.
package selectplus

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mutualsplus/site/internal/models"
)

const (
	subtitleSep    = "|"
	episodePrefix  = "EP:"
	genrePrefix    = "genre:"
	locationPrefix = "location:"
)

// Feature is the structured view of a Select+ article.
type Feature struct {
	CreativeName string
	Role         string
	Episode      *int
	Location     string
	Genre        string
	Tags         []string
}

// EpisodeLabel returns "EP 007" style text, or "" without an episode.
func (f Feature) EpisodeLabel() string {
	if f.Episode == nil {
		return ""
	}
	return fmt.Sprintf("EP %03d", *f.Episode)
}

// Decode rebuilds a Feature from a subtitle and tag list. It never fails:
// malformed episode tags leave Episode nil and stay in Tags, and repeated
// genre: or location: tags after the first stay in Tags.
func Decode(subtitle string, tags []string) Feature {
	var f Feature
	name, role, found := strings.Cut(subtitle, subtitleSep)
	f.CreativeName = strings.TrimSpace(name)
	if found {
		f.Role = strings.TrimSpace(role)
	}

	for _, raw := range tags {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		lower := strings.ToLower(tag)
		switch {
		case strings.HasPrefix(lower, strings.ToLower(episodePrefix)):
			if n, ok := ParseEpisode(tag); ok && f.Episode == nil {
				f.Episode = &n
				continue
			}
			f.Tags = append(f.Tags, tag)
		case strings.HasPrefix(lower, genrePrefix):
			if f.Genre != "" {
				f.Tags = append(f.Tags, tag)
				continue
			}
			f.Genre = strings.TrimSpace(tag[len(genrePrefix):])
		case strings.HasPrefix(lower, locationPrefix):
			if f.Location != "" {
				f.Tags = append(f.Tags, tag)
				continue
			}
			f.Location = strings.TrimSpace(tag[len(locationPrefix):])
		case strings.Contains(tag, ",") && f.Location == "":
			f.Location = tag
		default:
			f.Tags = append(f.Tags, tag)
		}
	}
	return f
}

// ParseEpisode reads the number of an "EP:NNN" tag.
func ParseEpisode(tag string) (int, bool) {
	t := strings.TrimSpace(tag)
	if len(t) < len(episodePrefix) || !strings.EqualFold(t[:len(episodePrefix)], episodePrefix) {
		return 0, false
	}
	digits := strings.TrimSpace(t[len(episodePrefix):])
	if digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Encode returns the subtitle and tags that store f.
func (f Feature) Encode() (string, []string) {
	subtitle := strings.TrimSpace(f.CreativeName)
	if role := strings.TrimSpace(f.Role); role != "" {
		subtitle += " " + subtitleSep + " " + role
	}

	tags := make([]string, 0, len(f.Tags)+3)
	for _, t := range f.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if f.Episode != nil {
		tags = append(tags, fmt.Sprintf("%s%03d", episodePrefix, *f.Episode))
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		if strings.Contains(loc, ",") {
			tags = append(tags, loc)
		} else {
			tags = append(tags, locationPrefix+loc)
		}
	}
	if g := strings.TrimSpace(f.Genre); g != "" {
		tags = append(tags, genrePrefix+g)
	}
	return subtitle, tags
}

// FromArticle decodes the feature stored on a.
func FromArticle(a models.Article) Feature {
	return Decode(a.Subtitle, a.Tags)
}

// Apply writes f into the subtitle and tags of in and forces the Select+
// category.
func (f Feature) Apply(in *models.ArticleInput) {
	in.Subtitle, in.Tags = f.Encode()
	in.Category = models.CategorySelectPlus
}
