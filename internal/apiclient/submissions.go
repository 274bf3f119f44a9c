package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mutualsplus/site/internal/models"
)

func submissionPath(kind models.SubmissionKind) string {
	return "/submissions/" + string(kind)
}

func (c *Client) ListSubmissions(ctx context.Context, kind models.SubmissionKind, q ListQuery) (Page[models.Submission], error) {
	path := submissionPath(kind)
	env, err := c.get(ctx, path, q.Values())
	if err != nil {
		return Page[models.Submission]{}, err
	}
	page, err := decodeList[models.Submission](env, "submissions", path)
	if err != nil {
		return page, err
	}
	for i := range page.Items {
		page.Items[i].Kind = kind
	}
	return page, nil
}

func (c *Client) GetSubmission(ctx context.Context, kind models.SubmissionKind, id string) (models.Submission, error) {
	path := submissionPath(kind) + "/" + url.PathEscape(id)
	env, err := c.get(ctx, path, nil)
	if err != nil {
		return models.Submission{}, err
	}
	s, err := decodeOne[models.Submission](env, path)
	s.Kind = kind
	return s, err
}

func (c *Client) CreateContactSubmission(ctx context.Context, in models.ContactInput) (models.Submission, error) {
	path := submissionPath(models.SubmissionContact)
	env, err := c.sendJSON(ctx, http.MethodPost, path, in)
	if err != nil {
		return models.Submission{}, err
	}
	return decodeOne[models.Submission](env, path)
}

func (c *Client) CreateArtistSubmission(ctx context.Context, in models.ArtistInput) (models.Submission, error) {
	path := submissionPath(models.SubmissionArtist)
	env, err := c.sendJSON(ctx, http.MethodPost, path, in)
	if err != nil {
		return models.Submission{}, err
	}
	return decodeOne[models.Submission](env, path)
}

type statusUpdate struct {
	Status models.SubmissionStatus `json:"status"`
}

// UpdateSubmissionStatus moves a submission through NEW, REVIEWED and ARCHIVED.
// The backend records the reviewer from the bearer token.
func (c *Client) UpdateSubmissionStatus(ctx context.Context, kind models.SubmissionKind, id string, status models.SubmissionStatus) (models.Submission, error) {
	path := submissionPath(kind) + "/" + url.PathEscape(id)
	env, err := c.sendJSON(ctx, http.MethodPatch, path, statusUpdate{Status: status})
	if err != nil {
		return models.Submission{}, err
	}
	s, err := decodeOne[models.Submission](env, path)
	s.Kind = kind
	return s, err
}

func (c *Client) DeleteSubmission(ctx context.Context, kind models.SubmissionKind, id string) error {
	_, err := c.sendJSON(ctx, http.MethodDelete, submissionPath(kind)+"/"+url.PathEscape(id), nil)
	return err
}
