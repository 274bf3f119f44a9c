package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutualsplus/site/internal/models"
)

type fakeBackend struct {
	list []models.SiteSetting
	err  error
}

func (f *fakeBackend) ListSettings(context.Context) ([]models.SiteSetting, error) {
	return f.list, f.err
}

func TestRefreshAndLookups(t *testing.T) {
	b := &fakeBackend{list: []models.SiteSetting{
		{Key: models.SettingArticleCategories, Value: `["Music","Select+"]`, Type: models.SettingJSON},
		{Key: models.SettingContactCategories, Value: "Press, Bookings", Type: models.SettingText},
		{Key: models.SettingSiteName, Value: "Mutuals+", Type: models.SettingText},
	}}
	svc := NewService(b, nil)

	assert.Equal(t, DefaultArticleCategories, svc.ArticleCategories(), "defaults before the first refresh")
	require.NoError(t, svc.Refresh(context.Background()))

	assert.Equal(t, []string{"Music", "Select+"}, svc.ArticleCategories())
	assert.Equal(t, []string{"Press", "Bookings"}, svc.ContactCategories())
	assert.Equal(t, DefaultEventTypes, svc.EventTypes())
	assert.Equal(t, "Mutuals+", svc.Text(models.SettingSiteName, "x"))
	assert.Equal(t, "fallback", svc.Text("missing", "fallback"))
	assert.False(t, svc.LoadedAt().IsZero())

	all := svc.All()
	require.Len(t, all, 3)
	assert.Equal(t, models.SettingArticleCategories, all[0].Key)
}

func TestRefreshFailureKeepsCache(t *testing.T) {
	b := &fakeBackend{list: []models.SiteSetting{{Key: "k", Value: "v"}}}
	svc := NewService(b, nil)
	require.NoError(t, svc.Refresh(context.Background()))

	b.err = errors.New("backend down")
	assert.Error(t, svc.Refresh(context.Background()))
	assert.Equal(t, "v", svc.Text("k", ""))

	svc.Store(models.SiteSetting{Key: "k", Value: "w"})
	assert.Equal(t, "w", svc.Text("k", ""))
}

func TestRefreshJob(t *testing.T) {
	job := NewService(&fakeBackend{}, nil).RefreshJob()
	assert.Equal(t, "settings.refresh", job.Name)
	assert.Equal(t, RefreshInterval, job.Interval)
	assert.True(t, job.RunOnStart)
	assert.NoError(t, job.Fn(context.Background()))
}

func TestValidValue(t *testing.T) {
	assert.True(t, validValue(models.SettingJSON, `["a"]`))
	assert.False(t, validValue(models.SettingJSON, `["a"`))
	assert.True(t, validValue(models.SettingBoolean, "true"))
	assert.False(t, validValue(models.SettingBoolean, "yes please"))
	assert.True(t, validValue(models.SettingNumber, "3.5"))
	assert.False(t, validValue(models.SettingNumber, "three"))
	assert.True(t, validValue(models.SettingText, "anything"))
}
