package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

type SettingType string

const (
	SettingText    SettingType = "text"
	SettingJSON    SettingType = "json"
	SettingBoolean SettingType = "boolean"
	SettingNumber  SettingType = "number"
)

// Well-known setting keys.
const (
	SettingArticleCategories = "article_categories"
	SettingContactCategories = "contact_categories"
	SettingEventTypes        = "event_types"
	SettingSiteName          = "site_name"
	SettingSiteDescription   = "site_description"
)

// SiteSetting is a typed key/value pair edited from the admin settings screen.
type SiteSetting struct {
	Key         string          `json:"key"`
	Value       string          `json:"value"`
	Type        SettingType     `json:"type"`
	Description string          `json:"description,omitempty"`
	Parsed      json.RawMessage `json:"parsedValue,omitempty"`
}

// ParsedValue decodes Value according to Type. Malformed values fall back to the
// raw string.
func (s SiteSetting) ParsedValue() interface{} {
	switch s.Type {
	case SettingBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(s.Value))
		if err != nil {
			return s.Value
		}
		return b
	case SettingNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(s.Value), 64)
		if err != nil {
			return s.Value
		}
		return f
	case SettingJSON:
		var v interface{}
		if err := json.Unmarshal([]byte(s.Value), &v); err != nil {
			return s.Value
		}
		return v
	default:
		return s.Value
	}
}

// StringList returns the setting as a list: a JSON array of strings, or a comma
// separated text value.
func (s SiteSetting) StringList() []string {
	var arr []string
	if err := json.Unmarshal([]byte(s.Value), &arr); err == nil {
		return arr
	}
	if len(s.Parsed) > 0 {
		if err := json.Unmarshal(s.Parsed, &arr); err == nil {
			return arr
		}
	}
	return SplitList(s.Value)
}
