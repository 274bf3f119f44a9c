package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Base carries the identity and timestamps every backend record shares.
type Base struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// StringList decodes a JSON string array, while tolerating a plain string or a
// comma separated string from older backend records.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*l = StringList{}
		return nil
	}

	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*l = arr
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*l = SplitList(single)
	return nil
}

// SplitList splits a comma or newline separated string into trimmed non-empty parts.
func SplitList(s string) StringList {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' })
	out := make(StringList, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
