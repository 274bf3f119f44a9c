package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// decodeOne decodes env.Data into a T. Null data means the record is missing.
func decodeOne[T any](env *Envelope, path string) (T, error) {
	var out T
	if isNull(env.Data) {
		return out, notFound(http.MethodGet, path)
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

type listObject struct {
	Items      json.RawMessage `json:"items"`
	Meta       *Meta           `json:"meta"`
	Pagination *Meta           `json:"pagination"`
	Total      *int            `json:"total"`
}

// decodeList accepts the three list shapes the backend produces: a bare data
// array, data.items, or data.<key>. Pagination comes from the envelope meta,
// then an inner meta block, and is synthesized from the items as a last resort.
func decodeList[T any](env *Envelope, key, path string) (Page[T], error) {
	page := Page[T]{Items: []T{}}
	if isNull(env.Data) {
		page.Meta = synthesizeMeta(env.Meta, 0)
		return page, nil
	}

	data := bytes.TrimSpace(env.Data)
	var itemsRaw json.RawMessage
	var inner *Meta

	switch data[0] {
	case '[':
		itemsRaw = data
	case '{':
		var obj listObject
		if err := json.Unmarshal(data, &obj); err != nil {
			return page, fmt.Errorf("decode %s: %w", path, err)
		}
		inner = obj.Meta
		if inner == nil {
			inner = obj.Pagination
		}
		if inner == nil && obj.Total != nil {
			inner = &Meta{Total: *obj.Total}
		}
		switch {
		case !isNull(obj.Items):
			itemsRaw = obj.Items
		case key != "":
			var keyed map[string]json.RawMessage
			if err := json.Unmarshal(data, &keyed); err != nil {
				return page, fmt.Errorf("decode %s: %w", path, err)
			}
			itemsRaw = keyed[key]
		}
	default:
		return page, fmt.Errorf("decode %s: unexpected list payload", path)
	}

	if !isNull(itemsRaw) {
		if err := json.Unmarshal(itemsRaw, &page.Items); err != nil {
			return page, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	meta := env.Meta
	if meta == nil {
		meta = inner
	}
	page.Meta = synthesizeMeta(meta, len(page.Items))
	return page, nil
}

func synthesizeMeta(meta *Meta, count int) Meta {
	if meta == nil {
		m := Meta{Total: count, Page: 1, Limit: count}
		if count > 0 {
			m.TotalPages = 1
		}
		return m
	}
	m := *meta
	if m.Page == 0 {
		m.Page = 1
	}
	if m.Limit == 0 {
		m.Limit = count
	}
	if m.TotalPages == 0 && m.Limit > 0 {
		m.TotalPages = (m.Total + m.Limit - 1) / m.Limit
	}
	return m
}
