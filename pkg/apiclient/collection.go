package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Record is a stored object exactly as the backend returned it, including
// the backend's own "id" next to the domain id.
type Record map[string]any

// InternalID returns the backend identifier used in resource paths.
func (r Record) InternalID() (string, bool) {
	switch v := r["id"].(type) {
	case string:
		return v, v != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	}
	return "", false
}

// Collection addresses one backend collection. Records are located by their
// domain id through a filtered list query; mutations then use the internal
// id from the fetched record.
type Collection struct {
	client  *Client
	name    string
	idField string
	entity  string
}

func (c *Client) Collection(name, idField, entity string) *Collection {
	return &Collection{client: c, name: name, idField: idField, entity: entity}
}

func (col *Collection) Name() string { return col.name }

func (col *Collection) path() string { return "/" + col.name }

func (col *Collection) itemPath(r Record) (string, error) {
	id, ok := r.InternalID()
	if !ok {
		return "", fmt.Errorf("%s record has no internal id", col.name)
	}
	return col.path() + "/" + url.PathEscape(id), nil
}

func (col *Collection) List(ctx context.Context, query url.Values) ([]Record, error) {
	p := col.path()
	if len(query) > 0 {
		p += "?" + query.Encode()
	}
	var records []Record
	if err := col.client.Do(ctx, http.MethodGet, p, nil, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (col *Collection) GetByID(ctx context.Context, id int) (Record, error) {
	records, err := col.List(ctx, url.Values{col.idField: {strconv.Itoa(id)}})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Collection: col.name, Entity: col.entity, ID: id}
	}
	return records[0], nil
}

func (col *Collection) Create(ctx context.Context, dto any) (Record, error) {
	var created Record
	if err := col.client.Do(ctx, http.MethodPost, col.path(), dto, nil, &created); err != nil {
		return nil, err
	}
	return created, nil
}

// Update fetches the current record, overlays the fields of partial and
// replaces the stored object with the result. Fields absent from partial
// keep their stored values; the internal id is never overwritten.
func (col *Collection) Update(ctx context.Context, id int, partial any) (Record, error) {
	current, err := col.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	fields, err := toFields(partial)
	if err != nil {
		return nil, err
	}

	merged := make(Record, len(current)+len(fields))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		merged[k] = v
	}

	p, err := col.itemPath(current)
	if err != nil {
		return nil, err
	}
	var updated Record
	if err := col.client.Do(ctx, http.MethodPut, p, merged, nil, &updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the record with the given domain id and returns it as it
// was stored before the removal.
func (col *Collection) Delete(ctx context.Context, id int) (Record, error) {
	current, err := col.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := col.itemPath(current)
	if err != nil {
		return nil, err
	}
	if err := col.client.Do(ctx, http.MethodDelete, p, nil, nil, nil); err != nil {
		return nil, err
	}
	return current, nil
}

// toFields turns a DTO struct or map into a generic field map using its JSON
// representation.
func toFields(v any) (map[string]any, error) {
	switch m := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return m, nil
	case Record:
		return m, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode update: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("update must be a JSON object: %w", err)
	}
	return fields, nil
}
