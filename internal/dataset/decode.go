package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/ausdata/internal/models"
)

var requiredTextFields = []string{"title", "description", "owner", "topic"}

func decodeJSON(r io.Reader) ([]map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataFormat, err)
	}
	return records, nil
}

func decodeYAML(r io.Reader) ([]map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset source: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var records []map[string]any
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataFormat, err)
	}
	return records, nil
}

func recordToDataset(i int, rec map[string]any) (models.Dataset, error) {
	if rec == nil {
		return models.Dataset{}, fmt.Errorf("%w: record %d: not an object", ErrDataFormat, i)
	}
	id, err := idField(rec["id"])
	if err != nil {
		return models.Dataset{}, fmt.Errorf("%w: record %d: field \"id\": %v", ErrDataFormat, i, err)
	}
	fields := make(map[string]string, len(requiredTextFields))
	for _, name := range requiredTextFields {
		v, ok := rec[name]
		if !ok || v == nil {
			return models.Dataset{}, fmt.Errorf("%w: record %d (%s): missing field %q", ErrDataFormat, i, id, name)
		}
		s, ok := v.(string)
		if !ok {
			return models.Dataset{}, fmt.Errorf("%w: record %d (%s): field %q is not a string", ErrDataFormat, i, id, name)
		}
		fields[name] = s
	}
	if strings.TrimSpace(fields["title"]) == "" {
		return models.Dataset{}, fmt.Errorf("%w: record %d (%s): empty field \"title\"", ErrDataFormat, i, id)
	}
	rawYear, ok := rec["year"]
	if !ok || rawYear == nil {
		return models.Dataset{}, fmt.Errorf("%w: record %d (%s): missing field \"year\"", ErrDataFormat, i, id)
	}
	year, err := yearField(rawYear)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("%w: record %d (%s): field \"year\": %v", ErrDataFormat, i, id, err)
	}
	ds := models.Dataset{
		ID:          id,
		Title:       fields["title"],
		Description: fields["description"],
		Owner:       fields["owner"],
		Topic:       fields["topic"],
		Year:        year,
	}
	if ds.Coverage, err = optionalString(rec, "coverage"); err != nil {
		return models.Dataset{}, fmt.Errorf("%w: record %d (%s): %v", ErrDataFormat, i, id, err)
	}
	if ds.DataType, err = optionalString(rec, "data_type"); err != nil {
		return models.Dataset{}, fmt.Errorf("%w: record %d (%s): %v", ErrDataFormat, i, id, err)
	}
	if ds.URL, err = optionalString(rec, "url"); err != nil {
		return models.Dataset{}, fmt.Errorf("%w: record %d (%s): %v", ErrDataFormat, i, id, err)
	}
	if ds.Tags, err = optionalStrings(rec, "tags"); err != nil {
		return models.Dataset{}, fmt.Errorf("%w: record %d (%s): %v", ErrDataFormat, i, id, err)
	}
	return ds, nil
}

// idField accepts string ids and integral numeric ids (the published catalogue uses numbers).
func idField(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", fmt.Errorf("missing")
	case string:
		id := strings.TrimSpace(t)
		if id == "" {
			return "", fmt.Errorf("empty")
		}
		return id, nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return strconv.FormatInt(n, 10), nil
		}
		return "", fmt.Errorf("not an integer: %s", t.String())
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	default:
		return "", fmt.Errorf("unsupported type %T", v)
	}
}

func yearField(v any) (int, error) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), nil
		}
		return 0, fmt.Errorf("not an integer: %s", t.String())
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case uint64:
		return int(t), nil
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || math.IsNaN(t) {
			return 0, fmt.Errorf("not an integer: %v", t)
		}
		return int(t), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", t)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func optionalString(rec map[string]any, name string) (string, error) {
	v, ok := rec[name]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q is not a string", name)
	}
	return s, nil
}

func optionalStrings(rec map[string]any, name string) ([]string, error) {
	v, ok := rec[name]
	if !ok || v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("field %q is not a list", name)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("field %q contains a non-string value", name)
		}
		out = append(out, s)
	}
	return out, nil
}
