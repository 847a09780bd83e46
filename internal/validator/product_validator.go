// Package validator checks product payloads before they reach a repository.
//
// Payloads are inspected field by field on the raw JSON so that an absent
// field, an explicit null and a wrongly typed value can be told apart.
package validator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"inventory-api/internal/model"
)

type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every offending field of a rejected payload.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "invalid data: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ValidateCreate requires name, price, available and categories and returns
// the draft product they describe. Category ids left out or set to 0 are
// assigned from the element position.
func ValidateCreate(body []byte) (model.Product, error) {
	verr := &ValidationError{}
	fields, ok := decodeObject(body, verr)
	if !ok {
		return model.Product{}, verr
	}

	var draft model.Product
	for _, key := range []string{"name", "price", "available", "categories"} {
		if _, present := fields[key]; !present {
			verr.add(key, "is required")
		}
	}
	if raw, present := fields["name"]; present {
		draft.Name, _ = parseName("name", raw, verr)
	}
	if raw, present := fields["price"]; present {
		draft.Price, _ = parsePrice("price", raw, verr)
	}
	if raw, present := fields["available"]; present {
		draft.Available, _ = parseBool("available", raw, verr)
	}
	if raw, present := fields["categories"]; present {
		draft.Categories, _ = parseCategories("categories", raw, verr)
	}

	if err := verr.orNil(); err != nil {
		return model.Product{}, err
	}
	return draft, nil
}

// ValidateUpdate accepts any subset of the create fields. Every field that is
// present, null included, must satisfy the create constraint.
func ValidateUpdate(body []byte) (model.ProductPatch, error) {
	verr := &ValidationError{}
	fields, ok := decodeObject(body, verr)
	if !ok {
		return model.ProductPatch{}, verr
	}

	var patch model.ProductPatch
	if raw, present := fields["name"]; present {
		if v, ok := parseName("name", raw, verr); ok {
			patch.Name = &v
		}
	}
	if raw, present := fields["price"]; present {
		if v, ok := parsePrice("price", raw, verr); ok {
			patch.Price = &v
		}
	}
	if raw, present := fields["available"]; present {
		if v, ok := parseBool("available", raw, verr); ok {
			patch.Available = &v
		}
	}
	if raw, present := fields["categories"]; present {
		if v, ok := parseCategories("categories", raw, verr); ok {
			patch.Categories = &v
		}
	}

	if err := verr.orNil(); err != nil {
		return model.ProductPatch{}, err
	}
	return patch, nil
}

func decodeObject(body []byte, verr *ValidationError) (map[string]json.RawMessage, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		verr.add("body", "must be a JSON object")
		return nil, false
	}
	return fields, true
}

// kind returns the first significant byte of a raw JSON value.
func kind(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func isNumber(raw json.RawMessage) bool {
	k := kind(raw)
	return k == '-' || (k >= '0' && k <= '9')
}

func parseName(field string, raw json.RawMessage, verr *ValidationError) (string, bool) {
	if kind(raw) != '"' {
		verr.add(field, "must be a string")
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		verr.add(field, "must be a string")
		return "", false
	}
	if s == "" {
		verr.add(field, "must not be empty")
		return "", false
	}
	return s, true
}

func parsePrice(field string, raw json.RawMessage, verr *ValidationError) (float64, bool) {
	f, ok := parseNumber(raw)
	if !ok {
		verr.add(field, "must be a number")
		return 0, false
	}
	if f < 0 {
		verr.add(field, "must be greater than or equal to 0")
		return 0, false
	}
	return f, true
}

func parseBool(field string, raw json.RawMessage, verr *ValidationError) (bool, bool) {
	switch string(bytes.TrimSpace(raw)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	verr.add(field, "must be a boolean")
	return false, false
}

func parseNumber(raw json.RawMessage) (float64, bool) {
	if !isNumber(raw) {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// parseInteger accepts integral JSON numbers, including forms such as 50.0.
func parseInteger(raw json.RawMessage) (int, bool) {
	f, ok := parseNumber(raw)
	if !ok || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

func parseCategories(field string, raw json.RawMessage, verr *ValidationError) ([]model.Category, bool) {
	if kind(raw) != '[' {
		verr.add(field, "must be an array")
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		verr.add(field, "must be an array")
		return nil, false
	}

	before := len(verr.Fields)
	categories := make([]model.Category, len(items))
	used := make(map[int]bool, len(items))
	for i, item := range items {
		prefix := fmt.Sprintf("%s[%d]", field, i)
		if kind(item) != '{' {
			verr.add(prefix, "must be an object")
			continue
		}
		var attrs map[string]json.RawMessage
		if err := json.Unmarshal(item, &attrs); err != nil {
			verr.add(prefix, "must be an object")
			continue
		}

		if rawName, present := attrs["name"]; present {
			categories[i].Name, _ = parseName(prefix+".name", rawName, verr)
		} else {
			verr.add(prefix+".name", "is required")
		}

		if rawStock, present := attrs["stock"]; present {
			stock, ok := parseInteger(rawStock)
			switch {
			case !ok:
				verr.add(prefix+".stock", "must be an integer")
			case stock < 0:
				verr.add(prefix+".stock", "must be greater than or equal to 0")
			default:
				categories[i].Stock = stock
			}
		} else {
			verr.add(prefix+".stock", "is required")
		}

		if rawID, present := attrs["id"]; present {
			id, ok := parseInteger(rawID)
			switch {
			case ok && id == 0:
				// zero is the unset id; numbered below with the absent ones
			case !ok || id < 0:
				verr.add(prefix+".id", "must be a positive integer")
			case used[id]:
				verr.add(prefix+".id", "is duplicated")
			default:
				categories[i].ID = id
				used[id] = true
			}
		}
	}
	if len(verr.Fields) > before {
		return nil, false
	}

	assignCategoryIDs(categories, used)
	return categories, true
}

// assignCategoryIDs numbers categories without an id from 1 upward, skipping
// ids that were supplied explicitly.
func assignCategoryIDs(categories []model.Category, used map[int]bool) {
	next := 1
	for i := range categories {
		if categories[i].ID != 0 {
			continue
		}
		for used[next] {
			next++
		}
		categories[i].ID = next
		used[next] = true
	}
}
