package query

import (
	"encoding/json"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/domain"
)

// FromValues coerces raw query-string parameters into a QuerySpec. It never
// fails: malformed values fall back to their defaults.
func FromValues(v url.Values) domain.QuerySpec {
	spec := domain.QuerySpec{
		Keyword:    strings.TrimSpace(first(v, "keyword", "q")),
		Category:   strings.TrimSpace(v.Get("category")),
		Brands:     parseList(v.Get("brands")),
		MinPrice:   parsePrice(v.Get("minPrice")),
		MaxPrice:   parsePrice(v.Get("maxPrice")),
		InStock:    parseBool(v.Get("inStock")),
		Attributes: parseAttributes(v.Get("attributes")),
		Sort:       domain.ParseSort(v.Get("sortBy")),
		Page:       parsePage(first(v, "pageNumber", "page")),
	}

	if spec.MinPrice != nil && spec.MaxPrice != nil && *spec.MinPrice > *spec.MaxPrice {
		spec.MinPrice, spec.MaxPrice = spec.MaxPrice, spec.MinPrice
	}

	return spec
}

func first(v url.Values, keys ...string) string {
	for _, k := range keys {
		if s := v.Get(k); s != "" {
			return s
		}
	}
	return ""
}

func parsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func parsePrice(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func parseBool(raw string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && b
}

// parseList splits a comma separated list, dropping blanks and duplicates.
func parseList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}

// parseAttributes decodes a JSON object of attribute name to accepted
// values. A value may be a single string or an array of strings.
func parseAttributes(raw string) map[string][]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil
	}

	out := make(map[string][]string, len(decoded))
	for name, msg := range decoded {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		var values []string
		var single string
		if err := json.Unmarshal(msg, &single); err == nil {
			values = []string{single}
		} else if err := json.Unmarshal(msg, &values); err != nil {
			continue
		}

		values = compact(values)
		if len(values) > 0 {
			out[name] = values
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func compact(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
