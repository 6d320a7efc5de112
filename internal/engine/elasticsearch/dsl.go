package elasticsearch

import (
	"fmt"
	"strings"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/query"
)

type object = map[string]any

// maxWindow mirrors the index.max_result_window default.
const maxWindow = 10000

// fieldName maps a query field onto its indexed name. Keyword-typed access
// to text fields goes through the ".keyword" sub-field.
func fieldName(f query.Field, keyword bool) string {
	switch f {
	case query.FieldID:
		return "id"
	case query.FieldName, query.FieldBrand, query.FieldCategory, query.FieldDescription:
		if keyword {
			return string(f) + ".keyword"
		}
	}
	return string(f)
}

// buildQuery translates conditions into a bool filter query.
func buildQuery(conds []query.Condition) (object, error) {
	if len(conds) == 0 {
		return object{"match_all": object{}}, nil
	}
	filters := make([]any, 0, len(conds))
	for _, c := range conds {
		clause, err := clause(c)
		if err != nil {
			return nil, err
		}
		filters = append(filters, clause)
	}
	return object{"bool": object{"filter": filters}}, nil
}

func clause(c query.Condition) (object, error) {
	switch c := c.(type) {
	case query.Text:
		should := make([]any, 0, len(c.Fields))
		for _, f := range c.Fields {
			should = append(should, textClause(fieldName(f, true), c.Value, c.Mode))
		}
		if len(should) == 1 {
			return should[0].(object), nil
		}
		return object{"bool": object{"should": should, "minimum_should_match": 1}}, nil

	case query.In:
		return object{"terms": object{fieldName(c.Field, true): c.Values}}, nil

	case query.Range:
		return object{"range": object{fieldName(c.Field, false): object{"gte": c.Min, "lte": c.Max}}}, nil

	case query.Positive:
		return object{"range": object{fieldName(c.Field, false): object{"gt": 0}}}, nil

	case query.Attribute:
		return object{"terms": object{string(query.FieldAttributes) + "." + c.Name: c.Values}}, nil
	}
	return nil, fmt.Errorf("elasticsearch: unsupported condition %T", c)
}

func textClause(field, value string, mode query.MatchMode) object {
	if mode == query.Prefix {
		return object{"prefix": object{field: object{"value": value, "case_insensitive": true}}}
	}
	return object{"wildcard": object{field: object{
		"value":            "*" + escapeWildcard(value) + "*",
		"case_insensitive": true,
	}}}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}

// buildSort translates sort keys into the sort clause.
func buildSort(keys []query.SortKey) []any {
	sort := make([]any, 0, len(keys))
	for _, k := range keys {
		order := "asc"
		if k.Desc {
			order = "desc"
		}
		sort = append(sort, object{fieldName(k.Field, true): object{"order": order}})
	}
	return sort
}

// termsAgg is a terms aggregation ordered by key.
func termsAgg(field string, size int) object {
	if size <= 0 || size > maxWindow {
		size = maxWindow
	}
	return object{"terms": object{
		"field": field,
		"size":  size,
		"order": object{"_key": "asc"},
	}}
}
