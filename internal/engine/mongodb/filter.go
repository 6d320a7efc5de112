package mongodb

import (
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/query"
)

// Filter translates conditions into a MongoDB filter document. Conditions
// are ANDed at the top level; an empty list matches every document.
func Filter(conds []query.Condition) (bson.D, error) {
	filter := bson.D{}
	for _, c := range conds {
		elem, err := translate(c)
		if err != nil {
			return nil, err
		}
		filter = append(filter, elem)
	}
	if len(filter) > 1 && hasDuplicateKeys(filter) {
		clauses := bson.A{}
		for _, e := range filter {
			clauses = append(clauses, bson.D{e})
		}
		return bson.D{{Key: "$and", Value: clauses}}, nil
	}
	return filter, nil
}

func translate(c query.Condition) (bson.E, error) {
	switch c := c.(type) {
	case query.Text:
		pattern := regexp.QuoteMeta(c.Value)
		if c.Mode == query.Prefix {
			pattern = "^" + pattern
		}
		re := primitive.Regex{Pattern: pattern, Options: "i"}
		if len(c.Fields) == 1 {
			return bson.E{Key: string(c.Fields[0]), Value: re}, nil
		}
		or := bson.A{}
		for _, f := range c.Fields {
			or = append(or, bson.D{{Key: string(f), Value: re}})
		}
		return bson.E{Key: "$or", Value: or}, nil

	case query.In:
		return bson.E{Key: string(c.Field), Value: bson.D{{Key: "$in", Value: c.Values}}}, nil

	case query.Range:
		return bson.E{Key: string(c.Field), Value: bson.D{
			{Key: "$gte", Value: c.Min},
			{Key: "$lte", Value: c.Max},
		}}, nil

	case query.Positive:
		return bson.E{Key: string(c.Field), Value: bson.D{{Key: "$gt", Value: 0}}}, nil

	case query.Attribute:
		return bson.E{
			Key:   string(query.FieldAttributes) + "." + c.Name,
			Value: bson.D{{Key: "$in", Value: c.Values}},
		}, nil
	}
	return bson.E{}, fmt.Errorf("mongodb: unsupported condition %T", c)
}

// hasDuplicateKeys reports whether two elements share a key, which a plain
// filter document cannot express (two $or clauses, for example).
func hasDuplicateKeys(d bson.D) bool {
	seen := make(map[string]struct{}, len(d))
	for _, e := range d {
		if _, ok := seen[e.Key]; ok {
			return true
		}
		seen[e.Key] = struct{}{}
	}
	return false
}

// Sort translates sort keys into a MongoDB sort document.
func Sort(keys []query.SortKey) bson.D {
	sort := make(bson.D, 0, len(keys))
	for _, k := range keys {
		dir := 1
		if k.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: string(k.Field), Value: dir})
	}
	return sort
}
