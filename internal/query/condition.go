package query

import (
	"strings"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/domain"
)

// Field names a product field. Values match the stored document keys.
type Field string

const (
	FieldID          Field = "_id"
	FieldName        Field = "name"
	FieldBrand       Field = "brand"
	FieldCategory    Field = "category"
	FieldDescription Field = "description"
	FieldPrice       Field = "price"
	FieldStock       Field = "countInStock"
	FieldCreatedAt   Field = "createdAt"
	FieldAttributes  Field = "specifications"
)

// MatchMode selects how a Text condition compares strings.
type MatchMode int

const (
	// Substring matches anywhere in the field.
	Substring MatchMode = iota
	// Prefix anchors the match to the start of the field.
	Prefix
)

// Condition is one predicate clause. A Query matches a product when every
// condition does. Stores translate conditions into their native filter
// language by switching on the concrete type; Match is the reference
// semantics used by in-memory evaluation.
type Condition interface {
	Match(p *domain.Product) bool
}

// Text is a case-insensitive match of Value against any of Fields.
type Text struct {
	Fields []Field
	Value  string
	Mode   MatchMode
}

// Contains creates a substring Text condition over the given fields.
// Example: Contains("rtx", FieldName, FieldBrand) matches "GeForce RTX 4070".
func Contains(value string, fields ...Field) Text {
	return Text{Fields: fields, Value: value, Mode: Substring}
}

// HasPrefix creates a prefix-anchored Text condition over the given fields.
func HasPrefix(value string, fields ...Field) Text {
	return Text{Fields: fields, Value: value, Mode: Prefix}
}

func (c Text) Match(p *domain.Product) bool {
	needle := strings.ToLower(c.Value)
	for _, f := range c.Fields {
		hay := strings.ToLower(stringField(p, f))
		switch c.Mode {
		case Prefix:
			if strings.HasPrefix(hay, needle) {
				return true
			}
		default:
			if strings.Contains(hay, needle) {
				return true
			}
		}
	}
	return false
}

// In requires a string field to equal one of Values exactly.
type In struct {
	Field  Field
	Values []string
}

func (c In) Match(p *domain.Product) bool {
	v := stringField(p, c.Field)
	for _, want := range c.Values {
		if v == want {
			return true
		}
	}
	return false
}

// Range requires Min <= field <= Max.
type Range struct {
	Field Field
	Min   float64
	Max   float64
}

func (c Range) Match(p *domain.Product) bool {
	v := numberField(p, c.Field)
	return v >= c.Min && v <= c.Max
}

// Positive requires a numeric field to be greater than zero.
type Positive struct {
	Field Field
}

func (c Positive) Match(p *domain.Product) bool {
	return numberField(p, c.Field) > 0
}

// Attribute requires attributes[Name] to be one of Values.
type Attribute struct {
	Name   string
	Values []string
}

func (c Attribute) Match(p *domain.Product) bool {
	v, ok := p.Attributes[c.Name]
	if !ok {
		return false
	}
	for _, want := range c.Values {
		if v == want {
			return true
		}
	}
	return false
}

func stringField(p *domain.Product, f Field) string {
	switch f {
	case FieldID:
		return p.ID
	case FieldName:
		return p.Name
	case FieldBrand:
		return p.Brand
	case FieldCategory:
		return p.Category
	case FieldDescription:
		return p.Description
	}
	return ""
}

func numberField(p *domain.Product, f Field) float64 {
	switch f {
	case FieldPrice:
		return p.Price
	case FieldStock:
		return float64(p.Stock)
	}
	return 0
}

// StringValue returns the value of a string field. Stores use it when they
// collect distinct values in memory.
func StringValue(p *domain.Product, f Field) string {
	return stringField(p, f)
}
