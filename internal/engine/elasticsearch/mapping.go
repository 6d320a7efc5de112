package elasticsearch

// DefaultIndexName is the index holding product documents.
const DefaultIndexName = "computer_bazaar_products"

// indexMapping is the settings and mapping of the products index. Text
// fields carry a keyword sub-field for exact, wildcard and sort use.
// Specifications are kept twice: as a dynamic keyword object for attribute
// filters and as "key=value" pairs for facet aggregation.
const indexMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0
  },
  "mappings": {
    "dynamic_templates": [
      {
        "specifications_as_keywords": {
          "path_match": "specifications.*",
          "mapping": { "type": "keyword" }
        }
      }
    ],
    "properties": {
      "id":           { "type": "keyword" },
      "name":         { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 512 } } },
      "brand":        { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "category":     { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "description":  { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 8000 } } },
      "price":        { "type": "double" },
      "countInStock": { "type": "integer" },
      "rating":       { "type": "float" },
      "numReviews":   { "type": "integer" },
      "image":        { "type": "keyword", "index": false },
      "specifications": { "type": "object" },
      "spec_pairs":   { "type": "keyword" },
      "createdAt":    { "type": "date" },
      "updatedAt":    { "type": "date" }
    }
  }
}`
