package validator

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID    string  `json:"_id" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
}

type batch struct {
	Products []item `json:"products" validate:"required,min=1,max=2,dive"`
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, Validate(batch{Products: []item{{ID: "p1", Price: 10}}}))
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	err := Validate(batch{Products: []item{{Price: -1}}})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	fields := verr.Fields()
	assert.Equal(t, "is required", fields["batch.products[0]._id"])
	assert.Equal(t, "must be greater than or equal to 0", fields["batch.products[0].price"])
}

func TestValidate_SliceBounds(t *testing.T) {
	err := Validate(batch{Products: []item{{ID: "a"}, {ID: "b"}, {ID: "c"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must contain at most 2 items")

	err = Validate(batch{Products: []item{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must contain at least 1 items")
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"products":[{"_id":"p1","price":5}]}`, ""},
		{"malformed", `{"products":`, "decode request body"},
		{"unknown field", `{"products":[],"extra":1}`, "decode request body"},
		{"invalid", `{"products":[{"price":5}]}`, "is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			var dst batch
			err := DecodeAndValidate(req, &dst)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
