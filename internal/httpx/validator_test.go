package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testBookRequest struct {
	Title   string   `json:"title" validate:"required"`
	Authors []string `json:"authors" validate:"required,min=1,dive,required"`
	ISBN    string   `json:"isbn" validate:"omitempty,isbn"`
}

func TestIsISBN(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"9780441013593", true},
		{"978-0-441-01359-3", true},
		{"0441013597", true},
		{"044101359X", true},
		{"0 441 01359 7", true},
		{"12345", false},
		{"97804410135930", false},
		{"abcdefghij", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsISBN(tt.in), tt.in)
	}
}

func TestValidateStruct_Valid(t *testing.T) {
	details := ValidateStruct(testBookRequest{Title: "Dune", Authors: []string{"Frank Herbert"}, ISBN: "9780441013593"})
	assert.Empty(t, details)
}

func TestValidateStruct_UsesJSONFieldNames(t *testing.T) {
	details := ValidateStruct(testBookRequest{ISBN: "bad"})

	fields := map[string]string{}
	for _, d := range details {
		fields[d.Field] = d.Message
	}
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "authors")
	assert.Contains(t, fields["isbn"], "valid ISBN")
}

func TestValidateStruct_BlankAuthor(t *testing.T) {
	details := ValidateStruct(testBookRequest{Title: "Dune", Authors: []string{""}})
	if assert.Len(t, details, 1) {
		assert.Equal(t, "authors[0]", details[0].Field)
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantOK   bool
		wantCode int
	}{
		{"valid", `{"title":"Dune","authors":["Frank Herbert"]}`, true, http.StatusOK},
		{"malformed", `{"title":`, false, http.StatusBadRequest},
		{"unknown field", `{"title":"Dune","authors":["A"],"year":1965}`, false, http.StatusBadRequest},
		{"fails validation", `{"title":"","authors":["A"]}`, false, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(tt.body))

			var dst testBookRequest
			ok := DecodeJSON(w, r, &dst)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}
