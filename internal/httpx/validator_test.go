package httpx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type isbnRequest struct {
	ISBN string `json:"isbn" validate:"required,max=20,isbn_length"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		isbn    string
		wantMsg string
	}{
		{name: "isbn-13 with hyphens", isbn: "978-0-13-468599-1"},
		{name: "isbn-10 with spaces", isbn: "0 13 468599 7"},
		{name: "missing", isbn: "", wantMsg: "isbn is required"},
		{name: "too long", isbn: strings.Repeat("9", 21), wantMsg: "isbn must be at most 20 characters"},
		{name: "wrong length", isbn: "12345", wantMsg: "isbn must be 10 or 13 digits long"},
		{name: "blank", isbn: "   ", wantMsg: "isbn must be 10 or 13 digits long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details := ValidateStruct(isbnRequest{ISBN: tt.isbn})
			if tt.wantMsg == "" {
				assert.Empty(t, details)
				return
			}
			require.Len(t, details, 1)
			assert.Equal(t, "isbn", details[0].Field)
			assert.Equal(t, tt.wantMsg, details[0].Message)
		})
	}
}

func TestCleanISBN(t *testing.T) {
	assert.Equal(t, "9780134685991", CleanISBN(" 978-0 13\t468599-1 "))
}
