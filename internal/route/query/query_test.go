package query

import (
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		value    string
		quantity int64
		ok       bool
	}{
		{"5", 5, true},
		{"0", 0, false},
		{"-2", 0, false},
		{"1.5", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}

	for _, c := range cases {
		quantity, ok := ParseQuantity(c.value)

		assert.Equal(t, c.ok, ok, c.value)
		assert.Equal(t, c.quantity, quantity, c.value)
	}
}

func TestParseID(t *testing.T) {
	request := mux.SetURLVars(httptest.NewRequest("GET", "/stocks/12/buy", nil), map[string]string{"id": "12"})
	id, ok := ParseID(request, "id")
	assert.True(t, ok)
	assert.Equal(t, uint(12), id)

	request = mux.SetURLVars(httptest.NewRequest("GET", "/stocks/0/buy", nil), map[string]string{"id": "0"})
	_, ok = ParseID(request, "id")
	assert.False(t, ok)
}
