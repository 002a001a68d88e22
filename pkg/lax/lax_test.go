package lax

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapEncodesData(t *testing.T) {
	handler := Wrap(View{
		Get: func(request *Request) any {
			return map[string]int{"count": 3}
		},
	})

	recorder := httptest.NewRecorder()
	handler(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"count": 3}`, recorder.Body.String())
}

func TestWrapDefaultStatuses(t *testing.T) {
	view := View{
		Post:   func(request *Request) any { return "made" },
		Delete: func(request *Request) any { return nil },
	}

	recorder := httptest.NewRecorder()
	Wrap(view)(recorder, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusCreated, recorder.Code)

	recorder = httptest.NewRecorder()
	Wrap(view)(recorder, httptest.NewRequest(http.MethodDelete, "/", nil))
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Empty(t, recorder.Body.String())

	recorder = httptest.NewRecorder()
	Wrap(view)(recorder, httptest.NewRequest(http.MethodPut, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
}

func TestWrapHidesInternalErrors(t *testing.T) {
	handler := Wrap(View{
		Get: func(request *Request) any {
			return errors.New("database password is hunter2")
		},
	})

	recorder := httptest.NewRecorder()
	handler(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), "hunter2")
}

func TestGuardBlocksAndPassesValues(t *testing.T) {
	view := View{
		Guard: func(request *Request) any {
			if request.Header.Get("Authorization") == "" {
				return MakeUnauthorizedResponse("missing token")
			}

			request.Set("name", "alice")

			return nil
		},
		Get: func(request *Request) any {
			return map[string]any{"name": request.Value("name")}
		},
	}

	recorder := httptest.NewRecorder()
	Wrap(view)(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.JSONEq(t, `{"error": "missing token"}`, recorder.Body.String())

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Authorization", "Bearer x")
	recorder = httptest.NewRecorder()
	Wrap(view)(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"name": "alice"}`, recorder.Body.String())
}

func TestRequestJSON(t *testing.T) {
	request := Request{Request: httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a": 1}`))}

	var body struct{ A int }
	require.NoError(t, request.JSON(&body))
	assert.Equal(t, 1, body.A)
}

func TestErrorListResponse(t *testing.T) {
	response := MakeErrorListResponse(Issue("email", "required"))

	assert.Equal(t, http.StatusBadRequest, response.Status)
	assert.Equal(t, []IssueDescription{{"email", "required"}}, response.Data)
}
