package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dense-analysis/stocker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// carryCookies copies the cookies set by a response onto a new request.
func carryCookies(recorder *httptest.ResponseRecorder) *http.Request {
	request := httptest.NewRequest(http.MethodGet, "/", nil)

	for _, cookie := range recorder.Result().Cookies() {
		request.AddCookie(cookie)
	}

	return request
}

func TestSaveAndLoadActor(t *testing.T) {
	Init("test-secret-key", false)

	recorder := httptest.NewRecorder()
	user := &model.User{ID: 42, Role: model.RoleTrader}
	require.NoError(t, SaveUserInSession(recorder, httptest.NewRequest(http.MethodGet, "/", nil), user))

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	actor, ok := LoadActor(carryCookies(recorder))
	require.True(t, ok)
	assert.Equal(t, model.Actor{UserID: 42, Role: model.RoleTrader}, actor)
}

func TestLoadActorWithoutSession(t *testing.T) {
	Init("test-secret-key", false)

	_, ok := LoadActor(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}

func TestLoadActorWithForgedCookie(t *testing.T) {
	Init("test-secret-key", false)

	recorder := httptest.NewRecorder()
	require.NoError(t, SaveUserInSession(recorder, httptest.NewRequest(http.MethodGet, "/", nil), &model.User{ID: 1, Role: model.RoleAdmin}))

	Init("another-key", false)

	_, ok := LoadActor(carryCookies(recorder))
	assert.False(t, ok)
}

func TestClearSession(t *testing.T) {
	Init("test-secret-key", false)

	recorder := httptest.NewRecorder()
	require.NoError(t, SaveUserInSession(recorder, httptest.NewRequest(http.MethodGet, "/", nil), &model.User{ID: 7, Role: model.RoleAdmin}))

	cleared := httptest.NewRecorder()
	require.NoError(t, ClearSession(cleared, carryCookies(recorder)))

	_, ok := LoadActor(carryCookies(cleared))
	assert.False(t, ok)
}

func TestFlashesAreConsumed(t *testing.T) {
	Init("test-secret-key", false)

	recorder := httptest.NewRecorder()
	require.NoError(t, AddFlash(recorder, httptest.NewRequest(http.MethodGet, "/", nil), FlashSuccess, "Login successful!"))

	reader := httptest.NewRecorder()
	flashList := Flashes(reader, carryCookies(recorder))
	assert.Equal(t, []Flash{{Kind: FlashSuccess, Message: "Login successful!"}}, flashList)

	assert.Empty(t, Flashes(httptest.NewRecorder(), carryCookies(reader)))
}

func TestUserContext(t *testing.T) {
	_, err := UserFromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoUser)

	user := &model.User{ID: 3, Username: "someone"}
	found, err := UserFromContext(WithUser(context.Background(), user))
	require.NoError(t, err)
	assert.Same(t, user, found)
}
