// Package session handles saving/loading users to/from sessions
package session

import (
	"context"
	"encoding/gob"
	"errors"
	"net/http"

	"github.com/dense-analysis/stocker/internal/model"
	"github.com/gorilla/sessions"
	log "github.com/sirupsen/logrus"
)

const sessionName = "sessionid"

var sessionStore *sessions.CookieStore

// Flash is a one-time message shown on the next page a user sees.
type Flash struct {
	Kind    string
	Message string
}

const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashError   = "error"
)

func init() {
	gob.Register(Flash{})
}

// Init starts up session storage with the key used to sign cookies.
func Init(secretKey string, secure bool) {
	sessionStore = sessions.NewCookieStore([]byte(secretKey))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func getSession(request *http.Request) *sessions.Session {
	// A cookie which cannot be decoded is treated as an empty session.
	session, err := sessionStore.Get(request, sessionName)

	if err != nil {
		log.WithError(err).Debug("discarding unreadable session cookie")
	}

	return session
}

// LoadActor returns the user ID and role saved in the session, if any.
func LoadActor(request *http.Request) (model.Actor, bool) {
	session := getSession(request)
	userID, idOK := session.Values["userID"].(uint)
	role, roleOK := session.Values["role"].(string)

	if !idOK || !roleOK {
		return model.Actor{}, false
	}

	return model.Actor{UserID: userID, Role: model.Role(role)}, true
}

func SaveUserInSession(writer http.ResponseWriter, request *http.Request, user *model.User) error {
	session := getSession(request)
	session.Values["userID"] = user.ID
	session.Values["role"] = string(user.Role)

	return session.Save(request, writer)
}

func ClearSession(writer http.ResponseWriter, request *http.Request) error {
	session := getSession(request)

	for key := range session.Values {
		delete(session.Values, key)
	}

	return session.Save(request, writer)
}

// AddFlash queues a message for the next page.
func AddFlash(writer http.ResponseWriter, request *http.Request, kind string, message string) error {
	session := getSession(request)
	session.AddFlash(Flash{Kind: kind, Message: message})

	return session.Save(request, writer)
}

// Flashes removes and returns queued messages.
func Flashes(writer http.ResponseWriter, request *http.Request) []Flash {
	session := getSession(request)
	values := session.Flashes()

	if len(values) == 0 {
		return nil
	}

	flashList := make([]Flash, 0, len(values))

	for _, value := range values {
		if flash, ok := value.(Flash); ok {
			flashList = append(flashList, flash)
		}
	}

	if err := session.Save(request, writer); err != nil {
		log.WithError(err).Error("failed to save session after reading flashes")
	}

	return flashList
}

type contextKey struct{}

var ErrNoUser = errors.New("no user in request context")

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the authenticated user stored by WithUser.
func UserFromContext(ctx context.Context) (*model.User, error) {
	if user, ok := ctx.Value(contextKey{}).(*model.User); ok && user != nil {
		return user, nil
	}

	return nil, ErrNoUser
}
