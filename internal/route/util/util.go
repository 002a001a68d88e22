package util

import (
	"fmt"
	"net/http"

	"github.com/dense-analysis/stocker/internal/model"
	"github.com/dense-analysis/stocker/internal/session"
	log "github.com/sirupsen/logrus"
)

// Page holds the data every rendered page needs.
type Page struct {
	User      *model.User
	FlashList []session.Flash
}

// LoadPage builds the common page data, consuming any queued flashes.
func LoadPage(writer http.ResponseWriter, request *http.Request) Page {
	user, _ := session.UserFromContext(request.Context())

	return Page{
		User:      user,
		FlashList: session.Flashes(writer, request),
	}
}

// RedirectWithFlash queues a message and redirects to `location`.
func RedirectWithFlash(
	writer http.ResponseWriter,
	request *http.Request,
	location string,
	kind string,
	message string,
) {
	if err := session.AddFlash(writer, request, kind, message); err != nil {
		log.WithError(err).Error("failed to save flash message")
	}

	http.Redirect(writer, request, location, http.StatusFound)
}

func RespondInternalServerError(writer http.ResponseWriter, err error) {
	writer.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintf(writer, "Internal Server Error\n")
	log.WithError(err).Error("internal error")
}

func RespondNotFound(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(writer, "404: Not Found\n")
}

func RespondForbidden(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusForbidden)
	fmt.Fprintf(writer, "403: Forbidden\n")
}
