// Package lax implements tools for building easy RESTful APIs.
//
//      ^ ^
//  ("\(-_-)/")
//  )(       )(
// ((...) (...))
//
// Take it easy!
package lax

import (
	"encoding/json"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
)

// A flag for debugging the server.
var debug bool

// EnableDebugMode enables debugging for the API, so debug output is printed.
func EnableDebugMode() {
	debug = true
}

// DisableDebugMode disables debugging for the API, so debug output is hidden.
func DisableDebugMode() {
	debug = false
}

// DebugModeEnabled returns `true` if debug mode is enabled.
func DebugModeEnabled() bool {
	return debug
}

// Request wraps http.Request to provide convenience methods.
type Request struct {
	*http.Request
	values map[string]any
}

// JSON loads JSON data from a request into the given address.
func (request *Request) JSON(ptr any) error {
	return json.NewDecoder(request.Body).Decode(ptr)
}

// Set stores a value for later handlers of the same request.
func (request *Request) Set(key string, value any) {
	if request.values == nil {
		request.values = map[string]any{}
	}

	request.values[key] = value
}

// Value returns a value stored with Set, or nil.
func (request *Request) Value(key string) any {
	return request.values[key]
}

// MethodHandler is a handle for an HTTP method.
type MethodHandler = func(request *Request) any

// View represents a view for a RESTful API.
type View struct {
	// Guard runs before every method handler.
	//
	// If it returns a non-nil value, the value is the response and the
	// method handler is not called.
	Guard MethodHandler
	// The handler for HEAD requests.
	Head MethodHandler
	// The handler for GET requests.
	Get MethodHandler
	// The handler for POST requests.
	Post MethodHandler
	// The handler for PUT requests.
	Put MethodHandler
	// The handler for DELETE requests.
	Delete MethodHandler
}

// Response represents a response to return.
type Response struct {
	Status int
	Data   any
}

// IssueDescription is an issue created with Issue.
type IssueDescription struct {
	Path    string `json:"path"`
	Problem string `json:"problem"`
}

// Issue creates an issue for use with MakeErrorListResponse.
func Issue(path, problem string) IssueDescription {
	return IssueDescription{path, problem}
}

// MakeResponse creates a response with a status code and data.
func MakeResponse(status int, data any) *Response {
	return &Response{status, data}
}

// MakeBadRequestResponse creates a 400 error response from one object.
func MakeBadRequestResponse(data any) *Response {
	switch v := data.(type) {
	case error:
		// Get the string from errors for 400 responses.
		return &Response{http.StatusBadRequest, v.Error()}
	default:
		return &Response{http.StatusBadRequest, v}
	}
}

// MakeErrorListResponse creates a 400 error response from parts.
func MakeErrorListResponse(parts ...IssueDescription) *Response {
	return &Response{http.StatusBadRequest, parts}
}

// MakeUnauthorizedResponse creates a 401 response for missing credentials.
func MakeUnauthorizedResponse(message string) *Response {
	return &Response{http.StatusUnauthorized, map[string]string{"error": message}}
}

// MakeForbiddenResponse creates a 403 response for credentials without access.
func MakeForbiddenResponse(message string) *Response {
	return &Response{http.StatusForbidden, map[string]string{"error": message}}
}

// A default handler for handling methods that are not allowed.
func methodNotAllowedHandler(request *Request) any {
	return &Response{http.StatusMethodNotAllowed, "Method Not Allowed"}
}

// Get the pointer to the handler for the HTTP request method.
func dispatch(view *View, requestMethod string) (MethodHandler, int) {
	var handler MethodHandler
	defaultStatus := http.StatusOK

	switch {
	case strings.EqualFold(requestMethod, "get"):
		handler = view.Get
	case strings.EqualFold(requestMethod, "post"):
		handler = view.Post
		defaultStatus = http.StatusCreated
	case strings.EqualFold(requestMethod, "put"):
		handler = view.Put
	case strings.EqualFold(requestMethod, "delete"):
		handler = view.Delete
		defaultStatus = http.StatusNoContent
	case strings.EqualFold(requestMethod, "head"):
		handler = view.Head
	}

	if handler == nil {
		handler = methodNotAllowedHandler
		defaultStatus = http.StatusMethodNotAllowed
	}

	return handler, defaultStatus
}

// Normalise response data so we can consume it.
func normalise(response any, defaultStatus int) (*Response, error) {
	switch v := response.(type) {
	case *Response:
		return v, nil
	case error:
		return &Response{http.StatusInternalServerError, nil}, v
	default:
		return &Response{defaultStatus, v}, nil
	}
}

func handle(view *View, request *Request) (*Response, error) {
	method, defaultStatus := dispatch(view, request.Method)

	if view.Guard != nil {
		if denied := view.Guard(request); denied != nil {
			return normalise(denied, http.StatusForbidden)
		}
	}

	return normalise(method(request), defaultStatus)
}

// Wrap creates an HandlerFunc from a View.
func Wrap(view View) http.HandlerFunc {
	return func(writer http.ResponseWriter, httpRequest *http.Request) {
		request := Request{Request: httpRequest}
		response, responseErr := handle(&view, &request)

		if responseErr != nil {
			if response.Status < 500 || debug {
				http.Error(writer, responseErr.Error(), response.Status)
			} else {
				log.WithError(responseErr).WithField("path", httpRequest.URL.Path).Error("api handler failed")
				http.Error(writer, "Internal Server Error", response.Status)
			}

			return
		}

		writer.Header().Set("Content-Type", "application/json")

		if response.Status == http.StatusNoContent {
			writer.WriteHeader(response.Status)

			return
		}

		outputEncoder := json.NewEncoder(writer)
		outputEncoder.SetEscapeHTML(false)
		writer.WriteHeader(response.Status)

		if err := outputEncoder.Encode(response.Data); err != nil {
			log.WithError(err).Error("failed to encode api response")
		}
	}
}
