package httprouter

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.vocdoni.io/reserve/log"
)

// ErrAlreadySent is returned by Send when the request was already replied.
var ErrAlreadySent = errors.New("reply already sent")

// maxReplyLog is the number of reply bytes written to the debug log.
const maxReplyLog = 256

// Message is a request accepted by its namespace. Data holds whatever the
// namespace ProcessData returned.
type Message struct {
	Data    any
	Context *HTTPContext
}

// HTTPContext is used by the handlers to read the request and reply to it.
// Send must be called once.
type HTTPContext struct {
	Writer  http.ResponseWriter
	Request *http.Request

	contentType string
	sent        bool
}

// SetResponseContentType overrides DefaultContentType for the reply.
func (h *HTTPContext) SetResponseContentType(contentType string) {
	h.contentType = contentType
}

// URLParam returns the value of the {key} path parameter.
func (h *HTTPContext) URLParam(key string) string {
	return chi.URLParam(h.Request, key)
}

// Send writes msg followed by a newline with the given status code.
func (h *HTTPContext) Send(msg []byte, httpStatusCode int) error {
	if h.sent {
		return ErrAlreadySent
	}
	if httpStatusCode < 100 || httpStatusCode >= 600 {
		return fmt.Errorf("http status code %d not supported", httpStatusCode)
	}
	h.sent = true
	if err := h.Request.Context().Err(); err != nil {
		return fmt.Errorf("connection is closed: %w", err)
	}
	contentType := h.contentType
	if contentType == "" {
		contentType = DefaultContentType
	}
	header := h.Writer.Header()
	header.Set("Content-Type", contentType)
	if httpStatusCode == http.StatusNoContent {
		h.Writer.WriteHeader(httpStatusCode)
		log.Debugw("http response", "status", httpStatusCode)
		return nil
	}
	header.Set("Content-Length", strconv.Itoa(len(msg)+1))
	h.Writer.WriteHeader(httpStatusCode)
	if len(msg) > maxReplyLog {
		log.Debugw("http response", "status", httpStatusCode, "data", string(msg[:maxReplyLog])+"...")
	} else {
		log.Debugw("http response", "status", httpStatusCode, "data", string(msg))
	}
	if _, err := h.Writer.Write(msg); err != nil {
		return err
	}
	_, err := h.Writer.Write([]byte{'\n'})
	return err
}
