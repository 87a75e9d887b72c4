package apirest

import (
	"encoding/json"
	"fmt"

	"go.vocdoni.io/reserve/httprouter"
	"go.vocdoni.io/reserve/log"
)

// APIerror is an error with a unique API error code and the HTTP status it
// is replied with. Handlers return them to reply an error to the client.
type APIerror struct {
	Err        error
	Code       int
	HTTPstatus int
}

// MarshalJSON encodes the error as {"error":"user not found","code":4002}.
// HTTPstatus is not part of the body.
func (e APIerror) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Err  string `json:"error"`
		Code int    `json:"code"`
	}{
		Err:  e.Err.Error(),
		Code: e.Code,
	})
}

func (e APIerror) Error() string {
	return e.Err.Error()
}

func (e APIerror) Unwrap() error {
	return e.Err
}

// Send replies the JSON encoded error with its HTTP status.
func (e APIerror) Send(ctx *httprouter.HTTPContext) error {
	msg, err := json.Marshal(e)
	if err != nil {
		log.Warn(err)
		return ctx.Send([]byte("marshal failed"), HTTPstatusInternalErr)
	}
	return ctx.Send(msg, e.HTTPstatus)
}

// With returns a copy of the error with s appended to its message. The copy
// still matches e.Err with errors.Is.
func (e APIerror) With(s string) APIerror {
	e.Err = fmt.Errorf("%w: %s", e.Err, s)
	return e
}

// Withf is With using a format string.
func (e APIerror) Withf(format string, args ...any) APIerror {
	return e.With(fmt.Sprintf(format, args...))
}

// WithErr is With using err.Error().
func (e APIerror) WithErr(err error) APIerror {
	return e.With(err.Error())
}
