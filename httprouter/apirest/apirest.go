// Package apirest is a REST namespace for httprouter. Requests carry their raw
// body, and admin methods require a bearer token.
package apirest

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"
	"sync/atomic"

	"go.vocdoni.io/reserve/httprouter"
	"go.vocdoni.io/reserve/log"
)

const (
	// MethodAccessTypePublic for methods anyone can call.
	MethodAccessTypePublic = "public"
	// MethodAccessTypeAdmin for methods that require the admin token.
	MethodAccessTypeAdmin = "admin"

	// MaxRequestBodySize is the largest request body accepted, in bytes.
	MaxRequestBodySize = 8 << 20

	namespace    = "apirest"
	bearerPrefix = "Bearer "
	maxBodyLog   = 1024
)

// HTTPstatus* mirror the net/http codes used by the handlers.
const (
	HTTPstatusOK           = http.StatusOK
	HTTPstatusBadRequest   = http.StatusBadRequest
	HTTPstatusUnauthorized = http.StatusUnauthorized
	HTTPstatusNotFound     = http.StatusNotFound
	HTTPstatusInternalErr  = http.StatusInternalServerError
)

// Rejections of ProcessData and AuthorizeRequest, replied as APIerror JSON.
var (
	errRejected        = APIerror{Code: 4000, Err: errors.New("request rejected")}
	errAdminDisabled   = APIerror{Code: 4010, HTTPstatus: HTTPstatusUnauthorized, Err: errors.New("admin methods are disabled")}
	errAdminToken      = APIerror{Code: 4011, HTTPstatus: HTTPstatusUnauthorized, Err: errors.New("admin token not valid")}
	errNotBearer       = APIerror{Code: 4012, HTTPstatus: HTTPstatusBadRequest, Err: errors.New("authorization header is not a Bearer token")}
	errBodyTooLarge    = APIerror{Code: 4013, HTTPstatus: http.StatusRequestEntityTooLarge, Err: fmt.Errorf("request body exceeds %d bytes", MaxRequestBodySize)}
	errReadBody        = APIerror{Code: 4014, HTTPstatus: HTTPstatusBadRequest, Err: errors.New("cannot read request body")}
	errUnknownDataType = APIerror{Code: 5002, HTTPstatus: HTTPstatusInternalErr, Err: errors.New("request data was not processed by apirest")}
)

// API is the REST namespace. Its methods live under a base path.
type API struct {
	router   *httprouter.HTTProuter
	basePath string

	adminTokenLock sync.RWMutex
	adminToken     string
	exposeErrors   atomic.Bool
}

// APIdata is what the handlers receive: the raw body and the bearer token,
// if any.
type APIdata struct {
	Data      []byte
	AuthToken string
}

// APIhandler handles a method call. A returned APIerror is replied as JSON,
// any other error as a 500.
type APIhandler = func(*APIdata, *httprouter.HTTPContext) error

// NewAPI registers the namespace on router. baseRoute must start with '/'.
func NewAPI(router *httprouter.HTTProuter, baseRoute string) (*API, error) {
	if router == nil {
		return nil, errors.New("httprouter is nil")
	}
	if !strings.HasPrefix(baseRoute, "/") {
		return nil, fmt.Errorf("invalid base route %q, it must start with /", baseRoute)
	}
	if baseRoute != "/" {
		baseRoute = strings.TrimSuffix(baseRoute, "/")
	}
	a := &API{router: router, basePath: baseRoute}
	router.AddNamespace(namespace, a)
	return a, nil
}

// ProcessData reads the body, up to MaxRequestBodySize, and the bearer token.
func (a *API) ProcessData(req *http.Request) (any, error) {
	body, err := io.ReadAll(io.LimitReader(req.Body, MaxRequestBodySize+1))
	if err != nil {
		return nil, errReadBody.WithErr(err)
	}
	if len(body) > MaxRequestBodySize {
		return nil, errBodyTooLarge
	}
	if n := len(body); n > maxBodyLog {
		log.Debugw("api request", "path", req.URL.Path, "body", string(body[:maxBodyLog])+"...")
	} else if n > 0 {
		log.Debugw("api request", "path", req.URL.Path, "body", string(body))
	}
	data := &APIdata{Data: body}
	if auth := req.Header.Get("Authorization"); auth != "" {
		token, ok := strings.CutPrefix(auth, bearerPrefix)
		if !ok {
			return nil, errNotBearer
		}
		data.AuthToken = token
	}
	return data, nil
}

// AuthorizeRequest lets public calls through. Admin calls need the bearer
// token to match the admin token, and are refused while no token is set.
func (a *API) AuthorizeRequest(data any, accessType httprouter.AuthAccessType) (bool, error) {
	msg, ok := data.(*APIdata)
	if !ok {
		return false, errUnknownDataType
	}
	if accessType != httprouter.AccessTypeAdmin {
		return true, nil
	}
	a.adminTokenLock.RLock()
	defer a.adminTokenLock.RUnlock()
	if a.adminToken == "" {
		return false, errAdminDisabled
	}
	if subtle.ConstantTimeCompare([]byte(msg.AuthToken), []byte(a.adminToken)) != 1 {
		return false, errAdminToken
	}
	return true, nil
}

// WriteRejection replies a refused request as a JSON APIerror. Errors that
// are not an APIerror take the status chosen by the router.
func (a *API) WriteRejection(ctx *httprouter.HTTPContext, status int, err error) {
	var apiErr APIerror
	if !errors.As(err, &apiErr) {
		apiErr = errRejected.WithErr(err)
		apiErr.HTTPstatus = status
	}
	if err := apiErr.Send(ctx); err != nil {
		log.Warnf("cannot send api rejection: %v", err)
	}
}

// RegisterMethod adds handler for pattern under the base path. The pattern
// may hold chi path variables, such as /proof/{userId}, or end in a wildcard.
func (a *API) RegisterMethod(pattern, HTTPmethod string, accessType string, handler APIhandler) error {
	if !strings.HasPrefix(pattern, "/") {
		return fmt.Errorf("invalid pattern %q, it must start with /", pattern)
	}
	route := path.Join(a.basePath, pattern)
	switch accessType {
	case MethodAccessTypePublic:
		a.router.AddPublicHandler(namespace, route, HTTPmethod, a.wrap(handler))
	case MethodAccessTypeAdmin:
		a.router.AddAdminHandler(namespace, route, HTTPmethod, a.wrap(handler))
	default:
		return fmt.Errorf("method access type not implemented: %s", accessType)
	}
	return nil
}

func (a *API) wrap(handler APIhandler) httprouter.RouterHandlerFn {
	return func(msg httprouter.Message) {
		err := handler(msg.Data.(*APIdata), msg.Context)
		if err == nil {
			return
		}
		var apiErr APIerror
		if errors.As(err, &apiErr) {
			if err := apiErr.Send(msg.Context); err != nil {
				log.Warnf("cannot send api error: %v", err)
			}
			return
		}
		log.Errorw("unhandled api error", "error", err.Error(), "path", msg.Context.Request.URL.Path)
		body := http.StatusText(HTTPstatusInternalErr)
		if a.exposeErrors.Load() {
			body = err.Error()
		}
		if err := msg.Context.Send([]byte(body), HTTPstatusInternalErr); err != nil {
			log.Warn(err)
		}
	}
}

// SetAdminToken sets the bearer token of the admin methods. An empty token
// disables them.
func (a *API) SetAdminToken(bearerToken string) {
	a.adminTokenLock.Lock()
	defer a.adminTokenLock.Unlock()
	a.adminToken = bearerToken
}

// ExposeInternalErrors replies the text of plain handler errors instead of a
// generic message. For development only.
func (a *API) ExposeInternalErrors() {
	a.exposeErrors.Store(true)
}
