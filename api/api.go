package api

import (
	"fmt"
	"strings"

	"go.vocdoni.io/reserve/httprouter"
	"go.vocdoni.io/reserve/httprouter/apirest"
	"go.vocdoni.io/reserve/log"
	"go.vocdoni.io/reserve/reserve"
)

const (
	// ReserveHandler enables the public root, proof, verify and accounts endpoints.
	ReserveHandler = "reserve"
	// CommitHandler enables the admin commit endpoint.
	CommitHandler = "commit"
)

var (
	ErrMissingModulesForHandler = fmt.Errorf("missing modules attached for enabling handler")
	ErrHandlerUnknown           = fmt.Errorf("handler unknown")
	ErrHTTPRouterIsNil          = fmt.Errorf("httprouter is nil")
	ErrBaseRouteInvalid         = fmt.Errorf("base route must start with /")
)

// API is the URL based REST API of the proof of reserve.
type API struct {
	Endpoint *apirest.API

	reserve *reserve.Reserve
	dev     bool
}

// NewAPI creates a new instance of the API. Attach must be called next.
// In dev mode, internal error details are sent to the clients.
func NewAPI(router *httprouter.HTTProuter, baseRoute string, dev bool) (*API, error) {
	if router == nil {
		return nil, ErrHTTPRouterIsNil
	}
	if len(baseRoute) == 0 || baseRoute[0] != '/' {
		return nil, fmt.Errorf("%w (invalid given: %s)", ErrBaseRouteInvalid, baseRoute)
	}
	if len(baseRoute) > 1 {
		baseRoute = strings.TrimSuffix(baseRoute, "/")
	}
	api := API{dev: dev}
	var err error
	api.Endpoint, err = apirest.NewAPI(router, baseRoute)
	if err != nil {
		return nil, err
	}
	if dev {
		api.Endpoint.ExposeInternalErrors()
	}
	return &api, nil
}

// Attach sets the reserve served by the handlers. Attach must be called before EnableHandlers.
func (a *API) Attach(r *reserve.Reserve) {
	a.reserve = r
}

// EnableHandlers enables the list of handlers. Attach must be called before.
func (a *API) EnableHandlers(handlers ...string) error {
	for _, h := range handlers {
		if a.reserve == nil {
			return fmt.Errorf("%w %s", ErrMissingModulesForHandler, h)
		}
		switch h {
		case ReserveHandler:
			if err := a.enableReserveHandlers(); err != nil {
				return err
			}
		case CommitHandler:
			if err := a.enableCommitHandlers(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %s", ErrHandlerUnknown, h)
		}
	}
	return nil
}

// internalError logs err and hides it from the client unless in dev mode.
func (a *API) internalError(err error) apirest.APIerror {
	log.Errorw("api internal error", "error", err.Error())
	if a.dev {
		return ErrInternal.WithErr(err)
	}
	return ErrInternal
}
