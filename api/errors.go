//nolint:lll
package api

import (
	"errors"

	"go.vocdoni.io/reserve/httprouter/apirest"
)

// APIerror satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 4001-4999 range are the user's fault,
// and error codes 5000-5999 are the server's fault, mimicking HTTP.
var (
	ErrInvalidUserID  = apirest.APIerror{Code: 4001, HTTPstatus: apirest.HTTPstatusBadRequest, Err: errors.New("Invalid userId format")}
	ErrUserNotFound   = apirest.APIerror{Code: 4002, HTTPstatus: apirest.HTTPstatusNotFound, Err: errors.New("User not found")}
	ErrMissingFields  = apirest.APIerror{Code: 4003, HTTPstatus: apirest.HTTPstatusBadRequest, Err: errors.New("Missing or invalid required fields")}
	ErrMalformedProof = apirest.APIerror{Code: 4004, HTTPstatus: apirest.HTTPstatusBadRequest, Err: errors.New("malformed proof")}
	ErrEmptyCommit    = apirest.APIerror{Code: 4005, HTTPstatus: apirest.HTTPstatusBadRequest, Err: errors.New("cannot commit an empty ledger")}
	ErrDuplicateIDs   = apirest.APIerror{Code: 4006, HTTPstatus: apirest.HTTPstatusBadRequest, Err: errors.New("duplicate account id")}
	ErrRootMalformed  = apirest.APIerror{Code: 4007, HTTPstatus: apirest.HTTPstatusBadRequest, Err: errors.New("merkleRoot must be 32 hex encoded bytes")}
	ErrCantParseBody  = apirest.APIerror{Code: 4008, HTTPstatus: apirest.HTTPstatusBadRequest, Err: errors.New("cannot parse request body as JSON")}

	ErrInternal = apirest.APIerror{Code: 5000, HTTPstatus: apirest.HTTPstatusInternalErr, Err: errors.New("An unexpected error occurred")}
)
