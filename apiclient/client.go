package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.vocdoni.io/reserve/httprouter/apirest"
	"go.vocdoni.io/reserve/internal"
	"go.vocdoni.io/reserve/log"
	"go.vocdoni.io/reserve/types"
)

const (
	// HTTPGET is the GET method for Request
	HTTPGET = http.MethodGet
	// HTTPPOST is the POST method for Request
	HTTPPOST = http.MethodPost
)

// StatusError is returned when the server does not reply 200.
type StatusError struct {
	Status int
	// Code is the API error code, zero if the body was not an API error.
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("api server replied %d: %s (code %d)", e.Status, e.Message, e.Code)
	}
	return fmt.Sprintf("api server replied %d: %s", e.Status, e.Message)
}

func newStatusError(status int, body []byte) *StatusError {
	e := &StatusError{Status: status, Message: string(bytes.TrimSpace(body))}
	var apiErr struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Code != 0 {
		e.Code, e.Message = apiErr.Code, apiErr.Error
	}
	return e
}

// HTTPclient is the proof of reserve API HTTP client.
type HTTPclient struct {
	c     *http.Client
	token *uuid.UUID
	addr  *url.URL
	root  types.HexBytes
}

// NewHTTPclient creates a new HTTP(s) API client. The address must include
// the API base route, such as http://localhost:3000/api. The server is
// queried once for its current root.
func NewHTTPclient(addr *url.URL, bearerToken *uuid.UUID) (*HTTPclient, error) {
	c := &HTTPclient{
		c: &http.Client{
			Transport: &http.Transport{IdleConnTimeout: 10 * time.Second},
			Timeout:   8 * time.Second,
		},
		token: bearerToken,
	}
	if err := c.SetHostAddr(addr); err != nil {
		return nil, err
	}
	return c, nil
}

// SetAuthToken sets the bearer token sent with every request.
func (c *HTTPclient) SetAuthToken(token *uuid.UUID) {
	c.token = token
}

// SetHostAddr points the client to another server and fetches its root.
func (c *HTTPclient) SetHostAddr(addr *url.URL) error {
	c.addr = addr
	root, err := c.Root()
	if err != nil {
		return fmt.Errorf("cannot reach API server: %w", err)
	}
	c.root = root
	return nil
}

// InitialRoot returns the root served when the client connected.
func (c *HTTPclient) InitialRoot() types.HexBytes {
	return c.root
}

// Request sends jsonBody encoded as JSON, or no body if nil, to the endpoint
// made of the urlPath elements. It returns the reply body and status.
func (c *HTTPclient) Request(method string, jsonBody any, urlPath ...string) ([]byte, int, error) {
	var body io.Reader
	if jsonBody != nil {
		data, err := json.Marshal(jsonBody)
		if err != nil {
			return nil, 0, err
		}
		body = bytes.NewReader(data)
	}
	u := c.addr.JoinPath(urlPath...)
	req, err := http.NewRequest(method, u.String(), body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", "reserve API client / "+internal.Version)
	if jsonBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		req.Header.Set("Authorization", "Bearer "+c.token.String())
	}
	log.Debugw("api request", "method", method, "url", u.String())
	resp, err := c.c.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return data, resp.StatusCode, nil
}

// request performs the request and decodes a 200 reply into reply. Any other
// status is returned as a *StatusError.
func (c *HTTPclient) request(method string, jsonBody, reply any, urlPath ...string) error {
	data, status, err := c.Request(method, jsonBody, urlPath...)
	if err != nil {
		return err
	}
	if status != apirest.HTTPstatusOK {
		return newStatusError(status, data)
	}
	if err := json.Unmarshal(data, reply); err != nil {
		return fmt.Errorf("could not unmarshal response: %w", err)
	}
	return nil
}
