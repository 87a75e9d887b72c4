package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
)

// TestHTTPclient calls the REST API and fails the test on transport errors,
// so tests only look at the reply body and status.
type TestHTTPclient struct {
	tb     testing.TB
	client *http.Client
	base   *url.URL
	token  *uuid.UUID
}

// NewTestHTTPclient returns a client for the API at base. A nil token sends
// no Authorization header.
func NewTestHTTPclient(tb testing.TB, base *url.URL, token *uuid.UUID) *TestHTTPclient {
	tr := &http.Transport{MaxIdleConns: 10, IdleConnTimeout: 5 * time.Second}
	tb.Cleanup(tr.CloseIdleConnections)
	return &TestHTTPclient{
		tb:     tb,
		client: &http.Client{Transport: tr, Timeout: 8 * time.Second},
		base:   base,
		token:  token,
	}
}

// Request sends jsonBody encoded as JSON, or no body when jsonBody is nil.
func (c *TestHTTPclient) Request(method string, jsonBody any, urlPath ...string) ([]byte, int) {
	var body []byte
	if jsonBody != nil {
		var err error
		body, err = json.Marshal(jsonBody)
		qt.Assert(c.tb, err, qt.IsNil)
	}
	return c.RequestRaw(method, body, urlPath...)
}

// RequestRaw sends body as is.
func (c *TestHTTPclient) RequestRaw(method string, body []byte, urlPath ...string) ([]byte, int) {
	u := c.base.JoinPath(urlPath...)
	req, err := http.NewRequest(method, u.String(), bytes.NewReader(body))
	qt.Assert(c.tb, err, qt.IsNil)
	if c.token != nil {
		req.Header.Set("Authorization", "Bearer "+c.token.String())
	}
	c.tb.Logf("%s %s", method, u)
	resp, err := c.client.Do(req)
	qt.Assert(c.tb, err, qt.IsNil)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	qt.Assert(c.tb, err, qt.IsNil)
	return data, resp.StatusCode
}
