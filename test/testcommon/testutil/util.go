package testutil

import (
	"context"
	"net/url"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/reserve/httprouter"
)

// NewRouter starts a router on a free local port and stops it on cleanup.
func NewRouter(tb testing.TB) *httprouter.HTTProuter {
	r := &httprouter.HTTProuter{}
	qt.Assert(tb, r.Init("127.0.0.1", 0), qt.IsNil)
	tb.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.Shutdown(ctx); err != nil {
			tb.Logf("router shutdown: %v", err)
		}
	})
	return r
}

// RouterURL returns the base URL of the router followed by route.
func RouterURL(tb testing.TB, r *httprouter.HTTProuter, route string) *url.URL {
	u, err := url.Parse("http://" + r.Address().String() + route)
	qt.Assert(tb, err, qt.IsNil)
	return u
}
