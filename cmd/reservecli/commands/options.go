package commands

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"go.vocdoni.io/reserve/apiclient"
	"go.vocdoni.io/reserve/merkle"
)

type options struct {
	colorize bool
	host     string
	logLevel string
	token    string

	out       string
	root      string
	leafTag   string
	branchTag string
	hashType  string
}

func (o options) client() (*apiclient.HTTPclient, error) {
	u, err := url.Parse(o.host)
	if err != nil {
		return nil, fmt.Errorf("invalid host %q: %w", o.host, err)
	}
	var token *uuid.UUID
	if o.token != "" {
		t, err := uuid.Parse(o.token)
		if err != nil {
			return nil, fmt.Errorf("the token must be a UUID: %w", err)
		}
		token = &t
	}
	return apiclient.NewHTTPclient(u, token)
}

func (o options) treeOptions() merkle.Options {
	return merkle.Options{
		HashType:  merkle.HashType(o.hashType),
		LeafTag:   o.leafTag,
		BranchTag: o.branchTag,
	}
}
