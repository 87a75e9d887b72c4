package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"go.vocdoni.io/reserve/httprouter"
	"go.vocdoni.io/reserve/ledger"
	"go.vocdoni.io/reserve/merkle"
	"go.vocdoni.io/reserve/reserve"
	"go.vocdoni.io/reserve/test/testcommon/testutil"
)

const defaultRoot = "b0e5fb4fb8591fb84ac37360bb29422ccf35dce94b6bb37e1a0534c00d1f4dd8"

type apiErrorReply struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

type testAPI struct {
	api     *API
	reserve *reserve.Reserve
	public  *testutil.TestHTTPclient
	admin   *testutil.TestHTTPclient
}

func newTestAPI(t *testing.T, dev bool) *testAPI {
	router := testutil.NewRouter(t)
	api, err := NewAPI(router, "/api", dev)
	qt.Assert(t, err, qt.IsNil)
	r, err := reserve.New(ledger.Default(), reserve.Options{ProofCacheSize: 8})
	qt.Assert(t, err, qt.IsNil)
	api.Attach(r)
	qt.Assert(t, api.EnableHandlers(ReserveHandler, CommitHandler), qt.IsNil)

	token := uuid.New()
	api.Endpoint.SetAdminToken(token.String())
	addr := testutil.RouterURL(t, router, "/api")
	return &testAPI{
		api:     api,
		reserve: r,
		public:  testutil.NewTestHTTPclient(t, addr, nil),
		admin:   testutil.NewTestHTTPclient(t, addr, &token),
	}
}

func assertAPIerror(t *testing.T, data []byte, status int, want error) {
	t.Helper()
	var reply apiErrorReply
	qt.Assert(t, json.Unmarshal(data, &reply), qt.IsNil, qt.Commentf("body %s", data))
	for _, e := range allErrors {
		if e.Err == want {
			qt.Assert(t, status, qt.Equals, e.HTTPstatus)
			qt.Assert(t, reply.Code, qt.Equals, e.Code)
			qt.Assert(t, reply.Error, qt.Contains, e.Err.Error())
			return
		}
	}
	t.Fatalf("unknown api error %v", want)
}

var allErrors = []struct {
	Err        error
	Code       int
	HTTPstatus int
}{
	{ErrInvalidUserID.Err, ErrInvalidUserID.Code, ErrInvalidUserID.HTTPstatus},
	{ErrUserNotFound.Err, ErrUserNotFound.Code, ErrUserNotFound.HTTPstatus},
	{ErrMissingFields.Err, ErrMissingFields.Code, ErrMissingFields.HTTPstatus},
	{ErrMalformedProof.Err, ErrMalformedProof.Code, ErrMalformedProof.HTTPstatus},
	{ErrEmptyCommit.Err, ErrEmptyCommit.Code, ErrEmptyCommit.HTTPstatus},
	{ErrDuplicateIDs.Err, ErrDuplicateIDs.Code, ErrDuplicateIDs.HTTPstatus},
	{ErrRootMalformed.Err, ErrRootMalformed.Code, ErrRootMalformed.HTTPstatus},
	{ErrCantParseBody.Err, ErrCantParseBody.Code, ErrCantParseBody.HTTPstatus},
}

func TestRoot(t *testing.T) {
	c := qt.New(t)
	ta := newTestAPI(t, false)

	data, status := ta.public.Request("GET", nil, "merkle-root")
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(string(data), qt.Equals, fmt.Sprintf(`{"merkleRoot":"%s"}`+"\n", defaultRoot))
}

func TestProof(t *testing.T) {
	c := qt.New(t)
	ta := newTestAPI(t, false)

	data, status := ta.public.Request("GET", nil, "merkle-proof", "3")
	c.Assert(status, qt.Equals, http.StatusOK)
	var p AccountProof
	c.Assert(json.Unmarshal(data, &p), qt.IsNil)
	c.Assert(p.UserID, qt.Equals, uint64(3))
	c.Assert(p.Balance, qt.Equals, uint64(300))
	c.Assert(p.Proof, qt.HasLen, 3)
	root := ta.reserve.Root()
	valid, err := reserve.VerifyRecord(ledger.Record{ID: 3, Balance: 300}, p.Proof, root, merkle.Options{})
	c.Assert(err, qt.IsNil)
	c.Assert(valid, qt.IsTrue)

	// the wire format of every element is ["<hex>", 0|1]
	var raw struct {
		Proof [][]any `json:"proof"`
	}
	c.Assert(json.Unmarshal(data, &raw), qt.IsNil)
	c.Assert(raw.Proof[0], qt.DeepEquals, []any{"664facdd193d3e93940704cee8bf2f96d39d2cbe4c97738e75165906dbf2a45d", float64(1)})
	c.Assert(raw.Proof[1], qt.DeepEquals, []any{"efd932251885f3c061befa2791177f6e2165c9e06be48d18a7edd7de46aaeb14", float64(0)})

	data, status = ta.public.Request("GET", nil, "merkle-proof", "99")
	assertAPIerror(t, data, status, ErrUserNotFound.Err)

	for _, id := range []string{"abc", "0", "-1", "1.5", "18446744073709551616"} {
		data, status = ta.public.Request("GET", nil, "merkle-proof", id)
		assertAPIerror(t, data, status, ErrInvalidUserID.Err)
	}
}

func TestVerify(t *testing.T) {
	c := qt.New(t)
	ta := newTestAPI(t, false)
	p, err := ta.reserve.ProofByID(2)
	c.Assert(err, qt.IsNil)
	proofJSON, err := json.Marshal(p.Proof)
	c.Assert(err, qt.IsNil)

	verify := func(body map[string]any) (VerifyResponse, []byte, int) {
		data, status := ta.public.Request("POST", body, "merkle-proof", "verify")
		var reply VerifyResponse
		if status == http.StatusOK {
			c.Assert(json.Unmarshal(data, &reply), qt.IsNil)
		}
		return reply, data, status
	}

	reply, _, status := verify(map[string]any{"userId": 2, "balance": 200, "proof": json.RawMessage(proofJSON)})
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(reply.IsValid, qt.IsTrue)
	c.Assert(reply.CalculatedRoot.String(), qt.Equals, defaultRoot)
	c.Assert(reply.ProvidedRoot, qt.IsNil)

	reply, data, _ := verify(map[string]any{"userId": 2, "balance": 200, "proof": json.RawMessage(proofJSON), "merkleRoot": defaultRoot})
	c.Assert(reply.IsValid, qt.IsTrue)
	c.Assert(*reply.ProvidedRoot, qt.Equals, defaultRoot)
	c.Assert(string(data), qt.Contains, `"providedRoot":"`+defaultRoot+`"`)

	// included, but not under the root the caller expected
	otherRoot := "00" + defaultRoot[2:]
	reply, _, _ = verify(map[string]any{"userId": 2, "balance": 200, "proof": json.RawMessage(proofJSON), "merkleRoot": otherRoot})
	c.Assert(reply.IsValid, qt.IsFalse)
	c.Assert(*reply.ProvidedRoot, qt.Equals, otherRoot)

	// wrong balance
	reply, _, status = verify(map[string]any{"userId": 2, "balance": 201, "proof": json.RawMessage(proofJSON)})
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(reply.IsValid, qt.IsFalse)
	c.Assert(reply.CalculatedRoot.String(), qt.Not(qt.Equals), defaultRoot)

	// a zero balance is a value, not a missing field
	reply, _, status = verify(map[string]any{"userId": 2, "balance": 0, "proof": json.RawMessage(proofJSON)})
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(reply.IsValid, qt.IsFalse)

	for _, body := range []map[string]any{
		{"balance": 200, "proof": json.RawMessage(proofJSON)},
		{"userId": 0, "balance": 200, "proof": json.RawMessage(proofJSON)},
		{"userId": 2, "proof": json.RawMessage(proofJSON)},
		{"userId": 2, "balance": 200},
		{"userId": 2, "balance": 200, "proof": "abc"},
		{"userId": 2, "balance": 200, "proof": nil},
	} {
		_, data, status := verify(body)
		assertAPIerror(t, data, status, ErrMissingFields.Err)
	}

	for _, proof := range []string{
		`[["zz",0]]`,
		`[["` + defaultRoot[:62] + `",0]]`,
		`[["` + defaultRoot + `",2]]`,
		`[["` + defaultRoot + `"]]`,
	} {
		_, data, status := verify(map[string]any{"userId": 2, "balance": 200, "proof": json.RawMessage(proof)})
		assertAPIerror(t, data, status, ErrMalformedProof.Err)
		var reply apiErrorReply
		c.Assert(json.Unmarshal(data, &reply), qt.IsNil)
		c.Assert(strings.Count(reply.Error, "malformed proof"), qt.Equals, 1, qt.Commentf("error %q", reply.Error))
	}

	_, data, status = verify(map[string]any{"userId": 2, "balance": 200,
		"proof": json.RawMessage(`[["` + defaultRoot[:62] + `",0]]`)})
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(string(data), qt.Equals, `{"error":"malformed proof: sibling 0 has 31 bytes, expected 32","code":4004}`+"\n")

	_, data, status = verify(map[string]any{"userId": 2, "balance": 200, "proof": json.RawMessage(proofJSON), "merkleRoot": "abcd"})
	assertAPIerror(t, data, status, ErrRootMalformed.Err)

	data, status = ta.public.RequestRaw("POST", []byte("{not json"), "merkle-proof", "verify")
	assertAPIerror(t, data, status, ErrCantParseBody.Err)
}

func TestAccountsSize(t *testing.T) {
	c := qt.New(t)
	ta := newTestAPI(t, false)
	data, status := ta.public.Request("GET", nil, "accounts", "size")
	c.Assert(status, qt.Equals, http.StatusOK)
	var info AccountsInfo
	c.Assert(json.Unmarshal(data, &info), qt.IsNil)
	c.Assert(info.Size, qt.Equals, 5)
	c.Assert(*info.TotalBalance, qt.Equals, uint64(1500))
	c.Assert(info.Sequence, qt.Equals, uint64(0))
}

func TestCommit(t *testing.T) {
	c := qt.New(t)
	ta := newTestAPI(t, false)
	users := []ledger.Record{
		{ID: 1, Balance: 1111}, {ID: 2, Balance: 2222}, {ID: 3, Balance: 3333},
		{ID: 4, Balance: 4444}, {ID: 5, Balance: 5555}, {ID: 6, Balance: 6666},
		{ID: 7, Balance: 7777}, {ID: 8, Balance: 8888}, {ID: 9, Balance: 8888},
	}

	// public clients cannot commit
	_, status := ta.public.Request("POST", users, "commit")
	c.Assert(status, qt.Equals, http.StatusUnauthorized)
	c.Assert(ta.reserve.RootHex(), qt.Equals, defaultRoot)

	data, status := ta.admin.Request("POST", users, "commit")
	c.Assert(status, qt.Equals, http.StatusOK, qt.Commentf("body %s", data))
	var reply CommitResponse
	c.Assert(json.Unmarshal(data, &reply), qt.IsNil)
	c.Assert(reply.MerkleRoot.String(), qt.Equals, "fde1b3b5997362f8441e5a8b8def720d8b04024207c962d7c7d1f74abdcbaf69")
	c.Assert(reply.Size, qt.Equals, 9)
	c.Assert(reply.Sequence, qt.Equals, uint64(1))

	data, _ = ta.public.Request("GET", nil, "merkle-root")
	c.Assert(string(data), qt.Contains, reply.MerkleRoot.String())
	data, status = ta.public.Request("GET", nil, "merkle-proof", "9")
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(string(data), qt.Contains, `"balance":8888`)

	data, status = ta.admin.RequestRaw("POST", nil, "commit")
	assertAPIerror(t, data, status, ErrEmptyCommit.Err)
	data, status = ta.admin.Request("POST", []ledger.Record{}, "commit")
	assertAPIerror(t, data, status, ErrEmptyCommit.Err)
	data, status = ta.admin.Request("POST", []ledger.Record{{ID: 1}, {ID: 1}}, "commit")
	assertAPIerror(t, data, status, ErrDuplicateIDs.Err)
	data, status = ta.admin.RequestRaw("POST", []byte(`[{"id":1,"balance":-5}]`), "commit")
	assertAPIerror(t, data, status, ErrCantParseBody.Err)

	// failed commits keep the last root
	c.Assert(ta.reserve.RootHex(), qt.Equals, reply.MerkleRoot.String())
}

func TestSendJSONHidesMarshalError(t *testing.T) {
	c := qt.New(t)
	newCtx := func() (*httprouter.HTTPContext, *httptest.ResponseRecorder) {
		w := httptest.NewRecorder()
		return &httprouter.HTTPContext{Writer: w, Request: httptest.NewRequest("GET", "/api/merkle-root", nil)}, w
	}

	ctx, w := newCtx()
	err := (&API{}).sendJSON(ctx, math.Inf(1))
	c.Assert(err, qt.Equals, error(ErrInternal))
	c.Assert(w.Body.Len(), qt.Equals, 0)

	ctx, _ = newCtx()
	err = (&API{dev: true}).sendJSON(ctx, math.Inf(1))
	c.Assert(err, qt.ErrorIs, ErrInternal.Err)
	c.Assert(err, qt.ErrorMatches, "An unexpected error occurred: json: unsupported value: .*")
}

func TestNewAPI(t *testing.T) {
	c := qt.New(t)
	_, err := NewAPI(nil, "/api", false)
	c.Assert(err, qt.ErrorIs, ErrHTTPRouterIsNil)
	router := testutil.NewRouter(t)
	_, err = NewAPI(router, "api", false)
	c.Assert(err, qt.ErrorIs, ErrBaseRouteInvalid)

	api, err := NewAPI(router, "/api/", true)
	c.Assert(err, qt.IsNil)
	c.Assert(api.EnableHandlers(ReserveHandler), qt.ErrorIs, ErrMissingModulesForHandler)
	r, err := reserve.New(ledger.Default(), reserve.Options{})
	c.Assert(err, qt.IsNil)
	api.Attach(r)
	c.Assert(api.EnableHandlers("census"), qt.ErrorIs, ErrHandlerUnknown)

	// internal errors carry details only in dev mode
	c.Assert(api.internalError(fmt.Errorf("disk failure")).Error(), qt.Contains, "disk failure")
	api.dev = false
	c.Assert(api.internalError(fmt.Errorf("disk failure")).Error(), qt.Equals, "An unexpected error occurred")
}
