// Package httprouter serves HTTP handlers grouped in namespaces. Each
// namespace decodes the requests and authorizes them before the handler runs,
// so handlers only deal with the decoded data and the reply.
package httprouter

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	chiprometheus "github.com/766b/chi-prometheus"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.vocdoni.io/reserve/log"
)

const (
	// DefaultContentType is the response content type when none is set by the handler.
	DefaultContentType = "application/json"
	// DefaultRequestTimeout bounds the time a handler may take to reply.
	DefaultRequestTimeout = 30 * time.Second
)

// HTTProuter is a go-chi based router. Handlers are registered per namespace
// and access type, and the RouterNamespace implementation decides which
// requests reach them. The exported fields must be set before Init.
type HTTProuter struct {
	Mux        *chi.Mux
	TLSconfig  *tls.Config
	TLSdomain  string
	TLSdirCert string
	// PrometheusID enables the go-chi request metrics under this name.
	PrometheusID string
	// RequestTimeout overrides DefaultRequestTimeout.
	RequestTimeout time.Duration

	address net.Addr
	server  *http.Server

	namespacesLock sync.RWMutex
	namespaces     map[string]RouterNamespace
}

// AuthAccessType is the access level a handler requires.
type AuthAccessType int

const (
	AccessTypePublic AuthAccessType = iota
	AccessTypeAdmin
)

func (t AuthAccessType) String() string {
	switch t {
	case AccessTypePublic:
		return "public"
	case AccessTypeAdmin:
		return "admin"
	}
	return fmt.Sprintf("AuthAccessType(%d)", int(t))
}

// RouterNamespace decodes and authorizes the requests of a namespace.
type RouterNamespace interface {
	AuthorizeRequest(data any, accessType AuthAccessType) (valid bool, err error)
	ProcessData(req *http.Request) (data any, err error)
}

// RejectionWriter is implemented by namespaces that reply the requests they
// refuse in their own format. Without it the error text is sent as plain text.
type RejectionWriter interface {
	WriteRejection(ctx *HTTPContext, status int, err error)
}

// RouterHandlerFn handles a request that its namespace already accepted.
type RouterHandlerFn = func(msg Message)

// Init builds the mux and starts serving on host:port in the background.
// Port 0 picks a free port, see Address.
func (r *HTTProuter) Init(host string, port int) error {
	r.namespaces = make(map[string]RouterNamespace)
	r.Mux = r.newMux()
	return r.listenAndServe(host, port)
}

func (r *HTTProuter) newMux() *chi.Mux {
	timeout := r.RequestTimeout
	if timeout == 0 {
		timeout = DefaultRequestTimeout
	}
	compressor := middleware.NewCompressor(5)
	compressor.SetEncoder("gzip", func(w io.Writer, level int) io.Writer {
		gw, err := gzip.NewWriterLevel(w, level)
		if err != nil {
			return nil
		}
		return gw
	})
	mux := chi.NewRouter()
	mux.Use(
		middleware.RealIP,
		middleware.RequestLogger(&middleware.DefaultLogFormatter{
			Logger:  requestLogger{log.Logger()},
			NoColor: true,
		}),
		middleware.Recoverer,
		middleware.Heartbeat("/ping"),
		middleware.ThrottleBacklog(5000, 40000, timeout),
		middleware.Timeout(timeout),
		compressor.Handler,
	)
	if r.PrometheusID != "" {
		mux.Use(chiprometheus.NewMiddleware(r.PrometheusID))
	}
	mux.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(*http.Request, string) bool { return true },
		AllowedMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:  []string{"*"},
		// browsers ignore larger values
		MaxAge: 300,
	}))
	// preflight requests that reach the mux get an empty 200
	mux.Options("/*", func(http.ResponseWriter, *http.Request) {})
	return mux
}

// Shutdown stops accepting connections and waits for the in flight
// requests to finish, or for ctx to be done.
func (r *HTTProuter) Shutdown(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	return r.server.Shutdown(ctx)
}

// Address returns the address the router listens on.
func (r *HTTProuter) Address() net.Addr {
	return r.address
}

// ExposePrometheusEndpoint serves the default prometheus registry at path.
func (r *HTTProuter) ExposePrometheusEndpoint(path string) {
	r.AddRawHTTPHandler(path, http.MethodGet, promhttp.Handler().ServeHTTP)
	log.Infof("prometheus metrics ready at %s", path)
}

// AddNamespace registers the namespace id, replacing any previous one.
func (r *HTTProuter) AddNamespace(id string, rns RouterNamespace) {
	r.namespacesLock.Lock()
	defer r.namespacesLock.Unlock()
	r.namespaces[id] = rns
	log.Infow("added namespace", "id", id)
}

func (r *HTTProuter) namespace(id string) (RouterNamespace, bool) {
	r.namespacesLock.RLock()
	defer r.namespacesLock.RUnlock()
	rns, ok := r.namespaces[id]
	return rns, ok
}

// AddAdminHandler adds a handler that the namespace authorizes as admin.
func (r *HTTProuter) AddAdminHandler(namespaceID, pattern, HTTPmethod string, handler RouterHandlerFn) {
	r.addHandler(namespaceID, pattern, HTTPmethod, AccessTypeAdmin, handler)
}

// AddPublicHandler adds a handler that the namespace authorizes as public.
func (r *HTTProuter) AddPublicHandler(namespaceID, pattern, HTTPmethod string, handler RouterHandlerFn) {
	r.addHandler(namespaceID, pattern, HTTPmethod, AccessTypePublic, handler)
}

// AddRawHTTPHandler adds a plain net/http handler outside of any namespace.
func (r *HTTProuter) AddRawHTTPHandler(pattern, HTTPmethod string, handler http.HandlerFunc) {
	r.Mux.MethodFunc(HTTPmethod, pattern, handler)
	log.Infow("added handler", "type", "raw", "method", HTTPmethod, "pattern", pattern)
}

func (r *HTTProuter) addHandler(namespaceID, pattern, HTTPmethod string,
	accessType AuthAccessType, handler RouterHandlerFn,
) {
	r.Mux.MethodFunc(HTTPmethod, pattern, r.dispatch(namespaceID, accessType, handler))
	log.Infow("added handler", "type", accessType.String(), "namespace", namespaceID,
		"method", HTTPmethod, "pattern", pattern)
}

// dispatch runs the namespace checks and then the handler. A handler that
// returns without replying gets a 500.
func (r *HTTProuter) dispatch(namespaceID string, accessType AuthAccessType,
	handler RouterHandlerFn,
) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer req.Body.Close()
		ns, ok := r.namespace(namespaceID)
		if !ok {
			log.Errorw("namespace not defined", "id", namespaceID)
			http.Error(w, "namespace not defined", http.StatusInternalServerError)
			return
		}
		hc := &HTTPContext{Writer: w, Request: req}
		data, err := ns.ProcessData(req)
		if err != nil {
			reject(ns, hc, http.StatusBadRequest, err)
			return
		}
		if ok, err := ns.AuthorizeRequest(data, accessType); !ok {
			reject(ns, hc, http.StatusUnauthorized, err)
			return
		}
		handler(Message{Data: data, Context: hc})
		if !hc.sent {
			log.Errorw("handler returned without a reply", "path", req.URL.Path)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

func reject(ns RouterNamespace, hc *HTTPContext, status int, err error) {
	if err == nil {
		err = errors.New(http.StatusText(status))
	}
	log.Debugw("request rejected", "path", hc.Request.URL.Path, "status", status, "error", err.Error())
	if rw, ok := ns.(RejectionWriter); ok {
		rw.WriteRejection(hc, status, err)
		if hc.sent {
			return
		}
	}
	http.Error(hc.Writer, err.Error(), status)
}

// requestLogger sends the chi request log lines to the debug level.
type requestLogger struct {
	log *zap.SugaredLogger
}

func (l requestLogger) Print(v ...any) { l.log.Debug(fmt.Sprint(v...)) }
