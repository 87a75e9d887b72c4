package httprouter

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	reuse "github.com/libp2p/go-reuseport"
	"go.vocdoni.io/reserve/log"
	"golang.org/x/crypto/acme"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/net/http2"
)

const desiredSoMaxConn = 4096

func (r *HTTProuter) listenAndServe(host string, port int) error {
	ln, err := reuse.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return err
	}
	if n := somaxconn(); n < desiredSoMaxConn {
		log.Debugf("SOMAXCONN is %d, below the recommended %d: "+
			"echo %d | sudo tee /proc/sys/net/core/somaxconn", n, desiredSoMaxConn, desiredSoMaxConn)
	}
	r.address = ln.Addr()

	r.server = &http.Server{
		Handler:           r.Mux,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}
	if r.TLSdomain == "" {
		if err := http2.ConfigureServer(r.server, nil); err != nil {
			ln.Close()
			return err
		}
		go r.serve(func() error { return r.server.Serve(ln) })
		log.Infof("router ready at http://%s", r.address)
		return nil
	}

	manager := r.configureTLS()
	if err := http2.ConfigureServer(r.server, nil); err != nil {
		ln.Close()
		return err
	}
	go r.serve(func() error { return r.server.ServeTLS(ln, "", "") })
	log.Infof("fetching letsencrypt TLS certificate for %s", r.TLSdomain)
	if _, err := manager.GetCertificate(&tls.ClientHelloInfo{
		ServerName: r.TLSdomain,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
		},
	}); err != nil {
		log.Warnf("letsencrypt certificate cannot be obtained, check the domain and that port 443 "+
			"is reachable (sudo iptables -t nat -I PREROUTING -p tcp --dport 443 -j REDIRECT --to-ports %d)", port)
		return fmt.Errorf("cannot get letsencrypt TLS certificate: %w", err)
	}
	log.Infof("router ready at https://%s", r.address)
	return nil
}

// configureTLS sets up the server to get its certificates from letsencrypt,
// cached in TLSdirCert.
func (r *HTTProuter) configureTLS() *autocert.Manager {
	m := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(r.TLSdomain),
		Cache:      autocert.DirCache(r.TLSdirCert),
	}
	if r.TLSconfig == nil {
		r.TLSconfig = &tls.Config{MinVersion: tls.VersionTLS13}
	}
	r.TLSconfig.GetCertificate = m.GetCertificate
	r.TLSconfig.NextProtos = append(r.TLSconfig.NextProtos, acme.ALPNProto)
	r.server.TLSConfig = r.TLSconfig
	r.server.WriteTimeout = 15 * time.Second
	return m
}

func (r *HTTProuter) serve(serve func() error) {
	if err := serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func somaxconn() int {
	content, err := os.ReadFile("/proc/sys/net/core/somaxconn")
	if err != nil {
		return syscall.SOMAXCONN
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		return syscall.SOMAXCONN
	}
	return n
}
