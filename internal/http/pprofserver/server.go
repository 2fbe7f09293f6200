// Package pprofserver exposes net/http/pprof on a separate listener.
package pprofserver

import (
	"crypto/subtle"
	"net"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"moto-dispatch/internal/logx"
)

// Config stores pprof server settings. Remote callers need basic auth;
// loopback callers are let through.
type Config struct {
	Enabled bool
	Addr    string
	User    string
	Pass    string
}

// New returns the pprof server, or nil when profiling is disabled.
func New(cfg Config, logger logx.Logger) *http.Server {
	if !cfg.Enabled || cfg.Addr == "" {
		return nil
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           Handler(cfg, logger),
		ReadHeaderTimeout: 5 * time.Second,
		// profile и trace пишут долго
		WriteTimeout: 2 * time.Minute,
	}
}

// Handler returns pprof handlers.
func Handler(cfg Config, logger logx.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)

	for _, name := range []string{"heap", "goroutine", "allocs", "block", "mutex", "threadcreate"} {
		mux.Handle("/debug/pprof/"+name, pprof.Handler(name))
	}
	return guard(mux, cfg, logger)
}

func guard(next http.Handler, cfg Config, logger logx.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isLoopback(r.RemoteAddr) || credentialsMatch(r, cfg) {
			next.ServeHTTP(w, r)
			return
		}
		logger.Warn("pprof access denied",
			logx.String("remote", r.RemoteAddr),
			logx.String("path", r.URL.Path),
		)
		w.Header().Set("WWW-Authenticate", `Basic realm="pprof"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

// credentialsMatch is false whenever the server has no credentials configured.
func credentialsMatch(r *http.Request, cfg Config) bool {
	if cfg.User == "" || cfg.Pass == "" {
		return false
	}
	u, p, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(u), []byte(cfg.User)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(p), []byte(cfg.Pass)) == 1
	return userOK && passOK
}

func isLoopback(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	ip := net.ParseIP(strings.TrimSpace(host))
	return ip != nil && ip.IsLoopback()
}
