package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/md-rashed-zaman/barberbook/libs/auth"
	"github.com/md-rashed-zaman/barberbook/libs/config"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/libs/routing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type upstreams struct {
	Auth    *url.URL
	Booking *url.URL
	Barber  *url.URL
}

func upstreamsFromEnv() upstreams {
	return upstreams{
		Auth:    mustParseURL(config.String("AUTH_URL", "http://auth-service:8081")),
		Booking: mustParseURL(config.String("BOOKING_URL", "http://booking-service:8083")),
		Barber:  mustParseURL(config.String("BARBER_URL", "http://barber-service:8084")),
	}
}

func newProxy(target *url.URL) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.Transport = otelhttp.NewTransport(http.DefaultTransport)
	return proxy
}

func registerRoutes(mux *http.ServeMux, up upstreams, verifier auth.Verifier) {
	authProxy := stripIdentity(newProxy(up.Auth))
	bookingProxy := newProxy(up.Booking)
	barberProxy := newProxy(up.Barber)

	registerProxy(mux, "/api/v1/auth", authProxy)
	registerProxy(mux, "/.well-known/jwks.json", authProxy)

	registerProxy(mux, "/api/v1/public/services", stripIdentity(bookingProxy))
	registerProxy(mux, "/api/v1/public/barbers", stripIdentity(barberProxy))

	registerProxy(mux, "/api/v1/client", requireArea(bookingProxy, verifier))
	registerProxy(mux, "/api/v1/admin/barbers", requireArea(barberProxy, verifier))
	registerProxy(mux, "/api/v1/admin", requireArea(bookingProxy, verifier))

	mux.HandleFunc("/api/v1/route", routeDecision(verifier))

	mux.HandleFunc("/openapi", func(w http.ResponseWriter, _ *http.Request) {
		data, err := openAPISpec.ReadFile("assets/gateway.v1.yaml")
		if err != nil {
			http.Error(w, "openapi not available", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	})
}

func registerProxy(mux *http.ServeMux, prefix string, handler http.Handler) {
	if !strings.HasSuffix(prefix, "/") {
		mux.Handle(prefix, handler)
		mux.Handle(prefix+"/", handler)
		return
	}
	mux.Handle(prefix, handler)
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// stripIdentity drops caller supplied identity headers on routes that do not verify a token.
func stripIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.ClearIdentity(r.Header)
		next.ServeHTTP(w, r)
	})
}

// sessionFromRequest verifies the bearer token. A missing or invalid token is
// an unauthenticated session.
func sessionFromRequest(r *http.Request, verifier auth.Verifier) (routing.Session, *auth.Claims) {
	claims, err := verifier.VerifyRequest(r)
	if err != nil {
		return routing.Session{}, nil
	}
	return routing.Session{UserID: claims.Sub, Role: claims.Role, RoleResolved: claims.Role != ""}, claims
}

// requireArea lets a request through only when the caller's session belongs
// in the area the path names. Verified identity is forwarded as headers.
func requireArea(next http.Handler, verifier auth.Verifier) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.ClearIdentity(r.Header)
		session, claims := sessionFromRequest(r, verifier)
		decision := routing.Decide(routing.Resolve(session), r.URL.Path)
		if !decision.Allow {
			status, code := http.StatusForbidden, "forbidden"
			if claims == nil {
				status, code = http.StatusUnauthorized, "unauthenticated"
			}
			redirect := decision.Redirect
			if redirect == "" {
				redirect = routing.LoginPath
			}
			httpx.WriteJSON(w, status, httpx.ErrorBody{Error: code, Redirect: redirect})
			return
		}
		httpx.SetIdentity(r.Header, httpx.Identity{
			UserID: claims.Sub,
			Name:   claims.Name,
			Email:  claims.Email,
			Role:   claims.Role,
		})
		next.ServeHTTP(w, r)
	})
}

// routeDecision answers where the caller should be for ?path=.
func routeDecision(verifier auth.Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		path := r.URL.Query().Get("path")
		if path == "" {
			path = "/"
		}
		session, _ := sessionFromRequest(r, verifier)
		httpx.WriteJSON(w, http.StatusOK, routing.Decide(routing.Resolve(session), path))
	}
}
