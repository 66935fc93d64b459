// Package auth guards the HTTP transport of the MCP server.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/sha1n/pagesearch/internal/config"
)

// APIKeyHeader carries the key for apikey authentication. A bearer token in
// the Authorization header is accepted as well.
const APIKeyHeader = "X-API-Key"

// Authenticator checks the credentials of a request.
type Authenticator interface {
	Authenticate(r *http.Request) bool
	// Challenge writes the rejection response.
	Challenge(w http.ResponseWriter)
}

// NewAuthenticator returns the authenticator for settings, or nil when
// authentication is disabled.
func NewAuthenticator(settings config.AuthSettings) (Authenticator, error) {
	switch settings.Type {
	case config.AuthTypeNone, "":
		return nil, nil
	case config.AuthTypeBasic:
		if settings.Basic.Username == "" || settings.Basic.Password == "" {
			return nil, errors.New("basic auth requires non-empty username and password")
		}
		return &basicAuthenticator{
			username: []byte(settings.Basic.Username),
			password: []byte(settings.Basic.Password),
		}, nil
	case config.AuthTypeAPIKey:
		a := &apiKeyAuthenticator{}
		for _, k := range settings.APIKeys {
			if k = strings.TrimSpace(k); k != "" {
				a.keys = append(a.keys, []byte(k))
			}
		}
		if len(a.keys) == 0 {
			return nil, errors.New("apikey auth requires at least one API key")
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown auth type: %s", settings.Type)
	}
}

// NewMiddleware wraps handlers with the authenticator for settings.
// Requests to publicPaths are passed through unauthenticated.
func NewMiddleware(settings config.AuthSettings, publicPaths ...string) (func(http.Handler) http.Handler, error) {
	authenticator, err := NewAuthenticator(settings)
	if err != nil {
		return nil, err
	}
	if authenticator == nil {
		return func(next http.Handler) http.Handler { return next }, nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(publicPaths, r.URL.Path) || authenticator.Authenticate(r) {
				next.ServeHTTP(w, r)
				return
			}
			slog.Debug("Rejected unauthenticated request", "path", r.URL.Path, "remote", r.RemoteAddr)
			authenticator.Challenge(w)
		})
	}, nil
}

type basicAuthenticator struct {
	username []byte
	password []byte
}

func (a *basicAuthenticator) Authenticate(r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userMatch := subtle.ConstantTimeCompare([]byte(user), a.username)
	passMatch := subtle.ConstantTimeCompare([]byte(pass), a.password)
	return userMatch&passMatch == 1
}

func (a *basicAuthenticator) Challenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="pagesearch"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

type apiKeyAuthenticator struct {
	keys [][]byte
}

func (a *apiKeyAuthenticator) Authenticate(r *http.Request) bool {
	key := presentedKey(r)
	if key == "" {
		return false
	}
	for _, valid := range a.keys {
		if subtle.ConstantTimeCompare([]byte(key), valid) == 1 {
			return true
		}
	}
	return false
}

func (a *apiKeyAuthenticator) Challenge(w http.ResponseWriter) {
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

func presentedKey(r *http.Request) string {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}
