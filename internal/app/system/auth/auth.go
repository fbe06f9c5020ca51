package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants & globals                                                |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	SessionName = "casalink-session"

	isAuthKey       = "is_authenticated"
	userIDKey       = "user_id"
	userName        = "user_name"
	userEmail       = "user_email"
	userRole        = "user_role"
	userIsAdmin     = "user_is_admin"
	userNeedsPwdKey = "user_requires_password_change"
)

// Store is initialised once via InitSessionStore.
var Store *sessions.CookieStore

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is what we cache in the session & inject into r.Context().
type SessionUser struct {
	ID                     string
	Name                   string
	Email                  string
	Role                   string
	IsAdmin                bool
	RequiresPasswordChange bool
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// Establish writes the signed-in user into the cookie session. Called by
// the login handler after the session core accepts the credentials.
func Establish(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	if Store == nil {
		return fmt.Errorf("session store not initialized")
	}
	sess, _ := Store.Get(r, SessionName)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userName] = u.Name
	sess.Values[userEmail] = u.Email
	sess.Values[userRole] = u.Role
	sess.Values[userIsAdmin] = u.IsAdmin
	sess.Values[userNeedsPwdKey] = u.RequiresPasswordChange
	return sess.Save(r, w)
}

// Clear drops the cookie session. Called by logout and by forced
// sign-outs (missing user record, admin disable).
func Clear(w http.ResponseWriter, r *http.Request) error {
	if Store == nil {
		return nil
	}
	sess, _ := Store.Get(r, SessionName)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// SetPasswordChanged flips the password-change flag in the cookie after
// a successful ChangePassword so the obligation gate opens immediately.
func SetPasswordChanged(w http.ResponseWriter, r *http.Request) error {
	if Store == nil {
		return nil
	}
	sess, _ := Store.Get(r, SessionName)
	sess.Values[userNeedsPwdKey] = false
	return sess.Save(r, w)
}

// LoadSessionUser injects the user into context if they are logged in.
// If the session store has not been initialized yet, it is a no-op.
func LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// If the session store isn't configured yet, just continue.
		if Store == nil {
			next.ServeHTTP(w, r)
			return
		}

		sess, _ := Store.Get(r, SessionName)

		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			u := &SessionUser{
				ID:                     getString(sess, userIDKey),
				Name:                   getString(sess, userName),
				Email:                  getString(sess, userEmail),
				Role:                   getString(sess, userRole),
				IsAdmin:                getBool(sess, userIsAdmin),
				RequiresPasswordChange: getBool(sess, userNeedsPwdKey),
			}
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// If not signed in:
//   - HTMX: sends HX-Redirect to /login?return=...
//   - HTML: 303 redirect to /login?return=...
//   - API:  401 Unauthorized with a plain error body.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		denySignedOut(w, r)
	})
}

// RequireRole ensures there is a user with the required role in context (set by LoadSessionUser).
// If not authorized, it redirects to HTML pages (or sets HX-Redirect) instead of writing a blank error.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)

			// 1) Not signed in → 401 semantics
			if !ok {
				denySignedOut(w, r)
				return
			}

			// 2) Signed in but wrong role → 403 semantics. An admin flag
			// opens every role gate.
			_, has := set[strings.ToLower(u.Role)]
			if !has && !u.IsAdmin {
				if r.Header.Get("HX-Request") == "true" {
					w.Header().Set("HX-Redirect", "/forbidden")
					w.WriteHeader(http.StatusForbidden)
					return
				}
				if wantsHTML(r) {
					http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
					return
				}
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequirePasswordChanged blocks users still carrying the first-login
// password-reset obligation, steering them to the change-password screen.
// The password change endpoint itself must not sit behind this gate.
func RequirePasswordChanged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r)
		if ok && u.RequiresPasswordChange {
			if r.Header.Get("HX-Request") == "true" {
				w.Header().Set("HX-Redirect", "/password/change")
				w.WriteHeader(http.StatusForbidden)
				return
			}
			if wantsHTML(r) {
				http.Redirect(w, r, "/password/change", http.StatusSeeOther)
				return
			}
			http.Error(w, "password change required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func denySignedOut(w http.ResponseWriter, r *http.Request) {
	ret := url.QueryEscape(currentURI(r))

	// HTMX: full-page client redirect (no partial swap)
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/login?return="+ret)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	// Browser/HTML: go to login and preserve return
	if wantsHTML(r) {
		http.Redirect(w, r, "/login?return="+ret, http.StatusSeeOther)
		return
	}

	// Non-HTML (API) callers: plain 401
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

// InitSessionStore initializes the global session Store using the provided
// session key and domain. The `secure` flag controls whether cookies are
// marked Secure and which SameSite mode is used.
//
// In production (secure=true), cookies should be Secure + SameSite=None
// (for cross-site use with HTTPS).
// In local dev over http://localhost, use secure=false so cookies are accepted.
func InitSessionStore(sessionKey, domain string, secure bool, logger *zap.Logger) error {
	key := []byte(sessionKey)
	if len(key) == 0 {
		// No configured key: generate an ephemeral one. Sessions will not
		// survive a restart.
		key = securecookie.GenerateRandomKey(32)
		if key == nil {
			return fmt.Errorf("session key is empty and random key generation failed")
		}
		logger.Warn("no session key configured; using an ephemeral random key")
	} else if len(key) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(key)))
	}

	store := sessions.NewCookieStore(key)
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}

	// SameSite handling: in prod with Secure cookies, we use None
	// so cookies can be sent in cross-site contexts. In dev, Lax is fine.
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}

	store.Options = opts
	Store = store

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return nil
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects a SessionUser into the request context. Test
// helper standing in for LoadSessionUser.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

func getBool(s *sessions.Session, key string) bool {
	v, _ := s.Values[key].(bool)
	return v
}

func wantsHTML(r *http.Request) bool {
	// Very light heuristic: treat it as HTML if it's HTMX or Accepts text/html.
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html")
}

func currentURI(r *http.Request) string {
	// Preserve path + query as a return param.
	u := *r.URL
	return u.RequestURI()
}
