package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Device-session constants & globals                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// The gateway does not authenticate the HTTP caller itself; it binds
// each caller to a stable device key carried in a signed cookie, and the
// per-device session store holds the actual identity state. One device
// key = one app instance.

const deviceKeyName = "device_key"

// SessionName is overridable via Init (GYMOVOO_SESSION_NAME).
var SessionName = "gymovoo-device"

// Store is initialised once via InitSessionStore.
var Store *sessions.CookieStore

type ctxKey string

const deviceCtxKey ctxKey = "deviceKey"

// DeviceKey returns the device key bound to this request and a found
// flag. The key is set by EnsureDevice; handlers behind that middleware
// can rely on it being present.
func DeviceKey(r *http.Request) (string, bool) {
	k, ok := r.Context().Value(deviceCtxKey).(string)
	return k, ok
}

// EnsureDevice binds the request to a device key, minting one on first
// contact and setting the signed cookie. A request whose cookie fails
// signature validation simply gets a fresh device (and with it a fresh,
// signed-out session).
func EnsureDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Store == nil {
			next.ServeHTTP(w, r)
			return
		}

		sess, _ := Store.Get(r, SessionName)

		key, _ := sess.Values[deviceKeyName].(string)
		if key == "" {
			key = uuid.NewString()
			sess.Values[deviceKeyName] = key
			if err := sess.Save(r, w); err != nil {
				http.Error(w, "failed to establish device session", http.StatusInternalServerError)
				return
			}
		}

		next.ServeHTTP(w, withDevice(r, key))
	})
}

// InitSessionStore initializes the global cookie store using the
// provided signing key and domain. The secure flag controls whether
// cookies are marked Secure and which SameSite mode is used.
//
// In production (secure=true), cookies are Secure + SameSite=None so the
// mobile app's embedded web views can carry them cross-site over HTTPS.
// In local dev over http://localhost, use secure=false so cookies are
// accepted.
func InitSessionStore(sessionKey, sessionName, domain string, secure bool, logger *zap.Logger) error {
	if sessionKey == "" {
		return fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if sessionName != "" {
		SessionName = sessionName
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		MaxAge:   60 * 60 * 24 * 365, // the device binding itself is long-lived
	}

	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}

	store.Options = opts
	Store = store

	logger.Info("device session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return nil
}

// WithTestDevice injects a device key directly into the request context,
// bypassing the cookie middleware. For handler tests.
func WithTestDevice(r *http.Request, key string) *http.Request {
	return withDevice(r, key)
}

func withDevice(r *http.Request, key string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), deviceCtxKey, key))
}
