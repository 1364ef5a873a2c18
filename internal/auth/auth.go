// Package auth ties user accounts to browser sessions: it resolves the
// current user for each request, guards routes that need one and records
// log-ins and log-outs in the session.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/wanderlust/internal/logger"
	"github.com/patric-chuzhbe/wanderlust/internal/models"
)

const (
	sessionUserIDKey      = "user_id"
	sessionRedirectURLKey = "redirectUrl"

	// LoginPath is where RequireUser sends anonymous visitors.
	LoginPath = "/login"

	// MessageLoginRequired is flashed by RequireUser.
	MessageLoginRequired = "You must be logged in first!"
)

type userGetter interface {
	GetUser(ctx context.Context, id string) (*models.User, bool, error)
}

type sessionStore interface {
	Current(r *http.Request) (*sessions.Session, error)
	Regenerate(r *http.Request) (*sessions.Session, error)
	Flash(w http.ResponseWriter, r *http.Request, kind, message string) error
}

// Auth handles user identification through the session.
type Auth struct {
	users    userGetter
	sessions sessionStore
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UserKey is the context key holding the authenticated *models.User.
const UserKey ContextKey = "user"

func New(users userGetter, sessions sessionStore) *Auth {
	return &Auth{
		users:    users,
		sessions: sessions,
	}
}

// CurrentUser returns the user resolved by LoadUser, if any.
func CurrentUser(ctx context.Context) (*models.User, bool) {
	usr, ok := ctx.Value(UserKey).(*models.User)
	return usr, ok && usr != nil
}

// LoadUser is an HTTP middleware that puts the session's user, if any, into the request context.
// A session pointing at a deleted user is treated as anonymous.
func (a *Auth) LoadUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		session, err := a.sessions.Current(request)
		if err != nil {
			logger.Log.Errorw("Error calling the `a.sessions.Current()`", zap.Error(err))
			h.ServeHTTP(response, request)
			return
		}

		userID, _ := session.Values[sessionUserIDKey].(string)
		if userID == "" {
			h.ServeHTTP(response, request)
			return
		}

		usr, found, err := a.users.GetUser(request.Context(), userID)
		if err != nil {
			logger.Log.Errorw("Error calling the `a.users.GetUser()`", zap.Error(err))
			h.ServeHTTP(response, request)
			return
		}
		if !found {
			h.ServeHTTP(response, request)
			return
		}

		ctx := context.WithValue(request.Context(), UserKey, usr)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// RequireUser is an HTTP middleware that lets only authenticated users through.
// Anonymous requests remember where to return after LogIn: the URL itself for
// GET, the local page the form was submitted from otherwise.
func (a *Auth) RequireUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if _, ok := CurrentUser(request.Context()); ok {
			h.ServeHTTP(response, request)
			return
		}

		session, err := a.sessions.Current(request)
		if err == nil {
			if returnTo := returnURL(request); returnTo != "" {
				session.Values[sessionRedirectURLKey] = returnTo
			}
		}

		if err := a.sessions.Flash(response, request, "error", MessageLoginRequired); err != nil {
			logger.Log.Errorw("Error calling the `a.sessions.Flash()`", zap.Error(err))
		}

		http.Redirect(response, request, LoginPath, http.StatusFound)
	}

	return http.HandlerFunc(middleware)
}

// LogIn binds usr to the session and returns the URL remembered by RequireUser,
// or fallback when there is none.
func (a *Auth) LogIn(response http.ResponseWriter, request *http.Request, usr *models.User, fallback string) (string, error) {
	session, err := a.sessions.Current(request)
	if err != nil {
		return "", err
	}

	redirectURL, _ := session.Values[sessionRedirectURLKey].(string)

	// A cookie issued before the log-in must not become an authenticated one.
	session, err = a.sessions.Regenerate(request)
	if err != nil {
		return "", err
	}
	session.Values[sessionUserIDKey] = usr.ID

	if err := session.Save(request, response); err != nil {
		return "", fmt.Errorf("in internal/auth/auth.go/LogIn(): error while `session.Save()` calling: %w", err)
	}

	if redirectURL == "" {
		return fallback, nil
	}
	return redirectURL, nil
}

// LogOut forgets the session's user and moves it to a fresh id. Flash messages survive.
func (a *Auth) LogOut(response http.ResponseWriter, request *http.Request) error {
	session, err := a.sessions.Regenerate(request)
	if err != nil {
		return err
	}

	return session.Save(request, response)
}

// returnURL is the local URL to come back to after logging in, or "".
func returnURL(request *http.Request) string {
	if request.Method == http.MethodGet {
		return request.URL.RequestURI()
	}

	referer, err := url.Parse(request.Referer())
	if err != nil || referer.Path == "" || !strings.HasPrefix(referer.Path, "/") {
		return ""
	}
	if referer.Host != "" && referer.Host != request.Host {
		return ""
	}
	if referer.Path == LoginPath {
		return ""
	}

	return (&url.URL{Path: referer.Path, RawQuery: referer.RawQuery}).RequestURI()
}
