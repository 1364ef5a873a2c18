// Package sessionstore implements a gorilla/sessions Store whose records live
// in the application's storage backend. The browser only receives a signed
// session id; the values are encrypted with the same secret before they are persisted.
//
// Saving follows three rules:
//   - a new session is written and gets a cookie on its first Save;
//   - an unchanged session is not rewritten, only its expiry is extended
//     once per touchAfter window;
//   - a changed session is rewritten and its expiry extended.
package sessionstore

import (
	"context"
	"crypto/sha256"
	"encoding/base32"
	"encoding/gob"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/hkdf"

	"github.com/patric-chuzhbe/wanderlust/internal/models"
)

type sessionKeeper interface {
	SaveSession(ctx context.Context, record *models.SessionRecord) error
	FindSession(ctx context.Context, id string) (*models.SessionRecord, bool, error)
	TouchSession(ctx context.Context, id string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, id string) error
}

func init() {
	// Flashes are stored as []interface{}.
	gob.Register([]interface{}{})
}

type stateKey struct{}

// state remembers what was loaded so Save can tell whether anything changed.
type state struct {
	loaded    map[interface{}]interface{}
	touchedAt time.Time
}

// Store is a server-side session store.
type Store struct {
	db         sessionKeeper
	name       string
	Options    *sessions.Options
	idCodecs   []securecookie.Codec
	dataCodecs []securecookie.Codec
	touchAfter time.Duration
	now        func() time.Time
}

var _ sessions.Store = (*Store)(nil)

// New builds a Store for the cookie called name.
// Signing and encryption keys are derived from secret.
func New(db sessionKeeper, name, secret string, touchAfter time.Duration, options sessions.Options) (*Store, error) {
	hashKey, blockKey, err := deriveKeys(secret)
	if err != nil {
		return nil, err
	}

	opts := options
	store := &Store{
		db:         db,
		name:       name,
		Options:    &opts,
		idCodecs:   securecookie.CodecsFromPairs(hashKey, blockKey),
		dataCodecs: securecookie.CodecsFromPairs(hashKey, blockKey),
		touchAfter: touchAfter,
		now:        time.Now,
	}

	for _, codec := range store.idCodecs {
		if cookie, ok := codec.(*securecookie.SecureCookie); ok {
			cookie.MaxAge(opts.MaxAge)
		}
	}
	// The record's own expiry is authoritative for the stored values, and
	// records never travel in a cookie, so their size is not capped.
	for _, codec := range store.dataCodecs {
		if cookie, ok := codec.(*securecookie.SecureCookie); ok {
			cookie.MaxAge(0)
			cookie.MaxLength(0)
		}
	}

	return store, nil
}

func deriveKeys(secret string) ([]byte, []byte, error) {
	reader := hkdf.New(sha256.New, []byte(secret), nil, []byte("wanderlust session keys"))

	hashKey := make([]byte, 64)
	if _, err := io.ReadFull(reader, hashKey); err != nil {
		return nil, nil, fmt.Errorf("in internal/sessionstore/sessionstore.go/deriveKeys(): error while `io.ReadFull()` calling: %w", err)
	}

	blockKey := make([]byte, 32)
	if _, err := io.ReadFull(reader, blockKey); err != nil {
		return nil, nil, fmt.Errorf("in internal/sessionstore/sessionstore.go/deriveKeys(): error while `io.ReadFull()` calling: %w", err)
	}

	return hashKey, blockKey, nil
}

// Get returns the session for name, cached for the rest of the request.
func (s *Store) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie, or starts a fresh one.
// A missing, forged or expired cookie yields a fresh session without an error.
func (s *Store) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	cookie, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}

	var id string
	if err := securecookie.DecodeMulti(name, cookie.Value, &id, s.idCodecs...); err != nil {
		return session, nil
	}

	record, found, err := s.db.FindSession(r.Context(), id)
	if err != nil {
		return session, fmt.Errorf("in internal/sessionstore/sessionstore.go/New(): error while `s.db.FindSession()` calling: %w", err)
	}
	if !found {
		return session, nil
	}

	values, err := s.decodeValues(name, record.Data)
	if err != nil {
		return session, nil
	}
	loaded, err := s.decodeValues(name, record.Data)
	if err != nil {
		return session, nil
	}

	session.ID = id
	session.IsNew = false
	session.Values = values
	session.Values[stateKey{}] = &state{loaded: loaded, touchedAt: record.TouchedAt}

	return session, nil
}

// Save persists the session according to the package rules and refreshes the cookie.
// A negative MaxAge deletes the record and expires the cookie.
func (s *Store) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	ctx := r.Context()

	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.db.DeleteSession(ctx, session.ID); err != nil {
				return fmt.Errorf("in internal/sessionstore/sessionstore.go/Save(): error while `s.db.DeleteSession()` calling: %w", err)
			}
		}
		setCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	now := s.now().UTC()
	expiresAt := now.Add(time.Duration(session.Options.MaxAge) * time.Second)
	current, values := splitState(session)

	switch {
	case session.ID != "" && current != nil && reflect.DeepEqual(values, current.loaded):
		if now.Sub(current.touchedAt) < s.touchAfter {
			return nil
		}
		if err := s.db.TouchSession(ctx, session.ID, expiresAt); err != nil {
			return fmt.Errorf("in internal/sessionstore/sessionstore.go/Save(): error while `s.db.TouchSession()` calling: %w", err)
		}
		current.touchedAt = now

	default:
		if session.ID == "" {
			session.ID = newSessionID()
		}
		data, err := securecookie.EncodeMulti(session.Name(), values, s.dataCodecs...)
		if err != nil {
			return fmt.Errorf("in internal/sessionstore/sessionstore.go/Save(): error while `securecookie.EncodeMulti()` calling: %w", err)
		}
		err = s.db.SaveSession(ctx, &models.SessionRecord{
			ID:        session.ID,
			Data:      data,
			ExpiresAt: expiresAt,
			TouchedAt: now,
		})
		if err != nil {
			return fmt.Errorf("in internal/sessionstore/sessionstore.go/Save(): error while `s.db.SaveSession()` calling: %w", err)
		}
		loaded, err := s.decodeValues(session.Name(), data)
		if err != nil {
			return err
		}
		session.Values[stateKey{}] = &state{loaded: loaded, touchedAt: now}
		session.IsNew = false
	}

	encodedID, err := securecookie.EncodeMulti(session.Name(), session.ID, s.idCodecs...)
	if err != nil {
		return fmt.Errorf("in internal/sessionstore/sessionstore.go/Save(): error while `securecookie.EncodeMulti()` calling: %w", err)
	}
	setCookie(w, sessions.NewCookie(session.Name(), encodedID, session.Options))

	return nil
}

// Regenerate moves the request's session to a fresh id: the old record is
// deleted and the next Save mints a new id and cookie. Only the flash queues
// are carried over.
func (s *Store) Regenerate(r *http.Request) (*sessions.Session, error) {
	session, err := s.Current(r)
	if err != nil {
		return nil, err
	}

	if session.ID != "" {
		if err := s.db.DeleteSession(r.Context(), session.ID); err != nil {
			return nil, fmt.Errorf("in internal/sessionstore/sessionstore.go/Regenerate(): error while `s.db.DeleteSession()` calling: %w", err)
		}
	}

	kept := map[interface{}]interface{}{}
	for _, kind := range []string{FlashSuccess, FlashError} {
		if flashes, ok := session.Values[kind]; ok {
			kept[kind] = flashes
		}
	}

	session.ID = ""
	session.IsNew = true
	session.Values = kept

	return session, nil
}

// setCookie replaces any Set-Cookie already queued for the same cookie name,
// so a request that saves its session several times answers with one cookie.
func setCookie(w http.ResponseWriter, cookie *http.Cookie) {
	header := w.Header()
	queued := header.Values("Set-Cookie")
	header.Del("Set-Cookie")

	prefix := cookie.Name + "="
	for _, value := range queued {
		if !strings.HasPrefix(value, prefix) {
			header.Add("Set-Cookie", value)
		}
	}

	http.SetCookie(w, cookie)
}

func (s *Store) decodeValues(name, data string) (map[interface{}]interface{}, error) {
	values := map[interface{}]interface{}{}
	if err := securecookie.DecodeMulti(name, data, &values, s.dataCodecs...); err != nil {
		return nil, err
	}
	return values, nil
}

// splitState separates the bookkeeping entry from the user-visible values.
func splitState(session *sessions.Session) (*state, map[interface{}]interface{}) {
	current, _ := session.Values[stateKey{}].(*state)

	values := make(map[interface{}]interface{}, len(session.Values))
	for key, value := range session.Values {
		if _, isState := key.(stateKey); isState {
			continue
		}
		values[key] = value
	}

	return current, values
}

func newSessionID() string {
	return strings.TrimRight(base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)), "=")
}
