package sessionstore

import (
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Current returns the session of the request, loading it at most once per request.
func (s *Store) Current(r *http.Request) (*sessions.Session, error) {
	return s.Get(r, s.name)
}

// Flash queues a one-shot message of the given kind and saves the session.
func (s *Store) Flash(w http.ResponseWriter, r *http.Request, kind, message string) error {
	session, err := s.Current(r)
	if err != nil {
		return err
	}
	session.AddFlash(message, kind)

	return session.Save(r, w)
}

// ConsumeFlashes drains both flash queues and saves the session.
// The returned slices are never nil.
func (s *Store) ConsumeFlashes(w http.ResponseWriter, r *http.Request) (success []string, failure []string, err error) {
	session, err := s.Current(r)
	if err != nil {
		return nil, nil, err
	}

	success = flashStrings(session.Flashes(FlashSuccess))
	failure = flashStrings(session.Flashes(FlashError))

	if err := session.Save(r, w); err != nil {
		return nil, nil, fmt.Errorf("in internal/sessionstore/flash.go/ConsumeFlashes(): error while `session.Save()` calling: %w", err)
	}

	return success, failure, nil
}

func flashStrings(flashes []interface{}) []string {
	result := make([]string, 0, len(flashes))
	for _, flash := range flashes {
		if message, ok := flash.(string); ok {
			result = append(result, message)
		}
	}
	return result
}
