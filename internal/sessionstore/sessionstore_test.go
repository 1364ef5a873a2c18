package sessionstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/wanderlust/internal/db/memorystorage"
)

const cookieName = "wanderlust.sid"

func newTestStore(t *testing.T) (*Store, *memorystorage.MemoryStorage) {
	t.Helper()
	db, err := memorystorage.New()
	require.NoError(t, err)

	store, err := New(db, cookieName, "test-secret-value", 24*time.Hour, sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	require.NoError(t, err)

	return store, db
}

func requestWithCookies(cookies []*http.Cookie) *http.Request {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}
	return request
}

func TestNewSessionIsPersistedOnFirstSave(t *testing.T) {
	store, db := newTestStore(t)

	request := requestWithCookies(nil)
	session, err := store.Get(request, cookieName)
	require.NoError(t, err)
	assert.True(t, session.IsNew)

	recorder := httptest.NewRecorder()
	require.NoError(t, session.Save(request, recorder))

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 7*24*60*60, cookies[0].MaxAge)
	assert.NotContains(t, cookies[0].Value, session.ID)

	record, found, err := db.FindSession(context.Background(), session.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), record.ExpiresAt, time.Minute)
}

func TestValuesRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)

	request := requestWithCookies(nil)
	session, err := store.Get(request, cookieName)
	require.NoError(t, err)
	session.Values["user_id"] = "42"
	session.AddFlash("Flash message test!", "error")

	recorder := httptest.NewRecorder()
	require.NoError(t, session.Save(request, recorder))

	next := requestWithCookies(recorder.Result().Cookies())
	loaded, err := store.Get(next, cookieName)
	require.NoError(t, err)
	assert.False(t, loaded.IsNew)
	assert.Equal(t, session.ID, loaded.ID)
	assert.Equal(t, "42", loaded.Values["user_id"])
	assert.Equal(t, []interface{}{"Flash message test!"}, loaded.Flashes("error"))
}

func TestUnchangedSessionIsNotRewritten(t *testing.T) {
	store, db := newTestStore(t)

	request := requestWithCookies(nil)
	session, err := store.Get(request, cookieName)
	require.NoError(t, err)
	recorder := httptest.NewRecorder()
	require.NoError(t, session.Save(request, recorder))
	cookies := recorder.Result().Cookies()

	before, _, err := db.FindSession(context.Background(), session.ID)
	require.NoError(t, err)

	next := requestWithCookies(cookies)
	loaded, err := store.Get(next, cookieName)
	require.NoError(t, err)
	nextRecorder := httptest.NewRecorder()
	require.NoError(t, loaded.Save(next, nextRecorder))

	assert.Empty(t, nextRecorder.Result().Cookies())
	after, _, err := db.FindSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Data, after.Data)
	assert.Equal(t, before.ExpiresAt, after.ExpiresAt)
}

func TestStaleSessionIsTouched(t *testing.T) {
	store, db := newTestStore(t)
	start := time.Now()
	store.now = func() time.Time { return start }

	request := requestWithCookies(nil)
	session, err := store.Get(request, cookieName)
	require.NoError(t, err)
	recorder := httptest.NewRecorder()
	require.NoError(t, session.Save(request, recorder))

	store.now = func() time.Time { return start.Add(25 * time.Hour) }

	next := requestWithCookies(recorder.Result().Cookies())
	loaded, err := store.Get(next, cookieName)
	require.NoError(t, err)
	nextRecorder := httptest.NewRecorder()
	require.NoError(t, loaded.Save(next, nextRecorder))

	assert.Len(t, nextRecorder.Result().Cookies(), 1)
	record, found, err := db.FindSession(context.Background(), session.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.WithinDuration(t, start.Add(25*time.Hour+7*24*time.Hour), record.ExpiresAt, time.Second)
}

func TestForgedCookieStartsFreshSession(t *testing.T) {
	store, _ := newTestStore(t)

	request := requestWithCookies([]*http.Cookie{{Name: cookieName, Value: "forged"}})
	session, err := store.Get(request, cookieName)
	require.NoError(t, err)
	assert.True(t, session.IsNew)
	assert.Empty(t, session.ID)
}

func TestNegativeMaxAgeDeletes(t *testing.T) {
	store, db := newTestStore(t)

	request := requestWithCookies(nil)
	session, err := store.Get(request, cookieName)
	require.NoError(t, err)
	require.NoError(t, session.Save(request, httptest.NewRecorder()))

	session.Options.MaxAge = -1
	recorder := httptest.NewRecorder()
	require.NoError(t, session.Save(request, recorder))

	_, found, err := db.FindSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.False(t, found)
	require.Len(t, recorder.Result().Cookies(), 1)
	assert.Equal(t, -1, recorder.Result().Cookies()[0].MaxAge)
}

func TestFlashesLastExactlyOneRequest(t *testing.T) {
	store, _ := newTestStore(t)

	first := requestWithCookies(nil)
	firstRecorder := httptest.NewRecorder()
	require.NoError(t, store.Flash(firstRecorder, first, FlashError, "Flash message test!"))
	cookies := firstRecorder.Result().Cookies()
	require.Len(t, cookies, 1)

	second := requestWithCookies(cookies)
	success, failure, err := store.ConsumeFlashes(httptest.NewRecorder(), second)
	require.NoError(t, err)
	assert.Empty(t, success)
	assert.Equal(t, []string{"Flash message test!"}, failure)

	third := requestWithCookies(cookies)
	success, failure, err = store.ConsumeFlashes(httptest.NewRecorder(), third)
	require.NoError(t, err)
	assert.Empty(t, success)
	assert.Empty(t, failure)
}

func TestSavingTwiceSendsOneCookie(t *testing.T) {
	store, _ := newTestStore(t)

	request := requestWithCookies(nil)
	recorder := httptest.NewRecorder()
	recorder.Header().Add("Set-Cookie", "theme=dark; Path=/")

	_, _, err := store.ConsumeFlashes(recorder, request)
	require.NoError(t, err)
	require.NoError(t, store.Flash(recorder, request, FlashSuccess, "Listing deleted successfully!"))

	names := []string{}
	for _, cookie := range recorder.Result().Cookies() {
		names = append(names, cookie.Name)
	}
	assert.ElementsMatch(t, []string{"theme", cookieName}, names)
}

func TestLargeValuesArePersisted(t *testing.T) {
	store, _ := newTestStore(t)

	request := requestWithCookies(nil)
	session, err := store.Get(request, cookieName)
	require.NoError(t, err)
	session.Values["note"] = strings.Repeat("a", 16*1024)

	recorder := httptest.NewRecorder()
	require.NoError(t, session.Save(request, recorder))

	loaded, err := store.Get(requestWithCookies(recorder.Result().Cookies()), cookieName)
	require.NoError(t, err)
	assert.False(t, loaded.IsNew)
	assert.Len(t, loaded.Values["note"], 16*1024)
}

func TestRegenerateMovesToFreshID(t *testing.T) {
	store, db := newTestStore(t)

	request := requestWithCookies(nil)
	session, err := store.Get(request, cookieName)
	require.NoError(t, err)
	session.Values["redirectUrl"] = "/listings/1"
	session.AddFlash("Flash message test!", FlashError)
	recorder := httptest.NewRecorder()
	require.NoError(t, session.Save(request, recorder))
	oldCookies := recorder.Result().Cookies()
	oldID := session.ID

	next := requestWithCookies(oldCookies)
	regenerated, err := store.Regenerate(next)
	require.NoError(t, err)
	assert.Empty(t, regenerated.ID)
	assert.NotContains(t, regenerated.Values, "redirectUrl")

	nextRecorder := httptest.NewRecorder()
	require.NoError(t, regenerated.Save(next, nextRecorder))
	assert.NotEqual(t, oldID, regenerated.ID)

	_, found, err := db.FindSession(context.Background(), oldID)
	require.NoError(t, err)
	assert.False(t, found)

	replayed, err := store.Get(requestWithCookies(oldCookies), cookieName)
	require.NoError(t, err)
	assert.True(t, replayed.IsNew)

	_, failure, err := store.ConsumeFlashes(httptest.NewRecorder(), requestWithCookies(nextRecorder.Result().Cookies()))
	require.NoError(t, err)
	assert.Equal(t, []string{"Flash message test!"}, failure)
}
