package router

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/wanderlust/internal/auth"
	"github.com/patric-chuzhbe/wanderlust/internal/db/memorystorage"
	"github.com/patric-chuzhbe/wanderlust/internal/db/storage"
	"github.com/patric-chuzhbe/wanderlust/internal/ipchecker"
	"github.com/patric-chuzhbe/wanderlust/internal/mockstorage"
	"github.com/patric-chuzhbe/wanderlust/internal/models"
	"github.com/patric-chuzhbe/wanderlust/internal/service"
	"github.com/patric-chuzhbe/wanderlust/internal/sessionstore"
	"github.com/patric-chuzhbe/wanderlust/internal/validation"
	"github.com/patric-chuzhbe/wanderlust/internal/views"
)

const (
	cookieName    = "wanderlust.sid"
	trustedSubnet = "127.0.0.0/8"
	testPassword  = "correct-horse"
)

type initOption func(*initOptions)

type initOptions struct {
	serviceDB      storage.Storage
	serviceOptions []service.InitOption
	trustedSubnet  string
}

func withServiceDB(db storage.Storage) initOption {
	return func(o *initOptions) {
		o.serviceDB = db
	}
}

func withServiceOptions(opts ...service.InitOption) initOption {
	return func(o *initOptions) {
		o.serviceOptions = append(o.serviceOptions, opts...)
	}
}

func withTrustedSubnet(subnet string) initOption {
	return func(o *initOptions) {
		o.trustedSubnet = subnet
	}
}

// newTestServer serves the full router. Sessions always live in the returned
// memory storage; the service uses it too unless withServiceDB says otherwise.
func newTestServer(t *testing.T, optionsProto ...initOption) (*httptest.Server, *memorystorage.MemoryStorage) {
	t.Helper()

	db, err := memorystorage.New()
	require.NoError(t, err)

	options := &initOptions{
		serviceDB:      db,
		serviceOptions: []service.InitOption{service.WithBcryptCost(bcrypt.MinCost)},
		trustedSubnet:  trustedSubnet,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	store, err := sessionstore.New(db, cookieName, "test-secret-value", 24*time.Hour, sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	require.NoError(t, err)

	svc := service.New(options.serviceDB, options.serviceOptions...)

	formValidator, err := validation.New()
	require.NoError(t, err)

	renderer, err := views.New()
	require.NoError(t, err)

	checker, err := ipchecker.New(options.trustedSubnet)
	require.NoError(t, err)

	srv := httptest.NewServer(New(svc, formValidator, store, auth.New(svc, store), renderer, checker))
	t.Cleanup(srv.Close)

	return srv, db
}

// newClient keeps cookies between requests and never follows redirects.
func newClient(srv *httptest.Server) *resty.Client {
	return resty.New().
		SetBaseURL(srv.URL).
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}))
}

func listingForm(title, price string) map[string]string {
	return map[string]string{
		"title":       title,
		"description": "A quiet place by the lake",
		"image":       "https://images.example.com/cabin.jpg",
		"price":       price,
		"location":    "Lake Tahoe",
		"country":     "United States",
	}
}

func get(t *testing.T, client *resty.Client, path string) *resty.Response {
	t.Helper()
	resp, err := client.R().Get(path)
	require.NoError(t, err)
	return resp
}

func postForm(t *testing.T, client *resty.Client, path string, form map[string]string) *resty.Response {
	t.Helper()
	resp, err := client.R().SetFormData(form).Post(path)
	require.NoError(t, err)
	return resp
}

func requireRedirect(t *testing.T, resp *resty.Response, location string) {
	t.Helper()
	require.Equal(t, http.StatusFound, resp.StatusCode(), resp.String())
	require.Equal(t, location, resp.Header().Get("Location"))
}

func createListing(t *testing.T, client *resty.Client, db *memorystorage.MemoryStorage, title string) string {
	t.Helper()
	requireRedirect(t, postForm(t, client, "/listings", listingForm(title, "1200")), "/listings")

	listings, err := db.FindListings(context.Background())
	require.NoError(t, err)
	for _, listing := range listings {
		if listing.Title == title {
			return listing.ID
		}
	}
	require.FailNow(t, "listing was not stored", title)
	return ""
}

func signUp(t *testing.T, client *resty.Client, username string) {
	t.Helper()
	requireRedirect(t, postForm(t, client, "/signup", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": testPassword,
	}), "/listings")
}

func addReview(t *testing.T, client *resty.Client, db *memorystorage.MemoryStorage, listingID string) string {
	t.Helper()
	requireRedirect(t, postForm(t, client, "/listings/"+listingID+"/reviews", map[string]string{
		"rating":  "4",
		"comment": "Great stay",
	}), "/listings/"+listingID)

	listing, found, err := db.FindListingByID(context.Background(), listingID)
	require.NoError(t, err)
	require.True(t, found)
	require.NotEmpty(t, listing.Reviews)
	return listing.Reviews[len(listing.Reviews)-1]
}

func requireSessionCount(t *testing.T, db *memorystorage.MemoryStorage, expected int64) {
	t.Helper()
	count, err := db.CountSessions(context.Background())
	require.NoError(t, err)
	require.Equal(t, expected, count)
}

func TestCreatedListingIsListedOnce(t *testing.T) {
	srv, db := newTestServer(t)
	client := newClient(srv)

	id := createListing(t, client, db, "Cozy Cabin")

	resp := get(t, client, "/listings")
	require.Equal(t, http.StatusOK, resp.StatusCode())
	body := resp.String()
	assert.Contains(t, body, "New listing created successfully!")
	assert.Equal(t, 1, strings.Count(body, `href="/listings/`+id+`"`))
	assert.Contains(t, body, "Cozy Cabin")
}

func TestPostListingsValidation(t *testing.T) {
	type tExpectedResponse struct {
		code     int
		messages []string
	}
	type tTestCase struct {
		name             string
		form             map[string]string
		expectedResponse tExpectedResponse
	}
	testCases := []tTestCase{
		{
			name: "missing title",
			form: listingForm("", "1200"),
			expectedResponse: tExpectedResponse{
				http.StatusBadRequest,
				[]string{`"title" is required`},
			},
		},
		{
			name: "missing title and price",
			form: listingForm("", ""),
			expectedResponse: tExpectedResponse{
				http.StatusBadRequest,
				[]string{`"title" is required, "price" is required`},
			},
		},
		{
			name: "price is not a number",
			form: listingForm("Cozy Cabin", "cheap"),
			expectedResponse: tExpectedResponse{
				http.StatusBadRequest,
				[]string{`"price" must be a number`},
			},
		},
		{
			name: "negative price",
			form: listingForm("Cozy Cabin", "-5"),
			expectedResponse: tExpectedResponse{
				http.StatusBadRequest,
				[]string{`"price" must be greater than or equal to 0`},
			},
		},
	}

	srv, db := newTestServer(t)
	client := newClient(srv)

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			resp := postForm(t, client, "/listings", testCase.form)

			assert.Equal(t, testCase.expectedResponse.code, resp.StatusCode())
			for _, message := range testCase.expectedResponse.messages {
				assert.Contains(t, resp.String(), html.EscapeString(message))
			}
		})
	}

	count, err := db.CountListings(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMissingListingIsASoftNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{
		"/listings/does-not-exist",
		"/listings/2b0cf1c6-0f6b-4ad6-9b55-6a3c3c6d4f11",
		"/listings/does-not-exist/edit",
	} {
		t.Run(path, func(t *testing.T) {
			client := newClient(srv)

			requireRedirect(t, get(t, client, path), "/listings")

			resp := get(t, client, "/listings")
			require.Equal(t, http.StatusOK, resp.StatusCode())
			assert.Contains(t, resp.String(), "Listing not found.")

			resp = get(t, client, "/listings")
			require.Equal(t, http.StatusOK, resp.StatusCode())
			assert.NotContains(t, resp.String(), "Listing not found.")
		})
	}
}

func TestFlashSurvivesExactlyOneRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newClient(srv)

	resp := get(t, client, "/testflash")
	requireRedirect(t, resp, "/")

	var sessionCookie *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == cookieName {
			sessionCookie = cookie
		}
	}
	require.NotNil(t, sessionCookie)

	resp = get(t, client, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, resp.String(), "Flash message test!")

	resp = get(t, client, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.NotContains(t, resp.String(), "Flash message test!")
}

func TestAnonymousVisitorGetsPersistedSession(t *testing.T) {
	srv, db := newTestServer(t)
	client := newClient(srv)

	resp := get(t, client, "/listings")
	require.Equal(t, http.StatusOK, resp.StatusCode())

	var sessionCookie *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == cookieName {
			sessionCookie = cookie
		}
	}
	require.NotNil(t, sessionCookie)
	assert.True(t, sessionCookie.HttpOnly)
	assert.Equal(t, 7*24*60*60, sessionCookie.MaxAge)
	requireSessionCount(t, db, 1)

	// An unchanged session is neither rewritten nor re-issued.
	resp = get(t, client, "/listings")
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Empty(t, resp.Cookies())
	requireSessionCount(t, db, 1)
}

func TestUnmatchedRoutes(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newClient(srv)

	testCases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/nowhere"},
		{http.MethodGet, "/listings/some-id/photos"},
		{http.MethodPost, "/api/shorten"},
		{http.MethodPatch, "/listings"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.method+" "+testCase.path, func(t *testing.T) {
			resp, err := client.R().Execute(testCase.method, testCase.path)
			require.NoError(t, err)

			assert.Equal(t, http.StatusNotFound, resp.StatusCode())
			assert.Contains(t, resp.String(), "Page Not Found")
		})
	}
}

func TestUpdateListing(t *testing.T) {
	srv, db := newTestServer(t)
	client := newClient(srv)
	id := createListing(t, client, db, "Cozy Cabin")

	t.Run("edit form is prefilled", func(t *testing.T) {
		resp := get(t, client, "/listings/"+id+"/edit")
		require.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Contains(t, resp.String(), `value="Cozy Cabin"`)
	})

	t.Run("valid update through method override", func(t *testing.T) {
		resp := postForm(t, client, "/listings/"+id+"?_method=PUT", listingForm("Cozy Cabin Deluxe", "1500"))
		requireRedirect(t, resp, "/listings/"+id)

		resp = get(t, client, "/listings/"+id)
		require.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Contains(t, resp.String(), "Listing updated successfully!")
		assert.Contains(t, resp.String(), "Cozy Cabin Deluxe")
		assert.Contains(t, resp.String(), "1,500")
	})

	t.Run("invalid update", func(t *testing.T) {
		resp, err := client.R().SetFormData(listingForm("", "1500")).Put("/listings/" + id)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
		assert.Contains(t, resp.String(), html.EscapeString(`"title" is required`))
	})

	t.Run("missing listing", func(t *testing.T) {
		resp, err := client.R().SetFormData(listingForm("Ghost", "1")).Put("/listings/does-not-exist")
		require.NoError(t, err)
		requireRedirect(t, resp, "/listings")
		assert.Contains(t, get(t, client, "/listings").String(), "Listing not found.")
	})
}

func TestDeleteListing(t *testing.T) {
	testCases := []struct {
		name               string
		cascade            bool
		reviewShouldRemain bool
	}{
		{name: "reviews are kept by default", cascade: false, reviewShouldRemain: true},
		{name: "reviews are removed with cascade", cascade: true, reviewShouldRemain: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			srv, db := newTestServer(t, withServiceOptions(service.WithCascadeReviewsOnDelete(testCase.cascade)))
			client := newClient(srv)

			signUp(t, client, "host")
			id := createListing(t, client, db, "Cozy Cabin")
			reviewID := addReview(t, client, db, id)

			requireRedirect(t, postForm(t, client, "/listings/"+id+"?_method=DELETE", nil), "/listings")

			resp := get(t, client, "/listings")
			assert.Contains(t, resp.String(), "Listing deleted successfully!")
			assert.NotContains(t, resp.String(), `href="/listings/`+id+`"`)

			_, found, err := db.FindReviewByID(context.Background(), reviewID)
			require.NoError(t, err)
			assert.Equal(t, testCase.reviewShouldRemain, found)

		})
	}
}

func TestDeleteMissingListingStillFlashesSuccess(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newClient(srv)

	requireRedirect(t, postForm(t, client, "/listings/does-not-exist?_method=DELETE", nil), "/listings")

	body := get(t, client, "/listings").String()
	assert.Contains(t, body, "Listing deleted successfully!")
	assert.NotContains(t, body, "Listing not found.")
}

func TestReviews(t *testing.T) {
	srv, db := newTestServer(t)

	author := newClient(srv)
	signUp(t, author, "author")
	id := createListing(t, author, db, "Cozy Cabin")

	t.Run("anonymous visitor must log in", func(t *testing.T) {
		guest := newClient(srv)
		resp := postForm(t, guest, "/listings/"+id+"/reviews", map[string]string{"rating": "5", "comment": "Nice"})
		requireRedirect(t, resp, auth.LoginPath)

		resp = get(t, guest, auth.LoginPath)
		assert.Contains(t, resp.String(), auth.MessageLoginRequired)
	})

	t.Run("invalid review", func(t *testing.T) {
		resp := postForm(t, author, "/listings/"+id+"/reviews", map[string]string{"rating": "9", "comment": ""})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
		assert.Contains(t, resp.String(), html.EscapeString(`"rating" must be less than or equal to 5`))
		assert.Contains(t, resp.String(), html.EscapeString(`"comment" is required`))
	})

	t.Run("review on a missing listing", func(t *testing.T) {
		resp := postForm(t, author, "/listings/does-not-exist/reviews", map[string]string{"rating": "5", "comment": "Nice"})
		requireRedirect(t, resp, "/listings")
	})

	reviewID := addReview(t, author, db, id)

	t.Run("review is shown on the listing", func(t *testing.T) {
		resp := get(t, author, "/listings/"+id)
		require.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Contains(t, resp.String(), "New review created!")
		assert.Contains(t, resp.String(), "Great stay")
	})

	t.Run("someone else cannot delete it", func(t *testing.T) {
		stranger := newClient(srv)
		signUp(t, stranger, "stranger")

		resp := postForm(t, stranger, "/listings/"+id+"/reviews/"+reviewID+"?_method=DELETE", nil)
		requireRedirect(t, resp, "/listings/"+id)
		assert.Contains(t, get(t, stranger, "/listings/"+id).String(), models.ErrNotReviewAuthor.Error())

		_, found, err := db.FindReviewByID(context.Background(), reviewID)
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("the author deletes it", func(t *testing.T) {
		resp := postForm(t, author, "/listings/"+id+"/reviews/"+reviewID+"?_method=DELETE", nil)
		requireRedirect(t, resp, "/listings/"+id)
		assert.Contains(t, get(t, author, "/listings/"+id).String(), "Review deleted!")

		_, found, err := db.FindReviewByID(context.Background(), reviewID)
		require.NoError(t, err)
		assert.False(t, found)

		listing, _, err := db.FindListingByID(context.Background(), id)
		require.NoError(t, err)
		assert.NotContains(t, listing.Reviews, reviewID)
	})
}

func TestUserFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newClient(srv)

	t.Run("signup logs the user in", func(t *testing.T) {
		signUp(t, client, "alice")

		resp := get(t, client, "/listings")
		assert.Contains(t, resp.String(), "Welcome to Wanderlust!")
		assert.Contains(t, resp.String(), "Hi, alice")
	})

	t.Run("logout", func(t *testing.T) {
		requireRedirect(t, get(t, client, "/logout"), "/listings")

		resp := get(t, client, "/listings")
		assert.Contains(t, resp.String(), "You are logged out!")
		assert.NotContains(t, resp.String(), "Hi, alice")
	})

	t.Run("duplicate signup", func(t *testing.T) {
		resp := postForm(t, client, "/signup", map[string]string{
			"username": "alice",
			"email":    "other@example.com",
			"password": testPassword,
		})
		requireRedirect(t, resp, "/signup")
		assert.Contains(t, get(t, client, "/signup").String(), models.ErrUserExists.Error())
	})

	t.Run("invalid signup", func(t *testing.T) {
		resp := postForm(t, client, "/signup", map[string]string{
			"username": "bob",
			"email":    "not-an-email",
			"password": testPassword,
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
		assert.Contains(t, resp.String(), html.EscapeString(`"email" must be a valid email`))
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := postForm(t, client, "/login", map[string]string{"username": "alice", "password": "wrong"})
		requireRedirect(t, resp, auth.LoginPath)
		assert.Contains(t, get(t, client, auth.LoginPath).String(), models.ErrInvalidCredentials.Error())
	})

	t.Run("missing credentials", func(t *testing.T) {
		resp := postForm(t, client, "/login", map[string]string{"username": "alice"})
		requireRedirect(t, resp, auth.LoginPath)
	})

	t.Run("login", func(t *testing.T) {
		resp := postForm(t, client, "/login", map[string]string{"username": "alice", "password": testPassword})
		requireRedirect(t, resp, "/listings")

		resp = get(t, client, "/listings")
		assert.Contains(t, resp.String(), "Welcome back to Wanderlust!")
		assert.Contains(t, resp.String(), "Hi, alice")
	})
}

func sessionCookieOf(resp *resty.Response) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == cookieName {
			return cookie
		}
	}
	return nil
}

func TestSignupDoesNotAuthenticateEarlierCookie(t *testing.T) {
	srv, db := newTestServer(t)
	victim := newClient(srv)

	anonymousCookie := sessionCookieOf(get(t, victim, "/listings"))
	require.NotNil(t, anonymousCookie)

	signUp(t, victim, "victim")
	assert.Contains(t, get(t, victim, "/listings").String(), "Hi, victim")
	requireSessionCount(t, db, 1)

	resp, err := newClient(srv).R().SetCookie(anonymousCookie).Get("/listings")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.NotContains(t, resp.String(), "Hi, victim")
}

func TestLoginReturnsToTheReviewedListing(t *testing.T) {
	srv, db := newTestServer(t)

	host := newClient(srv)
	signUp(t, host, "host")
	id := createListing(t, host, db, "Cozy Cabin")

	guest := newClient(srv)
	signUp(t, guest, "guest")
	requireRedirect(t, get(t, guest, "/logout"), "/listings")

	resp, err := guest.R().
		SetHeader("Referer", srv.URL+"/listings/"+id).
		SetFormData(map[string]string{"rating": "5", "comment": "Nice"}).
		Post("/listings/" + id + "/reviews")
	require.NoError(t, err)
	requireRedirect(t, resp, auth.LoginPath)

	resp = postForm(t, guest, "/login", map[string]string{"username": "guest", "password": testPassword})
	requireRedirect(t, resp, "/listings/"+id)
}

func TestStorageFailureRendersGenericErrorPage(t *testing.T) {
	db := &mockstorage.StorageMock{}
	db.On("FindListings", mock.Anything).Return(nil, errors.New("connection refused"))
	db.On("Ping", mock.Anything).Return(errors.New("connection refused"))

	srv, _ := newTestServer(t, withServiceDB(db))
	client := newClient(srv)

	resp := get(t, client, "/listings")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode())
	assert.Contains(t, resp.String(), "Something went wrong")
	assert.NotContains(t, resp.String(), "connection refused")

	resp = get(t, client, "/ping")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode())

	db.AssertExpectations(t)
}

func TestGetPing(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := get(t, newClient(srv), "/ping")
	assert.Equal(t, http.StatusOK, resp.StatusCode())
}

func TestGetApiinternalstats(t *testing.T) {
	t.Run("trusted client", func(t *testing.T) {
		srv, db := newTestServer(t)
		client := newClient(srv)
		signUp(t, client, "alice")
		id := createListing(t, client, db, "Cozy Cabin")
		addReview(t, client, db, id)

		resp := get(t, client, "/api/internal/stats")
		require.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))

		var stats models.Stats
		require.NoError(t, json.Unmarshal(resp.Body(), &stats))
		assert.Equal(t, models.Stats{Listings: 1, Reviews: 1, Users: 1}, stats)
	})

	t.Run("untrusted client", func(t *testing.T) {
		srv, _ := newTestServer(t, withTrustedSubnet("10.0.0.0/8"))

		resp := get(t, newClient(srv), "/api/internal/stats")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode())
	})
}

func TestPagesAreGzipped(t *testing.T) {
	srv, _ := newTestServer(t)

	request, err := http.NewRequest(http.MethodGet, srv.URL+"/listings", nil)
	require.NoError(t, err)
	request.Header.Set("Accept-Encoding", "gzip")

	response, err := http.DefaultTransport.RoundTrip(request)
	require.NoError(t, err)
	defer response.Body.Close()

	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, "gzip", response.Header.Get("Content-Encoding"))
}

func TestStaticAssets(t *testing.T) {
	srv, db := newTestServer(t)

	resp := get(t, newClient(srv), "/static/css/style.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, resp.Header().Get("Content-Type"), "text/css")
	requireSessionCount(t, db, 0)
}
