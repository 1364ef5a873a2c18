package views

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/wanderlust/internal/models"
)

func TestNewParsesEveryPage(t *testing.T) {
	renderer, err := New()
	require.NoError(t, err)

	for _, name := range []string{
		PageListingsIndex,
		PageListingsNew,
		PageListingsShow,
		PageListingsEdit,
		PageSignup,
		PageLogin,
		PageError,
	} {
		assert.Contains(t, renderer.pages, name)
	}
}

func TestRenderIndexWithLocals(t *testing.T) {
	renderer, err := New()
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	err = renderer.Render(recorder, http.StatusOK, PageListingsIndex, Page{
		Locals: Locals{
			Success:  []string{"New listing created successfully!"},
			CurrUser: &models.User{ID: "u1", Username: "traveller"},
		},
		Title: "All Listings",
		Data: []models.Listing{
			{ID: "l1", Title: "Cozy Cabin", Price: 12500},
		},
	})
	require.NoError(t, err)

	body := recorder.Body.String()
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "text/html; charset=utf-8", recorder.Header().Get("Content-Type"))
	assert.Contains(t, body, "New listing created successfully!")
	assert.Contains(t, body, `href="/listings/l1"`)
	assert.Contains(t, body, "12,500")
	assert.Contains(t, body, "Hi, traveller")
	assert.Contains(t, body, `href="/logout"`)
	assert.NotContains(t, body, `href="/login"`)
}

func TestRenderShowHidesReviewFormFromGuests(t *testing.T) {
	renderer, err := New()
	require.NoError(t, err)

	listing := &models.ListingWithReviews{
		Listing: models.Listing{ID: "l1", Title: "Cozy Cabin"},
		ReviewDocs: []models.Review{
			{ID: "r1", Comment: "Lovely stay", Rating: 4, AuthorID: "u1"},
		},
	}

	recorder := httptest.NewRecorder()
	require.NoError(t, renderer.Render(recorder, http.StatusOK, PageListingsShow, Page{Data: listing}))

	body := recorder.Body.String()
	assert.Contains(t, body, "Lovely stay")
	assert.Contains(t, body, "★★★★☆")
	assert.NotContains(t, body, `action="/listings/l1/reviews"`)
	assert.NotContains(t, body, "/reviews/r1?_method=DELETE")

	recorder = httptest.NewRecorder()
	require.NoError(t, renderer.Render(recorder, http.StatusOK, PageListingsShow, Page{
		Locals: Locals{CurrUser: &models.User{ID: "u1", Username: "author"}},
		Data:   listing,
	}))

	body = recorder.Body.String()
	assert.Contains(t, body, `action="/listings/l1/reviews"`)
	assert.Contains(t, body, "/reviews/r1?_method=DELETE")
}

func TestRenderError(t *testing.T) {
	renderer, err := New()
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	err = renderer.Render(recorder, http.StatusNotFound, PageError, Page{
		Title: "Error",
		Data:  ErrorData{Status: http.StatusNotFound, Message: "Page Not Found"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Page Not Found")
}

func TestRenderUnknownPageWritesNothing(t *testing.T) {
	renderer, err := New()
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	err = renderer.Render(recorder, http.StatusOK, "listings/missing", Page{})

	assert.Error(t, err)
	assert.Zero(t, recorder.Body.Len())
}

func TestFormatPrice(t *testing.T) {
	testCases := map[float64]string{
		0:         "0",
		999:       "999",
		1000:      "1,000",
		12345.5:   "12,346",
		1234567:   "1,234,567",
		-25000.25: "-25,000",
	}

	for value, expected := range testCases {
		assert.Equal(t, expected, formatPrice(value))
	}
}

func TestStaticHandler(t *testing.T) {
	handler := StaticHandler("/static/")

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/static/css/style.css", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Header().Get("Content-Type"), "text/css")
	assert.Contains(t, recorder.Body.String(), ".navbar")
}
