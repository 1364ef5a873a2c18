// Package router wires the HTTP surface of the application: listing and
// review pages, user accounts, health and internal statistics.
//
// Handlers return errors instead of writing failures themselves; every error
// ends up in one place, which renders the error page with the status and
// message carried by apperr.HTTPError.
package router

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/wanderlust/internal/apperr"
	"github.com/patric-chuzhbe/wanderlust/internal/auth"
	"github.com/patric-chuzhbe/wanderlust/internal/gzippedhttp"
	"github.com/patric-chuzhbe/wanderlust/internal/logger"
	"github.com/patric-chuzhbe/wanderlust/internal/models"
	"github.com/patric-chuzhbe/wanderlust/internal/validation"
	"github.com/patric-chuzhbe/wanderlust/internal/views"
)

const (
	listingsPath = "/listings"

	messagePageNotFound = "Page Not Found"
)

type listingService interface {
	ListListings(ctx context.Context) ([]models.Listing, error)
	CreateListing(ctx context.Context, payload models.ListingPayload) (string, error)
	GetListing(ctx context.Context, id string) (*models.Listing, bool, error)
	GetListingWithReviews(ctx context.Context, id string) (*models.ListingWithReviews, bool, error)
	UpdateListing(ctx context.Context, id string, payload models.ListingPayload) (*models.Listing, bool, error)
	DeleteListing(ctx context.Context, id string) (bool, error)
}

type reviewService interface {
	AddReview(ctx context.Context, listingID, authorID string, payload models.ReviewPayload) (string, bool, error)
	DeleteReview(ctx context.Context, listingID, reviewID, userID string) (bool, error)
}

type userService interface {
	Register(ctx context.Context, payload models.SignupPayload) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
}

type healthService interface {
	Ping(ctx context.Context) error
	Stats(ctx context.Context) (models.Stats, error)
}

type appService interface {
	listingService
	reviewService
	userService
	healthService
}

type formValidator interface {
	Listing(form url.Values) validation.Result[models.ListingPayload]
	Review(form url.Values) validation.Result[models.ReviewPayload]
	Signup(form url.Values) validation.Result[models.SignupPayload]
	Login(form url.Values) validation.Result[models.LoginPayload]
}

type sessionStore interface {
	Flash(w http.ResponseWriter, r *http.Request, kind, message string) error
	ConsumeFlashes(w http.ResponseWriter, r *http.Request) (success []string, failure []string, err error)
}

type authenticator interface {
	LoadUser(h http.Handler) http.Handler
	RequireUser(h http.Handler) http.Handler
	LogIn(w http.ResponseWriter, r *http.Request, usr *models.User, fallback string) (string, error)
	LogOut(w http.ResponseWriter, r *http.Request) error
}

type renderer interface {
	Render(w http.ResponseWriter, status int, name string, page views.Page) error
}

type subnetGuard interface {
	TrustedOnly(h http.Handler) http.Handler
}

// Router holds the dependencies of the HTTP handlers.
type Router struct {
	service   appService
	validator formValidator
	sessions  sessionStore
	auth      authenticator
	views     renderer
}

type localsKey struct{}

// handlerFunc is an http.HandlerFunc that reports failures instead of writing them.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// New builds the application's chi router.
func New(
	svc appService,
	validator formValidator,
	sessions sessionStore,
	theAuth authenticator,
	pages renderer,
	internalGuard subnetGuard,
) *chi.Mux {
	myRouter := &Router{
		service:   svc,
		validator: validator,
		sessions:  sessions,
		auth:      theAuth,
		views:     pages,
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logger.WithLoggingHTTPMiddleware,
		myRouter.recoverer,
		gzippedhttp.UngzipRequest,
		gzippedhttp.GzipResponse,
		methodOverride,
	)

	router.Handle(`/static/*`, views.StaticHandler(`/static/`))
	router.Get(`/ping`, myRouter.GetPing)
	router.With(internalGuard.TrustedOnly).Get(`/api/internal/stats`, myRouter.GetApiinternalstats)

	router.Group(func(r chi.Router) {
		r.Use(theAuth.LoadUser, myRouter.withLocals)

		r.Get(`/`, myRouter.wrap(myRouter.GetListings))
		r.Get(`/testflash`, myRouter.wrap(myRouter.GetTestflash))

		r.Route(listingsPath, func(r chi.Router) {
			r.Get(`/`, myRouter.wrap(myRouter.GetListings))
			r.Post(`/`, myRouter.wrap(myRouter.PostListings))
			r.Get(`/new`, myRouter.wrap(myRouter.GetListingsNew))
			r.Get(`/{id}`, myRouter.wrap(myRouter.GetListing))
			r.Put(`/{id}`, myRouter.wrap(myRouter.PutListing))
			r.Delete(`/{id}`, myRouter.wrap(myRouter.DeleteListing))
			r.Get(`/{id}/edit`, myRouter.wrap(myRouter.GetListingEdit))

			r.With(theAuth.RequireUser).Post(`/{id}/reviews`, myRouter.wrap(myRouter.PostReview))
			r.With(theAuth.RequireUser).Delete(`/{id}/reviews/{reviewID}`, myRouter.wrap(myRouter.DeleteReview))
		})

		r.Get(`/signup`, myRouter.wrap(myRouter.GetSignup))
		r.Post(`/signup`, myRouter.wrap(myRouter.PostSignup))
		r.Get(`/login`, myRouter.wrap(myRouter.GetLogin))
		r.Post(`/login`, myRouter.wrap(myRouter.PostLogin))
		r.Get(`/logout`, myRouter.wrap(myRouter.GetLogout))
	})

	pageNotFound := theAuth.LoadUser(myRouter.withLocals(myRouter.wrap(myRouter.pageNotFound)))
	router.NotFound(pageNotFound.ServeHTTP)
	router.MethodNotAllowed(pageNotFound.ServeHTTP)

	return router
}

func (rtr *Router) pageNotFound(http.ResponseWriter, *http.Request) error {
	return apperr.NotFound(messagePageNotFound)
}

// wrap adapts h to net/http, sending any returned error to renderError.
func (rtr *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(response http.ResponseWriter, request *http.Request) {
		if err := h(response, request); err != nil {
			rtr.renderError(response, request, err)
		}
	}
}

// renderError is the single exit for failed requests.
func (rtr *Router) renderError(response http.ResponseWriter, request *http.Request, err error) {
	httpErr := apperr.From(err)
	requestID := middleware.GetReqID(request.Context())

	if httpErr.Status >= http.StatusInternalServerError {
		logger.Log.Errorw("request failed", "request_id", requestID, zap.Error(err))
	} else {
		logger.Log.Debugw("request rejected", "request_id", requestID, "status", httpErr.Status, "message", httpErr.Message)
	}

	page := rtr.page(request, "Error", views.ErrorData{Status: httpErr.Status, Message: httpErr.Message})
	if renderErr := rtr.views.Render(response, httpErr.Status, views.PageError, page); renderErr != nil {
		logger.Log.Errorw("Error calling the `rtr.views.Render()`", zap.Error(renderErr))
		http.Error(response, httpErr.Message, httpErr.Status)
	}
}

// recoverer turns a panic into the generic error page.
func (rtr *Router) recoverer(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			rtr.renderError(response, request, fmt.Errorf("panic: %v", rec))
		}()

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}

// withLocals drains the flash queues at the start of the request so the page
// rendered by this request is the one that shows them.
func (rtr *Router) withLocals(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if _, ok := request.Context().Value(localsKey{}).(views.Locals); ok {
			h.ServeHTTP(response, request)
			return
		}

		success, failure, err := rtr.sessions.ConsumeFlashes(response, request)
		if err != nil {
			rtr.renderError(response, request, err)
			return
		}

		ctx := context.WithValue(request.Context(), localsKey{}, views.Locals{
			Success: success,
			Error:   failure,
		})
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

func (rtr *Router) page(request *http.Request, title string, data any) views.Page {
	locals, _ := request.Context().Value(localsKey{}).(views.Locals)
	if usr, ok := auth.CurrentUser(request.Context()); ok {
		locals.CurrUser = usr
	}

	return views.Page{
		Locals: locals,
		Title:  title,
		Data:   data,
	}
}

func (rtr *Router) render(
	response http.ResponseWriter,
	request *http.Request,
	name string,
	title string,
	data any,
) error {
	return rtr.views.Render(response, http.StatusOK, name, rtr.page(request, title, data))
}

// flashAndRedirect queues a flash of kind and answers with 302 to location.
func (rtr *Router) flashAndRedirect(
	response http.ResponseWriter,
	request *http.Request,
	kind string,
	message string,
	location string,
) error {
	if err := rtr.sessions.Flash(response, request, kind, message); err != nil {
		return fmt.Errorf("in internal/router/router.go/flashAndRedirect(): error while `rtr.sessions.Flash()` calling: %w", err)
	}

	http.Redirect(response, request, location, http.StatusFound)

	return nil
}

func parseForm(request *http.Request) (url.Values, error) {
	if err := request.ParseForm(); err != nil {
		return nil, apperr.BadRequest("Invalid form data")
	}
	return request.PostForm, nil
}
