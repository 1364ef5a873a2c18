package router

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/patric-chuzhbe/wanderlust/internal/apperr"
	"github.com/patric-chuzhbe/wanderlust/internal/auth"
	"github.com/patric-chuzhbe/wanderlust/internal/models"
	"github.com/patric-chuzhbe/wanderlust/internal/sessionstore"
)

const (
	messageReviewCreated  = "New review created!"
	messageReviewDeleted  = "Review deleted!"
	messageReviewNotFound = "Review not found."
)

// PostReview expects auth.RequireUser in front of it.
func (rtr *Router) PostReview(response http.ResponseWriter, request *http.Request) error {
	usr, ok := auth.CurrentUser(request.Context())
	if !ok {
		return apperr.New(http.StatusUnauthorized, auth.MessageLoginRequired)
	}

	form, err := parseForm(request)
	if err != nil {
		return err
	}

	result := rtr.validator.Review(form)
	if !result.Valid() {
		return result.Err()
	}

	listingID := chi.URLParam(request, "id")
	_, found, err := rtr.service.AddReview(request.Context(), listingID, usr.ID, result.Value)
	if err != nil {
		return err
	}
	if !found {
		return rtr.listingNotFound(response, request)
	}

	return rtr.flashAndRedirect(response, request, sessionstore.FlashSuccess, messageReviewCreated, listingPath(listingID))
}

// DeleteReview expects auth.RequireUser in front of it. Only the author may delete a review.
func (rtr *Router) DeleteReview(response http.ResponseWriter, request *http.Request) error {
	usr, ok := auth.CurrentUser(request.Context())
	if !ok {
		return apperr.New(http.StatusUnauthorized, auth.MessageLoginRequired)
	}

	listingID := chi.URLParam(request, "id")
	found, err := rtr.service.DeleteReview(request.Context(), listingID, chi.URLParam(request, "reviewID"), usr.ID)
	if errors.Is(err, models.ErrNotReviewAuthor) {
		return rtr.flashAndRedirect(response, request, sessionstore.FlashError, err.Error(), listingPath(listingID))
	}
	if err != nil {
		return err
	}
	if !found {
		return rtr.flashAndRedirect(response, request, sessionstore.FlashError, messageReviewNotFound, listingPath(listingID))
	}

	return rtr.flashAndRedirect(response, request, sessionstore.FlashSuccess, messageReviewDeleted, listingPath(listingID))
}
