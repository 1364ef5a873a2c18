package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/patric-chuzhbe/wanderlust/internal/logger"
	"github.com/patric-chuzhbe/wanderlust/internal/models"
	"github.com/patric-chuzhbe/wanderlust/internal/sessionstore"
	"github.com/patric-chuzhbe/wanderlust/internal/views"
)

const (
	messageListingCreated  = "New listing created successfully!"
	messageListingUpdated  = "Listing updated successfully!"
	messageListingDeleted  = "Listing deleted successfully!"
	messageListingNotFound = "Listing not found."
)

func listingPath(id string) string {
	return listingsPath + "/" + id
}

// listingNotFound is the soft not-found answer: a flash and a redirect to the collection.
func (rtr *Router) listingNotFound(response http.ResponseWriter, request *http.Request) error {
	return rtr.flashAndRedirect(response, request, sessionstore.FlashError, messageListingNotFound, listingsPath)
}

func (rtr *Router) GetListings(response http.ResponseWriter, request *http.Request) error {
	listings, err := rtr.service.ListListings(request.Context())
	if err != nil {
		return err
	}

	return rtr.render(response, request, views.PageListingsIndex, "All Listings", listings)
}

func (rtr *Router) GetListingsNew(response http.ResponseWriter, request *http.Request) error {
	return rtr.render(response, request, views.PageListingsNew, "New Listing", &models.Listing{})
}

func (rtr *Router) PostListings(response http.ResponseWriter, request *http.Request) error {
	form, err := parseForm(request)
	if err != nil {
		return err
	}

	result := rtr.validator.Listing(form)
	if !result.Valid() {
		return result.Err()
	}

	if _, err := rtr.service.CreateListing(request.Context(), result.Value); err != nil {
		return err
	}

	return rtr.flashAndRedirect(response, request, sessionstore.FlashSuccess, messageListingCreated, listingsPath)
}

func (rtr *Router) GetListing(response http.ResponseWriter, request *http.Request) error {
	listing, found, err := rtr.service.GetListingWithReviews(request.Context(), chi.URLParam(request, "id"))
	if err != nil {
		return err
	}
	if !found {
		return rtr.listingNotFound(response, request)
	}

	return rtr.render(response, request, views.PageListingsShow, listing.Title, listing)
}

func (rtr *Router) GetListingEdit(response http.ResponseWriter, request *http.Request) error {
	listing, found, err := rtr.service.GetListing(request.Context(), chi.URLParam(request, "id"))
	if err != nil {
		return err
	}
	if !found {
		return rtr.listingNotFound(response, request)
	}

	return rtr.render(response, request, views.PageListingsEdit, "Edit "+listing.Title, listing)
}

func (rtr *Router) PutListing(response http.ResponseWriter, request *http.Request) error {
	form, err := parseForm(request)
	if err != nil {
		return err
	}

	result := rtr.validator.Listing(form)
	if !result.Valid() {
		return result.Err()
	}

	listing, found, err := rtr.service.UpdateListing(request.Context(), chi.URLParam(request, "id"), result.Value)
	if err != nil {
		return err
	}
	if !found {
		return rtr.listingNotFound(response, request)
	}

	return rtr.flashAndRedirect(response, request, sessionstore.FlashSuccess, messageListingUpdated, listingPath(listing.ID))
}

// DeleteListing removes the listing by id without an existence check; a missing
// id still ends with the success flash.
func (rtr *Router) DeleteListing(response http.ResponseWriter, request *http.Request) error {
	id := chi.URLParam(request, "id")
	found, err := rtr.service.DeleteListing(request.Context(), id)
	if err != nil {
		return err
	}
	if !found {
		logger.Log.Debugw("delete of a missing listing", "listing_id", id)
	}

	return rtr.flashAndRedirect(response, request, sessionstore.FlashSuccess, messageListingDeleted, listingsPath)
}
