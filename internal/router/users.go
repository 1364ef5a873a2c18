package router

import (
	"errors"
	"net/http"

	"github.com/patric-chuzhbe/wanderlust/internal/auth"
	"github.com/patric-chuzhbe/wanderlust/internal/models"
	"github.com/patric-chuzhbe/wanderlust/internal/sessionstore"
	"github.com/patric-chuzhbe/wanderlust/internal/views"
)

const (
	signupPath = "/signup"

	messageWelcome     = "Welcome to Wanderlust!"
	messageWelcomeBack = "Welcome back to Wanderlust!"
	messageLoggedOut   = "You are logged out!"
)

func (rtr *Router) GetSignup(response http.ResponseWriter, request *http.Request) error {
	return rtr.render(response, request, views.PageSignup, "Sign up", nil)
}

func (rtr *Router) PostSignup(response http.ResponseWriter, request *http.Request) error {
	form, err := parseForm(request)
	if err != nil {
		return err
	}

	result := rtr.validator.Signup(form)
	if !result.Valid() {
		return result.Err()
	}

	usr, err := rtr.service.Register(request.Context(), result.Value)
	if errors.Is(err, models.ErrUserExists) {
		return rtr.flashAndRedirect(response, request, sessionstore.FlashError, err.Error(), signupPath)
	}
	if err != nil {
		return err
	}

	if _, err := rtr.auth.LogIn(response, request, usr, listingsPath); err != nil {
		return err
	}

	return rtr.flashAndRedirect(response, request, sessionstore.FlashSuccess, messageWelcome, listingsPath)
}

func (rtr *Router) GetLogin(response http.ResponseWriter, request *http.Request) error {
	return rtr.render(response, request, views.PageLogin, "Log in", nil)
}

// PostLogin sends the user back to the page that asked for a login, if any.
func (rtr *Router) PostLogin(response http.ResponseWriter, request *http.Request) error {
	form, err := parseForm(request)
	if err != nil {
		return err
	}

	result := rtr.validator.Login(form)
	if !result.Valid() {
		return rtr.flashAndRedirect(response, request, sessionstore.FlashError, models.ErrInvalidCredentials.Error(), auth.LoginPath)
	}

	usr, err := rtr.service.Authenticate(request.Context(), result.Value.Username, result.Value.Password)
	if errors.Is(err, models.ErrInvalidCredentials) {
		return rtr.flashAndRedirect(response, request, sessionstore.FlashError, err.Error(), auth.LoginPath)
	}
	if err != nil {
		return err
	}

	redirectURL, err := rtr.auth.LogIn(response, request, usr, listingsPath)
	if err != nil {
		return err
	}

	return rtr.flashAndRedirect(response, request, sessionstore.FlashSuccess, messageWelcomeBack, redirectURL)
}

func (rtr *Router) GetLogout(response http.ResponseWriter, request *http.Request) error {
	if err := rtr.auth.LogOut(response, request); err != nil {
		return err
	}

	return rtr.flashAndRedirect(response, request, sessionstore.FlashSuccess, messageLoggedOut, listingsPath)
}
