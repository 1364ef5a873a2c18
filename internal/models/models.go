// Package models holds the domain records shared by storage, service and router layers.
package models

import (
	"errors"
	"strconv"
	"time"
)

// Listing is a rentable property record.
type Listing struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Price       float64   `json:"price"`
	Location    string    `json:"location"`
	Country     string    `json:"country"`
	Reviews     []string  `json:"reviews"`
	CreatedAt   time.Time `json:"created_at"`
}

// Review is a user-authored rating attached to one listing.
type Review struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	Comment   string    `json:"comment"`
	Rating    int       `json:"rating"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// User is a registered account. PasswordHash is a bcrypt hash, which carries its own salt.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// SessionRecord is the server-side half of a browser session.
// Data is the securecookie-encoded session values.
type SessionRecord struct {
	ID        string    `json:"id"`
	Data      string    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
	TouchedAt time.Time `json:"touched_at"`
}

// ListingWithReviews is a listing with its reviews expanded.
type ListingWithReviews struct {
	Listing
	ReviewDocs []Review
}

// Stats is the payload of the internal statistics endpoint.
type Stats struct {
	Listings int64 `json:"listings"`
	Reviews  int64 `json:"reviews"`
	Users    int64 `json:"users"`
}

const (
	StorageTypeUnknown = iota
	StorageTypeMongo
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)

var (
	ErrUserExists         = errors.New("A user with the given username is already registered")
	ErrInvalidCredentials = errors.New("Password or username is incorrect")
	ErrNotReviewAuthor    = errors.New("You are not the author of this review")
)

// ListingPayload is the listing form as submitted. Price stays textual until validated.
type ListingPayload struct {
	Title       string `form:"title" validate:"required,max=200"`
	Description string `form:"description" validate:"max=5000"`
	Image       string `form:"image" validate:"omitempty,url"`
	Price       string `form:"price" validate:"required,numeric,nonnegative"`
	Location    string `form:"location" validate:"max=200"`
	Country     string `form:"country" validate:"max=100"`
}

// ToListing converts a validated payload into a listing record.
func (p ListingPayload) ToListing() *Listing {
	price, _ := strconv.ParseFloat(p.Price, 64)

	return &Listing{
		Title:       p.Title,
		Description: p.Description,
		Image:       p.Image,
		Price:       price,
		Location:    p.Location,
		Country:     p.Country,
	}
}

// ReviewPayload is the review form. An unparsable rating arrives as 0.
type ReviewPayload struct {
	Rating  int    `form:"rating" validate:"required,min=1,max=5"`
	Comment string `form:"comment" validate:"required,max=2000"`
}

// SignupPayload is the registration form.
type SignupPayload struct {
	Username string `form:"username" validate:"required,max=64"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// LoginPayload is the login form.
type LoginPayload struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}
