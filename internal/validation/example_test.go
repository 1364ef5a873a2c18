package validation_test

import (
	"fmt"
	"net/url"

	"github.com/patric-chuzhbe/wanderlust/internal/validation"
)

func ExampleValidator_Listing() {
	v, err := validation.New()
	if err != nil {
		panic(err)
	}

	result := v.Listing(url.Values{"title": {"Beach house"}})
	fmt.Println(result.Valid())
	fmt.Println(result.Message())

	// Output:
	// false
	// "price" is required
}
