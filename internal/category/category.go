package category

import "errors"

var ErrInvalidLimit = errors.New("limit must be between 1 and 100")

const maxLimit = 100

// Category is a distinct product category with the number of listed
// products carrying it.
type Category struct {
	Name         string `json:"name"`
	ProductCount int    `json:"product_count"`
}
