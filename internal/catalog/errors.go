package catalog

import "errors"

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrSlugExists         = errors.New("slug already exists")
	ErrInvalidProduct     = errors.New("invalid product")
	ErrInvalidCollection  = errors.New("invalid collection")
	ErrInvalidSettings    = errors.New("invalid settings")
)
