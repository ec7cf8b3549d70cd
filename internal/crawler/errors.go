package crawler

import "errors"

// ErrCategoryNotFound is returned when a category page lists neither a name nor forums.
var ErrCategoryNotFound = errors.New("category not found")
