package domain

import "errors"

// Job-facing failure messages are recorded verbatim on the job, so these
// read like user-visible text rather than Go error prose.
var (
	ErrJobNotFound     = errors.New("job not found")
	ErrNoProducts      = errors.New("No products in this category")
	ErrNoProductImages = errors.New("No product images found")
)
