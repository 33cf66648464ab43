package handler

import "github.com/iliyamo/movie-review-api/internal/service"

// Validator plugs the service validation rules into echo.Context.Validate.
// Failures come back as *service.ValidationError.
type Validator struct{}

func (Validator) Validate(i interface{}) error { return service.Validate(i) }
