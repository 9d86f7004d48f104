package services

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }
