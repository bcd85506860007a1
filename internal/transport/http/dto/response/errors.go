package response

var (
	ErrInvalidRequestFormat = ErrorResponse{
		Status:  "error",
		Error:   "invalid_request",
		Details: "Invalid request format",
	}

	ErrInvalidID = ErrorResponse{
		Status:  "error",
		Error:   "invalid_request",
		Details: "Invalid id format",
	}
)
