package genai

import "errors"

var (
	ErrMissingAPIKey    = errors.New("genai api key is required")
	ErrUnavailable      = errors.New("genai service unavailable")
	ErrInvalidResponse  = errors.New("invalid response from genai")
	ErrEmptyCandidates  = errors.New("genai returned no candidates")
	ErrContentBlocked   = errors.New("genai blocked the content")
	ErrNoImageInContent = errors.New("no image in genai response")
)
