package api

import "errors"

// ErrInvalidRequestBody is wrapped as dia.BadRequest whenever a handler's
// JSON body fails to decode.
var ErrInvalidRequestBody = errors.New("invalid request body")
