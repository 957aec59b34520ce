package terminal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/antibyte/zen/pkg/shared"
)

const (
	MaxRequestArgs   = 64
	MaxRequestArgLen = 32
)

var (
	ErrUnknownRequest = errors.New("unknown request type")
	ErrTooManyArgs    = errors.New("too many arguments")
	ErrArgTooLong     = errors.New("argument too long")
)

// RequestValidator decodes and checks client requests.
type RequestValidator struct {
	MaxArgs   int
	MaxArgLen int
}

// NewRequestValidator creates a validator with the default limits.
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		MaxArgs:   MaxRequestArgs,
		MaxArgLen: MaxRequestArgLen,
	}
}

// Decode parses data as a shared.Request. Unknown fields are rejected.
func (v *RequestValidator) Decode(data []byte) (shared.Request, error) {
	var req shared.Request

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return req, fmt.Errorf("invalid JSON: %w", err)
	}

	switch req.Type {
	case shared.RequestRun:
		if len(req.Args) > v.MaxArgs {
			return req, fmt.Errorf("%w: %d > %d", ErrTooManyArgs, len(req.Args), v.MaxArgs)
		}
		for i, arg := range req.Args {
			if len(arg) > v.MaxArgLen {
				return req, fmt.Errorf("%w: argument %d", ErrArgTooLong, i+1)
			}
		}
	case shared.RequestStop:
	default:
		return req, fmt.Errorf("%w: %q", ErrUnknownRequest, req.Type)
	}
	return req, nil
}
