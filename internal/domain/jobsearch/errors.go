package jobsearch

import (
	"context"
	"errors"
	"fmt"

	"github.com/janhq/jobsuche-mcp/internal/domain/projection"
	"github.com/janhq/jobsuche-mcp/utils/platformerrors"
)

var (
	ErrInvalidFilter    = errors.New("invalid filter")
	ErrNotFound         = errors.New("job not found")
	ErrUpstream         = errors.New("upstream error")
	ErrInvalidFieldSpec = projection.ErrInvalidFieldSpec
)

// ErrorKind is the caller-facing classification of a failure.
type ErrorKind string

const (
	KindInvalidFilter    ErrorKind = "InvalidFilter"
	KindNotFound         ErrorKind = "NotFound"
	KindUpstream         ErrorKind = "UpstreamError"
	KindInvalidFieldSpec ErrorKind = "InvalidFieldSpec"
	KindCancelled        ErrorKind = "Cancelled"
	KindInternal         ErrorKind = "Internal"
)

// KindOf classifies err. When err joins several failures the first classified
// one wins.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}
	if kind := firstKind(err); kind != "" {
		return kind
	}
	return KindInternal
}

func firstKind(err error) ErrorKind {
	switch err {
	case ErrInvalidFilter:
		return KindInvalidFilter
	case ErrNotFound:
		return KindNotFound
	case ErrUpstream:
		return KindUpstream
	case ErrInvalidFieldSpec:
		return KindInvalidFieldSpec
	}
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range x.Unwrap() {
			if kind := firstKind(inner); kind != "" {
				return kind
			}
		}
	case interface{ Unwrap() error }:
		if inner := x.Unwrap(); inner != nil {
			return firstKind(inner)
		}
	}
	return ""
}

// ErrorType maps a kind onto the platform error type used for HTTP status codes.
func (k ErrorKind) ErrorType() platformerrors.ErrorType {
	switch k {
	case KindInvalidFilter, KindInvalidFieldSpec:
		return platformerrors.ErrorTypeValidation
	case KindNotFound:
		return platformerrors.ErrorTypeNotFound
	case KindUpstream:
		return platformerrors.ErrorTypeExternal
	case KindCancelled:
		return platformerrors.ErrorTypeCancelled
	}
	return platformerrors.ErrorTypeInternal
}

// Describe returns the message a caller should see for err, without the
// layer and uuid decoration of platform errors.
func Describe(err error) string {
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) && platformErr.Message != "" {
		return platformErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func outcomeError(err error) *OutcomeError {
	return &OutcomeError{Kind: KindOf(err), Message: Describe(err)}
}

func invalidFilterf(ctx context.Context, format string, args ...any) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
		fmt.Sprintf(format, args...), ErrInvalidFilter, "5b0f1b8e-7d0c-4a4c-9a55-3f3c1d5e2a10")
}

// ValidateFields checks a field spec and classifies a bad one as InvalidFieldSpec.
func ValidateFields(ctx context.Context, spec *projection.FieldSpec) error {
	if err := spec.Validate(); err != nil {
		return invalidFieldSpec(ctx, err)
	}
	return nil
}

func invalidFieldSpec(ctx context.Context, err error) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
		"fields.include_fields and fields.exclude_fields cannot both be set", err, "c1d7a0f4-3b8e-4f61-b2c9-8e4a6d2f7b31")
}

func aborted(ctx context.Context, err error) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeCancelled,
		"operation cancelled", err, "9e2c4b71-6a3d-4f0e-8b5a-2d7c1e9f4a06")
}
