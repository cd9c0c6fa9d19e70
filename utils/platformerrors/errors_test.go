package platformerrors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSentinel = errors.New("sentinel")

func TestNewError_CarriesRequestIDAndUUID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")

	err := NewError(ctx, LayerDomain, ErrorTypeValidation, "bad input", errSentinel, "")

	require.NotNil(t, err)
	assert.Equal(t, "req-42", err.GetRequestID())
	assert.NotEmpty(t, err.GetUUID())
	assert.ErrorIs(t, err, errSentinel)
	assert.Contains(t, err.Error(), "bad input (VALIDATION, domain layer")
}

func TestNewError_CallSiteUUID(t *testing.T) {
	err := NewError(context.Background(), LayerRoute, ErrorTypeNotFound, "missing", nil, "fixed-uuid")
	assert.Equal(t, "fixed-uuid", err.GetUUID())
	assert.Equal(t, "missing (NOT_FOUND, route layer, fixed-uuid)", err.Error())
}

func TestWithRequestID_EmptyIsIgnored(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithRequestID(ctx, ""))
	assert.Empty(t, RequestIDFromContext(ctx))
}

func TestErrorType_HTTPStatus(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		want      int
	}{
		{ErrorTypeNotFound, http.StatusNotFound},
		{ErrorTypeValidation, http.StatusBadRequest},
		{ErrorTypeUnauthorized, http.StatusUnauthorized},
		{ErrorTypeExternal, http.StatusBadGateway},
		{ErrorTypeCancelled, http.StatusRequestTimeout},
		{ErrorTypeInternal, http.StatusInternalServerError},
		{ErrorType("UNKNOWN"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.errorType), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.errorType.HTTPStatus())
		})
	}
}

func TestIsErrorType(t *testing.T) {
	err := NewError(context.Background(), LayerDomain, ErrorTypeNotFound, "gone", nil, "")
	assert.True(t, IsErrorType(fmt.Errorf("wrapped: %w", err), ErrorTypeNotFound))
	assert.False(t, IsErrorType(err, ErrorTypeValidation))
	assert.False(t, IsErrorType(nil, ErrorTypeNotFound))
	assert.False(t, IsErrorType(errors.New("plain"), ErrorTypeInternal))
}

func TestAnnotate(t *testing.T) {
	decode := func(t *testing.T, buf *bytes.Buffer) map[string]any {
		t.Helper()
		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		return entry
	}

	t.Run("platform error", func(t *testing.T) {
		var buf bytes.Buffer
		logger := zerolog.New(&buf)
		ctx := WithRequestID(context.Background(), "req-7")
		err := NewError(ctx, LayerInfrastructure, ErrorTypeExternal, "upstream down", errSentinel, "uuid-1")

		Annotate(logger.Warn(), fmt.Errorf("search: %w", err)).Msg("failed")

		entry := decode(t, &buf)
		assert.Equal(t, "uuid-1", entry["error_uuid"])
		assert.Equal(t, "EXTERNAL", entry["error_type"])
		assert.Equal(t, "infrastructure", entry["layer"])
		assert.Equal(t, "req-7", entry["request_id"])
		assert.Contains(t, entry["error"], "sentinel")
	})

	t.Run("plain error", func(t *testing.T) {
		var buf bytes.Buffer
		logger := zerolog.New(&buf)

		Annotate(logger.Warn(), errSentinel).Msg("failed")

		entry := decode(t, &buf)
		assert.Equal(t, "sentinel", entry["error"])
		assert.NotContains(t, entry, "error_uuid")
	})
}
