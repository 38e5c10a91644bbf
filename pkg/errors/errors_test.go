package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	assert.Equal(t, http.StatusConflict, MetadataFor(CodeInsufficientStock).HTTPStatus)
	assert.True(t, MetadataFor(CodeInsufficientStock).DetailsAllowed)
	assert.Equal(t, http.StatusUnprocessableEntity, MetadataFor(CodeStateConflict).HTTPStatus)
	assert.True(t, MetadataFor(CodeRateLimited).Retryable)
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NO_SUCH_CODE"))
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
	assert.Equal(t, "internal server error", meta.PublicMessage)
}

func TestWrapPreservesCauseChain(t *testing.T) {
	cause := fmt.Errorf("row not found")
	err := Wrap(CodeNotFound, cause, "order not found")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "NOT_FOUND: order not found", err.Error())
	assert.Equal(t, CodeNotFound, err.Code())
}

func TestAsFindsTypedErrorThroughWrapping(t *testing.T) {
	typed := New(CodeEmptyCart, "cart is empty").WithDetails(map[string]any{"cart_id": "abc"})
	wrapped := fmt.Errorf("checkout: %w", typed)

	found := As(wrapped)
	require.NotNil(t, found)
	assert.Equal(t, CodeEmptyCart, found.Code())
	assert.NotNil(t, found.Details())

	assert.Nil(t, As(fmt.Errorf("plain")))
	assert.Nil(t, As(nil))
}

func TestNilReceiverIsSafe(t *testing.T) {
	var err *Error
	assert.Equal(t, CodeInternal, err.Code())
	assert.Empty(t, err.Message())
	assert.Nil(t, err.Details())
	assert.Nil(t, err.WithDetails("x"))
	assert.Empty(t, err.Error())
	assert.Nil(t, err.Unwrap())
}
