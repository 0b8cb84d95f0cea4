package aravis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTakeErrorNil(t *testing.T) {
	assert.NoError(t, takeError("Op", nil))
}

func TestTakeErrorTranslatesAndFrees(t *testing.T) {
	var freed []*gError
	swap(t, &g_error_free, func(e *gError) { freed = append(freed, e) })
	swap(t, &g_quark_to_string, func(q uint32) string {
		assert.Equal(t, uint32(7), q)
		return "arv-device-error-quark"
	})

	gerr := newGError(3, "feature not found")
	err := takeError("GetInteger", gerr)

	var aerr *Error
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, "GetInteger", aerr.Op)
	assert.Equal(t, "arv-device-error-quark", aerr.Domain)
	assert.Equal(t, 3, aerr.Code)
	assert.Equal(t, "feature not found", aerr.Message)
	assert.Equal(t, "aravis.GetInteger: feature not found (arv-device-error-quark:3)", err.Error())
	assert.Equal(t, []*gError{gerr}, freed)
}

func TestTakeErrorEmptyMessage(t *testing.T) {
	swap(t, &g_error_free, func(*gError) {})
	swap(t, &g_quark_to_string, func(uint32) string { return "" })

	err := takeError("Gain", &gError{code: 1})
	assert.EqualError(t, err, "aravis.Gain: unknown error")
}

func TestClosedError(t *testing.T) {
	err := closedError("camera")
	assert.True(t, errors.Is(err, ErrClosed))
	assert.EqualError(t, err, "camera: aravis: resource already released")
}
