package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrorTypeConfig, "jobs configuration not provided")

	assert.Equal(t, "config: jobs configuration not provided", err.Error())
	assert.True(t, IsType(err, ErrorTypeConfig))
	assert.False(t, IsType(err, ErrorTypeLoad))
	assert.NotEmpty(t, err.Stack)
}

func TestWrap(t *testing.T) {
	t.Run("nil cause", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, ErrorTypeLoad, "unused"))
	})

	t.Run("plain cause", func(t *testing.T) {
		err := Wrap(io.ErrUnexpectedEOF, ErrorTypeExtraction, "reading file")
		require.NotNil(t, err)
		assert.Equal(t, "extraction: reading file: unexpected EOF", err.Error())
		assert.True(t, stderrors.Is(err, io.ErrUnexpectedEOF))
	})

	t.Run("structured cause keeps stack", func(t *testing.T) {
		inner := New(ErrorTypeFile, "missing")
		outer := Wrap(inner, ErrorTypeLoad, "write")
		assert.Equal(t, inner.Stack, outer.Stack)
		assert.True(t, IsType(outer, ErrorTypeLoad))
		assert.True(t, HasType(outer, ErrorTypeFile))
		assert.False(t, HasType(outer, ErrorTypeQuery))
	})
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorTypeQuery, TypeOf(Newf(ErrorTypeQuery, "bad %s", "sql")))
	assert.Equal(t, ErrorTypeInternal, TypeOf(fmt.Errorf("plain")))
	wrapped := fmt.Errorf("context: %w", New(ErrorTypeCapability, "no check"))
	assert.Equal(t, ErrorTypeCapability, TypeOf(wrapped))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeConstruction, "bad field").
		WithDetail("field", "path").
		WithDetail("connector", "csv")

	assert.Equal(t, "path", err.Details["field"])
	assert.Equal(t, "csv", err.Details["connector"])
}
