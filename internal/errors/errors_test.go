package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisError_ErrorMessage(t *testing.T) {
	underlying := errors.New("permission denied")
	err := NewAnalysisError(ErrorTypeFilesystem, "stat", underlying).WithPath("/a/b.go")

	assert.Contains(t, err.Error(), "filesystem")
	assert.Contains(t, err.Error(), "stat")
	assert.Contains(t, err.Error(), "/a/b.go")
	assert.ErrorIs(t, err, underlying)
}

func TestAnalysisError_WithoutPath(t *testing.T) {
	err := NewAnalysisError(ErrorTypeInternal, "walk", errors.New("boom"))
	assert.NotContains(t, err.Error(), "for ")
}

func TestRootInvalid_IsFatal(t *testing.T) {
	err := NewRootInvalid("/missing", errors.New("no such file"))
	assert.True(t, err.IsFatal())
	assert.Equal(t, ErrorTypeRootInvalid, err.Type)
}

func TestNonRootErrors_AreNotFatal(t *testing.T) {
	for _, et := range []ErrorType{ErrorTypeFilesystem, ErrorTypeParse, ErrorTypeDependency, ErrorTypeConfig, ErrorTypeInternal} {
		err := NewAnalysisError(et, "op", errors.New("x"))
		assert.False(t, err.IsFatal(), "type %s should not be fatal", et)
	}
}

func TestMultiError_FiltersNil(t *testing.T) {
	me := NewMultiError([]error{nil, errors.New("a"), nil, errors.New("b")})
	require.Len(t, me.Errors, 2)
	assert.Contains(t, me.Error(), "2 errors")
}

func TestMultiError_Empty(t *testing.T) {
	me := NewMultiError(nil)
	assert.Equal(t, "no errors", me.Error())
}

func TestMultiError_Single(t *testing.T) {
	me := NewMultiError([]error{errors.New("only")})
	assert.Equal(t, "only", me.Error())
}
