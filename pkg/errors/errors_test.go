package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/NMReportChecker/pkg/errors"
)

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"empty report", errors.ErrCodeReportEmpty, "report text is empty"},
		{"invalid param", errors.CodeInvalidParam, "points must be at least 2"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
		})
	}
}

func TestAppError_ErrorFormat(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeAnalysisNotFound, "analysis not found")
	assert.Equal(t, "[NMR_006] analysis not found", ae.Error())
	assert.Equal(t, "[NMR_006] analysis not found: id=42", ae.WithDetail("id=42").Error())
}

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "should not matter"))
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := stderrors.New("connection refused")
	wrapped := errors.Wrap(root, errors.CodeDatabaseError, "failed to store analysis")

	require.NotNil(t, wrapped)
	assert.True(t, stderrors.Is(wrapped, root))
	assert.Equal(t, root, wrapped.Unwrap())
}

func TestWrap_UnknownCodeKeepsOriginal(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeArchiveFailed, "upload failed")
	outer := errors.Wrap(inner, errors.CodeUnknown, "archive step")

	assert.Equal(t, errors.ErrCodeArchiveFailed, outer.Code)
}

func TestIsCode_TraversesFmtWrapping(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeReportTooLarge, "too large")
	err := fmt.Errorf("analyze: %w", inner)

	assert.True(t, errors.IsCode(err, errors.ErrCodeReportTooLarge))
	assert.False(t, errors.IsCode(err, errors.ErrCodeReportEmpty))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsNotFound(errors.New(errors.ErrCodeAnalysisNotFound, "missing")))
	assert.True(t, errors.IsNotFound(errors.NotFound("missing")))
	assert.False(t, errors.IsNotFound(errors.Internal("boom")))
	assert.False(t, errors.IsNotFound(nil))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.CodeInvalidParam, errors.GetCode(errors.InvalidParam("bad")))
}

func TestWithCause_NilReceiver(t *testing.T) {
	t.Parallel()

	var ae *errors.AppError
	assert.Nil(t, ae.WithCause(stderrors.New("x")))
	assert.Nil(t, ae.WithDetail("x"))
}

//Personal.AI order the ending
