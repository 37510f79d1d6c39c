package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
)

func TestRunNotFoundCarriesDetails(t *testing.T) {
	err := aerr.RunNotFound("run-1")
	require.True(t, aerr.IsServiceError(err))
	se := aerr.GetServiceError(err)
	require.NotNil(t, se)
	assert.Equal(t, aerr.ErrCodeRunNotFound, se.Code)
	assert.Equal(t, "run-1", se.Details["run_id"])
}

func TestDigestMismatchWrapsBothValues(t *testing.T) {
	err := aerr.DigestMismatch("aaaa", "bbbb")
	se := aerr.GetServiceError(err)
	require.NotNil(t, se)
	assert.Equal(t, "aaaa", se.Details["expected"])
	assert.Equal(t, "bbbb", se.Details["actual"])
	assert.True(t, aerr.Is(err, aerr.ErrCodeDigestMismatch))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := aerr.Backend("write failed", cause)
	assert.ErrorIs(t, err, cause)
}

func TestGetHTTPStatusDefaultsTo500ForUnknownErrors(t *testing.T) {
	assert.Equal(t, 500, aerr.GetHTTPStatus(fmt.Errorf("plain")))
}
