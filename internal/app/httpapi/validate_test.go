package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAndValidateRejectsMissingRequiredField(t *testing.T) {
	body := bytes.NewBufferString(`{"metadata":{}}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/runs", body)

	var dst createRunRequest
	err := decodeAndValidate(req, &dst)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SpecDigest")
}

func TestDecodeAndValidateAcceptsValidBody(t *testing.T) {
	body := bytes.NewBufferString(`{"spec_digest":"sha256:abc"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/runs", body)

	var dst createRunRequest
	err := decodeAndValidate(req, &dst)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dst.SpecDigest, "sha256:"))
}
