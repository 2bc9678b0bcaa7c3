package verify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func servePage(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVerifyPostMatchesTitleTag(t *testing.T) {
	srv := servePage(t, http.StatusOK,
		`<html><head><title>Sample Post – Example Site</title></head><body></body></html>`)
	err := New(time.Second).VerifyPost(context.Background(), srv.URL, "Sample Post")
	assert.NoError(t, err)
}

func TestVerifyPostMatchesHeading(t *testing.T) {
	srv := servePage(t, http.StatusOK,
		`<html><head><title>Example Site</title></head><body><h1>Sample Post</h1></body></html>`)
	err := New(time.Second).VerifyPost(context.Background(), srv.URL, "Sample Post")
	assert.NoError(t, err)
}

func TestVerifyPostCaseInsensitive(t *testing.T) {
	srv := servePage(t, http.StatusOK,
		`<html><body><h1>SAMPLE POST</h1></body></html>`)
	err := New(time.Second).VerifyPost(context.Background(), srv.URL, "Sample Post")
	assert.NoError(t, err)
}

func TestVerifyPostTitleAbsent(t *testing.T) {
	srv := servePage(t, http.StatusOK,
		`<html><head><title>Something Else</title></head><body><h1>Other</h1></body></html>`)
	err := New(time.Second).VerifyPost(context.Background(), srv.URL, "Sample Post")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sample Post")
}

func TestVerifyPostNon200(t *testing.T) {
	srv := servePage(t, http.StatusNotFound, "not found")
	err := New(time.Second).VerifyPost(context.Background(), srv.URL, "Sample Post")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestVerifyPostUnreachable(t *testing.T) {
	err := New(100*time.Millisecond).VerifyPost(context.Background(), "http://127.0.0.1:1/nope", "Sample Post")
	require.Error(t, err)
}
