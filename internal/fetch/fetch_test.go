package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><body><h1>Test</h1><p>Body</p></body></html>"))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, result.HTML, "<h1>Test</h1>")
	assert.Equal(t, "Test\nBody", result.Text)
	assert.Equal(t, http.StatusOK, result.StatusCode)
}

func TestURL_InvalidURL(t *testing.T) {
	_, err := URL(context.Background(), "not-a-valid-url", nil)
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestURL_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.NotNil(t, result) // Result is returned even on error
	assert.Equal(t, http.StatusNotFound, result.StatusCode)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "404")
}

func TestURL_CustomHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "custom-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "en-GB", r.Header.Get("Accept-Language"))
		_, _ = w.Write([]byte("<p>ok</p>"))
	}))
	defer server.Close()

	opts := &Options{UserAgent: "custom-agent", Headers: map[string]string{"Accept-Language": "en-GB"}}
	result, err := URL(context.Background(), server.URL, opts)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Text)
}

func TestExtractText_RemovesNoise(t *testing.T) {
	html := `
	<html>
		<head><title>Quant Dev</title><style>body { color: red }</style></head>
		<body>
			<script>var x = 1;</script>
			<noscript>Enable JS</noscript>
			<svg><text>icon</text></svg>
			<img src="logo.png" alt="Logo">
			<h1>  Quant Developer  </h1>
			<!-- hidden comment -->
			<p>Build <b>low-latency</b> systems.</p>
			<ul><li>C++</li><li>Python</li></ul>
		</body>
	</html>`

	text, err := ExtractText(html)
	require.NoError(t, err)
	assert.Equal(t, "Quant Dev\nQuant Developer\nBuild\nlow-latency\nsystems.\nC++\nPython", text)
}

func TestExtractText_Empty(t *testing.T) {
	text, err := ExtractText("")
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestShouldUseBrowser(t *testing.T) {
	assert.True(t, ShouldUseBrowser("   short   "))
	assert.False(t, ShouldUseBrowser(strings.Repeat("x", MinContentLength)))
}

func TestPageText_NoBrowserFallbackWhenDisabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<div id=root>Loading</div>"))
	}))
	defer server.Close()

	text, err := PageText(context.Background(), server.URL, nil, false, false)
	require.NoError(t, err)
	assert.Equal(t, "Loading", text)
}

func TestPageText_PropagatesFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := PageText(context.Background(), server.URL, nil, false, false)
	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
}
