package main

import (
	"context"
	"github.com/PuerkitoBio/goquery"
	"github.com/myrjola/deduce/internal/e2etest"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/url"
	"testing"
)

func testLookupEnv(key string) (string, bool) {
	switch key {
	case "DEDUCE_ADDR":
		return "localhost:0", true
	case "DEDUCE_SQLITE_URL":
		return ":memory:", true
	default:
		return "", false
	}
}

// startTestServer runs the application on a random port with an in-memory database until the test ends.
func startTestServer(t *testing.T) *e2etest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	server, err := e2etest.StartServer(ctx, io.Discard, testLookupEnv, run)
	require.NoError(t, err)
	return server
}

func getDoc(t *testing.T, client *e2etest.Client, urlPath string) *goquery.Document {
	t.Helper()
	doc, err := client.GetDoc(context.Background(), urlPath)
	require.NoError(t, err)
	return doc
}

func submit(t *testing.T, client *e2etest.Client, doc *goquery.Document, formSelector string) *goquery.Document {
	t.Helper()
	next, err := client.SubmitForm(context.Background(), doc, formSelector)
	require.NoError(t, err)
	return next
}

// post sends values with the CSRF token found in doc and returns the response after redirects.
func post(t *testing.T, client *e2etest.Client, doc *goquery.Document, urlPath string, values url.Values) *http.Response {
	t.Helper()
	token, ok := doc.Find("input[name=csrf_token]").First().Attr("value")
	require.True(t, ok, "no csrf_token on page")
	values.Set("csrf_token", token)
	resp, err := client.PostForm(context.Background(), urlPath, values)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func readDoc(t *testing.T, resp *http.Response) *goquery.Document {
	t.Helper()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return doc
}
