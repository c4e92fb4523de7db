package httpapi

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/dmitrijs2005/feedbackhub/internal/logging"
	"github.com/dmitrijs2005/feedbackhub/internal/server/blobstore"
	"github.com/dmitrijs2005/feedbackhub/internal/server/classify"
	"github.com/dmitrijs2005/feedbackhub/internal/server/models"
	"github.com/dmitrijs2005/feedbackhub/internal/server/services"
	"github.com/dmitrijs2005/feedbackhub/internal/server/storetest"
)

const (
	testAdmin    = "admin"
	testPassword = "correct-horse"
)

type fixedClassifier struct{}

func (fixedClassifier) DetectLanguage(context.Context, string) string { return "en" }
func (fixedClassifier) AnalyzeSentiment(_ context.Context, text string) string {
	if strings.Contains(text, "awful") {
		return classify.Negative
	}
	return classify.Positive
}
func (fixedClassifier) DetectSpam(_ context.Context, text string) (bool, float64) {
	if strings.Contains(text, "casino") {
		return true, 0.875
	}
	return false, 0.125
}

type testServer struct {
	srv          Server
	institutions *services.InstitutionService
	admins       *services.AdminService
	intake       *services.IntakeService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, rm := storetest.Open(t)
	blobs, err := blobstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	logger := logging.Nop()
	ts := &testServer{
		institutions: services.NewInstitutionService(db, rm, logger),
		admins:       services.NewAdminService(db, rm, logger),
	}
	ts.intake = services.NewIntakeService(db, rm, fixedClassifier{}, blobs, logger)

	ts.srv = NewServer(&Options{
		MaxUploadBytes: 1 << 20,
		DisableReqLogs: true,
		Logger:         logger,
		Institutions:   ts.institutions,
		Admins:         ts.admins,
		Intake:         ts.intake,
		Retrieval:      services.NewRetrievalService(db, rm, ts.admins, blobs, logger),
	})

	created, err := ts.admins.AddAdmin(context.Background(), testAdmin, testPassword)
	require.NoError(t, err)
	require.True(t, created)

	return ts
}

func (ts *testServer) register(t *testing.T, name string) *models.Institution {
	t.Helper()
	inst, err := ts.institutions.Register(context.Background(), name)
	require.NoError(t, err)
	return inst
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.srv.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) admin(method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	req.SetBasicAuth(testAdmin, testPassword)
	return ts.do(req)
}

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, content := range files {
		fw, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func parseHTML(t *testing.T, body string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// findAll returns the element nodes for which match is true, in document order.
func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func byID(id string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		v, ok := attr(n, "id")
		return ok && v == id
	}
}

func hasAttr(key string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		_, ok := attr(n, key)
		return ok
	}
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

// textByID returns the text of the element with the given id, or "" with
// ok=false when there is none.
func textByID(t *testing.T, body, id string) (string, bool) {
	t.Helper()
	nodes := findAll(parseHTML(t, body), byID(id))
	if len(nodes) == 0 {
		return "", false
	}
	return textOf(nodes[0]), true
}

// fieldErrors returns the data-field names that carry an error message.
func fieldErrors(t *testing.T, body string) []string {
	t.Helper()
	var fields []string
	for _, n := range findAll(parseHTML(t, body), hasAttr("data-field")) {
		if v, _ := attr(n, "class"); v == "field-error" {
			f, _ := attr(n, "data-field")
			fields = append(fields, f)
		}
	}
	return fields
}
