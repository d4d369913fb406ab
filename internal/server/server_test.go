package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/resume-matcher/internal/extract"
	"github.com/spigell/resume-matcher/internal/matching"
	"github.com/spigell/resume-matcher/internal/results"
	"github.com/spigell/resume-matcher/internal/uploads"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// lengthMatcher scores every document by the length of its text.
type lengthMatcher struct {
	jd     string
	method string
	docs   []matching.Document
}

func (m *lengthMatcher) Run(_ context.Context, jd string, docs []matching.Document, method string) (*matching.Batch, error) {
	m.jd, m.method, m.docs = jd, method, docs

	items := make([]results.Result, 0, len(docs))
	for i, d := range docs {
		items = append(items, results.Result{
			Filename: d.Filename,
			Score:    float64(len(d.Text)),
			Reason:   "length",
			Index:    i,
			Path:     d.Path,
		})
	}
	return &matching.Batch{Method: method, JobDescription: strings.ToLower(jd), Results: results.NewSet(items)}, nil
}

type upload struct {
	field, name, body string
}

func multipartBody(t *testing.T, fields map[string]string, files ...upload) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		w, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = io.WriteString(w, f.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func newTestServer(t *testing.T, cfg Config) (*Server, *lengthMatcher, results.Store) {
	t.Helper()

	sessions, err := NewSessions(testSecret, time.Hour)
	require.NoError(t, err)
	storage, err := uploads.NewStorage(t.TempDir())
	require.NoError(t, err)

	matcher := &lengthMatcher{}
	store := results.NewMemory()
	srv, err := New(cfg, Deps{
		Matcher:   matcher,
		Extractor: extract.New(nil),
		Store:     store,
		Uploads:   storage,
		Sessions:  sessions,
	})
	require.NoError(t, err)
	return srv, matcher, store
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatalf("response has no %s cookie", SessionCookie)
	return nil
}

func decodeJSON(t *testing.T, body io.Reader, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(body).Decode(v))
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t, Config{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMatchRequiresJobDescription(t *testing.T) {
	srv, matcher, _ := newTestServer(t, Config{})

	body, ct := multipartBody(t, map[string]string{"job_description": "   "}, upload{"files", "a.txt", "resume"})
	req := httptest.NewRequest(http.MethodPost, "/match", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Please upload or paste a job description."}`, rec.Body.String())
	assert.Nil(t, matcher.docs)
}

func TestMatchRequiresFiles(t *testing.T) {
	srv, _, _ := newTestServer(t, Config{})

	body, ct := multipartBody(t, map[string]string{"job_description": "Go developer"})
	req := httptest.NewRequest(http.MethodPost, "/match", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), missingFilesMessage)
}

func TestMatchResultsAndDownload(t *testing.T) {
	srv, matcher, _ := newTestServer(t, Config{DefaultMethod: "hybrid"})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body, ct := multipartBody(t,
		map[string]string{"job_description": "Senior Go Developer"},
		upload{"files", "short.txt", "go"},
		upload{"files", "long.txt", "go, kubernetes, postgres"},
		upload{"files", "photo.png", "binary"},
	)
	resp, err := http.Post(ts.URL+"/match", ct, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var matched matchResponse
	decodeJSON(t, resp.Body, &matched)
	assert.Equal(t, "hybrid", matched.ScoringMethod)
	assert.Equal(t, "senior go developer", matched.JobDescription)
	_, err = uuid.Parse(matched.BatchID)
	require.NoError(t, err)

	require.Len(t, matched.Results, 3)
	assert.Equal(t, "long.txt", matched.Results[0].Filename)
	assert.Equal(t, "short.txt", matched.Results[1].Filename)
	assert.Equal(t, "photo.png", matched.Results[2].Filename)
	require.ErrorIs(t, matcher.docs[2].Err, extract.ErrUnsupportedFormat)
	assert.Equal(t, "Senior Go Developer", matcher.jd)

	cookie := sessionCookie(t, resp)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/results", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()

	var stored resultsResponse
	decodeJSON(t, resp2.Body, &stored)
	require.Len(t, stored.Results, 3)
	assert.Equal(t, "long.txt", stored.Results[0].Filename)

	form := url.Values{"top_n": {"2"}, "zip_name": {"shortlist"}}
	req, err = http.NewRequest(http.MethodPost, ts.URL+"/download-zip", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	resp3, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp3.Body.Close()

	require.Equal(t, http.StatusOK, resp3.StatusCode)
	assert.Equal(t, "application/zip", resp3.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="shortlist.zip"`, resp3.Header.Get("Content-Disposition"))

	data, err := io.ReadAll(resp3.Body)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	names := []string{}
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"long.txt", "short.txt"}, names)
}

func TestMatchPrefersJobDescriptionFile(t *testing.T) {
	srv, matcher, _ := newTestServer(t, Config{})

	body, ct := multipartBody(t,
		map[string]string{"job_description": "pasted", "scoring_method": "cosine"},
		upload{"jd_file", "jd.txt", "From the file"},
		upload{"files", "a.txt", "resume"},
	)
	req := httptest.NewRequest(http.MethodPost, "/match", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "From the file", matcher.jd)
	assert.Equal(t, "cosine", matcher.method)
}

func TestMatchFallsBackToPastedText(t *testing.T) {
	srv, matcher, _ := newTestServer(t, Config{})

	body, ct := multipartBody(t,
		map[string]string{"job_description": "pasted"},
		upload{"jd_file", "jd.png", "???"},
		upload{"files", "a.txt", "resume"},
	)
	req := httptest.NewRequest(http.MethodPost, "/match", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pasted", matcher.jd)
	assert.Equal(t, "llm", matcher.method)
}

func TestResultsWithoutSession(t *testing.T) {
	srv, _, _ := newTestServer(t, Config{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"results":[]}`, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Set-Cookie"), SessionCookie+"=")
}

func TestDownloadZipValidation(t *testing.T) {
	srv, _, _ := newTestServer(t, Config{})

	for _, topN := range []string{"", "abc", "0"} {
		form := url.Values{"top_n": {topN}}
		req := httptest.NewRequest(http.MethodPost, "/download-zip", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "top_n=%q", topN)
	}

	form := url.Values{"top_n": {"3"}}
	req := httptest.NewRequest(http.MethodPost, "/download-zip", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMatchRateLimited(t *testing.T) {
	srv, _, _ := newTestServer(t, Config{RateLimit: 0.001, Burst: 1})
	h := srv.Handler()

	send := func() int {
		body, ct := multipartBody(t, map[string]string{"job_description": "jd"}, upload{"files", "a.txt", "x"})
		req := httptest.NewRequest(http.MethodPost, "/match", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestClientLimiterEvictsIdleClients(t *testing.T) {
	cl := newClientLimiter(0.5, 1)
	require.Equal(t, time.Minute, cl.idle)

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cl.now = func() time.Time { return clock }

	cl.limiterFor("10.0.0.1")
	busy := cl.limiterFor("10.0.0.2")

	clock = clock.Add(30 * time.Second)
	assert.Same(t, busy, cl.limiterFor("10.0.0.2"))

	clock = clock.Add(40 * time.Second)
	cl.limiterFor("10.0.0.3")

	assert.Len(t, cl.m, 2)
	assert.NotContains(t, cl.m, "10.0.0.1")
	assert.Same(t, busy, cl.limiterFor("10.0.0.2"))
}

func TestClientLimiterIdleFollowsRefill(t *testing.T) {
	cl := newClientLimiter(0.001, 1)
	assert.Equal(t, 1000*time.Second, cl.idle)
}

func TestCORSPreflight(t *testing.T) {
	srv, _, _ := newTestServer(t, Config{AllowedOrigins: []string{"http://localhost:3000"}})

	req := httptest.NewRequest(http.MethodOptions, "/match", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRunShutsDownOnCancel(t *testing.T) {
	srv, _, _ := newTestServer(t, Config{Addr: "127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
