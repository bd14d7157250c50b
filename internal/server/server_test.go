package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	theme "github.com/goliatone/go-theme"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/storage"
	"github.com/goliatone/go-formflow/pkg/testsupport"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type client struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func newClient(t *testing.T, srv *Server) *client {
	t.Helper()
	return &client{t: t, handler: srv.Handler()}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	if set := rec.Result().Cookies(); len(set) > 0 {
		c.cookies = set
	}
	return rec
}

func (c *client) get(target string) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (c *client) post(target string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// submit posts answers for page and returns the redirect target.
func (c *client) submit(page, action string, answers url.Values) string {
	c.t.Helper()
	form := url.Values{"_page": {page}, "_action": {action}}
	for key, values := range answers {
		form[key] = values
	}
	rec := c.post(PathForm, form)
	require.Equal(c.t, http.StatusSeeOther, rec.Code, rec.Body.String())
	return rec.Header().Get("Location")
}

func pageURL(code string) string {
	return PathForm + "?page=" + url.QueryEscape(code)
}

func newServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	srv, err := New(testsupport.IntakeConfig(), opts...)
	require.NoError(t, err)
	return srv
}

func TestFullWalkThrough(t *testing.T) {
	var submissions []model.Submission
	srv := newServer(t, WithOnSubmit(func(sub model.Submission) {
		submissions = append(submissions, sub)
	}))
	c := newClient(t, srv)

	rec := c.get(PathForm)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, pageURL(model.PagePreview), rec.Header().Get("Location"))
	require.NotEmpty(t, c.cookies, "session cookie must be set")

	rec = c.get(pageURL(model.PagePreview))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h2>Welcome</h2>")

	assert.Equal(t, pageURL("basicInfo"), c.submit(model.PagePreview, ActionStart, nil))

	location := c.submit("basicInfo", ActionNext, url.Values{"firstName": {""}, "age": {"12"}})
	assert.Equal(t, pageURL("basicInfo"), location)
	rec = c.get(location)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "First Name is required")
	assert.Contains(t, body, "Age must be at least 18")

	assert.Equal(t, pageURL("medicalHistory"),
		c.submit("basicInfo", ActionNext, url.Values{"firstName": {"Ada"}, "age": {"42"}}))

	// Choosing "Other" reveals a required follow-up.
	assert.Equal(t, pageURL("medicalHistory"),
		c.submit("medicalHistory", ActionNext, url.Values{"allergies": {"Dust", "Other"}}))
	rec = c.get(pageURL("medicalHistory"))
	assert.Contains(t, rec.Body.String(), "Other Allergies is required")

	assert.Equal(t, pageURL("insurance"),
		c.submit("medicalHistory", ActionNext, url.Values{"allergies": {"Dust", "Other"}, "otherAllergies": {"Cats"}}))
	assert.Equal(t, pageURL(model.PageReview),
		c.submit("insurance", ActionNext, url.Values{"provider": {"Acme"}}))

	rec = c.get(pageURL(model.PageReview))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<p>Name: Ada</p>")

	// Consent gate.
	assert.Equal(t, pageURL(model.PageReview), c.submit(model.PageReview, ActionSubmit, nil))
	rec = c.get(pageURL(model.PageReview))
	assert.Contains(t, rec.Body.String(), "You must agree to the consent before submitting.")
	assert.Empty(t, submissions)

	assert.Equal(t, pageURL(model.PageComplete),
		c.submit(model.PageReview, ActionSubmit, url.Values{"_consent": {"yes"}}))
	rec = c.get(pageURL(model.PageComplete))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Thank you, Ada!")

	require.Len(t, submissions, 1)
	sub := submissions[0]
	assert.Equal(t, "patient-intake", sub.FormID)
	assert.True(t, sub.FormComplete)
	assert.Equal(t, fixedNow, sub.SubmissionDate)
	assert.Equal(t, []any{"Dust", "Other"}, sub.Responses["medicalHistory"]["allergies"])
	assert.Equal(t, float64(42), sub.Responses["basicInfo"]["age"])

	rec = c.get(PathSubmission)
	require.Equal(t, http.StatusOK, rec.Code)
	var envelope model.Submission
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, sub.ID, envelope.ID)
	assert.Equal(t, "Cats", envelope.Responses["medicalHistory"]["otherAllergies"])

	// Address navigation cannot leave the completion screen.
	rec = c.get(pageURL("basicInfo"))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, pageURL(model.PageComplete), rec.Header().Get("Location"))
	assert.Equal(t, pageURL(model.PageComplete),
		c.submit("basicInfo", ActionNext, url.Values{"firstName": {"Eve"}}))
	require.Len(t, submissions, 1)
}

func TestBackDoesNotValidate(t *testing.T) {
	c := newClient(t, newServer(t))
	c.get(PathForm)
	c.submit(model.PagePreview, ActionStart, nil)

	assert.Equal(t, pageURL(model.PagePreview),
		c.submit("basicInfo", ActionBack, url.Values{"firstName": {""}, "age": {"7"}}))

	rec := c.get(PathResponses)
	require.Equal(t, http.StatusOK, rec.Code)
	var payload responsesPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, model.PagePreview, payload.Page)
	assert.Equal(t, float64(7), payload.Responses["basicInfo"]["age"])
	assert.False(t, payload.Submitted)
}

func TestFollowUpAnswerSurvivesToggle(t *testing.T) {
	c := newClient(t, newServer(t))
	c.get(PathForm)
	c.submit(model.PagePreview, ActionStart, nil)
	c.submit("basicInfo", ActionNext, url.Values{"firstName": {"Ada"}, "age": {"42"}})

	rec := c.get(pageURL("medicalHistory"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<input type="hidden" name="_fields" value="allergies">`)
	assert.NotContains(t, rec.Body.String(), `value="otherAllergies"`)

	assert.Equal(t, pageURL("insurance"), c.submit("medicalHistory", ActionNext, url.Values{
		"_fields":        {"allergies", "otherAllergies"},
		"allergies":      {"Other"},
		"otherAllergies": {"Peanuts"},
	}))

	// Untick Other, then tick it again from a page that no longer shows the
	// follow-up.
	c.get(pageURL("medicalHistory"))
	c.submit("medicalHistory", ActionNext, url.Values{
		"_fields":        {"allergies", "otherAllergies"},
		"allergies":      {"Dust"},
		"otherAllergies": {"Peanuts"},
	})
	rec = c.get(pageURL("medicalHistory"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `value="otherAllergies"`)

	assert.Equal(t, pageURL("insurance"), c.submit("medicalHistory", ActionNext, url.Values{
		"_fields":   {"allergies"},
		"allergies": {"Dust", "Other"},
	}))

	rec = c.get(PathResponses)
	require.Equal(t, http.StatusOK, rec.Code)
	var payload responsesPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, []any{"Dust", "Other"}, payload.Responses["medicalHistory"]["allergies"])
	assert.Equal(t, "Peanuts", payload.Responses["medicalHistory"]["otherAllergies"])
}

func TestUntickedCheckboxGroupIsCleared(t *testing.T) {
	c := newClient(t, newServer(t))
	c.get(PathForm)
	c.submit(model.PagePreview, ActionStart, nil)
	c.submit("basicInfo", ActionNext, url.Values{"firstName": {"Ada"}})
	c.submit("medicalHistory", ActionNext, url.Values{"_fields": {"allergies"}, "allergies": {"Dust"}})

	c.get(pageURL("medicalHistory"))
	c.submit("medicalHistory", ActionNext, url.Values{"_fields": {"allergies"}})

	rec := c.get(PathResponses)
	var payload responsesPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, []any{}, payload.Responses["medicalHistory"]["allergies"])
}

func TestNonFiniteNumberIsRejected(t *testing.T) {
	for _, raw := range []string{"NaN", "Inf", "-Inf"} {
		t.Run(raw, func(t *testing.T) {
			c := newClient(t, newServer(t))
			c.get(PathForm)
			c.submit(model.PagePreview, ActionStart, nil)

			location := c.submit("basicInfo", ActionNext, url.Values{"firstName": {"Ada"}, "age": {raw}})
			assert.Equal(t, pageURL("basicInfo"), location)
			rec := c.get(location)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), "Age must be a number")

			rec = c.get(PathResponses)
			require.Equal(t, http.StatusOK, rec.Code)
			var payload responsesPayload
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
			assert.Equal(t, raw, payload.Responses["basicInfo"]["age"])
		})
	}
}

func TestReviewActionValidatesCurrentPage(t *testing.T) {
	c := newClient(t, newServer(t))
	c.get(PathForm)
	c.submit(model.PagePreview, ActionStart, nil)

	assert.Equal(t, pageURL("basicInfo"), c.submit("basicInfo", ActionReview, url.Values{"firstName": {""}}))
	assert.Equal(t, pageURL(model.PageReview), c.submit("basicInfo", ActionReview, url.Values{"firstName": {"Ada"}}))
}

func TestHistoryNavigationAndCanonicalRedirects(t *testing.T) {
	c := newClient(t, newServer(t))
	c.get(PathForm)
	c.submit(model.PagePreview, ActionStart, nil)
	c.submit("basicInfo", ActionNext, url.Values{"firstName": {"Ada"}})

	// Browser back button.
	rec := c.get(pageURL("basicInfo"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Ada"`)

	rec = c.get(pageURL("nope"))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, pageURL("basicInfo"), rec.Header().Get("Location"))

	rec = c.get(pageURL(model.PageComplete))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, pageURL("basicInfo"), rec.Header().Get("Location"))
}

func TestStalePostIsIgnored(t *testing.T) {
	c := newClient(t, newServer(t))
	c.get(PathForm)
	c.submit(model.PagePreview, ActionStart, nil)

	assert.Equal(t, pageURL("basicInfo"),
		c.submit("insurance", ActionNext, url.Values{"provider": {"Acme"}}))

	rec := c.get(PathResponses)
	var payload responsesPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Empty(t, payload.Responses["insurance"])
}

func TestUnknownActionIsRejected(t *testing.T) {
	c := newClient(t, newServer(t))
	c.get(PathForm)

	rec := c.post(PathForm, url.Values{"_page": {model.PagePreview}, "_action": {"explode"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "unknown_action", envelope.Error.Code)
}

func TestConsentToggleEndpoint(t *testing.T) {
	c := newClient(t, newServer(t))
	c.get(PathForm)

	rec := c.post(PathConsent, url.Values{"_consent": {"yes"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = c.get(PathResponses)
	var payload responsesPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.True(t, payload.Consent)
}

func TestSessionResumesFromDurableStore(t *testing.T) {
	store := storage.NewMemory()

	first := newClient(t, newServer(t, WithStore(store)))
	first.get(PathForm)
	first.submit(model.PagePreview, ActionStart, nil)
	first.submit("basicInfo", ActionNext, url.Values{"firstName": {"Ada"}, "age": {"30"}})

	// A new server process sees the same cookie and store.
	second := newClient(t, newServer(t, WithStore(store)))
	second.cookies = first.cookies

	rec := second.get(PathForm)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, pageURL("medicalHistory"), rec.Header().Get("Location"))

	rec = second.get(PathResponses)
	var payload responsesPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "Ada", payload.Responses["basicInfo"]["firstName"])
}

func TestSubmissionBeforeCompletion(t *testing.T) {
	c := newClient(t, newServer(t))
	rec := c.get(PathSubmission)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTextFormat(t *testing.T) {
	c := newClient(t, newServer(t))
	c.get(PathForm)

	rec := c.get(pageURL(model.PagePreview) + "&format=text")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Welcome")
	assert.NotContains(t, rec.Body.String(), "<h2>")

	rec = c.get(pageURL(model.PagePreview) + "&format=pdf")
	require.Equal(t, http.StatusNotAcceptable, rec.Code)
}

type brokenSelector struct{}

func (brokenSelector) Select(string, string, ...theme.QueryOption) (*theme.Selection, error) {
	return nil, errors.New("theme store offline")
}

func TestThemeSelection(t *testing.T) {
	manifest := &theme.Manifest{
		Name:   "acme",
		Tokens: map[string]string{"brand": "#123456"},
		Assets: theme.Assets{
			Prefix: "/assets/themes/acme",
			Files:  map[string]string{"vanilla.stylesheet": "theme.css"},
		},
		Variants: map[string]theme.Variant{
			"dark": {Tokens: map[string]string{"brand": "#000000"}},
		},
	}
	c := newClient(t, newServer(t, WithThemeSelector(render.SingleTheme(manifest, ""), "acme", "")))
	c.get(PathForm)

	rec := c.get(pageURL(model.PagePreview))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `data-theme="acme"`)
	assert.Contains(t, body, `--brand: #123456;`)
	assert.Contains(t, body, `href="/assets/themes/acme/theme.css"`)

	rec = c.get(pageURL(model.PagePreview) + "&variant=dark")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-theme-variant="dark"`)
	assert.Contains(t, rec.Body.String(), `--brand: #000000;`)

	// Redirects keep the theme query.
	rec = c.get(pageURL("nope") + "&variant=dark")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, pageURL(model.PagePreview)+"&variant=dark", rec.Header().Get("Location"))
}

func TestThemeFailureRendersUnthemed(t *testing.T) {
	c := newClient(t, newServer(t, WithThemeSelector(brokenSelector{}, "acme", "")))
	c.get(PathForm)

	rec := c.get(pageURL(model.PagePreview))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "data-theme")
}

func TestHealthCheck(t *testing.T) {
	healthy := true
	srv := newServer(t, WithHealthCheck("store", HealthFunc(func(context.Context) bool { return healthy })))
	c := newClient(t, srv)

	rec := c.get(PathHealth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"store":"ok"},"sessions":0}`, rec.Body.String())

	healthy = false
	rec = c.get(PathHealth)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"store":"unavailable"`)
}

func TestIdleSessionsAreEvicted(t *testing.T) {
	now := fixedNow
	srv := newServer(t, WithSessionTTL(time.Minute), WithClock(func() time.Time { return now }))

	newClient(t, srv).get(PathForm)
	newClient(t, srv).get(PathForm)
	require.Equal(t, 2, srv.sessions.len())

	now = now.Add(2 * time.Minute)
	newClient(t, srv).get(PathForm)
	assert.Equal(t, 1, srv.sessions.len())
}

func TestCloseAllWaitsForActiveRequest(t *testing.T) {
	srv := newServer(t)
	newClient(t, srv).get(PathForm)
	require.Equal(t, 1, srv.sessions.len())

	var active *formSession
	srv.sessions.mu.Lock()
	for _, fs := range srv.sessions.items {
		active = fs
	}
	srv.sessions.mu.Unlock()
	active.mu.Lock()

	done := make(chan struct{})
	go func() {
		srv.sessions.closeAll()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("closeAll returned while a request held the session")
	case <-time.After(50 * time.Millisecond):
	}
	active.mu.Unlock()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("closeAll did not finish")
	}
	assert.Equal(t, 0, srv.sessions.len())
}

func TestDocumentUpload(t *testing.T) {
	cfg := model.FormConfig{
		Slug: "uploads",
		Pages: []model.Page{{
			Code: "files",
			Questions: []model.Question{
				{Code: "scan", Type: model.QuestionTypeDocument, Text: "Scan", FileTypes: []string{"pdf"}, MaxFileSize: 1},
			},
		}},
	}
	srv, err := New(cfg)
	require.NoError(t, err)
	c := newClient(t, srv)
	c.get(PathForm)

	upload := func(name string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		require.NoError(t, writer.WriteField("_page", "files"))
		require.NoError(t, writer.WriteField("_action", ActionSave))
		part, err := writer.CreateFormFile("scan", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4 test"))
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, PathForm, &body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return c.do(req)
	}

	rec := upload("notes.txt")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = c.get(pageURL("files"))
	assert.Contains(t, rec.Body.String(), "Scan must be one of pdf")

	rec = upload("scan.pdf")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = c.get(PathResponses)
	var payload responsesPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	doc, ok := payload.Responses["files"]["scan"].(map[string]any)
	require.True(t, ok, "expected document answer, got %#v", payload.Responses["files"]["scan"])
	assert.Equal(t, "scan.pdf", doc["name"])
	assert.Equal(t, float64(len("%PDF-1.4 test")), doc["size"])
}

func TestNewRejectsUnknownRenderer(t *testing.T) {
	registry, err := formflow.DefaultRenderers()
	require.NoError(t, err)
	_, err = New(testsupport.IntakeConfig(), WithRenderers(registry, "preact"))
	require.Error(t, err)
}

func TestAssetsAreServed(t *testing.T) {
	c := newClient(t, newServer(t))
	rec := c.get(PathAssets + "/formflow.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
}
