package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oracleconsulting/lightpoint-ingest/internal/domain"
)

func testActConfig(baseURL string) domain.ActConfig {
	return domain.ActConfig{
		Identifier: "TMA1970",
		Name:       "Taxes Management Act 1970",
		BaseURL:    baseURL,
		Sections:   []string{"9A"},
	}
}

func legislationPage() string {
	return `<!DOCTYPE html>
<html>
<head><title>Taxes Management Act 1970</title></head>
<body>
<nav class="p_breadcrumbs"><a href="/">Home</a></nav>
<div id="content">
<div class="LegSnippet">
  <h4 class="LegP1GroupTitle">9A Notice of enquiry</h4>
  <div class="LegNavLinks"><a href="/ukpga/1970/9/section/9">Previous</a></div>
  <p class="LegText">An officer of the Board may enquire into a return under section 8 or 8A of this Act if, within the time allowed, the officer gives notice of intention to do so.</p>
  <div class="LegP2Container">
    <div class="LegP3Container">The time allowed is up to the end of the period of twelve months after the day on which the return was delivered.</div>
  </div>
  <p></p>
</div>
</div>
<script>window.track()</script>
</body>
</html>`
}

func TestParseLegislationSection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/section/9A" {
			w.Write([]byte(legislationPage()))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(testFetcher(), 0)
	sec, err := c.ParseLegislationSection(context.Background(), testActConfig(srv.URL), "9A")

	require.NoError(t, err)
	require.NotNil(t, sec)
	assert.Equal(t, "TMA1970", sec.ActIdentifier)
	assert.Equal(t, "Taxes Management Act 1970", sec.ActName)
	assert.Equal(t, "9A", sec.SectionNumber)
	assert.Equal(t, "Notice of enquiry", sec.Title)
	assert.Equal(t, srv.URL+"/section/9A", sec.SourceURL)
	assert.Contains(t, sec.Content, "An officer of the Board may enquire into a return")
	assert.Contains(t, sec.Content, "twelve months after the day")
	// Navigation links and scripts never leak into provision text.
	assert.NotContains(t, sec.Content, "Previous")
	assert.NotContains(t, sec.Content, "window.track")
}

func TestParseLegislationSection_ThinContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div class="LegSnippet"><p>Repealed.</p></div></body></html>`))
	}))
	defer srv.Close()

	c := New(testFetcher(), 0)
	sec, err := c.ParseLegislationSection(context.Background(), testActConfig(srv.URL), "9A")

	require.NoError(t, err)
	assert.Nil(t, sec)
}

func TestParseLegislationSection_FetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(testFetcher(), 0)
	sec, err := c.ParseLegislationSection(context.Background(), testActConfig(srv.URL), "9A")

	require.Error(t, err)
	assert.Nil(t, sec)
}

func TestParseLegislationSection_FallbackContentSelector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div id="content">
<h1>9A Notice of enquiry</h1>
<p>An officer of the Board may enquire into a return under section 8 or 8A of this Act.</p>
</div></body></html>`))
	}))
	defer srv.Close()

	c := New(testFetcher(), 0)
	sec, err := c.ParseLegislationSection(context.Background(), testActConfig(srv.URL), "9A")

	require.NoError(t, err)
	require.NotNil(t, sec)
	assert.Equal(t, "Notice of enquiry", sec.Title)
	assert.Contains(t, sec.Content, "section 8 or 8A")
}

func TestActSectionURL(t *testing.T) {
	act := domain.ActConfig{BaseURL: "https://www.legislation.gov.uk/ukpga/1970/9"}
	assert.Equal(t, "https://www.legislation.gov.uk/ukpga/1970/9/section/9A", act.SectionURL("9A"))
}

func TestParseLegislationSection_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(legislationPage()))
	}))
	defer srv.Close()

	c := New(testFetcher(), 0)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := c.ParseLegislationSection(ctx, testActConfig(srv.URL), "9A")
	require.Error(t, err)
}
