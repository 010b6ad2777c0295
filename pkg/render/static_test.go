package render

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const currentWeekPage = `<!doctype html>
<html><head><title>Svenstorps förskola - Skolmaten</title><style>.x{}</style></head>
<body>
<h1 class="text-2xl font-semibold">Vecka <span>10</span></h1>
<div id="menu-container">
  <div><h3>Måndag 3 mars</h3><p>2024-03-04</p><ul><li>Köttbullar med potatismos</li></ul></div>
  <div><h3>Tisdag 4 mars</h3><ul><li>Fisk   Björkeby</li></ul><script>var x = 1;</script></div>
</div>
<nav><a href="/svenstorps-forskola?week=11"><span>Nästa vecka</span></a><button>Skriv ut</button></nav>
</body></html>`

const nextWeekPage = `<!doctype html>
<html><head><title>Svenstorps förskola - Skolmaten</title></head>
<body>
<h1 class="text-2xl font-semibold">Vecka 11</h1>
<div id="menu-container"><div><h3>Onsdag</h3><p>Pannkakor med sylt</p></div></div>
</body></html>`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/svenstorps-forskola", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("week") == "11" {
			_, _ = fmt.Fprint(w, nextWeekPage)
			return
		}
		_, _ = fmt.Fprint(w, currentWeekPage)
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `<html><head><title>404 Not Found</title></head><body><p>Nothing</p></body></html>`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	return logger
}

func TestStatic_Session(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	session, err := NewStatic(newTestLogger()).Open(ctx)
	require.NoError(t, err)
	defer session.Close() //nolint: errcheck

	require.NoError(t, session.Navigate(ctx, srv.URL+"/svenstorps-forskola"))
	require.NoError(t, session.WaitReady(ctx, time.Second))

	info, err := session.PageInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Svenstorps förskola - Skolmaten", info.Title)
	assert.False(t, info.LooksMissing())

	text, err := session.ContainerText(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Måndag 3 mars\n2024-03-04\nKöttbullar med potatismos\nTisdag 4 mars\nFisk Björkeby", text)

	title, err := session.WeekTitle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Vecka 10", title)

	controls, err := session.Controls(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Nästa vecka", "Skriv ut"}, controls)

	clicked, err := session.ClickText(ctx, []string{"Next week", "Nästa vecka"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Nästa vecka", clicked)

	require.NoError(t, session.WaitReady(ctx, time.Second))
	title, err = session.WeekTitle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Vecka 11", title)

	_, err = session.ClickText(ctx, []string{"Nästa vecka"}, time.Second)
	assert.ErrorIs(t, err, ErrControlNotFound)
}

func TestStatic_MissingContainer(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	session, err := NewStatic(newTestLogger()).Open(ctx)
	require.NoError(t, err)

	require.NoError(t, session.Navigate(ctx, srv.URL+"/empty"))
	assert.ErrorIs(t, session.WaitReady(ctx, time.Second), ErrNavigationTimeout)

	info, err := session.PageInfo(ctx)
	require.NoError(t, err)
	assert.True(t, info.LooksMissing())

	_, err = session.WeekTitle(ctx)
	assert.ErrorIs(t, err, ErrElementNotFound)
}

func TestStatic_NavigateErrors(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	session, err := NewStatic(newTestLogger()).Open(ctx)
	require.NoError(t, err)

	err = session.Navigate(ctx, srv.URL+"/does-not-exist")
	assert.ErrorContains(t, err, "unexpected status code 404")

	fresh, err := NewStatic(newTestLogger()).Open(ctx)
	require.NoError(t, err)
	assert.Error(t, fresh.WaitReady(ctx, time.Second))
	_, err = fresh.ContainerText(ctx)
	assert.Error(t, err)
}

func TestVisibleText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"inline", `<p>Fisk <b>Björkeby</b></p>`, "Fisk Björkeby"},
		{"blocks", `<div>Måndag</div><div>Köttbullar</div>`, "Måndag\nKöttbullar"},
		{"br", `<p>Måndag<br>Köttbullar</p>`, "Måndag\nKöttbullar"},
		{"hidden", `<div>Måndag<script>alert(1)</script><style>p{}</style></div>`, "Måndag"},
		{"whitespace", "<div>\n   Fisk \t\n Björkeby  </div>", "Fisk Björkeby"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := html.Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, VisibleText(root))
		})
	}
}

func TestXPathLiteral(t *testing.T) {
	assert.Equal(t, `'Nästa vecka'`, xpathLiteral("Nästa vecka"))
	assert.Equal(t, `"it's"`, xpathLiteral("it's"))
	assert.Equal(t, `concat('a', "'", 'b"c')`, xpathLiteral(`a'b"c`))
	assert.Equal(t, `//*[contains(text(), 'Next week')]`, containsTextXPath("Next week"))
}
