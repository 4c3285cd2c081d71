package chromedp

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/court-scheduler/internal/domain/portal"
)

var withChrome = flag.String("with-chrome", "", "DevTools URL of a running Chrome; browser tests are skipped when empty")

func TestTrimText(t *testing.T) {
	assert.Equal(t, "9:00 AM", trimText("\n   9:00\tAM  "))
	assert.Equal(t, "", trimText(" \n "))
}

const page = `<html><body>
<input id="user"/>
<ul>
  <li class="opt"> 1 hour </li>
  <li class="opt">2 hours<span style="display:none">caret</span></li>
</ul>
<button id="hidden" style="display:none">Hidden</button>
<button id="go" onclick="document.body.insertAdjacentHTML('beforeend','<h1 class=done>ok</h1>')">Go</button>
</body></html>`

func TestDriverAgainstChrome(t *testing.T) {
	if *withChrome == "" {
		t.Skip("set -with-chrome to run browser tests")
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	ctx := context.Background()
	d, err := New(ctx, Options{RemoteURL: *withChrome, ActionTimeout: 500 * time.Millisecond})
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Navigate(ctx, srv.URL))

	opts, err := d.ListElements(ctx, "li.opt")
	require.NoError(t, err)
	require.Len(t, opts, 2)
	text, err := d.ReadText(ctx, opts[0])
	require.NoError(t, err)
	assert.Equal(t, "1 hour", text)
	text, err = d.ReadText(ctx, opts[1])
	require.NoError(t, err)
	assert.Equal(t, "2 hours", text, "hidden descendants are not read")

	none, err := d.ListElements(ctx, "li.missing")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = d.Locate(ctx, "h1.done", 300*time.Millisecond)
	assert.ErrorIs(t, err, portal.ErrTimeout)

	btn, err := d.Locate(ctx, "#go", time.Second)
	require.NoError(t, err)
	require.NoError(t, d.Click(ctx, btn))
	_, err = d.Locate(ctx, "h1.done", time.Second)
	assert.NoError(t, err)

	user, err := d.Locate(ctx, "#user", time.Second)
	require.NoError(t, err)
	assert.NoError(t, d.SendKeys(ctx, user, "member"))

	hidden, err := d.Locate(ctx, "#hidden", time.Second)
	require.NoError(t, err)
	start := time.Now()
	assert.ErrorIs(t, d.Click(ctx, hidden), portal.ErrTimeout)
	assert.ErrorIs(t, d.SendKeys(ctx, hidden, "x"), portal.ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}
