package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamdash/internal/protocol"
	"streamdash/internal/storage"
)

const catalogYAML = `
include:
  - name: firefox
    full_name: Mozilla Firefox
    description: Web browser
    icon: https://example.com/firefox.png
  - name: steam
    full_name: Steam
    disabled: true
  - name: gimp
`

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func loaded(t *testing.T) (*Loader, *protocol.Recorder, *storage.Memory) {
	t.Helper()
	srv := serve(t, http.StatusOK, catalogYAML)
	rec := &protocol.Recorder{}
	st := storage.NewMemory()
	l := New(srv.URL, rec, st, WithRetries(0, time.Millisecond))
	require.NoError(t, l.Load(context.Background()))
	return l, rec, st
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte(catalogYAML))
	require.NoError(t, err)
	require.Len(t, c.Include, 3)
	assert.Equal(t, Entry{
		Name:        "firefox",
		FullName:    "Mozilla Firefox",
		Description: "Web browser",
		Icon:        "https://example.com/firefox.png",
	}, c.Include[0])
	assert.True(t, c.Include[1].Disabled)
	assert.Equal(t, "gimp", c.Include[2].DisplayName())

	_, err = Parse([]byte("include: [ {name: a}, {full_name: nameless} ]"))
	assert.Error(t, err)

	_, err = Parse([]byte("include: [unclosed"))
	assert.Error(t, err)
}

func TestLoad_Success(t *testing.T) {
	l, _, _ := loaded(t)

	entries, err := l.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	assert.NoError(t, l.Err())
	assert.False(t, l.Loading())
}

func TestLoad_FailureLeavesCatalogUnset(t *testing.T) {
	rec := &protocol.Recorder{}
	good := serve(t, http.StatusOK, catalogYAML)
	l := New(good.URL, rec, storage.NewMemory(), WithRetries(0, time.Millisecond))
	require.NoError(t, l.Load(context.Background()))

	l.url = serve(t, http.StatusOK, "include: [ {full_name: broken} ]").URL
	require.Error(t, l.Load(context.Background()))
	entries, err := l.Entries()
	assert.Nil(t, entries)
	assert.Error(t, err)
	assert.Error(t, l.Err())

	l.url = serve(t, http.StatusNotFound, "nope").URL
	assert.Error(t, l.Load(context.Background()))

	l.url = ""
	assert.Error(t, l.Load(context.Background()))
}

func TestEntries_NotLoaded(t *testing.T) {
	l := New("http://unused.invalid", &protocol.Recorder{}, storage.NewMemory())
	_, err := l.Entries()
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.ErrorIs(t, l.Install("firefox"), ErrNotLoaded)
}

func TestActions_OptimisticInstalledSet(t *testing.T) {
	l, rec, st := loaded(t)

	require.NoError(t, l.Install("firefox"))
	require.NoError(t, l.Install("gimp"))
	require.NoError(t, l.Update("firefox"))
	assert.Equal(t, []string{"firefox", "gimp"}, l.Installed())
	assert.True(t, l.IsInstalled("gimp"))

	raw, _ := st.Get(KeyInstalledApps)
	assert.JSONEq(t, `["firefox","gimp"]`, raw)

	require.NoError(t, l.Remove("firefox"))
	assert.Equal(t, []string{"gimp"}, l.Installed())

	assert.Equal(t, []protocol.Command{
		protocol.AppActionCommand(protocol.AppInstall, "firefox"),
		protocol.AppActionCommand(protocol.AppInstall, "gimp"),
		protocol.AppActionCommand(protocol.AppUpdate, "firefox"),
		protocol.AppActionCommand(protocol.AppRemove, "firefox"),
	}, rec.Commands())
}

func TestActions_Rejected(t *testing.T) {
	l, rec, _ := loaded(t)

	assert.ErrorIs(t, l.Install("emacs"), ErrUnknownApp)
	assert.ErrorIs(t, l.Install("steam"), ErrDisabled)
	assert.Empty(t, rec.Commands())
	assert.Empty(t, l.Installed())

	assert.NoError(t, l.Remove("steam"))
}

func TestInstalled_CorruptValueIsDiscarded(t *testing.T) {
	l, _, st := loaded(t)
	require.NoError(t, st.Set(KeyInstalledApps, "{not json"))

	assert.Empty(t, l.Installed())
	require.NoError(t, l.Install("gimp"))
	assert.Equal(t, []string{"gimp"}, l.Installed())
}
