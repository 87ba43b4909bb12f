package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/accessportal/internal/client/api"
	"github.com/dmitrijs2005/accessportal/internal/client/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	healthErr error
	stats     *api.Stats
	users     []api.Account
	err       error

	gotLimit, gotOffset int
	disabled, enabled   []string
	sweeps              int
}

func (f *fakeAPI) Health(context.Context) error { return f.healthErr }

func (f *fakeAPI) Stats(context.Context) (*api.Stats, error) { return f.stats, f.err }

func (f *fakeAPI) Users(_ context.Context, limit, offset int) ([]api.Account, error) {
	f.gotLimit, f.gotOffset = limit, offset
	return f.users, f.err
}

func (f *fakeAPI) Disable(_ context.Context, email string) (*api.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.disabled = append(f.disabled, email)
	return &api.Account{Email: email, Status: "disabled"}, nil
}

func (f *fakeAPI) Enable(_ context.Context, email string) (*api.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.enabled = append(f.enabled, email)
	return &api.Account{Email: email, Status: "active", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeAPI) Sweep(context.Context) (*api.SweepReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sweeps++
	now := time.Now()
	return &api.SweepReport{Warned: 2, Expired: 1, StartedAt: now, FinishedAt: now.Add(time.Second)}, nil
}

func newTestApp(f *fakeAPI, input string) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{
		config: &config.Config{ServerURL: "http://portal"},
		api:    f,
		input:  scan(input),
		out:    &out,
	}, &out
}

func TestStats(t *testing.T) {
	a, out := newTestApp(&fakeAPI{stats: &api.Stats{Total: 4, Active: 3, RevenueMinor: 150000}}, "")
	require.NoError(t, a.Stats(context.Background()))
	assert.Contains(t, out.String(), "Accounts")
	assert.Contains(t, out.String(), "1500.00")
}

func TestUsers(t *testing.T) {
	f := &fakeAPI{users: []api.Account{{Email: "ana@example.com", Name: "Ana", Status: "active", ExpiresAt: time.Now()}}}
	a, out := newTestApp(f, "")

	require.NoError(t, a.Users(context.Background(), []string{"5", "10"}))
	assert.Equal(t, 5, f.gotLimit)
	assert.Equal(t, 10, f.gotOffset)
	assert.Contains(t, out.String(), "ana@example.com")

	assert.Error(t, a.Users(context.Background(), []string{"zero"}))
	assert.Error(t, a.Users(context.Background(), []string{"5", "-1"}))

	f.users = nil
	out.Reset()
	require.NoError(t, a.Users(context.Background(), nil))
	assert.Equal(t, 50, f.gotLimit)
	assert.Contains(t, out.String(), "No accounts.")
}

func TestDisable_RequiresConfirmation(t *testing.T) {
	f := &fakeAPI{}
	a, out := newTestApp(f, "n\n")
	require.NoError(t, a.Disable(context.Background(), []string{"ana@example.com"}))
	assert.Empty(t, f.disabled)
	assert.Contains(t, out.String(), "Cancelled.")

	a, out = newTestApp(f, "y\n")
	require.NoError(t, a.Disable(context.Background(), []string{"ana@example.com"}))
	assert.Equal(t, []string{"ana@example.com"}, f.disabled)
	assert.Contains(t, out.String(), "ana@example.com is now disabled.")
}

func TestEnable_PromptsForEmail(t *testing.T) {
	f := &fakeAPI{}
	a, _ := newTestApp(f, "ana@example.com\n")
	require.NoError(t, a.Enable(context.Background(), nil))
	assert.Equal(t, []string{"ana@example.com"}, f.enabled)

	a, _ = newTestApp(f, "\n")
	assert.Error(t, a.Enable(context.Background(), nil))
}

func TestSweep(t *testing.T) {
	f := &fakeAPI{}
	a, out := newTestApp(f, "")
	require.NoError(t, a.Sweep(context.Background()))
	assert.Equal(t, 1, f.sweeps)
	assert.Contains(t, out.String(), "2 warned")
}

func TestReportErrors(t *testing.T) {
	a, out := newTestApp(&fakeAPI{err: api.ErrUnauthorized}, "")
	assert.ErrorIs(t, a.Sweep(context.Background()), api.ErrUnauthorized)
	assert.Contains(t, out.String(), "Admin secret rejected")

	a, out = newTestApp(&fakeAPI{err: &api.Error{Status: 404, Message: "not found"}}, "")
	assert.Error(t, a.Enable(context.Background(), []string{"x@example.com"}))
	assert.Contains(t, out.String(), "not found (HTTP 404)")

	a, out = newTestApp(&fakeAPI{err: errors.New("dial tcp: refused")}, "")
	assert.Error(t, a.Stats(context.Background()))
	assert.Contains(t, out.String(), "refused")
}

func TestNewApp_UsesConfiguredSecret(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) { t.Fatal("must not prompt"); return nil, nil }

	a, err := NewApp(&config.Config{ServerURL: "http://portal", AdminSecret: "s3cret", RequestTimeout: time.Second})
	require.NoError(t, err)
	assert.NotNil(t, a.api)
}

func TestNewApp_EmptyPromptedSecret(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) { return []byte(""), nil }

	_, err := NewApp(&config.Config{ServerURL: "http://portal"})
	assert.Error(t, err)
}
