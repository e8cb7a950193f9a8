package httpclient_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-session-client/api"
	"github.com/jrsteele09/go-session-client/credentials/storefakes"
	"github.com/jrsteele09/go-session-client/httpclient"
	"github.com/jrsteele09/go-session-client/session"
	"github.com/jrsteele09/go-session-client/session/backendfakes"
)

// fakeTokens is a minimal TokenSource for tests that do not need the full
// session controller.
type fakeTokens struct {
	lock         sync.Mutex
	token        string
	refreshFn    func(ctx context.Context) (string, error)
	refreshCalls int
}

func (f *fakeTokens) AccessToken() string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.token
}

func (f *fakeTokens) RefreshAccessToken(ctx context.Context) (string, error) {
	f.lock.Lock()
	f.refreshCalls++
	f.lock.Unlock()

	if f.refreshFn == nil {
		return f.AccessToken(), nil
	}
	token, err := f.refreshFn(ctx)
	if err != nil {
		return "", err
	}
	f.lock.Lock()
	f.token = token
	f.lock.Unlock()
	return token, nil
}

func TestAttachesFreshBearerToken(t *testing.T) {
	var seen string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tokens := &fakeTokens{token: "token-a"}
	client, err := httpclient.New(tokens)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "Bearer token-a", seen)

	// The token is read per request, not captured at construction.
	tokens.token = "token-b"
	req, err = http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "Bearer token-b", seen)
}

func TestRetriesOnceAfterRefreshWithReplayedBody(t *testing.T) {
	var attempts int
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		raw, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(raw))
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tokens := &fakeTokens{
		token: "stale",
		refreshFn: func(ctx context.Context) (string, error) {
			return "fresh", nil
		},
	}
	client, err := httpclient.New(tokens)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, server.URL, bytes.NewReader([]byte(`{"child_id":"A"}`)))
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 2, attempts)
	require.Equal(t, 1, tokens.refreshCalls)
	require.Equal(t, []string{`{"child_id":"A"}`, `{"child_id":"A"}`}, bodies)
}

func TestSecond401IsReturnedWithoutAnotherRefresh(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	tokens := &fakeTokens{token: "whatever"}
	client, err := httpclient.New(tokens)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, 2, attempts)
	require.Equal(t, 1, tokens.refreshCalls)
}

func TestRefreshFailurePropagatesSessionExpired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	tokens := &fakeTokens{
		token: "stale",
		refreshFn: func(ctx context.Context) (string, error) {
			return "", session.ErrSessionExpired
		},
	}
	client, err := httpclient.New(tokens)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	_, err = client.Do(req)
	require.ErrorIs(t, err, session.ErrSessionExpired)
}

func TestNetworkFailureMapsToErrNetwork(t *testing.T) {
	tokens := &fakeTokens{token: "token"}
	client, err := httpclient.New(tokens)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, "http://127.0.0.1:1", nil)
	require.NoError(t, err)

	_, err = client.Do(req)
	require.ErrorIs(t, err, api.ErrNetwork)
}

// Three requests hitting 401 together must share a single refresh call. Uses
// the real session controller so the single-flight guard under test is the
// production one.
func TestConcurrent401sShareOneRefresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-refreshed" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	backend := backendfakes.NewFakeBackend()
	backend.RefreshFn = func(ctx context.Context, refreshToken string) (*api.RefreshGrant, error) {
		time.Sleep(100 * time.Millisecond)
		return &api.RefreshGrant{AccessToken: "access-refreshed"}, nil
	}

	controller, err := session.NewController(backend, storefakes.NewFakeStore())
	require.NoError(t, err)
	_, err = controller.Login(context.Background(), "parent@example.com", "password123")
	require.NoError(t, err)

	client, err := httpclient.New(controller)
	require.NoError(t, err)

	const callers = 3
	var wg sync.WaitGroup
	statuses := make([]int, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, reqErr := http.NewRequest(http.MethodGet, server.URL, nil)
			if reqErr != nil {
				errs[i] = reqErr
				return
			}
			resp, doErr := client.Do(req)
			if doErr != nil {
				errs[i] = doErr
				return
			}
			statuses[i] = resp.StatusCode
			resp.Body.Close()
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, http.StatusOK, statuses[i])
	}
	require.Equal(t, 1, backend.RefreshCalls())
}
