package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func tokenServer(t *testing.T, calls *int32, expiresIn int, delay time.Duration) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type: got %q", got)
		}
		n := atomic.AddInt32(calls, 1)
		if delay > 0 {
			time.Sleep(delay)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":%d}`, n, expiresIn)
	}))
}

func TestTokenCachedUntilExpiry(t *testing.T) {
	var calls int32
	srv := tokenServer(t, &calls, 1799, 0)
	defer srv.Close()

	ts := NewTokenSource(srv.URL, "id", "secret", srv.Client())
	ctx := context.Background()

	tok1, err := ts.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok-1", tok1)

	tok2, err := ts.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, tok1, tok2)
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("token endpoint called %d times, want 1", got)
	}
}

func TestTokenRefreshedWhenStale(t *testing.T) {
	var calls int32
	// Expiry shorter than the safety margin, so the cached token is always stale.
	srv := tokenServer(t, &calls, 5, 0)
	defer srv.Close()

	ts := NewTokenSource(srv.URL, "id", "secret", srv.Client())
	ctx := context.Background()

	tok1, err := ts.Token(ctx)
	require.NoError(t, err)
	tok2, err := ts.Token(ctx)
	require.NoError(t, err)
	require.NotEqual(t, tok1, tok2)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTokenInvalidateForcesRefetch(t *testing.T) {
	var calls int32
	srv := tokenServer(t, &calls, 1799, 0)
	defer srv.Close()

	ts := NewTokenSource(srv.URL, "id", "secret", srv.Client())
	ctx := context.Background()

	_, err := ts.Token(ctx)
	require.NoError(t, err)
	ts.Invalidate()
	tok, err := ts.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok-2", tok)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTokenConcurrentRefreshCollapses(t *testing.T) {
	var calls int32
	srv := tokenServer(t, &calls, 1799, 50*time.Millisecond)
	defer srv.Close()

	ts := NewTokenSource(srv.URL, "id", "secret", srv.Client())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := ts.Token(context.Background())
			if err != nil {
				t.Errorf("Token: %v", err)
			}
			if tok != "tok-1" {
				t.Errorf("got token %q, want tok-1", tok)
			}
		}()
	}
	wg.Wait()
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("concurrent refresh hit the endpoint %d times, want 1", got)
	}
}

func TestTokenEndpointRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid_client"}`)
	}))
	defer srv.Close()

	ts := NewTokenSource(srv.URL, "id", "wrong", srv.Client())
	_, err := ts.Token(context.Background())
	require.Error(t, err)
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	require.Contains(t, err.Error(), "invalid_client")
}

func TestTokenMissingCredentials(t *testing.T) {
	ts := NewTokenSource("http://localhost:0", "", "", nil)
	_, err := ts.Token(context.Background())
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}
