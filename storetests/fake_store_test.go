package storetests

import (
	"net/http"
	"sync"
	"testing"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/musicstore/store-contract-tests/client"

	"github.com/stretchr/testify/require"
)

const fakeStoreURL = "http://store.test"

// fakeStore is an in-memory stand-in for the music store. Each route is a fixed handler;
// every request is counted so tests can verify which calls were or were not made.
type fakeStore struct {
	routes      map[string]http.Handler
	calls       map[string]int
	authHeaders map[string][]string
	total       int
	lock        sync.Mutex
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		routes:      make(map[string]http.Handler),
		calls:       make(map[string]int),
		authHeaders: make(map[string][]string),
	}
}

func (f *fakeStore) on(method, path string, h http.Handler) *fakeStore {
	f.routes[method+" "+path] = h
	return f
}

func (f *fakeStore) onJSON(method, path string, body interface{}) *fakeStore {
	return f.on(method, path, httphelpers.HandlerWithJSONResponse(body, nil))
}

func (f *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	f.lock.Lock()
	f.calls[key]++
	f.total++
	f.authHeaders[key] = append(f.authHeaders[key], r.Header.Get("Authorization"))
	h := f.routes[key]
	f.lock.Unlock()
	if h == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	h.ServeHTTP(w, r)
}

func (f *fakeStore) count(method, path string) int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.calls[method+" "+path]
}

func (f *fakeStore) totalCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.total
}

func (f *fakeStore) client(t *testing.T) *client.Client {
	return f.clientWithTransport(t, httphelpers.ClientFromHandler(f))
}

func (f *fakeStore) clientWithTransport(t *testing.T, hc *http.Client) *client.Client {
	c, err := client.New(fakeStoreURL, client.Options{HTTPClient: hc})
	require.NoError(t, err)
	return c
}

func catalogOf(ids ...int64) []map[string]interface{} {
	ret := []map[string]interface{}{}
	for _, id := range ids {
		ret = append(ret, map[string]interface{}{"id": id, "title": "Track", "artistUsername": "artist"})
	}
	return ret
}

func cartWith(n int, totalField string, total float64) map[string]interface{} {
	items := []map[string]interface{}{}
	for i := 0; i < n; i++ {
		items = append(items, map[string]interface{}{
			"id":        i + 1,
			"music":     map[string]interface{}{"id": 10 + i, "title": "Track", "artistUsername": "artist"},
			"unitPrice": 10,
		})
	}
	return map[string]interface{}{"items": items, totalField: total}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
