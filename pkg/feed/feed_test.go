package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// --- NewJSONFeed Tests ---

func TestNewJSONFeed_RequiresBaseURL(t *testing.T) {
	_, err := NewJSONFeed(Config{})
	if err == nil {
		t.Fatal("expected error when base URL is missing")
	}
}

// --- Fetch Tests ---

func TestFetch_KeyedPayload(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"data":[{"id":"1","title":"great space movie"},{"id":"2","title":"a shark movie"}]}`))
	}))
	defer server.Close()

	f, err := NewJSONFeed(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewJSONFeed() error = %v", err)
	}

	items, err := f.Fetch(context.Background(), map[string]string{"subreddit": "movies", "size": "2"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Title != "great space movie" || items[1].Title != "a shark movie" {
		t.Errorf("titles not extracted in order: %+v", items)
	}

	// Free-form query parameters are forwarded.
	if gotQuery != "size=2&subreddit=movies" {
		t.Errorf("unexpected query string: %q", gotQuery)
	}
}

func TestFetch_BareArrayPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"title":"first"},{"title":"second"}]`))
	}))
	defer server.Close()

	f, err := NewJSONFeed(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewJSONFeed() error = %v", err)
	}

	items, err := f.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(items) != 2 || items[0].Title != "first" {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestFetch_CustomItemsKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"title":"entry"}]}`))
	}))
	defer server.Close()

	f, err := NewJSONFeed(Config{BaseURL: server.URL, ItemsKey: "results"})
	if err != nil {
		t.Fatalf("NewJSONFeed() error = %v", err)
	}

	items, err := f.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(items) != 1 || items[0].Title != "entry" {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestFetch_MissingItemsKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"unexpected":true}`))
	}))
	defer server.Close()

	f, err := NewJSONFeed(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewJSONFeed() error = %v", err)
	}

	_, err = f.Fetch(context.Background(), nil)
	if !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestFetch_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	f, err := NewJSONFeed(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewJSONFeed() error = %v", err)
	}

	_, err = f.Fetch(context.Background(), nil)
	if !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestFetch_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	f, err := NewJSONFeed(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewJSONFeed() error = %v", err)
	}

	_, err = f.Fetch(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
}

// --- Titles Tests ---

func TestTitles_PreservesOrder(t *testing.T) {
	items := []Item{{Title: "a"}, {Title: "b"}, {Title: "c"}}
	titles := Titles(items)
	if len(titles) != 3 || titles[0] != "a" || titles[2] != "c" {
		t.Errorf("unexpected titles: %v", titles)
	}
}
