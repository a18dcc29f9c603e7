package postgrest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"cardsync/internal/postgrest"
)

func TestNewRequiresBaseURLAndKey(t *testing.T) {
	if _, err := postgrest.New("", "key", time.Second); err == nil {
		t.Fatal("expected error when base url missing")
	}
	if _, err := postgrest.New("https://example.com", " ", time.Second); err == nil {
		t.Fatal("expected error when api key missing")
	}
}

func TestSelectSendsRangeAndProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/objects" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Range"); got != "1000-1999" {
			t.Errorf("unexpected range header %q", got)
		}
		if got := r.Header.Get("Accept-Profile"); got != "storage" {
			t.Errorf("unexpected profile %q", got)
		}
		if r.Header.Get("apikey") != "key" || r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing auth headers")
		}
		if r.URL.Query().Get("name") != "like.200000000*.webp" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte(`[{"name":"200000001.webp"}]`))
	}))
	t.Cleanup(server.Close)

	client, err := postgrest.New(server.URL, "key", time.Second)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	var rows []struct {
		Name string `json:"name"`
	}
	query := url.Values{"name": {"like.200000000*.webp"}}
	if err := client.Select(context.Background(), "storage.objects", query, 1000, 1000, &rows); err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "200000001.webp" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestSelectRangeNotSatisfiableIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
	}))
	t.Cleanup(server.Close)

	client, _ := postgrest.New(server.URL, "key", time.Second)
	var rows []map[string]any
	if err := client.Select(context.Background(), "products", nil, 5000, 1000, &rows); err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty rows, got %v", rows)
	}
}

func TestUpsertStatusHandling(t *testing.T) {
	status := http.StatusCreated
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Prefer") == "" {
			t.Errorf("expected Prefer header")
		}
		var row map[string]any
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	client, _ := postgrest.New(server.URL, "key", time.Second)
	if err := client.Upsert(context.Background(), "card_language_links", map[string]any{"a": 1}); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	status = http.StatusConflict
	err := client.Upsert(context.Background(), "card_language_links", map[string]any{"a": 1})
	if !postgrest.IsConflict(err) {
		t.Fatalf("expected conflict error, got %v", err)
	}

	status = http.StatusInternalServerError
	err = client.Upsert(context.Background(), "card_language_links", map[string]any{"a": 1})
	if err == nil || postgrest.IsConflict(err) {
		t.Fatalf("expected non-conflict error, got %v", err)
	}
}

func TestInList(t *testing.T) {
	if got := postgrest.InList([]int64{1, 2, 3}); got != "in.(1,2,3)" {
		t.Fatalf("unexpected in list: %q", got)
	}
}
