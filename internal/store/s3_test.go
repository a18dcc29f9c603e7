package store_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"cardsync/internal/existing"
	"cardsync/internal/store"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]http.Header
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := strings.TrimPrefix(r.URL.Path, "/card-images")
	switch {
	case r.Method == http.MethodPut:
		_, _ = io.Copy(io.Discard, r.Body)
		f.objects[strings.TrimPrefix(path, "/")] = r.Header.Clone()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2":
		prefix := r.URL.Query().Get("prefix")
		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
		b.WriteString(`<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"><Name>card-images</Name>`)
		fmt.Fprintf(&b, "<Prefix>%s</Prefix><MaxKeys>1000</MaxKeys><IsTruncated>false</IsTruncated>", prefix)
		for key := range f.objects {
			if strings.HasPrefix(key, prefix) {
				fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>1</Size></Contents>", key)
			}
		}
		b.WriteString(`</ListBucketResult>`)
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.WriteString(w, b.String())
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func TestS3PutAndList(t *testing.T) {
	fake := &fakeS3{objects: map[string]http.Header{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	s, err := store.NewS3(store.S3Options{
		Endpoint:     server.URL,
		Region:       "us-east-1",
		Bucket:       "card-images",
		AccessKey:    "test",
		SecretKey:    "testsecret",
		CacheControl: "public, max-age=31536000",
	})
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}
	ctx := context.Background()
	if err := s.Put(ctx, "200000001.webp", []byte("img"), "image/webp"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "readme.txt", []byte("x"), "text/plain"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	fake.mu.Lock()
	header := fake.objects["200000001.webp"]
	fake.mu.Unlock()
	if header == nil {
		t.Fatal("object was not uploaded")
	}
	if got := header.Get("Content-Type"); got != "image/webp" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := header.Get("Cache-Control"); got != "public, max-age=31536000" {
		t.Fatalf("unexpected cache control %q", got)
	}

	names, err := s.ListExisting(ctx, existing.Query{Pattern: "*.webp", Limit: 1000})
	if err != nil {
		t.Fatalf("ListExisting: %v", err)
	}
	if len(names) != 1 || names[0] != "200000001.webp" {
		t.Fatalf("unexpected listing %v", names)
	}
}

func TestNewS3RequiresBucket(t *testing.T) {
	if _, err := store.NewS3(store.S3Options{Endpoint: "localhost:9000"}); err == nil {
		t.Fatal("expected missing bucket error")
	}
}
