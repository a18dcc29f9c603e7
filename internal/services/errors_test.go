package services_test

import (
	"errors"
	"strings"
	"testing"

	"cardsync/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrFetch, "fetch", "GET", "status 404", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"fetch", "GET", "status 404"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestArtifactLanded(t *testing.T) {
	if !services.ArtifactLanded(nil) {
		t.Fatal("nil error should report landed")
	}
	register := services.Wrap(services.ErrRegister, "register", "upsert", "", errors.New("500"))
	if !services.ArtifactLanded(register) {
		t.Fatal("register failure should leave the artifact")
	}
	persist := services.Wrap(services.ErrPersist, "persist", "put", "", errors.New("disk full"))
	if services.ArtifactLanded(persist) {
		t.Fatal("persist failure should not report landed")
	}
}
