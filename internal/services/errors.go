package services

import (
	"errors"
	"fmt"
	"strings"
)

// Item-level markers mirror the processing steps; a registration failure is
// the only one that leaves a durable artifact behind.
var (
	ErrLocate        = errors.New("locate failed")
	ErrFetch         = errors.New("fetch failed")
	ErrTransform     = errors.New("transform failed")
	ErrPersist       = errors.New("persist failed")
	ErrRegister      = errors.New("register failed")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ArtifactLanded reports whether an item error still leaves the persisted
// artifact in place. Only registration failures qualify.
func ArtifactLanded(err error) bool {
	return err == nil || errors.Is(err, ErrRegister)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
