// Package keys derives storage object names from target identifiers and
// parses them back.
//
// An object name depends only on the target id, plus an optional
// {category}/{group}/ directory prefix for layouts that group images by set.
package keys

import (
	"path"
	"strconv"
	"strings"

	"cardsync/internal/ident"
)

// Layout names.
const (
	Flat          = "flat"
	CategoryGroup = "category_group"
)

const productPrefix = "product_"

// Layout builds and parses object names for one source.
type Layout struct {
	Kind       string
	Prefix     string
	CategoryID int64
	Ext        string
}

// ExtForCodec maps a codec name to its file extension.
func ExtForCodec(codec string) string {
	switch strings.ToLower(codec) {
	case "jpeg", "jpg":
		return "jpg"
	case "png":
		return "png"
	default:
		return "webp"
	}
}

// ContentType maps an extension to its MIME type.
func ContentType(ext string) string {
	switch ext {
	case "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	default:
		return "image/webp"
	}
}

func (l Layout) ext() string {
	if l.Ext == "" {
		return "webp"
	}
	return l.Ext
}

func (l Layout) join(parts ...string) string {
	if l.Prefix != "" {
		parts = append([]string{l.Prefix}, parts...)
	}
	return path.Join(parts...)
}

// Key returns the object name for target. groupID is used only by the
// category_group layout.
func (l Layout) Key(target ident.TargetID, groupID int64) string {
	file := target.String() + "." + l.ext()
	if l.Kind == CategoryGroup {
		return l.join(strconv.FormatInt(l.CategoryID, 10), strconv.FormatInt(groupID, 10), productPrefix+file)
	}
	return l.join(file)
}

// Pattern returns a wildcard pattern ("*" matches within one path segment)
// covering every name this layout produces.
func (l Layout) Pattern() string {
	if l.Kind == CategoryGroup {
		return l.join(strconv.FormatInt(l.CategoryID, 10), "*", productPrefix+"*."+l.ext())
	}
	return l.join("*." + l.ext())
}

// ListPrefix returns the literal directory prefix shared by all names, with a
// trailing slash, or "" when names live at the root.
func (l Layout) ListPrefix() string {
	pattern := l.Pattern()
	if idx := strings.Index(pattern, "*"); idx >= 0 {
		pattern = pattern[:idx]
	}
	if idx := strings.LastIndex(pattern, "/"); idx >= 0 {
		return pattern[:idx+1]
	}
	return ""
}

// Parse extracts the target id from an object name produced by this layout.
func (l Layout) Parse(name string) (ident.TargetID, bool) {
	if ok, _ := path.Match(l.Pattern(), name); !ok {
		return 0, false
	}
	base := strings.TrimSuffix(path.Base(name), "."+l.ext())
	if l.Kind == CategoryGroup {
		base = strings.TrimPrefix(base, productPrefix)
	}
	id, err := strconv.ParseInt(base, 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return ident.TargetID(id), true
}

// Match reports whether name satisfies a Pattern-style wildcard.
func Match(pattern, name string) bool {
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}

// LikePattern converts a wildcard pattern into a SQL/PostgREST LIKE pattern.
func LikePattern(pattern string) string {
	return strings.ReplaceAll(pattern, "*", "%")
}
