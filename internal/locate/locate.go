// Package locate resolves the source image URL for a catalog item.
package locate

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"text/template"

	"cardsync/internal/catalog"
	"cardsync/internal/reconcile"
)

// DefaultKoreanCDN is the base for Korean card face images.
const DefaultKoreanCDN = "https://cards.image.pokemonkorea.co.kr/data/wmimages"

// ErrUnsupported reports an item whose naming scheme the locator cannot map.
var ErrUnsupported = errors.New("unsupported naming scheme")

// Locator derives the fetch URL for a catalog item.
type Locator interface {
	Locate(item catalog.Item) (string, error)
}

// Func adapts a function to Locator.
type Func func(item catalog.Item) (string, error)

// Locate calls f.
func (f Func) Locate(item catalog.Item) (string, error) { return f(item) }

// Direct uses Item.ImageRef as the URL.
type Direct struct{}

// Locate returns the item's image reference after checking it is an absolute
// http(s) URL.
func (Direct) Locate(item catalog.Item) (string, error) {
	ref := strings.TrimSpace(item.ImageRef)
	if ref == "" {
		return "", fmt.Errorf("%w: item %d has no image reference", ErrUnsupported, item.SourceID)
	}
	if err := checkURL(ref); err != nil {
		return "", err
	}
	return ref, nil
}

// Korean maps set codes onto the Korean CDN era folders:
//
//	{base}/{era}/{set}/{set}_{NNN}.png
type Korean struct {
	BaseURL string
}

// Locate builds the CDN URL from the group name's set code and the card number.
func (k Korean) Locate(item catalog.Item) (string, error) {
	code, ok := catalog.ExtractSetCode(item.GroupName)
	if !ok || code == "" {
		return "", fmt.Errorf("%w: no set code in group name %q", ErrUnsupported, item.GroupName)
	}
	era, ok := KoreanEra(code)
	if !ok {
		return "", fmt.Errorf("%w: no CDN era for set code %q", ErrUnsupported, code)
	}
	number := reconcile.CardNumberValue(item.CardNumber)
	if number < 0 {
		return "", fmt.Errorf("%w: card number %q is not numeric", ErrUnsupported, item.CardNumber)
	}
	base := strings.TrimRight(k.BaseURL, "/")
	if base == "" {
		base = DefaultKoreanCDN
	}
	return fmt.Sprintf("%s/%s/%s/%s_%03d.png", base, era, code, code, number), nil
}

// KoreanEra returns the CDN era folder for a set code.
func KoreanEra(code string) (string, bool) {
	lower := strings.ToLower(code)
	switch {
	case strings.HasPrefix(lower, "sv"):
		return "SV", true
	case strings.HasPrefix(code, "SM"):
		return "SM", true
	case strings.HasPrefix(code, "S"):
		return "S", true
	case strings.HasPrefix(lower, "m"):
		return "MEGA", true
	case strings.HasPrefix(code, "XY"):
		return "XY", true
	}
	return "", false
}

// Template renders a text/template over the item. Available fields:
// .SourceID .GroupID .CardNumber .CardNumberValue .DisplayName .GroupName
// .CategoryID .ImageRef .SetCode; the pad3 function zero-pads to three digits.
type Template struct {
	tmpl *template.Template
}

// NewTemplate parses a URL template.
func NewTemplate(text string) (*Template, error) {
	tmpl, err := template.New("url").Option("missingkey=error").Funcs(template.FuncMap{
		"pad3":  func(n int) string { return fmt.Sprintf("%03d", n) },
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
		"query": url.QueryEscape,
	}).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse url template: %w", err)
	}
	return &Template{tmpl: tmpl}, nil
}

type templateData struct {
	catalog.Item
	CardNumberValue int
	SetCode         string
}

// Locate executes the template and validates the result.
func (t *Template) Locate(item catalog.Item) (string, error) {
	code, _ := catalog.ExtractSetCode(item.GroupName)
	data := templateData{Item: item, CardNumberValue: reconcile.CardNumberValue(item.CardNumber), SetCode: code}
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	out := strings.TrimSpace(buf.String())
	if err := checkURL(out); err != nil {
		return "", err
	}
	return out, nil
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q is not an absolute http url", ErrUnsupported, raw)
	}
	return nil
}

// New builds the locator named by kind.
func New(kind, cdnBaseURL, urlTemplate string) (Locator, error) {
	switch kind {
	case "", "direct":
		return Direct{}, nil
	case "korean":
		return Korean{BaseURL: cdnBaseURL}, nil
	case "template":
		return NewTemplate(urlTemplate)
	default:
		return nil, fmt.Errorf("unknown locator %q", kind)
	}
}
