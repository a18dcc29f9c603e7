package locate_test

import (
	"errors"
	"testing"

	"cardsync/internal/catalog"
	"cardsync/internal/locate"
)

func TestKoreanLocator(t *testing.T) {
	loc := locate.Korean{}
	cases := []struct {
		group, number, want string
	}{
		{"SV9a: Heat Wave Arena", "001/080", "https://cards.image.pokemonkorea.co.kr/data/wmimages/SV/SV9a/SV9a_001.png"},
		{"s12a: VSTAR Universe", "172/172", "https://cards.image.pokemonkorea.co.kr/data/wmimages/S/S12a/S12a_172.png"},
		{"SM12a: Tag All Stars", "7", "https://cards.image.pokemonkorea.co.kr/data/wmimages/SM/SM12a/SM12a_007.png"},
		{"M1L: Mega Brave", "12/63", "https://cards.image.pokemonkorea.co.kr/data/wmimages/MEGA/M1l/M1l_012.png"},
	}
	for _, tc := range cases {
		got, err := loc.Locate(catalog.Item{GroupName: tc.group, CardNumber: tc.number})
		if err != nil {
			t.Fatalf("Locate(%q) returned error: %v", tc.group, err)
		}
		if got != tc.want {
			t.Fatalf("Locate(%q) = %q want %q", tc.group, got, tc.want)
		}
	}
}

func TestKoreanLocatorFailures(t *testing.T) {
	loc := locate.Korean{BaseURL: "https://cdn.example/"}
	for _, item := range []catalog.Item{
		{GroupName: "Promo Cards", CardNumber: "1"},
		{GroupName: "BW1: Black", CardNumber: "1"},
		{GroupName: "SV1: Scarlet", CardNumber: "SV-P"},
	} {
		if _, err := loc.Locate(item); !errors.Is(err, locate.ErrUnsupported) {
			t.Fatalf("expected ErrUnsupported for %+v, got %v", item, err)
		}
	}
	got, err := loc.Locate(catalog.Item{GroupName: "XY1: Base", CardNumber: "2"})
	if err != nil || got != "https://cdn.example/XY/XY1/XY1_002.png" {
		t.Fatalf("unexpected XY url %q err=%v", got, err)
	}
}

func TestDirectLocator(t *testing.T) {
	if _, err := (locate.Direct{}).Locate(catalog.Item{}); !errors.Is(err, locate.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for empty ref, got %v", err)
	}
	if _, err := (locate.Direct{}).Locate(catalog.Item{ImageRef: "/relative.png"}); err == nil {
		t.Fatal("expected relative url to be rejected")
	}
	got, err := (locate.Direct{}).Locate(catalog.Item{ImageRef: " https://cdn.example/a.jpg "})
	if err != nil || got != "https://cdn.example/a.jpg" {
		t.Fatalf("unexpected direct url %q err=%v", got, err)
	}
}

func TestTemplateLocator(t *testing.T) {
	loc, err := locate.New("template", "", "https://img.example/{{.GroupID}}/{{.SetCode | lower}}_{{pad3 .CardNumberValue}}.jpg")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	got, err := loc.Locate(catalog.Item{GroupID: 42, GroupName: "SV9a: Arena", CardNumber: "5/80"})
	if err != nil {
		t.Fatalf("Locate returned error: %v", err)
	}
	if got != "https://img.example/42/sv9a_005.jpg" {
		t.Fatalf("unexpected template url %q", got)
	}
	if _, err := locate.NewTemplate("{{.Missing"); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := locate.New("scrape", "", ""); err == nil {
		t.Fatal("expected unknown locator error")
	}
}
