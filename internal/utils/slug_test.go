package utils

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"simple", "Fungi", "fungi"},
		{"spaces", "The Hidden Kingdom", "the-hidden-kingdom"},
		{"punctuation runs", "Rot, Renewal -- and Beyond!", "rot-renewal-and-beyond"},
		{"leading and trailing junk", "  ...Mushrooms!  ", "mushrooms"},
		{"digits kept", "Chapter 12: Spores", "chapter-12-spores"},
		{"case collapses", "FUNGI", "fungi"},
		{"only punctuation", "?!...", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.title); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	titles := []string{"The Hidden Kingdom", "Rot & Renewal", "fungi, sustainability"}
	for _, title := range titles {
		first := Slugify(title)
		second := Slugify(title)
		if first != second {
			t.Errorf("Slugify(%q) not stable: %q then %q", title, first, second)
		}
		if Slugify(first) != first {
			t.Errorf("Slugify(%q) not idempotent over its own output %q", title, first)
		}
	}
}

func TestSlugFromTitleOrKeywords(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		keywords string
		want     string
	}{
		{"title wins", "The Hidden Kingdom", "fungi, sustainability", "the-hidden-kingdom"},
		{"falls back to first keyword", "", "fungi, sustainability", "fungi"},
		{"unusable title falls back", "?!", "soil biology, compost", "soil-biology"},
		{"nothing usable", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SlugFromTitleOrKeywords(tt.title, tt.keywords); got != tt.want {
				t.Errorf("SlugFromTitleOrKeywords(%q, %q) = %q, want %q", tt.title, tt.keywords, got, tt.want)
			}
		})
	}
}
