package domain

import "testing"

func TestRenderOptions_NormalizeDefaults(t *testing.T) {
	opts := RenderOptions{}.Normalize()

	if opts.SlideDuration != DefaultSlideDuration {
		t.Fatalf("slide duration: got %v, want %v", opts.SlideDuration, DefaultSlideDuration)
	}
	if opts.TransitionDuration != DefaultTransitionDuration {
		t.Fatalf("transition duration: got %v, want %v", opts.TransitionDuration, DefaultTransitionDuration)
	}
	if opts.Transition != TransitionFade {
		t.Fatalf("transition: got %q, want fade", opts.Transition)
	}
}

func TestRenderOptions_ClampsTransitionToSlide(t *testing.T) {
	opts := RenderOptions{SlideDuration: 1, TransitionDuration: 2, Transition: TransitionFade}.Normalize()

	want := 1 - TransitionEpsilon
	if opts.TransitionDuration != want {
		t.Fatalf("transition duration: got %v, want %v", opts.TransitionDuration, want)
	}
	if got := opts.EffectiveTransition(); got != want {
		t.Fatalf("effective transition: got %v, want %v", got, want)
	}
}

func TestRenderOptions_CutHasNoTransition(t *testing.T) {
	opts := RenderOptions{SlideDuration: 3, TransitionDuration: 0.5, Transition: TransitionCut}.Normalize()

	if got := opts.EffectiveTransition(); got != 0 {
		t.Fatalf("effective transition for cut: got %v, want 0", got)
	}
}

func TestParseTransition(t *testing.T) {
	tests := []struct {
		raw  string
		want TransitionType
	}{
		{"fade", TransitionFade},
		{"CUT", TransitionCut},
		{" slide-left ", TransitionSlideLeft},
		{"wipe-right", TransitionWipeRight},
		{"dissolve", TransitionDissolve},
		{"sparkle", TransitionFade},
		{"", TransitionFade},
	}
	for _, tt := range tests {
		if got := ParseTransition(tt.raw); got != tt.want {
			t.Errorf("ParseTransition(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestTransitionDisplayName(t *testing.T) {
	if got := TransitionSlideLeft.DisplayName(); got != "Slide Left" {
		t.Fatalf("display name: got %q, want %q", got, "Slide Left")
	}
	if got := TransitionFade.DisplayName(); got != "Fade" {
		t.Fatalf("display name: got %q, want %q", got, "Fade")
	}
}

func TestProduct_SlideURLs(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		want    int
		first   string
	}{
		{
			name:    "media list preferred",
			product: Product{MediaURLs: []string{"a", "b"}, PreviewURL: "p"},
			want:    2,
			first:   "a",
		},
		{
			name:    "preview fallback",
			product: Product{PreviewURL: "p", Link: "l"},
			want:    1,
			first:   "p",
		},
		{
			name:    "link fallback",
			product: Product{Link: "l"},
			want:    1,
			first:   "l",
		},
		{
			name:    "nothing usable",
			product: Product{},
			want:    0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			urls := tt.product.SlideURLs()
			if len(urls) != tt.want {
				t.Fatalf("got %d urls, want %d", len(urls), tt.want)
			}
			if tt.want > 0 && urls[0] != tt.first {
				t.Fatalf("first url: got %q, want %q", urls[0], tt.first)
			}
		})
	}
}
