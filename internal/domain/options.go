package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TransitionType names the visual blend between two slides.
type TransitionType string

const (
	TransitionFade       TransitionType = "fade"
	TransitionCut        TransitionType = "cut"
	TransitionSlideLeft  TransitionType = "slide-left"
	TransitionSlideRight TransitionType = "slide-right"
	TransitionWipeLeft   TransitionType = "wipe-left"
	TransitionWipeRight  TransitionType = "wipe-right"
	TransitionDissolve   TransitionType = "dissolve"
)

// Rendering defaults. Portrait output targets the short-video players the
// share links embed into.
const (
	DefaultSlideDuration      = 3.0
	DefaultTransitionDuration = 0.5

	// TransitionEpsilon keeps a transition strictly inside its slide so a
	// fade never lands exactly on the slide boundary.
	TransitionEpsilon = 0.05
)

var knownTransitions = map[TransitionType]struct{}{
	TransitionFade:       {},
	TransitionCut:        {},
	TransitionSlideLeft:  {},
	TransitionSlideRight: {},
	TransitionWipeLeft:   {},
	TransitionWipeRight:  {},
	TransitionDissolve:   {},
}

// ParseTransition normalizes user input to a known transition type.
// Unrecognized styles fall back to fade.
func ParseTransition(raw string) TransitionType {
	t := TransitionType(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := knownTransitions[t]; ok {
		return t
	}
	return TransitionFade
}

// DisplayName returns a human-readable label for status responses,
// e.g. "Slide Left" for slide-left. A fresh Caser per call keeps this safe
// for concurrent handlers.
func (t TransitionType) DisplayName() string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(t), "-", " "))
}

// RenderOptions are the per-job rendering parameters, frozen at submission.
type RenderOptions struct {
	SlideDuration      float64
	TransitionDuration float64
	Transition         TransitionType
	AudioURL           string
}

// Normalize applies defaults and clamps the transition duration so it can
// never exceed or collide with the slide it belongs to. It returns a new
// value; jobs keep the normalized copy for their whole lifetime.
func (o RenderOptions) Normalize() RenderOptions {
	if o.SlideDuration <= 0 {
		o.SlideDuration = DefaultSlideDuration
	}
	if o.TransitionDuration < 0 {
		o.TransitionDuration = DefaultTransitionDuration
	}
	if o.TransitionDuration == 0 && o.Transition != TransitionCut {
		o.TransitionDuration = DefaultTransitionDuration
	}
	o.Transition = ParseTransition(string(o.Transition))
	if max := o.SlideDuration - TransitionEpsilon; o.TransitionDuration > max {
		o.TransitionDuration = max
	}
	if o.TransitionDuration < 0 {
		o.TransitionDuration = 0
	}
	o.AudioURL = strings.TrimSpace(o.AudioURL)
	return o
}

// EffectiveTransition is the transition duration actually rendered: zero
// for cut, the clamped duration otherwise.
func (o RenderOptions) EffectiveTransition() float64 {
	if o.Transition == TransitionCut {
		return 0
	}
	d := o.TransitionDuration
	if max := o.SlideDuration - TransitionEpsilon; d > max {
		d = max
	}
	if d < 0 {
		d = 0
	}
	return d
}
