package question_test

import (
	"strings"
	"testing"

	"github.com/seonjhang/gAIm-Systems/internal/question"
)

func TestDetector_IsQuestion(t *testing.T) {
	t.Parallel()

	d := question.NewDetector(question.DefaultTables())

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"trailing question mark", "Did you expect this?", true},
		{"trailing question mark after trim", "  How did it feel?  ", true},
		{"opener without question mark", "did you expect to go that early", true},
		{"opener uppercase", "DID YOU SEE THAT", true},
		{"tell us opener", "Tell us about your draft day.", true},
		{"walk us opener", "Walk us through the overtime goal.", true},
		{"contains phrase mid-sentence", "and I wonder what is your plan for camp", true},
		{"contains how do you feel", "so how do you feel about the trade", true},
		{"plain statement", "It was amazing, my family was there.", false},
		{"first person answer", "Yeah, I mean it's been a dream.", false},
		{"empty", "", false},
		{"whitespace only", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := d.IsQuestion(tt.text); got != tt.want {
				t.Errorf("IsQuestion(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestDetector_OpenerLengthCap(t *testing.T) {
	t.Parallel()

	d := question.NewDetector(question.DefaultTables())

	// 16 words starting with an opener: narrative, not a question.
	long := "did you " + strings.Repeat("really ", 14)
	if d.IsQuestion(long) {
		t.Errorf("IsQuestion(%d-word opener text) = true, want false past the cap", len(strings.Fields(long)))
	}

	// 15 words is still within the cap.
	short := "did you " + strings.Repeat("really ", 13)
	if !d.IsQuestion(short) {
		t.Errorf("IsQuestion(%d-word opener text) = false, want true within the cap", len(strings.Fields(short)))
	}
}

func TestDetector_ZeroCapDisablesLimit(t *testing.T) {
	t.Parallel()

	tables := question.DefaultTables()
	tables.MaxOpenerWords = 0
	d := question.NewDetector(tables)

	long := "did you " + strings.Repeat("really ", 30)
	if !d.IsQuestion(long) {
		t.Error("IsQuestion(long opener text) = false, want true when cap is disabled")
	}
}

func TestDetector_CustomTables(t *testing.T) {
	t.Parallel()

	d := question.NewDetector(question.Tables{
		Openers:        []string{"explain"},
		Contains:       []string{"your thoughts on"},
		MaxOpenerWords: 15,
	})

	if !d.IsQuestion("Explain the penalty kill.") {
		t.Error("IsQuestion with custom opener = false, want true")
	}
	if !d.IsQuestion("give me your thoughts on the third period") {
		t.Error("IsQuestion with custom contains phrase = false, want true")
	}
	// Default openers must not apply once substituted.
	if d.IsQuestion("did you expect this") {
		t.Error("IsQuestion matched a default opener after table substitution")
	}
}

func TestDetector_IsCoreQuestion(t *testing.T) {
	t.Parallel()

	d := question.NewDetector(question.DefaultTables())

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"trailing question mark", "How did it feel?", true},
		{"single-word opener", "what happened out there", true},
		{"two-word opener", "tell us about the game", true},
		{"do you opener", "do you like the new rink", true},
		{"long narrative with opener word", "when we got to the third period we knew we had to push and the crowd carried us home", false},
		{"long span still a question with mark", "when we look back at everything that happened across this long difficult season what stands out most to you about the group?", true},
		{"statement", "I felt great out there tonight.", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := d.IsCoreQuestion(tt.text); got != tt.want {
				t.Errorf("IsCoreQuestion(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestDetector_CoreOpenerWordBoundary(t *testing.T) {
	t.Parallel()

	d := question.NewDetector(question.DefaultTables())

	// "whatever" starts with "what" but is not the word "what".
	if d.IsCoreQuestion("whatever happens happens") {
		t.Error(`IsCoreQuestion("whatever happens happens") = true, want false`)
	}
}

func TestDetector_CoreIgnoresContainsPhrases(t *testing.T) {
	t.Parallel()

	d := question.NewDetector(question.DefaultTables())

	// The contains list applies to the full-transcript pipeline only.
	text := "I know what is your usual answer here"
	if !d.IsQuestion(text) {
		t.Errorf("IsQuestion(%q) = false, want true via contains phrase", text)
	}
	if d.IsCoreQuestion(text) {
		t.Errorf("IsCoreQuestion(%q) = true, want false (contains phrases do not apply)", text)
	}
}
