package assignment

import (
	"math/rand"
	"strings"
	"testing"
)

func TestIsMissing(t *testing.T) {
	tests := []struct {
		name   string
		points string
		score  string
		want   bool
	}{
		{name: "zero earned", points: "0.00 / 10.0000", score: "F", want: true},
		{name: "zero earned, empty score", points: "0.00 / 10.0000", score: "", want: true},
		{name: "zero weight placeholder", points: "0.00 / 0.0000", score: "F", want: false},
		{name: "not graded", points: "0.00 / 10.0000", score: "Not Graded", want: false},
		{name: "not due", points: "0.00 / 10.0000", score: "Not Due", want: false},
		{name: "full marks", points: "10.00 / 10.0000", score: "A", want: false},
		{name: "partial", points: "5.00 / 10.0000", score: "C", want: false},
		{name: "ungraded points", points: " / 10.0000", score: "", want: false},
		{name: "notes do not matter", points: "8.00 / 10.0000", score: "B", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Assignment{Points: tt.points, Score: tt.score, Notes: "missing"}
			if got := IsMissing(a); got != tt.want {
				t.Errorf("IsMissing(%q, %q) = %v, want %v", tt.points, tt.score, got, tt.want)
			}
		})
	}
}

// TestIsMissingProperty checks the predicate against randomly generated Points/Score pairs.
func TestIsMissingProperty(t *testing.T) {
	earned := []string{"0.00", "0.50", "1.00", "10.00", "0.001", ""}
	possible := []string{"0.0000", "10.0000", "5.0000", "100.0000"}
	scores := []string{"Not Graded", "Not Due", "F", "A", "", "0", "not graded"}

	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		a := Assignment{
			Points: earned[rnd.Intn(len(earned))] + " / " + possible[rnd.Intn(len(possible))],
			Score:  scores[rnd.Intn(len(scores))],
		}
		want := strings.HasPrefix(a.Points, "0.00") &&
			!strings.HasSuffix(a.Points, "/ 0.0000") &&
			a.Score != "Not Graded" && a.Score != "Not Due"
		if got := IsMissing(a); got != want {
			t.Fatalf("IsMissing(%+v) = %v, want %v", a, got, want)
		}
	}
}

func TestClassify(t *testing.T) {
	courses := []Course{
		{Period: "1", ClassName: "Math", Assignments: []Assignment{
			{Measure: "HW 1", Points: "0.00 / 10.0000", Score: "F"},
			{Measure: "HW 2", Points: "10.00 / 10.0000", Score: "A"},
		}},
		{Period: "2", ClassName: "Art", Assignments: []Assignment{
			{Measure: "Sketch", Points: "0.00 / 10.0000", Score: "Not Due"},
		}},
		{Period: "3", ClassName: "Bio"},
	}

	set := Classify(courses)
	if len(set) != 1 || set[0].ClassName != "Math" {
		t.Fatalf("Classify() = %+v, want only Math", set)
	}
	if set.Count() != 1 || set[0].Assignments[0].Measure != "HW 1" {
		t.Errorf("Classify() kept %+v, want HW 1 only", set[0].Assignments)
	}
	if len(courses[0].Assignments) != 2 {
		t.Error("Classify() mutated its input")
	}
	if got := Classify(nil); got == nil || !got.IsEmpty() {
		t.Errorf("Classify(nil) = %#v, want empty set", got)
	}
}
