package assignment

import "strings"

const (
	zeroEarnedPrefix   = "0.00"
	zeroPossibleSuffix = "/ 0.0000"

	ScoreNotGraded = "Not Graded"
	ScoreNotDue    = "Not Due"
)

// IsMissing reports whether a was scored at zero earned points on a non-placeholder
// assignment that is graded and due. Points are matched as text, not parsed, to keep
// the upstream formatting semantics.
func IsMissing(a Assignment) bool {
	return strings.HasPrefix(a.Points, zeroEarnedPrefix) &&
		!strings.HasSuffix(a.Points, zeroPossibleSuffix) &&
		a.Score != ScoreNotGraded &&
		a.Score != ScoreNotDue
}

// Classify returns new course records holding only missing assignments.
// Courses without any are omitted; courses is left untouched.
func Classify(courses []Course) MissingSet {
	set := make(MissingSet, 0)
	for _, c := range courses {
		var missing []Assignment
		for _, a := range c.Assignments {
			if IsMissing(a) {
				missing = append(missing, a)
			}
		}
		if len(missing) > 0 {
			set = append(set, Course{Period: c.Period, ClassName: c.ClassName, Assignments: missing})
		}
	}
	return set
}
