package assignment

import (
	"fmt"
	"strconv"

	"github.com/trezcool/gradewatch/core"
)

// Normalize converts a gradebook document into uniform course records.
//
// A course's Marks.Mark is either a single mark (progress report shape, used as-is)
// or a collection keyed by MarkName (term shape, the mark named markName is selected).
// Courses with no usable mark are skipped silently; courses with an unexpected shape
// are skipped and reported in skipped.
func Normalize(gradebook core.Document, markName string) (courses []Course, skipped []error) {
	raw, err := gradebook.List("Gradebook", "Courses", "Course")
	if err != nil {
		return nil, []error{err}
	}

	courses = make([]Course, 0, len(raw))
	for i, c := range raw {
		path := fmt.Sprintf("Gradebook.Courses.Course[%d]", i)
		mark, ok, err := selectMark(c, markName, path)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		if !ok {
			continue
		}
		items, err := mark.List("Assignments", "Assignment")
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		course := Course{
			Period:      core.CleanString(c.Attr("Period")),
			ClassName:   c.Attr("Title"),
			Assignments: make([]Assignment, 0, len(items)),
		}
		for _, item := range items {
			course.Assignments = append(course.Assignments, newAssignment(item))
		}
		courses = append(courses, course)
	}
	return courses, skipped
}

// NormalizeGrades extracts each course's current mark.
func NormalizeGrades(gradebook core.Document, markName string) (grades []Grade, skipped []error) {
	raw, err := gradebook.List("Gradebook", "Courses", "Course")
	if err != nil {
		return nil, []error{err}
	}

	grades = make([]Grade, 0, len(raw))
	for i, c := range raw {
		mark, ok, err := selectMark(c, markName, fmt.Sprintf("Gradebook.Courses.Course[%d]", i))
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		if !ok {
			continue
		}
		grades = append(grades, Grade{
			Period:      core.CleanString(c.Attr("Period")),
			Title:       c.Attr("Title"),
			Room:        c.Attr("Room"),
			Staff:       c.Attr("Staff"),
			StaffEmail:  c.Attr("StaffEMail"),
			ScoreString: mark.Attr("CalculatedScoreString"),
			ScoreRaw:    mark.Attr("CalculatedScoreRaw"),
		})
	}
	return grades, skipped
}

func selectMark(course core.Document, markName, path string) (core.Document, bool, error) {
	raw := course.Lookup("Marks", "Mark")
	marks, err := core.AsList(raw, path+".Marks.Mark")
	if err != nil {
		return nil, false, err
	}
	if len(marks) == 0 {
		return nil, false, nil
	}
	switch raw.(type) {
	case map[string]interface{}, core.Document:
		return marks[0], true, nil // progress report
	}
	for _, m := range marks {
		if m.Attr("MarkName") == markName {
			return m, true, nil
		}
	}
	return nil, false, nil
}

func newAssignment(d core.Document) Assignment {
	hasDropBox, _ := strconv.ParseBool(core.CleanString(d.Attr("HasDropBox")))
	return Assignment{
		Date:          d.Attr("Date"),
		DueDate:       d.Attr("DueDate"),
		Measure:       d.Attr("Measure"),
		Type:          d.Attr("Type"),
		Score:         d.Attr("Score"),
		ScoreType:     d.Attr("ScoreType"),
		Points:        d.Attr("Points"),
		Notes:         d.Attr("Notes"),
		HasDropBox:    hasDropBox,
		DropStartDate: d.Attr("DropStartDate"),
		DropEndDate:   d.Attr("DropEndDate"),
	}
}
