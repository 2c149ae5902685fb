package student

import (
	"context"
	"fmt"
	"strconv"

	"github.com/trezcool/gradewatch/core"
	"github.com/trezcool/gradewatch/core/assignment"
)

// FakeFetcher serves canned documents. Gradebooks are per child index;
// a single gradebook is served to every child.
type FakeFetcher struct {
	Students    core.Document
	CalendarDoc core.Document
	ScheduleDoc core.Document
	Gradebooks  []core.Document
	Err         error

	Child int
	Calls []string
}

var _ ChildSelector = (*FakeFetcher)(nil)

func (f *FakeFetcher) record(call string) error {
	f.Calls = append(f.Calls, call)
	return f.Err
}

func (f *FakeFetcher) ForChild(index int) Fetcher {
	f.Child = index
	return f
}

func (f *FakeFetcher) StudentList(_ context.Context) (core.Document, error) {
	return f.Students, f.record("StudentList")
}

func (f *FakeFetcher) Calendar(_ context.Context) (core.Document, error) {
	return f.CalendarDoc, f.record("Calendar")
}

func (f *FakeFetcher) Schedule(_ context.Context, termIndex *int) (core.Document, error) {
	return f.ScheduleDoc, f.record("Schedule(" + fmtIndex(termIndex) + ")")
}

func (f *FakeFetcher) Gradebook(_ context.Context, reportPeriod *int) (core.Document, error) {
	err := f.record(fmt.Sprintf("Gradebook(%s) child=%d", fmtIndex(reportPeriod), f.Child))
	switch {
	case len(f.Gradebooks) == 0:
		return nil, err
	case f.Child < len(f.Gradebooks):
		return f.Gradebooks[f.Child], err
	default:
		return f.Gradebooks[0], err
	}
}

func fmtIndex(i *int) string {
	if i == nil {
		return "current"
	}
	return strconv.Itoa(*i)
}

// ChildListDoc builds a ChildList document out of ids.
func ChildListDoc(district string, ids ...Identity) core.Document {
	children := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		children = append(children, map[string]interface{}{
			"-ChildPermID":     id.PermID,
			"-AccessGU":        id.AccessID,
			"-ChildFirstName":  id.FirstName,
			"ChildName":        id.FullName,
			"OrganizationName": id.SchoolName,
			"photo":            id.Photo,
		})
	}
	return core.Document{"ChildList": map[string]interface{}{
		"-DistrictName": district,
		"Child":         children,
	}}
}

// CalendarDocWith builds a StudentCalendar document; events are {date, day type} pairs.
func CalendarDocWith(schoolYear core.Window, events ...[2]string) core.Document {
	list := make([]interface{}, 0, len(events))
	for _, ev := range events {
		list = append(list, map[string]interface{}{"-Date": ev[0], "-DayType": ev[1], "-Title": ev[1]})
	}
	return core.Document{"CalendarListing": map[string]interface{}{
		"-SchoolBegDate": core.FormatDate(schoolYear.Start),
		"-SchoolEndDate": core.FormatDate(schoolYear.End),
		"EventLists":     map[string]interface{}{"EventList": list},
	}}
}

// ScheduleDocWith builds a StudentClassList document whose current term is current.
func ScheduleDocWith(current int, terms []Term, classes ...Class) core.Document {
	termList := make([]interface{}, 0, len(terms))
	for _, t := range terms {
		termList = append(termList, map[string]interface{}{
			"-TermIndex": strconv.Itoa(t.Index),
			"-TermName":  t.Name,
			"-BeginDate": core.FormatDate(t.Window.Start),
			"-EndDate":   core.FormatDate(t.Window.End),
		})
	}
	classList := make([]interface{}, 0, len(classes))
	for _, c := range classes {
		classList = append(classList, map[string]interface{}{
			"-Period":       c.Period,
			"-CourseTitle":  c.Title,
			"-RoomName":     c.Room,
			"-Teacher":      c.Teacher,
			"-TeacherEmail": c.TeacherEmail,
		})
	}
	return core.Document{"StudentClassSchedule": map[string]interface{}{
		"-TermIndex": strconv.Itoa(current),
		"TermLists":  map[string]interface{}{"TermListing": termList},
		"ClassLists": map[string]interface{}{"ClassListing": classList},
	}}
}

// GradebookDocWith builds a Gradebook document whose current reporting period is current.
// Every course carries a single (progress report) mark.
func GradebookDocWith(current string, periods []ReportPeriod, courses ...assignment.Course) core.Document {
	periodList := make([]interface{}, 0, len(periods))
	for _, p := range periods {
		periodList = append(periodList, map[string]interface{}{
			"-Index":       strconv.Itoa(p.Index),
			"-GradePeriod": p.Name,
			"-StartDate":   core.FormatDate(p.Window.Start),
			"-EndDate":     core.FormatDate(p.Window.End),
		})
	}
	courseList := make([]interface{}, 0, len(courses))
	for _, c := range courses {
		items := make([]interface{}, 0, len(c.Assignments))
		for _, a := range c.Assignments {
			items = append(items, map[string]interface{}{
				"-Date":          a.Date,
				"-DueDate":       a.DueDate,
				"-Measure":       a.Measure,
				"-Type":          a.Type,
				"-Score":         a.Score,
				"-ScoreType":     a.ScoreType,
				"-Points":        a.Points,
				"-Notes":         a.Notes,
				"-HasDropBox":    strconv.FormatBool(a.HasDropBox),
				"-DropStartDate": a.DropStartDate,
				"-DropEndDate":   a.DropEndDate,
			})
		}
		courseList = append(courseList, map[string]interface{}{
			"-Period": c.Period,
			"-Title":  c.ClassName,
			"Marks": map[string]interface{}{"Mark": map[string]interface{}{
				"-MarkName":              current,
				"-CalculatedScoreString": "B",
				"-CalculatedScoreRaw":    "85",
				"Assignments":            map[string]interface{}{"Assignment": items},
			}},
		})
	}
	return core.Document{"Gradebook": map[string]interface{}{
		"ReportingPeriods": map[string]interface{}{"ReportPeriod": periodList},
		"ReportingPeriod":  map[string]interface{}{"-GradePeriod": current},
		"Courses":          map[string]interface{}{"Course": courseList},
	}}
}

// TermGradebookDocWith is GradebookDocWith in the term shape: every course carries
// one mark per name in markNames, the assignments going to the first one.
func TermGradebookDocWith(current string, periods []ReportPeriod, markNames []string, courses ...assignment.Course) core.Document {
	doc := GradebookDocWith(current, periods, courses...)
	gradebook := doc["Gradebook"].(map[string]interface{})
	for _, c := range gradebook["Courses"].(map[string]interface{})["Course"].([]interface{}) {
		marks := c.(map[string]interface{})["Marks"].(map[string]interface{})
		single := marks["Mark"].(map[string]interface{})

		list := make([]interface{}, 0, len(markNames))
		for i, name := range markNames {
			items := map[string]interface{}{"Assignment": []interface{}{}}
			if i == 0 {
				items = single["Assignments"].(map[string]interface{})
			}
			list = append(list, map[string]interface{}{
				"-MarkName":              name,
				"-CalculatedScoreString": single["-CalculatedScoreString"],
				"-CalculatedScoreRaw":    single["-CalculatedScoreRaw"],
				"Assignments":            items,
			})
		}
		marks["Mark"] = list
	}
	return doc
}
