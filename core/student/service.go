package student

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/gradewatch/core"
	"github.com/trezcool/gradewatch/core/assignment"
)

var (
	// errors
	ErrNoIdentity           = errors.New("no first name or access ID was specified")
	ErrStudentNotFound      = errors.New("student not found")
	ErrTermNotFound         = errors.New("grading term not found")
	ErrReportPeriodNotFound = errors.New("reporting period not found")
	ErrNoPhoto              = errors.New("student has no photo")
)

// lookup misses suggest the closest known name above this ratio
const suggestionRatio = 0.6

type (
	// Fetcher returns the raw upstream documents of the current account.
	Fetcher interface {
		StudentList(ctx context.Context) (core.Document, error)
		Calendar(ctx context.Context) (core.Document, error)
		Schedule(ctx context.Context, termIndex *int) (core.Document, error)
		Gradebook(ctx context.Context, reportPeriod *int) (core.Document, error)
	}

	// ChildSelector is implemented by fetchers of parent accounts,
	// whose per-student documents depend on the child index.
	ChildSelector interface {
		ForChild(index int) Fetcher
	}

	// Lookup identifies a student; the first name wins when both are set.
	Lookup struct {
		FirstName string
		AccessID  string
	}

	// Selection picks a grading term and a reporting period.
	// Unset values fall back to the upstream's current ones; an index wins over a name.
	Selection struct {
		TermIndex         *int
		ReportPeriodIndex *int
		ReportPeriodName  string
		Mark              MarkSource
	}

	// MarkSource names the mark picked from term-shaped gradebooks.
	MarkSource int

	calendarState struct {
		today        core.Date
		schoolYear   core.Window
		holiday      bool
		term         Term
		reportPeriod ReportPeriod
	}
)

const (
	MarkByTerm         MarkSource = iota // the grading term name (default)
	MarkByReportPeriod                   // the reporting period name
)

var markSourceNames = map[string]MarkSource{
	"term":          MarkByTerm,
	"report-period": MarkByReportPeriod,
}

func ParseMarkSource(s string) (MarkSource, error) {
	s = core.CleanString(s, true /* lower */)
	if s == "" {
		return MarkByTerm, nil
	}
	if m, ok := markSourceNames[s]; ok {
		return m, nil
	}
	return 0, errors.Errorf("unknown mark source %q", s)
}

func (l Lookup) IsZero() bool {
	return core.CleanString(l.FirstName) == "" && core.CleanString(l.AccessID) == ""
}

func (l Lookup) String() string {
	if name := core.CleanString(l.FirstName); name != "" {
		return name
	}
	return core.CleanString(l.AccessID)
}

// Build resolves the student's identity, then the calendar, term and reporting period,
// then fetches the schedule and the gradebook. Phases run in that order, once.
func Build(ctx context.Context, f Fetcher, lookup Lookup, sel Selection) (*Student, error) {
	if lookup.IsZero() {
		return nil, ErrNoIdentity
	}
	id, err := resolveIdentity(ctx, f, lookup)
	if err != nil {
		return nil, err
	}
	return build(ctx, forChild(f, id), id, sel)
}

// WithTerm returns a copy of s re-resolved for the grading term idx.
func (s *Student) WithTerm(ctx context.Context, f Fetcher, idx int) (*Student, error) {
	sel := s.Selection
	sel.TermIndex = &idx
	return build(ctx, forChild(f, s.Identity), s.Identity, sel)
}

// WithReportPeriod returns a copy of s re-resolved for the reporting period
// matching idx or, when idx is nil, name.
func (s *Student) WithReportPeriod(ctx context.Context, f Fetcher, idx *int, name string) (*Student, error) {
	sel := s.Selection
	sel.ReportPeriodIndex = idx
	sel.ReportPeriodName = name
	return build(ctx, forChild(f, s.Identity), s.Identity, sel)
}

// List returns every student of the account, in upstream order.
func List(ctx context.Context, f Fetcher) ([]Identity, error) {
	doc, err := f.StudentList(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "student.List")
	}
	list := doc.Child("ChildList")
	children, err := list.List("Child")
	if err != nil {
		return nil, errors.Wrap(err, "student.List")
	}
	district := list.Attr("DistrictName")

	ids := make([]Identity, 0, len(children))
	for i, c := range children {
		ids = append(ids, Identity{
			PermID:     c.Attr("ChildPermID"),
			AccessID:   c.Attr("AccessGU"),
			FirstName:  c.Attr("ChildFirstName"),
			FullName:   c.Text("ChildName"),
			SchoolName: c.Text("OrganizationName"),
			District:   district,
			ChildIndex: i,
			Photo:      c.Text("photo"),
		})
	}
	return ids, nil
}

func build(ctx context.Context, f Fetcher, id Identity, sel Selection) (*Student, error) {
	cal, err := resolveCalendar(ctx, f, sel, core.Today())
	if err != nil {
		return nil, err
	}
	st := &Student{
		Identity:     id,
		Today:        cal.today,
		SchoolYear:   cal.schoolYear,
		Holiday:      cal.holiday,
		Term:         cal.term,
		ReportPeriod: cal.reportPeriod,
		Selection:    sel,
	}
	if err := populate(ctx, f, st); err != nil {
		return nil, err
	}
	return st, nil
}

func forChild(f Fetcher, id Identity) Fetcher {
	if cs, ok := f.(ChildSelector); ok {
		return cs.ForChild(id.ChildIndex)
	}
	return f
}

// resolveIdentity finds the first student matching lookup.
func resolveIdentity(ctx context.Context, f Fetcher, lookup Lookup) (Identity, error) {
	ids, err := List(ctx, f)
	if err != nil {
		return Identity{}, err
	}

	byName := core.CleanString(lookup.FirstName) != ""
	query := lookup.String()
	candidates := make([]string, 0, len(ids))
	for _, id := range ids {
		key := id.AccessID
		if byName {
			key = id.FirstName
		}
		if key == query {
			return id, nil
		}
		candidates = append(candidates, key)
	}

	if s := suggest(query, candidates); s != "" {
		return Identity{}, errors.Wrapf(ErrStudentNotFound, "%q (did you mean %q?)", query, s)
	}
	return Identity{}, errors.Wrapf(ErrStudentNotFound, "%q", query)
}

func suggest(query string, candidates []string) string {
	var (
		best  string
		ratio float64
	)
	q := strings.Split(strings.ToLower(query), "")
	for _, c := range candidates {
		r := difflib.NewMatcher(q, strings.Split(strings.ToLower(c), "")).Ratio()
		if r > ratio {
			best, ratio = c, r
		}
	}
	if ratio < suggestionRatio {
		return ""
	}
	return best
}

// resolveCalendar resolves the school year, today's holiday flag, the grading term
// and the reporting period. It must complete before any gradebook fetch for a period.
func resolveCalendar(ctx context.Context, f Fetcher, sel Selection, today core.Date) (calendarState, error) {
	cal := calendarState{today: today}

	doc, err := f.Calendar(ctx)
	if err != nil {
		return cal, errors.Wrap(err, "student.resolveCalendar: calendar")
	}
	listing := doc.Child("CalendarListing")
	if cal.schoolYear, err = optionalWindow(listing.Attr("SchoolBegDate"), listing.Attr("SchoolEndDate")); err != nil {
		return cal, errors.Wrap(err, "student.resolveCalendar: school year")
	}
	if cal.holiday, err = isHoliday(listing, today); err != nil {
		return cal, errors.Wrap(err, "student.resolveCalendar: events")
	}

	if cal.term, err = resolveTerm(ctx, f, sel.TermIndex); err != nil {
		return cal, err
	}
	if cal.reportPeriod, err = resolveReportPeriod(ctx, f, sel); err != nil {
		return cal, err
	}
	return cal, nil
}

func isHoliday(listing core.Document, today core.Date) (bool, error) {
	events, err := listing.List("EventLists", "EventList")
	if err != nil {
		return false, err
	}
	for _, ev := range events {
		if !strings.EqualFold(core.CleanString(ev.Attr("DayType")), "Holiday") {
			continue
		}
		if d, err := core.ParseDate(ev.Attr("Date")); err == nil && d == today {
			return true, nil
		}
	}
	return false, nil
}

func resolveTerm(ctx context.Context, f Fetcher, idx *int) (Term, error) {
	doc, err := f.Schedule(ctx, idx)
	if err != nil {
		return Term{}, errors.Wrap(err, "student.resolveTerm: schedule")
	}
	schedule := doc.Child("StudentClassSchedule")
	terms, err := schedule.List("TermLists", "TermListing")
	if err != nil {
		return Term{}, errors.Wrap(err, "student.resolveTerm")
	}

	want := schedule.Attr("TermIndex") // upstream current
	if idx != nil {
		want = strconv.Itoa(*idx)
	}
	want = core.CleanString(want)
	for _, t := range terms {
		if core.CleanString(t.Attr("TermIndex")) != want {
			continue
		}
		n, err := strconv.Atoi(want)
		if err != nil {
			break
		}
		w, err := core.NewWindow(t.Attr("BeginDate"), t.Attr("EndDate"))
		if err != nil {
			return Term{}, errors.Wrapf(err, "student.resolveTerm: term %s", want)
		}
		return Term{Index: n, Name: t.Attr("TermName"), Window: w}, nil
	}
	return Term{}, errors.Wrapf(ErrTermNotFound, "index %q", want)
}

func resolveReportPeriod(ctx context.Context, f Fetcher, sel Selection) (ReportPeriod, error) {
	doc, err := f.Gradebook(ctx, nil)
	if err != nil {
		return ReportPeriod{}, errors.Wrap(err, "student.resolveReportPeriod: gradebook")
	}
	gradebook := doc.Child("Gradebook")
	periods, err := gradebook.List("ReportingPeriods", "ReportPeriod")
	if err != nil {
		return ReportPeriod{}, errors.Wrap(err, "student.resolveReportPeriod")
	}

	var (
		match func(p core.Document) bool
		desc  string
	)
	switch {
	case sel.ReportPeriodIndex != nil:
		desc = fmt.Sprintf("index %d", *sel.ReportPeriodIndex)
		want := strconv.Itoa(*sel.ReportPeriodIndex)
		match = func(p core.Document) bool { return core.CleanString(p.Attr("Index")) == want }
	case core.CleanString(sel.ReportPeriodName) != "":
		desc = fmt.Sprintf("name %q", sel.ReportPeriodName)
		match = func(p core.Document) bool { return samePeriodName(p.Attr("GradePeriod"), sel.ReportPeriodName) }
	default:
		current := gradebook.Child("ReportingPeriod").Attr("GradePeriod")
		desc = fmt.Sprintf("current %q", current)
		match = func(p core.Document) bool { return current != "" && samePeriodName(p.Attr("GradePeriod"), current) }
	}

	for _, p := range periods {
		if !match(p) {
			continue
		}
		n, err := strconv.Atoi(core.CleanString(p.Attr("Index")))
		if err != nil {
			return ReportPeriod{}, errors.Wrapf(ErrReportPeriodNotFound, "%s: bad index %q", desc, p.Attr("Index"))
		}
		w, err := core.NewWindow(p.Attr("StartDate"), p.Attr("EndDate"))
		if err != nil {
			return ReportPeriod{}, errors.Wrapf(err, "student.resolveReportPeriod: %s", desc)
		}
		return ReportPeriod{Index: n, Name: p.Attr("GradePeriod"), Window: w}, nil
	}
	return ReportPeriod{}, errors.Wrap(ErrReportPeriodNotFound, desc)
}

func samePeriodName(a, b string) bool {
	return strings.EqualFold(core.CleanString(a), core.CleanString(b))
}

func optionalWindow(start, end string) (core.Window, error) {
	if core.CleanString(start) == "" && core.CleanString(end) == "" {
		return core.Window{}, nil
	}
	return core.NewWindow(start, end)
}

// populate fetches the schedule and the gradebook of the resolved term and period.
// Term-shaped courses keep the mark named after the term, or after the reporting
// period when the selection asks for it.
func populate(ctx context.Context, f Fetcher, st *Student) error {
	termIdx, periodIdx := st.Term.Index, st.ReportPeriod.Index

	doc, err := f.Schedule(ctx, &termIdx)
	if err != nil {
		return errors.Wrap(err, "student.populate: schedule")
	}
	listings, err := doc.List("StudentClassSchedule", "ClassLists", "ClassListing")
	if err != nil {
		return errors.Wrap(err, "student.populate: schedule")
	}
	st.Classes = make([]Class, 0, len(listings))
	for _, c := range listings {
		st.Classes = append(st.Classes, Class{
			Period:       core.CleanString(c.Attr("Period")),
			Title:        c.Attr("CourseTitle"),
			Room:         c.Attr("RoomName"),
			Teacher:      c.Attr("Teacher"),
			TeacherEmail: c.Attr("TeacherEmail"),
		})
	}

	gradebook, err := f.Gradebook(ctx, &periodIdx)
	if err != nil {
		return errors.Wrap(err, "student.populate: gradebook")
	}
	mark := st.Term.Name
	if st.Selection.Mark == MarkByReportPeriod {
		mark = st.ReportPeriod.Name
	}
	st.Grades, _ = assignment.NormalizeGrades(gradebook, mark) // same courses as below
	st.Courses, st.Skipped = assignment.Normalize(gradebook, mark)
	return nil
}
