package assignment

import (
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/gradewatch/core"
)

var (
	// errors
	ErrInvalidCutoff = errors.New("invalid date cutoff")
	ErrNoWindow      = errors.New("date window filter requested but window is unknown")
)

// CutoffMatch decides how a course's class name is matched against per-class cutoff keys.
type CutoffMatch int

const (
	// MatchClassInKey matches when the class name is found inside the key (default).
	MatchClassInKey CutoffMatch = iota
	// MatchKeyInClass matches when the key is found inside the class name.
	MatchKeyInClass
	// MatchExact matches when the key equals the class name.
	MatchExact
)

var cutoffMatchNames = map[string]CutoffMatch{
	"class-in-key": MatchClassInKey,
	"key-in-class": MatchKeyInClass,
	"exact":        MatchExact,
}

func ParseCutoffMatch(s string) (CutoffMatch, error) {
	s = core.CleanString(s, true /* lower */)
	if s == "" {
		return MatchClassInKey, nil
	}
	if m, ok := cutoffMatchNames[s]; ok {
		return m, nil
	}
	return 0, errors.Errorf("unknown cutoff match mode %q", s)
}

func (m CutoffMatch) String() string {
	for name, v := range cutoffMatchNames {
		if v == m {
			return name
		}
	}
	return "unknown"
}

// matches never pairs an empty class name or key, which every substring contains.
func (m CutoffMatch) matches(className, key string) bool {
	if className == "" || key == "" {
		return false
	}
	switch m {
	case MatchKeyInClass:
		return strings.Contains(className, key)
	case MatchExact:
		return className == key
	default:
		return strings.Contains(key, className)
	}
}

// ClassCutoff is a date cutoff applying to the classes matching Class.
type ClassCutoff struct {
	Class  string `json:"class"`
	Cutoff string `json:"cutoff"` // absolute date or relative offset
}

// Filter narrows a MissingSet. Every zero-valued field is inactive;
// active fields combine with a logical AND.
type Filter struct {
	ClassName          string
	Period             string
	DateCutoff         string // absolute date ("09/01/2022") or relative offset ("30d")
	CutoffByClass      []ClassCutoff
	CutoffMatch        CutoffMatch
	GradeTermWindow    bool
	ReportPeriodWindow bool
}

// Context carries the live values a Filter is evaluated against.
type Context struct {
	Now          time.Time
	GradeTerm    core.Window
	ReportPeriod core.Window
}

type predicate func(a Assignment) bool

type resolvedCutoff struct {
	key  string
	date core.Date
}

// Apply returns the courses and assignments passing every active filter.
// A course left without assignments is dropped; set is left untouched.
func (f Filter) Apply(set MissingSet, fc Context) (MissingSet, error) {
	if fc.Now.IsZero() {
		fc.Now = core.NowFunc()
	}

	var preds []predicate
	if f.DateCutoff != "" {
		cutoff, err := core.ResolveCutoff(f.DateCutoff, fc.Now)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidCutoff, "%q: %v", f.DateCutoff, err)
		}
		preds = append(preds, onOrAfter(cutoff))
	}
	if f.GradeTermWindow {
		if fc.GradeTerm.IsZero() {
			return nil, errors.Wrap(ErrNoWindow, "grading term")
		}
		preds = append(preds, within(fc.GradeTerm))
	}
	if f.ReportPeriodWindow {
		if fc.ReportPeriod.IsZero() {
			return nil, errors.Wrap(ErrNoWindow, "reporting period")
		}
		preds = append(preds, within(fc.ReportPeriod))
	}
	classCutoffs, err := f.resolveClassCutoffs(fc.Now)
	if err != nil {
		return nil, err
	}

	out := make(MissingSet, 0, len(set))
	for _, c := range set {
		if f.ClassName != "" && c.ClassName != f.ClassName {
			continue
		}
		if f.Period != "" && core.CleanString(c.Period) != core.CleanString(f.Period) {
			continue
		}

		coursePreds := preds
		if cutoff, ok := f.classCutoff(c.ClassName, classCutoffs); ok {
			coursePreds = append(coursePreds[:len(coursePreds):len(coursePreds)], onOrAfter(cutoff))
		}

		var kept []Assignment
		for _, a := range c.Assignments {
			if all(coursePreds, a) {
				kept = append(kept, a)
			}
		}
		if len(kept) > 0 {
			out = append(out, Course{Period: c.Period, ClassName: c.ClassName, Assignments: kept})
		}
	}
	return out, nil
}

func (f Filter) resolveClassCutoffs(now time.Time) ([]resolvedCutoff, error) {
	resolved := make([]resolvedCutoff, 0, len(f.CutoffByClass))
	for _, cc := range f.CutoffByClass {
		d, err := core.ResolveCutoff(cc.Cutoff, now)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidCutoff, "%q for %q: %v", cc.Cutoff, cc.Class, err)
		}
		resolved = append(resolved, resolvedCutoff{key: cc.Class, date: d})
	}
	return resolved, nil
}

// classCutoff returns the first cutoff whose key matches className, in configuration order.
func (f Filter) classCutoff(className string, cutoffs []resolvedCutoff) (core.Date, bool) {
	for _, rc := range cutoffs {
		if f.CutoffMatch.matches(className, rc.key) {
			return rc.date, true
		}
	}
	return core.Date{}, false
}

// CutoffsFromMap builds an ordered cutoff list from a map, sorted by class for determinism.
func CutoffsFromMap(m map[string]string) []ClassCutoff {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]ClassCutoff, 0, len(keys))
	for _, k := range keys {
		out = append(out, ClassCutoff{Class: k, Cutoff: m[k]})
	}
	return out
}

func onOrAfter(cutoff core.Date) predicate {
	return func(a Assignment) bool {
		d, err := core.ParseDate(a.Date)
		return err == nil && core.OnOrAfter(d, cutoff)
	}
}

func within(w core.Window) predicate {
	return func(a Assignment) bool {
		d, err := core.ParseDate(a.Date)
		return err == nil && w.Contains(d)
	}
}

func all(preds []predicate, a Assignment) bool {
	for _, p := range preds {
		if !p(a) {
			return false
		}
	}
	return true
}
