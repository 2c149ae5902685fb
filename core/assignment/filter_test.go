package assignment

import (
	"sort"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradewatch/core"
)

var now = time.Date(2026, time.October, 16, 10, 0, 0, 0, time.UTC)

func daysAgo(n int) string {
	return core.FormatDate(civil.DateOf(now).AddDays(-n))
}

func missing(measure, date string) Assignment {
	return Assignment{Measure: measure, Date: date, Points: "0.00 / 10.0000", Score: "F"}
}

func sampleSet() MissingSet {
	return MissingSet{
		{Period: "1", ClassName: "Algebra II (21200)", Assignments: []Assignment{
			missing("a1", daysAgo(40)),
			missing("a2", daysAgo(10)),
		}},
		{Period: "2", ClassName: "Earth/Space Science (12280)", Assignments: []Assignment{
			missing("e1", daysAgo(20)),
			missing("e2", daysAgo(2)),
			missing("e3", "not a date"),
		}},
		{Period: "3", ClassName: "Photo I (15400)", Assignments: []Assignment{
			missing("p1", daysAgo(5)),
		}},
	}
}

func measures(set MissingSet) []string {
	out := make([]string, 0)
	for _, c := range set {
		for _, a := range c.Assignments {
			out = append(out, a.Measure)
		}
	}
	sort.Strings(out)
	return out
}

func TestFilterApply(t *testing.T) {
	fc := Context{Now: now}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "no filters", filter: Filter{}, want: []string{"a1", "a2", "e1", "e2", "e3", "p1"}},
		{name: "class name", filter: Filter{ClassName: "Photo I (15400)"}, want: []string{"p1"}},
		{name: "class name is exact", filter: Filter{ClassName: "Photo I"}, want: []string{}},
		{name: "period", filter: Filter{Period: "2"}, want: []string{"e1", "e2", "e3"}},
		{name: "period trims", filter: Filter{Period: " 1 "}, want: []string{"a1", "a2"}},
		{name: "relative cutoff", filter: Filter{DateCutoff: "30d"}, want: []string{"a2", "e1", "e2", "p1"}},
		{name: "absolute cutoff", filter: Filter{DateCutoff: daysAgo(5)}, want: []string{"e2", "p1"}},
		{name: "cutoff is inclusive", filter: Filter{DateCutoff: daysAgo(10)}, want: []string{"a2", "e2", "p1"}},
		{name: "class and cutoff", filter: Filter{Period: "1", DateCutoff: "30d"}, want: []string{"a2"}},
		{
			name: "per class cutoff, class name inside key",
			filter: Filter{CutoffByClass: []ClassCutoff{
				{Class: "Earth/Space Science (12280) - honors", Cutoff: "7d"},
			}},
			want: []string{"a1", "a2", "e2", "p1"},
		},
		{
			name: "per class cutoff, key inside class name does not match by default",
			filter: Filter{CutoffByClass: []ClassCutoff{
				{Class: "Earth", Cutoff: "7d"},
			}},
			want: []string{"a1", "a2", "e1", "e2", "e3", "p1"},
		},
		{
			name: "per class cutoff, key inside class name",
			filter: Filter{CutoffMatch: MatchKeyInClass, CutoffByClass: []ClassCutoff{
				{Class: "Earth", Cutoff: "7d"},
			}},
			want: []string{"a1", "a2", "e2", "p1"},
		},
		{
			name: "per class cutoff, first match wins",
			filter: Filter{CutoffMatch: MatchKeyInClass, CutoffByClass: []ClassCutoff{
				{Class: "(", Cutoff: "15d"},
				{Class: "Algebra", Cutoff: "60d"},
			}},
			want: []string{"a2", "e2", "p1"},
		},
		{
			name: "per class cutoff, exact",
			filter: Filter{CutoffMatch: MatchExact, CutoffByClass: []ClassCutoff{
				{Class: "Algebra II (21200)", Cutoff: "30d"},
			}},
			want: []string{"a2", "e1", "e2", "e3", "p1"},
		},
		{
			name: "global and per class cutoffs both apply",
			filter: Filter{DateCutoff: "30d", CutoffMatch: MatchExact, CutoffByClass: []ClassCutoff{
				{Class: "Photo I (15400)", Cutoff: "3d"},
			}},
			want: []string{"a2", "e1", "e2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.filter.Apply(sampleSet(), fc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, measures(got))
			for _, c := range got {
				assert.NotEmpty(t, c.Assignments, "course %q kept without assignments", c.ClassName)
			}
		})
	}
}

func TestFilterCutoffEmptyClassName(t *testing.T) {
	set := MissingSet{
		{Period: "4", ClassName: "", Assignments: []Assignment{missing("u1", daysAgo(20))}},
		{Period: "1", ClassName: "Algebra II", Assignments: []Assignment{missing("a1", daysAgo(20))}},
	}
	for _, m := range []CutoffMatch{MatchClassInKey, MatchKeyInClass, MatchExact} {
		t.Run(m.String(), func(t *testing.T) {
			f := Filter{CutoffMatch: m, CutoffByClass: []ClassCutoff{
				{Class: "", Cutoff: "7d"},
				{Class: "Algebra II", Cutoff: "7d"},
			}}
			got, err := f.Apply(set, Context{Now: now})
			require.NoError(t, err)
			assert.Equal(t, []string{"u1"}, measures(got))
		})
	}
}

func TestFilterCutoffScenario(t *testing.T) {
	set := MissingSet{{Period: "1", ClassName: "Math", Assignments: []Assignment{
		missing("old", daysAgo(40)),
		missing("recent", daysAgo(10)),
	}}}

	got, err := Filter{DateCutoff: "30d"}.Apply(set, Context{Now: now})
	require.NoError(t, err)
	assert.Equal(t, []string{"recent"}, measures(got))
	assert.Equal(t, 1, got.Count())
}

func TestFilterWindows(t *testing.T) {
	term := core.Window{Start: civil.DateOf(now).AddDays(-30), End: civil.DateOf(now).AddDays(-10)}
	set := MissingSet{{Period: "1", ClassName: "Math", Assignments: []Assignment{
		missing("before", daysAgo(31)),
		missing("start", daysAgo(30)),
		missing("inside", daysAgo(20)),
		missing("end", daysAgo(10)),
		missing("after", daysAgo(9)),
	}}}

	got, err := Filter{GradeTermWindow: true}.Apply(set, Context{Now: now, GradeTerm: term})
	require.NoError(t, err)
	assert.Equal(t, []string{"end", "inside", "start"}, measures(got))

	got, err = Filter{ReportPeriodWindow: true}.Apply(set, Context{Now: now, ReportPeriod: term})
	require.NoError(t, err)
	assert.Equal(t, []string{"end", "inside", "start"}, measures(got))

	_, err = Filter{ReportPeriodWindow: true}.Apply(set, Context{Now: now})
	assert.Equal(t, ErrNoWindow, errors.Cause(err))
}

func TestFilterInvalidCutoff(t *testing.T) {
	_, err := Filter{DateCutoff: "7x"}.Apply(sampleSet(), Context{Now: now})
	assert.Equal(t, ErrInvalidCutoff, errors.Cause(err))

	_, err = Filter{CutoffByClass: []ClassCutoff{{Class: "Math", Cutoff: "soon"}}}.Apply(sampleSet(), Context{Now: now})
	assert.Equal(t, ErrInvalidCutoff, errors.Cause(err))
}

// TestFilterComposition checks that applying filters one at a time, in any order,
// yields the same result as applying them together.
func TestFilterComposition(t *testing.T) {
	fc := Context{Now: now}
	single := []Filter{
		{Period: "2"},
		{DateCutoff: "30d"},
		{ClassName: "Earth/Space Science (12280)"},
	}
	combined := Filter{Period: "2", DateCutoff: "30d", ClassName: "Earth/Space Science (12280)"}

	want, err := combined.Apply(sampleSet(), fc)
	require.NoError(t, err)

	orders := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, order := range orders {
		set := sampleSet()
		for _, i := range order {
			set, err = single[i].Apply(set, fc)
			require.NoError(t, err)
		}
		assert.Equal(t, measures(want), measures(set), "order %v", order)
	}
}

func TestFilterDoesNotMutate(t *testing.T) {
	set := sampleSet()
	_, err := Filter{DateCutoff: "30d"}.Apply(set, Context{Now: now})
	require.NoError(t, err)
	assert.Equal(t, sampleSet(), set)
}

func TestParseCutoffMatch(t *testing.T) {
	for in, want := range map[string]CutoffMatch{
		"":             MatchClassInKey,
		"class-in-key": MatchClassInKey,
		"Key-In-Class": MatchKeyInClass,
		"exact":        MatchExact,
	} {
		got, err := ParseCutoffMatch(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseCutoffMatch("fuzzy")
	assert.Error(t, err)
}

func TestCutoffsFromMap(t *testing.T) {
	got := CutoffsFromMap(map[string]string{"b": "7d", "a": "1w"})
	assert.Equal(t, []ClassCutoff{{Class: "a", Cutoff: "1w"}, {Class: "b", Cutoff: "7d"}}, got)
}
