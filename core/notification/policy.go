package notification

import "github.com/trezcool/gradewatch/core"

// suppression reasons
const (
	ReasonNothingMissing      = "no missing assignments"
	ReasonWeekend             = "today is a weekend day"
	ReasonHoliday             = "today is a school holiday"
	ReasonOutsideReportPeriod = "today is outside the reporting period"
	ReasonOutsideSchoolYear   = "today is outside the school year"
)

// Policy holds the independent notification gates. Every gate is checked;
// any single one suppresses.
type Policy struct {
	WeekdaysOnly     bool `json:"weekdays_only"`
	ExcludeHolidays  bool `json:"exclude_holidays"`
	ReportPeriodOnly bool `json:"report_period_only"`
	SchoolYearOnly   bool `json:"school_year_only"`
}

// Context is the live calendar state a Policy is evaluated against.
// An unknown (zero) window never contains Today.
type Context struct {
	Today        core.Date
	Holiday      bool
	ReportPeriod core.Window
	SchoolYear   core.Window
}

type Decision struct {
	Notify  bool     `json:"notify"`
	Reasons []string `json:"reasons,omitempty"` // why it was suppressed
}

// Evaluate decides whether `count` missing assignments should be notified today.
func (p Policy) Evaluate(count int, ctx Context) Decision {
	var reasons []string
	if count <= 0 {
		reasons = append(reasons, ReasonNothingMissing)
	}
	if p.WeekdaysOnly && core.IsWeekend(ctx.Today) {
		reasons = append(reasons, ReasonWeekend)
	}
	if p.ExcludeHolidays && ctx.Holiday {
		reasons = append(reasons, ReasonHoliday)
	}
	if p.ReportPeriodOnly && !within(ctx.ReportPeriod, ctx.Today) {
		reasons = append(reasons, ReasonOutsideReportPeriod)
	}
	if p.SchoolYearOnly && !within(ctx.SchoolYear, ctx.Today) {
		reasons = append(reasons, ReasonOutsideSchoolYear)
	}
	return Decision{Notify: len(reasons) == 0, Reasons: reasons}
}

func within(w core.Window, d core.Date) bool {
	return !w.IsZero() && w.Contains(d)
}
