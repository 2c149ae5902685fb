package notification

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/gradewatch/core"
)

var (
	friday   = civil.Date{Year: 2026, Month: 10, Day: 16}
	saturday = civil.Date{Year: 2026, Month: 10, Day: 17}
	period   = core.Window{Start: civil.Date{Year: 2026, Month: 8, Day: 24}, End: civil.Date{Year: 2026, Month: 10, Day: 16}}
	year     = core.Window{Start: civil.Date{Year: 2026, Month: 8, Day: 24}, End: civil.Date{Year: 2027, Month: 6, Day: 11}}
)

func TestPolicyEvaluate(t *testing.T) {
	all := Policy{WeekdaysOnly: true, ExcludeHolidays: true, ReportPeriodOnly: true, SchoolYearOnly: true}

	tests := []struct {
		name    string
		policy  Policy
		count   int
		ctx     Context
		want    bool
		reasons []string
	}{
		{name: "no gates", policy: Policy{}, count: 3, ctx: Context{Today: saturday, Holiday: true}, want: true},
		{name: "empty set never notifies", policy: Policy{}, count: 0, ctx: Context{Today: friday}, want: false, reasons: []string{ReasonNothingMissing}},
		{name: "weekday", policy: Policy{WeekdaysOnly: true}, count: 1, ctx: Context{Today: friday}, want: true},
		{name: "saturday", policy: Policy{WeekdaysOnly: true}, count: 1, ctx: Context{Today: saturday}, want: false, reasons: []string{ReasonWeekend}},
		{name: "holiday", policy: Policy{ExcludeHolidays: true}, count: 1, ctx: Context{Today: friday, Holiday: true}, want: false, reasons: []string{ReasonHoliday}},
		{name: "holiday gate off", policy: Policy{WeekdaysOnly: true}, count: 1, ctx: Context{Today: friday, Holiday: true}, want: true},
		{name: "last day of period", policy: Policy{ReportPeriodOnly: true}, count: 1, ctx: Context{Today: friday, ReportPeriod: period}, want: true},
		{name: "after period", policy: Policy{ReportPeriodOnly: true}, count: 1, ctx: Context{Today: saturday, ReportPeriod: period}, want: false, reasons: []string{ReasonOutsideReportPeriod}},
		{name: "unknown period", policy: Policy{ReportPeriodOnly: true}, count: 1, ctx: Context{Today: friday}, want: false, reasons: []string{ReasonOutsideReportPeriod}},
		{name: "school year", policy: Policy{SchoolYearOnly: true}, count: 1, ctx: Context{Today: saturday, SchoolYear: year}, want: true},
		{
			name: "every gate reported", policy: all, count: 0,
			ctx:  Context{Today: saturday, Holiday: true},
			want: false,
			reasons: []string{
				ReasonNothingMissing, ReasonWeekend, ReasonHoliday,
				ReasonOutsideReportPeriod, ReasonOutsideSchoolYear,
			},
		},
		{name: "every gate passes", policy: all, count: 2, ctx: Context{Today: friday, ReportPeriod: period, SchoolYear: year}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.Evaluate(tt.count, tt.ctx)
			assert.Equal(t, tt.want, got.Notify)
			assert.Equal(t, tt.reasons, got.Reasons)
		})
	}
}
