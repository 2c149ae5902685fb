package report

import (
	"github.com/pkg/errors"

	"github.com/trezcool/gradewatch/core"
	"github.com/trezcool/gradewatch/core/assignment"
	"github.com/trezcool/gradewatch/core/notification"
	"github.com/trezcool/gradewatch/core/student"
)

// OptionsFromConfig maps the missing, notify and email sections to run Options.
func OptionsFromConfig(conf *core.Config) (Options, error) {
	match, err := assignment.ParseCutoffMatch(conf.Missing.CutoffMatch)
	if err != nil {
		return Options{}, errors.Wrap(err, "report.OptionsFromConfig")
	}

	cutoffs := make([]assignment.ClassCutoff, 0, len(conf.Missing.CutoffByClass))
	for _, cc := range conf.Missing.CutoffByClass {
		cutoffs = append(cutoffs, assignment.ClassCutoff{Class: cc.Class, Cutoff: cc.Cutoff})
	}

	opts := Options{
		Filter: assignment.Filter{
			ClassName:          core.CleanString(conf.Missing.ClassName),
			Period:             core.CleanString(conf.Missing.Period),
			DateCutoff:         core.CleanString(conf.Missing.DateCutoff),
			CutoffByClass:      cutoffs,
			CutoffMatch:        match,
			GradeTermWindow:    conf.Missing.GradeTermFilter,
			ReportPeriodWindow: conf.Missing.ReportPeriodFilter,
		},
		Policy: notification.Policy{
			WeekdaysOnly:     conf.Notify.WeekdaysOnly,
			ExcludeHolidays:  conf.Notify.ExcludeHolidays,
			ReportPeriodOnly: conf.Notify.ReportPeriodOnly,
			SchoolYearOnly:   conf.Notify.SchoolYearOnly,
		},
		Notify: conf.Notify.Enabled,
	}
	if conf.Email.Enabled {
		opts.Recipients = conf.Recipients
	}
	return opts, nil
}

// SelectionFromConfig maps the selection section; -1 indexes mean the upstream's current ones.
func SelectionFromConfig(conf *core.Config) (student.Selection, error) {
	mark, err := student.ParseMarkSource(conf.Selection.MarkName)
	if err != nil {
		return student.Selection{}, errors.Wrap(err, "report.SelectionFromConfig")
	}
	sel := student.Selection{Mark: mark}
	if idx := conf.Selection.TermIndex; idx >= 0 {
		sel.TermIndex = &idx
	}
	if idx := conf.Selection.ReportPeriodIndex; idx >= 0 {
		sel.ReportPeriodIndex = &idx
	}
	sel.ReportPeriodName = core.CleanString(conf.Selection.ReportPeriodName)
	return sel, nil
}

// LookupsFromConfig returns one lookup per configured first name and access ID.
// Entries may themselves be comma separated lists.
func LookupsFromConfig(conf *core.Config) []student.Lookup {
	var lookups []student.Lookup
	for _, item := range conf.Students.FirstNames {
		for _, name := range core.SplitList(item) {
			lookups = append(lookups, student.Lookup{FirstName: name})
		}
	}
	for _, item := range conf.Students.AccessIDs {
		for _, id := range core.SplitList(item) {
			lookups = append(lookups, student.Lookup{AccessID: id})
		}
	}
	return lookups
}
