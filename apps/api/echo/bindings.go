package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/gradewatch/core"
	"github.com/trezcool/gradewatch/core/assignment"
	"github.com/trezcool/gradewatch/core/student"
)

// query params
const (
	classParam              = "class"
	periodParam             = "period"
	cutoffParam             = "cutoff"
	cutoffMatchParam        = "cutoff_match"
	gradeTermFilterParam    = "grade_term"
	reportPeriodFilterParam = "report_period_window"
	termParam               = "term"
	reportPeriodParam       = "report_period"
	reportPeriodNameParam   = "report_period_name"
)

// queryBinder reads optional query params, collecting every malformed one.
type queryBinder struct {
	ctx  echo.Context
	errs []core.FieldError
}

func (b *queryBinder) has(name string) bool {
	_, ok := b.ctx.QueryParams()[name]
	return ok
}

func (b *queryBinder) String(name string, dst *string) {
	if b.has(name) {
		*dst = core.CleanString(b.ctx.QueryParam(name))
	}
}

func (b *queryBinder) Bool(name string, dst *bool) {
	if !b.has(name) {
		return
	}
	v, err := strconv.ParseBool(b.ctx.QueryParam(name))
	if err != nil {
		b.errs = append(b.errs, core.FieldError{Field: name, Error: name + " must be a boolean"})
		return
	}
	*dst = v
}

// Index binds a non-negative index; -1 resets it to the upstream's current one.
func (b *queryBinder) Index(name string, dst **int) {
	if !b.has(name) {
		return
	}
	v, err := strconv.Atoi(b.ctx.QueryParam(name))
	if err != nil || v < -1 {
		b.errs = append(b.errs, core.FieldError{Field: name, Error: name + " must be an index"})
		return
	}
	if v == -1 {
		*dst = nil
		return
	}
	*dst = &v
}

func (b *queryBinder) Err() error {
	if len(b.errs) == 0 {
		return nil
	}
	return core.NewValidationError(errInvalidQuery, b.errs...)
}

func newQueryBinder(ctx echo.Context) *queryBinder {
	return &queryBinder{ctx: ctx}
}

// Selection overrides the default term and reporting period selection.
func (b *queryBinder) Selection(sel student.Selection) student.Selection {
	b.Index(termParam, &sel.TermIndex)
	b.Index(reportPeriodParam, &sel.ReportPeriodIndex)
	b.String(reportPeriodNameParam, &sel.ReportPeriodName)
	return sel
}

// Filter overrides the default missing assignment filter.
func (b *queryBinder) Filter(f assignment.Filter) assignment.Filter {
	b.String(classParam, &f.ClassName)
	b.String(periodParam, &f.Period)
	b.String(cutoffParam, &f.DateCutoff)
	b.Bool(gradeTermFilterParam, &f.GradeTermWindow)
	b.Bool(reportPeriodFilterParam, &f.ReportPeriodWindow)

	var match string
	b.String(cutoffMatchParam, &match)
	if match != "" {
		m, err := assignment.ParseCutoffMatch(match)
		if err != nil {
			b.errs = append(b.errs, core.FieldError{Field: cutoffMatchParam, Error: err.Error()})
		} else {
			f.CutoffMatch = m
		}
	}
	return f
}
