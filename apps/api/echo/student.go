package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradewatch/core"
	"github.com/trezcool/gradewatch/core/assignment"
	"github.com/trezcool/gradewatch/core/notification"
	"github.com/trezcool/gradewatch/core/report"
	"github.com/trezcool/gradewatch/core/student"
)

type (
	studentApi struct {
		fetcher   student.Fetcher
		defaults  report.Options
		selection student.Selection
	}

	// MissingResponse previews what a run would report for a student, without notifying.
	MissingResponse struct {
		FirstName    string                `json:"first_name"`
		AccessID     string                `json:"access_id"`
		Term         student.Term          `json:"term"`
		ReportPeriod student.ReportPeriod  `json:"report_period"`
		Count        int                   `json:"count"`
		Missing      assignment.MissingSet `json:"missing"`
		Decision     notification.Decision `json:"decision"`
	}
)

func registerStudentAPI(g *echo.Group, opts *Options) {
	api := studentApi{
		fetcher:   opts.Fetcher,
		defaults:  opts.Report,
		selection: opts.Selection,
	}

	sg := g.Group("/students")
	sg.GET("", api.list)

	// detail endpoints
	dg := sg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.GET("/missing", api.missing)
}

// Handlers

func (api *studentApi) list(ctx echo.Context) error {
	ids, err := student.List(ctx.Request().Context(), api.fetcher)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ids)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	b := newQueryBinder(ctx)
	sel := b.Selection(api.selection)
	if err := b.Err(); err != nil {
		return err
	}
	st, err := api.build(ctx, sel)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) missing(ctx echo.Context) error {
	b := newQueryBinder(ctx)
	sel := b.Selection(api.selection)
	filter := b.Filter(api.defaults.Filter)
	if err := b.Err(); err != nil {
		return err
	}
	st, err := api.build(ctx, sel)
	if err != nil {
		return err
	}

	set, err := st.Missing(filter, core.NowFunc())
	if err != nil {
		return errors.Wrap(err, "filtering missing assignments")
	}
	return ctx.JSON(http.StatusOK, MissingResponse{
		FirstName:    st.FirstName,
		AccessID:     st.AccessID,
		Term:         st.Term,
		ReportPeriod: st.ReportPeriod,
		Count:        set.Count(),
		Missing:      set,
		Decision:     api.defaults.Policy.Evaluate(set.Count(), report.NotificationContext(st)),
	})
}

// Helpers

// build resolves the student whose access ID is the `id` path param.
func (api *studentApi) build(ctx echo.Context, sel student.Selection) (*student.Student, error) {
	lookup := student.Lookup{AccessID: ctx.Param("id")}
	return student.Build(ctx.Request().Context(), api.fetcher, lookup, sel)
}
