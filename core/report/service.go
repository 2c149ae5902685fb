package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/gradewatch/core"
	"github.com/trezcool/gradewatch/core/assignment"
	"github.com/trezcool/gradewatch/core/notification"
	"github.com/trezcool/gradewatch/core/student"
)

// ReasonDisabled is the Decision reason when notifications are turned off.
const ReasonDisabled = "notifications disabled"

type (
	Options struct {
		Filter     assignment.Filter
		Policy     notification.Policy
		Notify     bool
		Recipients func(accessID string) []string // email addresses, optional
		Now        time.Time                      // zero: core.NowFunc()
	}

	Result struct {
		RunID     string                `json:"run_id"`
		FirstName string                `json:"first_name"`
		AccessID  string                `json:"access_id"`
		Missing   assignment.MissingSet `json:"missing"`
		Count     int                   `json:"count"`
		Decision  notification.Decision `json:"decision"`
		Notified  []string              `json:"notified,omitempty"` // notifiers that delivered
	}

	Service struct {
		log       core.Logger
		notifiers []core.Notifier
	}
)

func NewService(logger core.Logger, notifiers ...core.Notifier) *Service {
	return &Service{log: logger, notifiers: notifiers}
}

// NotificationContext returns the calendar state of st the notification gates check.
func NotificationContext(st *student.Student) notification.Context {
	return notification.Context{
		Today:        st.Today,
		Holiday:      st.Holiday,
		ReportPeriod: st.ReportPeriod.Window,
		SchoolYear:   st.SchoolYear,
	}
}

// Run derives the student's missing assignments and, when the policy allows it,
// sends them to every notifier. Notifier failures are logged, never returned.
func (svc *Service) Run(ctx context.Context, st *student.Student, opts Options) (Result, error) {
	now := opts.Now
	if now.IsZero() {
		now = core.NowFunc()
	}
	res := Result{
		RunID:     uuid.New().String(),
		FirstName: st.FirstName,
		AccessID:  st.AccessID,
	}

	set, err := st.Missing(opts.Filter, now)
	if err != nil {
		return res, errors.Wrap(err, "report.Run")
	}
	res.Missing, res.Count = set, set.Count()

	for _, skipped := range st.Skipped {
		svc.log.Warn("report.Run: course skipped", skipped, st)
	}

	if !opts.Notify {
		res.Decision = notification.Decision{Reasons: []string{ReasonDisabled}}
		return res, nil
	}
	res.Decision = opts.Policy.Evaluate(res.Count, NotificationContext(st))
	if !res.Decision.Notify {
		svc.log.Info("report.Run: notification suppressed", map[string]interface{}{
			"run_id":  res.RunID,
			"count":   res.Count,
			"reasons": res.Decision.Reasons,
		}, st)
		return res, nil
	}

	var emails []string
	if opts.Recipients != nil {
		emails = opts.Recipients(st.AccessID)
	}
	msg, err := notification.NewMessage(st.Recipient(emails...), set)
	if err != nil {
		return res, errors.Wrap(err, "report.Run")
	}
	for _, n := range svc.notifiers {
		if err := n.Send(ctx, msg); err != nil {
			svc.log.Error("report.Run: "+n.Name(), err, map[string]interface{}{"run_id": res.RunID}, st)
			continue
		}
		res.Notified = append(res.Notified, n.Name())
	}
	return res, nil
}

// RunAll builds and runs every student matching lookups, one after the other,
// in upstream list order. No lookups means every student of the account.
// A student that fails is logged and skipped; the returned error counts them.
func (svc *Service) RunAll(ctx context.Context, f student.Fetcher, lookups []student.Lookup, sel student.Selection, opts Options) ([]Result, error) {
	ids, err := student.List(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "report.RunAll")
	}

	var (
		results = make([]Result, 0, len(ids))
		matched = make([]bool, len(lookups))
		failed  int
	)
	for _, id := range ids {
		if !selected(id, lookups, matched) {
			continue
		}
		st, err := student.Build(ctx, f, student.Lookup{AccessID: id.AccessID}, sel)
		if err == nil {
			var res Result
			if res, err = svc.Run(ctx, st, opts); err == nil {
				results = append(results, res)
				continue
			}
		}
		failed++
		svc.log.Error("report.RunAll: "+id.FirstName, err, id)
	}
	for i, l := range lookups {
		if !matched[i] && !l.IsZero() {
			failed++
			svc.log.Error("report.RunAll", errors.Wrapf(student.ErrStudentNotFound, "%q", l.String()))
		}
	}
	if failed > 0 {
		return results, errors.Errorf("report.RunAll: %d student(s) failed", failed)
	}
	return results, nil
}

// selected reports whether id is the first student matching any of lookups.
func selected(id student.Identity, lookups []student.Lookup, matched []bool) bool {
	if len(lookups) == 0 {
		return true
	}
	var hit bool
	for i, l := range lookups {
		if matched[i] || l.IsZero() {
			continue
		}
		key := id.AccessID
		if core.CleanString(l.FirstName) != "" {
			key = id.FirstName
		}
		if key == l.String() {
			matched[i], hit = true, true
		}
	}
	return hit
}
