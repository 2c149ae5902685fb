package student

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/gradewatch/core"
	"github.com/trezcool/gradewatch/core/assignment"
)

type (
	// Identity is a student as listed by the upstream account.
	Identity struct {
		PermID     string `json:"perm_id"`
		AccessID   string `json:"access_id"` // AGU
		FirstName  string `json:"first_name"`
		FullName   string `json:"full_name"`
		SchoolName string `json:"school_name"`
		District   string `json:"district"`
		ChildIndex int    `json:"child_index"` // position in the account's child list
		Photo      string `json:"-"`           // base64 PNG
	}

	Term struct {
		Index  int         `json:"index"`
		Name   string      `json:"name"`
		Window core.Window `json:"window"`
	}

	ReportPeriod struct {
		Index  int         `json:"index"`
		Name   string      `json:"name"`
		Window core.Window `json:"window"`
	}

	Class struct {
		Period       string `json:"period"`
		Title        string `json:"title"`
		Room         string `json:"room"`
		Teacher      string `json:"teacher"`
		TeacherEmail string `json:"teacher_email"`
	}

	// Student is the per-run context of one student. It is built once by Build
	// and never modified; WithTerm and WithReportPeriod return new values.
	Student struct {
		Identity
		Today        core.Date           `json:"today"`
		SchoolYear   core.Window         `json:"school_year"`
		Holiday      bool                `json:"holiday"`
		Term         Term                `json:"term"`
		ReportPeriod ReportPeriod        `json:"report_period"`
		Classes      []Class             `json:"classes"`
		Grades       []assignment.Grade  `json:"grades"`
		Courses      []assignment.Course `json:"courses"`
		Skipped      []error             `json:"-"` // courses left out because of their shape
		Selection    Selection           `json:"-"`
	}
)

func (s *Student) InSchoolYear() bool {
	return !s.SchoolYear.IsZero() && s.SchoolYear.Contains(s.Today)
}

func (s *Student) InReportPeriod() bool {
	return !s.ReportPeriod.Window.IsZero() && s.ReportPeriod.Window.Contains(s.Today)
}

// FilterContext returns the values assignment filters are evaluated against.
func (s *Student) FilterContext(now time.Time) assignment.Context {
	return assignment.Context{
		Now:          now,
		GradeTerm:    s.Term.Window,
		ReportPeriod: s.ReportPeriod.Window,
	}
}

// Missing classifies the student's assignments and narrows them with filter.
func (s *Student) Missing(filter assignment.Filter, now time.Time) (assignment.MissingSet, error) {
	return filter.Apply(assignment.Classify(s.Courses), s.FilterContext(now))
}

// Recipient identifies the student in notifications.
func (s *Student) Recipient(emails ...string) core.Recipient {
	return core.Recipient{
		FirstName: s.FirstName,
		AccessID:  s.AccessID,
		Email:     core.ParseAddresses(emails...),
	}
}

// SavePhoto writes the student's photo to dir as "<first name>.png" and returns its path.
func (id Identity) SavePhoto(dir string) (string, error) {
	if id.Photo == "" {
		return "", ErrNoPhoto
	}
	data, err := base64.StdEncoding.DecodeString(id.Photo)
	if err != nil {
		return "", errors.Wrap(err, "student.SavePhoto")
	}
	path := filepath.Join(dir, id.FirstName+".png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err, "student.SavePhoto")
	}
	return path, nil
}
