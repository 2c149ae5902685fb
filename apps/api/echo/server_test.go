package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/gradewatch/apps/api/echo"
	"github.com/trezcool/gradewatch/core"
	"github.com/trezcool/gradewatch/core/assignment"
	"github.com/trezcool/gradewatch/core/notification"
	"github.com/trezcool/gradewatch/core/report"
	"github.com/trezcool/gradewatch/core/student"
	"github.com/trezcool/gradewatch/services/studentvue"
	testutil "github.com/trezcool/gradewatch/tests"
)

var (
	friday = time.Date(2026, time.October, 16, 8, 0, 0, 0, time.UTC)

	year   = core.Window{Start: civil.Date{Year: 2026, Month: 8, Day: 24}, End: civil.Date{Year: 2027, Month: 6, Day: 11}}
	term   = student.Term{Index: 0, Name: "Semester 1", Window: core.Window{Start: civil.Date{Year: 2026, Month: 8, Day: 24}, End: civil.Date{Year: 2027, Month: 1, Day: 22}}}
	period = student.ReportPeriod{Index: 1, Name: "Quarter 1", Window: core.Window{Start: civil.Date{Year: 2026, Month: 8, Day: 24}, End: civil.Date{Year: 2026, Month: 10, Day: 30}}}

	ana = student.Identity{PermID: "1", AccessID: "AGU-A", FirstName: "Ana", Photo: "aGVsbG8="}
	ben = student.Identity{PermID: "2", AccessID: "AGU-B", FirstName: "Ben"}
)

func setup(t *testing.T, fetchErr error) (Server, *testutil.Logger) {
	t.Helper()
	old := core.NowFunc
	core.NowFunc = func() time.Time { return friday }
	t.Cleanup(func() { core.NowFunc = old })

	gradebook := student.GradebookDocWith("Quarter 1", []student.ReportPeriod{period},
		assignment.Course{Period: "1", ClassName: "Algebra II", Assignments: []assignment.Assignment{
			{Measure: "Quiz 1", Date: "10/01/2026", Points: "0.00 / 10.0000", Score: "0"},
			{Measure: "Quiz 2", Date: "10/08/2026", Points: "0.00 / 10.0000", Score: "0"},
			{Measure: "Quiz 3", Date: "10/09/2026", Points: "9.00 / 10.0000", Score: "9"},
		}},
	)
	fetcher := &student.FakeFetcher{
		Students:    student.ChildListDoc("Springfield USD", ana, ben),
		CalendarDoc: student.CalendarDocWith(year),
		ScheduleDoc: student.ScheduleDocWith(0, []student.Term{term}, student.Class{Period: "1", Title: "Algebra II"}),
		Gradebooks:  []core.Document{gradebook},
		Err:         fetchErr,
	}
	logger := &testutil.Logger{}
	app := NewServer(&Options{
		DisableReqLogs: true,
		Fetcher:        fetcher,
		Logger:         logger,
		Report:         report.Options{Policy: notification.Policy{WeekdaysOnly: true}},
	})
	return app, logger
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	path     string
	wantCode int
	extra    interface{}
}

func newRequest(method, path string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, &bytes.Buffer{})
	req.Header.Set("Content-Type", "application/json")
	return req, httptest.NewRecorder()
}

func serve(t *testing.T, app Server, path string, wantCode int, data interface{}) {
	t.Helper()
	req, rec := newRequest(http.MethodGet, path)
	app.ServeHTTP(rec, req)
	require.Equal(t, wantCode, rec.Code, rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), data), rec.Body.String())
	}
}

func TestHome(t *testing.T) {
	app, _ := setup(t, nil)
	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Gradewatch API!", rec.Body.String())
}

func TestListStudents(t *testing.T) {
	app, _ := setup(t, nil)

	var ids []map[string]interface{}
	serve(t, app, "/v1/students/", http.StatusOK, &ids)
	require.Len(t, ids, 2)
	assert.Equal(t, "Ana", ids[0]["first_name"])
	assert.Equal(t, "AGU-B", ids[1]["access_id"])
	assert.EqualValues(t, 1, ids[1]["child_index"])
	assert.NotContains(t, ids[0], "photo")
}

func TestRetrieveStudent(t *testing.T) {
	app, _ := setup(t, nil)

	var st map[string]interface{}
	serve(t, app, "/v1/students/AGU-A", http.StatusOK, &st)
	assert.Equal(t, "Ana", st["first_name"])
	assert.Equal(t, "2026-10-16", st["today"])
	assert.Equal(t, "Semester 1", st["term"].(map[string]interface{})["name"])
	assert.Len(t, st["classes"], 1)

	var herr httpErr
	serve(t, app, "/v1/students/AGU-Z", http.StatusNotFound, &herr)
	assert.Contains(t, herr.Error, student.ErrStudentNotFound.Error())
}

func TestMissing(t *testing.T) {
	tests := []httpTest{
		{name: "defaults", path: "/v1/students/AGU-A/missing", wantCode: http.StatusOK, extra: 2},
		{name: "class filter", path: "/v1/students/AGU-A/missing?class=Art", wantCode: http.StatusOK, extra: 0},
		{name: "date cutoff", path: "/v1/students/AGU-A/missing?cutoff=10/05/2026", wantCode: http.StatusOK, extra: 1},
		{name: "relative cutoff", path: "/v1/students/AGU-A/missing?cutoff=10d", wantCode: http.StatusOK, extra: 1},
		{name: "report period window", path: "/v1/students/AGU-A/missing?report_period_window=true", wantCode: http.StatusOK, extra: 2},
		{name: "bad cutoff", path: "/v1/students/AGU-A/missing?cutoff=soon", wantCode: http.StatusBadRequest},
		{name: "bad boolean", path: "/v1/students/AGU-A/missing?grade_term=maybe", wantCode: http.StatusBadRequest},
		{name: "bad match mode", path: "/v1/students/AGU-A/missing?cutoff_match=sideways", wantCode: http.StatusBadRequest},
		{name: "bad index", path: "/v1/students/AGU-A/missing?term=first", wantCode: http.StatusBadRequest},
		{name: "unknown period", path: "/v1/students/AGU-A/missing?report_period=7", wantCode: http.StatusNotFound},
		{name: "unknown student", path: "/v1/students/AGU-Z/missing", wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := setup(t, nil)

			if tt.wantCode != http.StatusOK {
				var herr map[string]interface{}
				serve(t, app, tt.path, tt.wantCode, &herr)
				assert.NotEmpty(t, herr)
				return
			}
			var resp MissingResponse
			serve(t, app, tt.path, tt.wantCode, &resp)
			assert.Equal(t, "AGU-A", resp.AccessID)
			assert.Equal(t, "Quarter 1", resp.ReportPeriod.Name)
			assert.Equal(t, tt.extra, resp.Count)
			assert.Equal(t, tt.extra, resp.Missing.Count())
			assert.Equal(t, resp.Count > 0, resp.Decision.Notify)
		})
	}
}

func TestInvalidQueryFields(t *testing.T) {
	app, _ := setup(t, nil)

	var fields map[string]string
	serve(t, app, "/v1/students/AGU-A/missing?grade_term=maybe&term=-3", http.StatusBadRequest, &fields)
	assert.Equal(t, map[string]string{
		"grade_term": "grade_term must be a boolean",
		"term":       "term must be an index",
	}, fields)
}

func TestUpstreamErrors(t *testing.T) {
	t.Run("request error", func(t *testing.T) {
		app, logger := setup(t, &studentvue.RequestError{Method: "ChildList", Message: "Invalid user id or password"})
		var herr httpErr
		serve(t, app, "/v1/students", http.StatusBadGateway, &herr)
		assert.Contains(t, herr.Error, "Invalid user id or password")
		assert.Empty(t, logger.Entries)
	})

	t.Run("server error", func(t *testing.T) {
		app, logger := setup(t, errors.New("connection refused"))
		var herr httpErr
		serve(t, app, "/v1/students", http.StatusInternalServerError, &herr)
		assert.Equal(t, http.StatusText(http.StatusInternalServerError), herr.Error)
		assert.Equal(t, []string{"ERROR"}, logger.Levels())
	})
}
