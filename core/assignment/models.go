package assignment

import "strconv"

// Fields lists the Assignment fields in rendering order.
var Fields = []string{
	"Date", "DueDate", "Measure", "Type", "Score", "ScoreType",
	"Points", "Notes", "HasDropBox", "DropStartDate", "DropEndDate",
}

// Assignment is a uniform gradebook assignment record. Values are kept verbatim.
type Assignment struct {
	Date          string `json:"date"`
	DueDate       string `json:"due_date"`
	Measure       string `json:"measure"`
	Type          string `json:"type"`
	Score         string `json:"score"`
	ScoreType     string `json:"score_type"`
	Points        string `json:"points"` // "<earned> / <possible>"
	Notes         string `json:"notes"`
	HasDropBox    bool   `json:"has_drop_box"`
	DropStartDate string `json:"drop_start_date"`
	DropEndDate   string `json:"drop_end_date"`
}

// Values returns the field values in the order of Fields.
func (a Assignment) Values() []string {
	return []string{
		a.Date, a.DueDate, a.Measure, a.Type, a.Score, a.ScoreType,
		a.Points, a.Notes, strconv.FormatBool(a.HasDropBox), a.DropStartDate, a.DropEndDate,
	}
}

// Course holds the assignments of one class. ClassName+Period identify it
// within a student's current term/reporting-period view.
type Course struct {
	Period      string       `json:"period"`
	ClassName   string       `json:"class_name"`
	Assignments []Assignment `json:"assignments"`
}

// Grade is a course's current mark.
type Grade struct {
	Period      string `json:"period"`
	Title       string `json:"title"`
	Room        string `json:"room"`
	Staff       string `json:"staff"`
	StaffEmail  string `json:"staff_email"`
	ScoreString string `json:"score_string"`
	ScoreRaw    string `json:"score_raw"`
}

// MissingSet is a list of courses restricted to their missing assignments.
type MissingSet []Course

// Count returns the number of assignments (not courses) in the set.
func (ms MissingSet) Count() int {
	var n int
	for _, c := range ms {
		n += len(c.Assignments)
	}
	return n
}

func (ms MissingSet) IsEmpty() bool { return ms.Count() == 0 }
