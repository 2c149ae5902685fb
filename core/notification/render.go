package notification

import (
	"bytes"
	"embed"
	"fmt"
	htmltmpl "html/template"
	texttmpl "text/template"

	"github.com/pkg/errors"

	"github.com/trezcool/gradewatch/core"
	"github.com/trezcool/gradewatch/core/assignment"
)

//go:embed all:templates
var templateFS embed.FS

var (
	htmlTemplate = htmltmpl.Must(htmltmpl.ParseFS(templateFS, "templates/_base.gohtml", "templates/missing.gohtml"))
	textTemplate = texttmpl.Must(texttmpl.ParseFS(templateFS, "templates/_base.txt", "templates/missing.txt"))
)

type (
	courseView struct {
		Period      string
		ClassName   string
		Assignments []assignment.Assignment
		Rows        [][]string
	}

	templateData struct {
		Title   string
		Count   int
		Fields  []string
		Courses []courseView
	}
)

// Title returns "<first> has <count> missing assignment(s)".
func Title(firstName string, count int) string {
	return fmt.Sprintf("%s has %d missing assignment(s)", firstName, count)
}

// Render builds the HTML document (one table per course) and its plain text twin.
// Upstream values are HTML-escaped in the document rather than inserted verbatim;
// the text twin carries them unchanged.
func Render(title string, set assignment.MissingSet) (htmlBody, textBody string, err error) {
	data := templateData{
		Title:   title,
		Count:   set.Count(),
		Fields:  assignment.Fields,
		Courses: make([]courseView, 0, len(set)),
	}
	for _, c := range set {
		cv := courseView{Period: c.Period, ClassName: c.ClassName, Assignments: c.Assignments}
		for _, a := range c.Assignments {
			cv.Rows = append(cv.Rows, a.Values())
		}
		data.Courses = append(data.Courses, cv)
	}

	var buff bytes.Buffer
	if err := htmlTemplate.Execute(&buff, data); err != nil {
		return "", "", errors.Wrap(err, "notification.Render: html")
	}
	htmlBody = buff.String()

	buff.Reset()
	if err := textTemplate.Execute(&buff, data); err != nil {
		return "", "", errors.Wrap(err, "notification.Render: text")
	}
	return htmlBody, buff.String(), nil
}

// NewMessage renders set into a Message addressed to recipient.
func NewMessage(recipient core.Recipient, set assignment.MissingSet) (core.Message, error) {
	title := Title(recipient.FirstName, set.Count())
	htmlBody, textBody, err := Render(title, set)
	if err != nil {
		return core.Message{}, err
	}
	return core.Message{
		Title:     title,
		HTMLBody:  htmlBody,
		TextBody:  textBody,
		Recipient: recipient,
	}, nil
}
