package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	xterm "golang.org/x/term"

	echoapi "github.com/trezcool/gradewatch/apps/api/echo"
	"github.com/trezcool/gradewatch/core"
	"github.com/trezcool/gradewatch/core/notification"
	"github.com/trezcool/gradewatch/core/report"
	"github.com/trezcool/gradewatch/core/student"
)

var (
	readPasswordFunc = xterm.ReadPassword // mockable

	errHelp       = errors.New("help provided")
	errNoPassword = errors.New("a StudentVUE password is required")
)

type commandLine struct {
	conf       *core.Config
	log        core.Logger
	out        io.Writer
	notifiers  []core.Notifier
	newFetcher func(conf core.StudentVueConfig) student.Fetcher
	serve      func(opts *echoapi.Options) error

	fetcher student.Fetcher
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  run [flags]       - report missing assignments and notify (default)")
	fmt.Fprintln(cli.out, "  students [flags]  - list the account's students")
	fmt.Fprintln(cli.out, "  schedule [flags]  - show a student's classes for a grading term")
	fmt.Fprintln(cli.out, "  grades [flags]    - show a student's grades for a reporting period")
	fmt.Fprintln(cli.out, "  serve [flags]     - start the read-only HTTP API")
	fmt.Fprintln(cli.out, "Run `<command> -h` for the command's flags.")
}

func (cli *commandLine) run(args []string) error {
	cmd, rest := "run", []string(nil)
	if len(args) > 1 {
		cmd, rest = args[1], args[2:]
		if strings.HasPrefix(cmd, "-") && cmd != "-h" && cmd != "-help" && cmd != "--help" {
			cmd, rest = "run", args[1:] // flags of the default command
		}
	}

	switch cmd {
	case "run":
		return cli.report(rest)
	case "students":
		return cli.students(rest)
	case "schedule":
		return cli.schedule(rest)
	case "grades":
		return cli.grades(rest)
	case "serve":
		return cli.startServer(rest)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

// getFetcher creates the upstream fetcher once, prompting for the password when none is configured.
func (cli *commandLine) getFetcher() (student.Fetcher, error) {
	if cli.fetcher != nil {
		return cli.fetcher, nil
	}
	if cli.conf.StudentVue.Password == "" {
		fmt.Fprintf(cli.out, "StudentVUE password for %s:", cli.conf.StudentVue.Username)
		pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
		fmt.Fprintln(cli.out)
		if err != nil {
			return nil, err
		}
		if len(pwd) == 0 {
			return nil, errNoPassword
		}
		cli.conf.StudentVue.Password = string(pwd)
	}
	cli.fetcher = cli.newFetcher(cli.conf.StudentVue)
	return cli.fetcher, nil
}

// Commands

func (cli *commandLine) report(args []string) error {
	conf := *cli.conf // flags override a copy

	fs := cli.flagSet("run")
	names := fs.String("student", strings.Join(conf.Students.FirstNames, ","), "Comma separated student first names (default: every student).")
	ids := fs.String("agu", strings.Join(conf.Students.AccessIDs, ","), "Comma separated student access IDs.")
	bindSelectionFlags(fs, &conf.Selection)
	bindMissingFlags(fs, &conf.Missing)
	fs.BoolVar(&conf.Notify.Enabled, "notify", conf.Notify.Enabled, "Send notifications.")
	fs.BoolVar(&conf.Notify.WeekdaysOnly, "weekdays-only", conf.Notify.WeekdaysOnly, "Do not notify on weekends.")
	fs.BoolVar(&conf.Notify.ExcludeHolidays, "exclude-holidays", conf.Notify.ExcludeHolidays, "Do not notify on school holidays.")
	fs.BoolVar(&conf.Notify.ReportPeriodOnly, "report-period-only", conf.Notify.ReportPeriodOnly, "Only notify within the reporting period.")
	fs.BoolVar(&conf.Notify.SchoolYearOnly, "school-year-only", conf.Notify.SchoolYearOnly, "Only notify within the school year.")
	asJSON := fs.Bool("json", false, "Print the results as JSON.")
	if err := parse(fs, args); err != nil {
		return err
	}
	conf.Students = core.StudentsConfig{FirstNames: []string{*names}, AccessIDs: []string{*ids}}

	opts, err := report.OptionsFromConfig(&conf)
	if err != nil {
		return err
	}
	sel, err := report.SelectionFromConfig(&conf)
	if err != nil {
		return err
	}
	f, err := cli.getFetcher()
	if err != nil {
		return err
	}

	svc := report.NewService(cli.log, cli.notifiers...)
	results, runErr := svc.RunAll(context.Background(), f, report.LookupsFromConfig(&conf), sel, opts)
	if *asJSON {
		if err := printJSON(cli.out, results); err != nil {
			return err
		}
		return runErr
	}
	for _, res := range results {
		if err := printResult(cli.out, res); err != nil {
			return err
		}
	}
	return runErr
}

func (cli *commandLine) students(args []string) error {
	fs := cli.flagSet("students")
	photos := fs.String("photos", "", "Save every student's photo to this directory.")
	asJSON := fs.Bool("json", false, "Print the students as JSON.")
	if err := parse(fs, args); err != nil {
		return err
	}

	f, err := cli.getFetcher()
	if err != nil {
		return err
	}
	ids, err := student.List(context.Background(), f)
	if err != nil {
		return err
	}

	if *photos != "" {
		if err := os.MkdirAll(*photos, 0o755); err != nil {
			return err
		}
		for _, id := range ids {
			path, err := id.SavePhoto(*photos)
			if err != nil {
				cli.log.Warn("students: "+id.FirstName, err, id)
				continue
			}
			cli.log.Info("students: photo saved to "+path, id)
		}
	}

	if *asJSON {
		return printJSON(cli.out, ids)
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tFIRST NAME\tACCESS ID\tNAME\tSCHOOL")
	for _, id := range ids {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", id.ChildIndex, id.FirstName, id.AccessID, id.FullName, id.SchoolName)
	}
	return w.Flush()
}

func (cli *commandLine) schedule(args []string) error {
	fs := cli.flagSet("schedule")
	sel := cli.conf.Selection
	name, agu := bindStudentFlags(fs, cli.conf)
	fs.IntVar(&sel.TermIndex, "term", sel.TermIndex, "Grading term index (-1: current).")
	asJSON := fs.Bool("json", false, "Print the schedule as JSON.")
	if err := parse(fs, args); err != nil {
		return err
	}

	st, err := cli.buildStudent(fs, *name, *agu, sel)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(cli.out, jsonMap{"term": st.Term, "classes": st.Classes})
	}
	fmt.Fprintf(cli.out, "%s: %s (%s - %s)\n", st.FirstName, st.Term.Name, core.FormatDate(st.Term.Window.Start), core.FormatDate(st.Term.Window.End))
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PERIOD\tCLASS\tROOM\tTEACHER\tEMAIL")
	for _, c := range st.Classes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.Period, c.Title, c.Room, c.Teacher, c.TeacherEmail)
	}
	return w.Flush()
}

func (cli *commandLine) grades(args []string) error {
	fs := cli.flagSet("grades")
	sel := cli.conf.Selection
	name, agu := bindStudentFlags(fs, cli.conf)
	fs.IntVar(&sel.ReportPeriodIndex, "report-period", sel.ReportPeriodIndex, "Reporting period index (-1: current).")
	fs.StringVar(&sel.ReportPeriodName, "report-period-name", sel.ReportPeriodName, "Reporting period name, e.g. \"Quarter 2\".")
	fs.StringVar(&sel.MarkName, "mark", sel.MarkName, "Gradebook mark to read: term | report-period.")
	asJSON := fs.Bool("json", false, "Print the grades as JSON.")
	if err := parse(fs, args); err != nil {
		return err
	}

	st, err := cli.buildStudent(fs, *name, *agu, sel)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(cli.out, jsonMap{"report_period": st.ReportPeriod, "grades": st.Grades})
	}
	fmt.Fprintf(cli.out, "%s: %s\n", st.FirstName, st.ReportPeriod.Name)
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PERIOD\tCLASS\tMARK\tSCORE\tTEACHER")
	for _, g := range st.Grades {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", g.Period, g.Title, g.ScoreString, g.ScoreRaw, g.Staff)
	}
	return w.Flush()
}

func (cli *commandLine) startServer(args []string) error {
	conf := *cli.conf

	fs := cli.flagSet("serve")
	addr := fs.String("addr", conf.Server.Host, "Address to listen on.")
	bindSelectionFlags(fs, &conf.Selection)
	bindMissingFlags(fs, &conf.Missing)
	if err := parse(fs, args); err != nil {
		return err
	}

	opts, err := report.OptionsFromConfig(&conf)
	if err != nil {
		return err
	}
	sel, err := report.SelectionFromConfig(&conf)
	if err != nil {
		return err
	}
	f, err := cli.getFetcher()
	if err != nil {
		return err
	}
	return cli.serve(&echoapi.Options{
		Address:   *addr,
		Debug:     conf.Debug,
		Fetcher:   f,
		Logger:    cli.log,
		Report:    opts,
		Selection: sel,
	})
}

// Helpers

type jsonMap map[string]interface{}

func bindStudentFlags(fs *flag.FlagSet, conf *core.Config) (name, agu *string) {
	var defName, defAGU string
	if lookups := report.LookupsFromConfig(conf); len(lookups) > 0 {
		defName, defAGU = lookups[0].FirstName, lookups[0].AccessID
	}
	name = fs.String("student", defName, "The student's first name.")
	agu = fs.String("agu", defAGU, "The student's access ID.")
	return name, agu
}

func bindSelectionFlags(fs *flag.FlagSet, sel *core.SelectionConfig) {
	fs.IntVar(&sel.TermIndex, "term", sel.TermIndex, "Grading term index (-1: current).")
	fs.IntVar(&sel.ReportPeriodIndex, "report-period", sel.ReportPeriodIndex, "Reporting period index (-1: current).")
	fs.StringVar(&sel.ReportPeriodName, "report-period-name", sel.ReportPeriodName, "Reporting period name, e.g. \"Quarter 2\".")
}

func bindMissingFlags(fs *flag.FlagSet, mc *core.MissingConfig) {
	fs.StringVar(&mc.ClassName, "class", mc.ClassName, "Only this class name.")
	fs.StringVar(&mc.Period, "period", mc.Period, "Only this class period.")
	fs.StringVar(&mc.DateCutoff, "cutoff", mc.DateCutoff, "Only assignments dated on/after this date (MM/DD/YYYY) or offset (e.g. 30d).")
	fs.Var(&cutoffFlag{list: &mc.CutoffByClass}, "class-cutoff", "Per-class cutoff as CLASS=CUTOFF; repeatable, replaces the configured ones.")
	fs.StringVar(&mc.CutoffMatch, "cutoff-match", mc.CutoffMatch, "How classes match -class-cutoff keys: class-in-key, key-in-class or exact.")
	fs.BoolVar(&mc.GradeTermFilter, "grade-term-filter", mc.GradeTermFilter, "Only assignments dated within the grading term.")
	fs.BoolVar(&mc.ReportPeriodFilter, "report-period-filter", mc.ReportPeriodFilter, "Only assignments dated within the reporting period.")
}

// cutoffFlag collects CLASS=CUTOFF values. The first value replaces the configured list.
type cutoffFlag struct {
	list    *[]core.ClassCutoff
	touched bool
}

func (f *cutoffFlag) String() string {
	if f == nil || f.list == nil {
		return ""
	}
	parts := make([]string, 0, len(*f.list))
	for _, cc := range *f.list {
		parts = append(parts, cc.Class+"="+cc.Cutoff)
	}
	return strings.Join(parts, ",")
}

func (f *cutoffFlag) Set(v string) error {
	kv := strings.SplitN(v, "=", 2)
	if len(kv) != 2 || core.CleanString(kv[0]) == "" || core.CleanString(kv[1]) == "" {
		return fmt.Errorf("%q: want CLASS=CUTOFF", v)
	}
	if !f.touched {
		*f.list, f.touched = nil, true
	}
	*f.list = append(*f.list, core.ClassCutoff{Class: core.CleanString(kv[0]), Cutoff: core.CleanString(kv[1])})
	return nil
}

func (cli *commandLine) buildStudent(fs *flag.FlagSet, name, agu string, sel core.SelectionConfig) (*student.Student, error) {
	lookup := student.Lookup{FirstName: name, AccessID: agu}
	if lookup.IsZero() {
		fs.Usage()
		return nil, errHelp
	}
	selection, err := report.SelectionFromConfig(&core.Config{Selection: sel})
	if err != nil {
		return nil, err
	}
	f, err := cli.getFetcher()
	if err != nil {
		return nil, err
	}
	return student.Build(context.Background(), f, lookup, selection)
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(out io.Writer, res report.Result) error {
	_, text, err := notification.Render(notification.Title(res.FirstName, res.Count), res.Missing)
	if err != nil {
		return err
	}
	fmt.Fprint(out, text)
	switch {
	case res.Decision.Notify:
		fmt.Fprintf(out, "notified: %s\n\n", strings.Join(res.Notified, ", "))
	default:
		fmt.Fprintf(out, "not notified: %s\n\n", strings.Join(res.Decision.Reasons, ", "))
	}
	return nil
}
