package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alexanderramin/timekeep/internal/aggregate"
	"github.com/alexanderramin/timekeep/internal/app"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// rangeValue is a pflag.Value that only accepts known range shortcuts.
type rangeValue struct {
	name string
}

var _ pflag.Value = (*rangeValue)(nil)

func (r *rangeValue) String() string { return r.name }

func (r *rangeValue) Type() string { return "range" }

func (r *rangeValue) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	if !slices.Contains(aggregate.RangeShortcuts(), s) {
		return fmt.Errorf("unknown range %q (want one of %s)", s, strings.Join(aggregate.RangeShortcuts(), ", "))
	}
	r.name = s
	return nil
}

// reportFlags are shared by report and export.
type reportFlags struct {
	rng      rangeValue
	from, to string
	member   string
	task     string
	project  string
}

func (f *reportFlags) register(fs *pflag.FlagSet) {
	f.rng.name = aggregate.RangeThisWeek
	fs.Var(&f.rng, "range", "Range shortcut: "+strings.Join(aggregate.RangeShortcuts(), ", "))
	fs.StringVar(&f.from, "from", "", "Range start (YYYY-MM-DD or RFC3339); overrides --range")
	fs.StringVar(&f.to, "to", "", "Range end (YYYY-MM-DD is inclusive, RFC3339 is exclusive)")
	fs.StringVar(&f.member, "member", "", "Only this member")
	fs.StringVar(&f.task, "task", "", "Only this task")
	fs.StringVar(&f.project, "project", "", "Only tasks of this project")
}

func (f *reportFlags) request(cmd *cobra.Command) (app.ReportRequest, error) {
	req := app.ReportRequest{
		Range:     f.rng.name,
		MemberID:  f.member,
		TaskID:    f.task,
		ProjectID: f.project,
	}
	if f.from != "" || f.to != "" {
		if cmd.Flags().Changed("range") {
			return req, fmt.Errorf("use either --range or --from/--to")
		}
		req.Range = ""
		req.From = f.from
		req.To = f.to
	}
	return req, nil
}
