package admincli

import (
	"fmt"

	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/services"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newStatsCmd(opts *globalOptions) *cobra.Command {
	var (
		period   string
		from, to string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print dashboard statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			r := services.StatsRange{Name: period}
			var err error
			if r.Start, err = parseDate(from, false); err != nil {
				return err
			}
			// the dashboard end is exclusive, so --to names the first day left out
			if r.End, err = parseDate(to, false); err != nil {
				return err
			}

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close(cmd.Context())

			d, err := s.svc.Stats.Dashboard(cmd.Context(), s.actor, r)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if format == formatJSON {
				return outputJSON(w, d)
			}
			renderDashboard(newTable(w), d)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&period, "period", "month", "week, month or year")
	f.StringVar(&from, "from", "", "period start (YYYY-MM-DD), overrides --period")
	f.StringVar(&to, "to", "", "period end, exclusive (YYYY-MM-DD)")
	f.StringVar(&format, "format", formatTable, "output format: table or json")
	return cmd
}

func renderDashboard(t table.Writer, d *services.Dashboard) {
	t.SetTitle(fmt.Sprintf("%s .. %s", formatTime(&d.From), formatTime(&d.To)))
	t.AppendHeader(table.Row{"Metric", "Current", "Previous", "Trend %"})

	metrics := []struct {
		name string
		m    services.Metric
	}{
		{"inmates", d.Inmates},
		{"visitors", d.Visitors},
		{"incidents", d.Incidents},
		{"transfers", d.Transfers},
		{"clearances", d.Clearances},
		{"notices", d.Notices},
	}
	for _, m := range metrics {
		t.AppendRow(table.Row{m.name, m.m.Current, m.m.Previous, fmt.Sprintf("%.1f", m.m.Trend)})
	}

	t.AppendSeparator()
	for _, sev := range models.Severities {
		t.AppendRow(table.Row{"incidents " + string(sev), d.IncidentSeverity[sev], "", ""})
	}

	t.AppendSeparator()
	t.AppendRow(table.Row{"visitor approval %", fmt.Sprintf("%.1f", d.VisitorApprovalPct), "", ""})
	t.AppendRow(table.Row{"parole eligible", d.ParoleEligible, "", ""})
	t.AppendRow(table.Row{"active archives", d.ActiveArchives, "", ""})
	t.Render()
}
