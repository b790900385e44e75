package admincli

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/prisonkeeper/internal/server/services"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newArchiveCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Inspect and restore archived records",
	}
	cmd.AddCommand(newArchiveListCmd(opts))
	cmd.AddCommand(newArchiveRestoreCmd(opts))
	return cmd
}

func newArchiveListCmd(opts *globalOptions) *cobra.Command {
	var (
		f        services.ArchiveFilter
		restored string
		from, to string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archive records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			switch restored {
			case "":
			case "true", "false":
				b := restored == "true"
				f.IsRestored = &b
			default:
				return fmt.Errorf("--restored must be true or false")
			}
			var err error
			if f.From, err = parseDate(from, false); err != nil {
				return err
			}
			if f.To, err = parseDate(to, true); err != nil {
				return err
			}

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close(cmd.Context())

			page, err := s.svc.Archive.List(cmd.Context(), s.actor, f)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if format == formatJSON {
				return outputJSON(w, page)
			}

			t := newTable(w)
			t.AppendHeader(table.Row{"ID", "Type", "Original ID", "Deleted By", "Reason", "Archived", "Restored"})
			for _, r := range page.Items {
				restoredAt := "-"
				if r.IsRestored {
					restoredAt = formatTime(r.RestoredAt)
				}
				t.AppendRow(table.Row{r.ID, r.EntityType, r.OriginalID, r.DeletedBy, r.DeletionReason, formatTime(&r.CreatedAt), restoredAt})
			}
			t.AppendFooter(table.Row{"", "", "", "", "", fmt.Sprintf("page %d/%d", page.Page, page.Pages), fmt.Sprintf("total %d", page.Total)})
			t.Render()
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.EntityType, "type", "", "entity type")
	fl.StringVar(&restored, "restored", "", "true or false")
	fl.StringVar(&f.DeletedBy, "deleted-by", "", "user id that deleted the record")
	fl.StringVar(&f.Search, "search", "", "search term")
	fl.StringVar(&from, "from", "", "archived on or after (YYYY-MM-DD)")
	fl.StringVar(&to, "to", "", "archived on or before (YYYY-MM-DD)")
	fl.Int64Var(&f.Page, "page", 1, "page number")
	fl.Int64Var(&f.Limit, "limit", 20, "page size")
	fl.StringVar(&format, "format", formatTable, "output format: table or json")
	return cmd
}

func newArchiveRestoreCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <archive-id>",
		Short: "Recreate the archived entity under its original id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close(cmd.Context())

			res, err := s.svc.Archive.Restore(cmd.Context(), s.actor, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s %s\n", res.EntityType, res.Archive.OriginalID)
			return nil
		},
	}
}

// parseDate reads YYYY-MM-DD in local time. endOfDay moves the result to
// the last instant of that day.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}
