package admincli

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/prisonkeeper/internal/filex"
	"github.com/dmitrijs2005/prisonkeeper/internal/netx"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/services"
	"github.com/spf13/cobra"
)

// httpClient is a seam for tests.
var httpClient = http.DefaultClient

func newUploadCmd(opts *globalOptions) *cobra.Command {
	var (
		purpose     string
		contentType string
		maxSize     int64
	)

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file to object storage and print its key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, sniffed, err := filex.ReadUpload(args[0], maxSize)
			if err != nil {
				return err
			}
			if contentType == "" {
				contentType = sniffed
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			uploads := services.NewUploadService(cfg, opts.logger(cmd.ErrOrStderr(), cfg))

			ticket, err := uploads.Presign(cmd.Context(), opts.actor(), purpose)
			if err != nil {
				return err
			}
			if err := netx.PutPresigned(cmd.Context(), httpClient, ticket.URL, contentType, data); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ticket.Key)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&purpose, "purpose", services.PurposeInmatePhoto, "inmate-photo, visitor-photo, notice-attachment or report-attachment")
	f.StringVar(&contentType, "content-type", "", "content type (sniffed when empty)")
	f.Int64Var(&maxSize, "max-size", filex.MaxUploadSize, "largest accepted file in bytes")
	return cmd
}
