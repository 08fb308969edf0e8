package cli

import (
	"github.com/spf13/cobra"

	"github.com/ytget/yt-archiver/internal/archive"
	"github.com/ytget/yt-archiver/internal/checksum"
	"github.com/ytget/yt-archiver/internal/config"
	"github.com/ytget/yt-archiver/internal/logger"
	"github.com/ytget/yt-archiver/internal/model"
	"github.com/ytget/yt-archiver/internal/report"
)

func (a *App) newVerifyCommand() *cobra.Command {
	var hashes bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check archived files against the SHA256SUMS ledger",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.bindFlags(cmd, map[string]string{"root": config.KeyArchiveRoot})
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep, err := a.verify(cmd, hashes)
			if err != nil {
				return a.fail(err)
			}
			if err := report.WriteJSON(a.Stdout, rep); err != nil {
				return a.fail(err)
			}
			if !rep.OK() {
				return a.fail(model.Errorf(model.ReasonSystem,
					"%d of %d ledger entries failed verification", len(rep.Problems), rep.Checked))
			}
			return nil
		},
	}
	cmd.Flags().String("root", "", "archive root directory")
	cmd.Flags().BoolVar(&hashes, "hashes", false, "re-hash every file instead of only checking existence")
	return cmd
}

func (a *App) verify(cmd *cobra.Command, hashes bool) (*archive.VerifyReport, error) {
	log, err := a.logger()
	if err != nil {
		return nil, err
	}
	root, err := a.settings.GetArchiveRoot()
	if err != nil {
		return nil, err
	}

	entries, err := archive.NewLedger(root).Read()
	if err != nil {
		return nil, err
	}
	log.Info("verifying archive",
		logger.String("root", root),
		logger.Int("entries", len(entries)),
		logger.Bool("hashes", hashes))

	obs := checksum.ObserverFunc(func(path string, bytesRead int64) {
		log.Debug("hashing", logger.String("path", path), logger.Int64("bytes", bytesRead))
	})
	return archive.Verify(cmd.Context(), root, entries, hashes, obs)
}
