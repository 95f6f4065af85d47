package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"lyyti/internal"
	"lyyti/internal/config"
	"lyyti/internal/logging"
	"lyyti/internal/pipeline"
	"lyyti/internal/storage"
)

var errNoReport = errors.New("Anna raportti")

func main() {
	cfg, err := config.Load()
	must(err)
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd(cfg)
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, errNoReport) {
			_ = root.Usage()
		}
		cancel()
		must(err)
	}
}

func newRootCmd(cfg config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "lyyti",
		Short:         "Convert registration exports into result-system import files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newConvertCmd(cfg, internal.VariantGeneric, "<report.csv>", "survey report export"),
		newConvertCmd(cfg, internal.VariantHippo, "<sheet.xlsx>", "children's Hippo event sheet"),
		newConvertCmd(cfg, internal.VariantKLL, "<sheet.xlsx>", "school event sheet, checked against the license registry"),
		newReportCmd(cfg),
	)
	return root
}

func newConvertCmd(cfg config.Config, variant internal.Variant, argName, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(variant) + " " + argName,
		Short: short,
		Args:  oneArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			if variant == internal.VariantKLL {
				if err := cfg.Require("LICENSE_REGISTRY_URL", cfg.LicenseRegistryURL); err != nil {
					return err
				}
				if err := cfg.Require("LICENSE_REGISTRY_COOKIE", cfg.LicenseRegistryCookie); err != nil {
					return err
				}
			}

			db, err := storage.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := pipeline.NewProcessingService(db, cfg).Convert(cmd.Context(), variant, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "conversion done variant=%s read=%d blank=%d athletes=%d entries=%d rejected=%d output=%s run=%s\n",
				variant, res.Read, res.Blank, res.Athletes, res.Entries, res.Rejected, res.OutputPath, res.RunID)
			return nil
		},
	}
	return cmd
}

func newReportCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "report:xlsx <runId>",
		Short: "rejected rows of a stored run",
		Args:  oneArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			out := filepath.Join(cfg.OutputDir, "reports", args[0]+".xlsx")
			count, err := pipeline.NewProcessingService(db, cfg).ExportRejections(args[0], out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d rejections to %s\n", count, out)
			return nil
		},
	}
}

func oneArg(cmd *cobra.Command, args []string) error {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return errNoReport
	}
	return cobra.ExactArgs(1)(cmd, args)
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
