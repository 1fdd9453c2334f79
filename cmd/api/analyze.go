package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"resume-analyzer/internal/analysis"
	"resume-analyzer/internal/bootstrap"
	"resume-analyzer/internal/report"
	"resume-analyzer/internal/shared/config"
)

type analyzeOptions struct {
	resumePath   string
	jobTitle     string
	jobOffer     string
	jobOfferFile string
	format       string
	output       string
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a local resume file and print the report",
		Example: `  resume-analyzer analyze --resume cv.pdf --job-title "Backend Engineer" --job-offer-file offer.txt
  resume-analyzer analyze --resume cv.docx --job-title SRE --job-offer "..." --format xlsx -o report.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.resumePath, "resume", "", "path to the resume file (pdf, docx, txt, md)")
	cmd.Flags().StringVar(&opts.jobTitle, "job-title", "", "target job title")
	cmd.Flags().StringVar(&opts.jobOffer, "job-offer", "", "job offer text")
	cmd.Flags().StringVar(&opts.jobOfferFile, "job-offer-file", "", "file holding the job offer text")
	cmd.Flags().StringVar(&opts.format, "format", "json", "output format: json, text or xlsx")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the report to this file instead of stdout")
	_ = cmd.MarkFlagRequired("resume")
	_ = cmd.MarkFlagRequired("job-title")
	cmd.MarkFlagsMutuallyExclusive("job-offer", "job-offer-file")
	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions) error {
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if format == report.FormatXLSX && opts.output == "" {
		return errors.New("xlsx output needs --output")
	}
	jobOffer, err := readJobOffer(opts)
	if err != nil {
		return err
	}

	f, err := os.Open(opts.resumePath)
	if err != nil {
		return fmt.Errorf("open resume: %w", err)
	}
	defer f.Close()

	ctx := cmd.Context()
	cfg := config.Load()
	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	rep, err := app.AnalysisService.Analyze(ctx, analysis.Input{
		FileName: filepath.Base(opts.resumePath),
		Resume:   f,
		JobOffer: jobOffer,
		JobTitle: opts.jobTitle,
	})
	if err != nil {
		return err
	}

	meta := report.Meta{
		ResumeFile:  filepath.Base(opts.resumePath),
		JobTitle:    opts.jobTitle,
		GeneratedAt: time.Now().UTC(),
	}
	return writeReport(cmd.OutOrStdout(), opts.output, rep, meta, format)
}

func readJobOffer(opts *analyzeOptions) (string, error) {
	if opts.jobOfferFile == "" {
		if strings.TrimSpace(opts.jobOffer) == "" {
			return "", errors.New("one of --job-offer or --job-offer-file is required")
		}
		return opts.jobOffer, nil
	}
	data, err := os.ReadFile(opts.jobOfferFile)
	if err != nil {
		return "", fmt.Errorf("read job offer: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("job offer file %s is empty", opts.jobOfferFile)
	}
	return string(data), nil
}

func writeReport(stdout io.Writer, output string, rep analysis.Report, meta report.Meta, format report.Format) error {
	if output == "" {
		return report.Write(stdout, rep, meta, format)
	}
	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := report.Write(out, rep, meta, format); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
