package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pharmgo/pgxprep/internal/bcftools"
	"github.com/pharmgo/pgxprep/internal/preprocess"
)

const missingToRefWarning = `=============================================================
Warning: --missing-to-ref supplied

THIS SHOULD ONLY BE USED IF: you are sure your data is
reference at the missing positions instead of
unreadable/uncallable at those positions.

Running PharmCAT with positions as missing vs reference can
lead to different results.
=============================================================
`

func newPreprocessCmd() *cobra.Command {
	var (
		opts         preprocess.Options
		bcftoolsPath string
		bgzipPath    string
	)

	cmd := &cobra.Command{
		Use:   "preprocess",
		Short: "Normalize and prepare an input VCF for PharmCAT",
		Long: `Runs the preprocessing pipeline:

1. subset the input to PGx regions and selected samples
2. left-align indels and split multi-allelic records
3. filter to the exact PharmCAT PGx positions, reporting missing ones
4. write one PharmCAT-ready, block-compressed VCF per sample

Requires bcftools and bgzip ` + bcftools.MinBcftoolsVersion + ` or higher.`,
		Example: `  pgxprep preprocess --vcf input.vcf.gz
  pgxprep preprocess --vcf batch.txt -S samples.txt -o out/
  pgxprep preprocess --vcf input.vcf -0 -k`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyConfigDefaults(cmd, &opts, &bcftoolsPath, &bgzipPath)
			return runPreprocess(opts, bcftoolsPath, bgzipPath)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&opts.VCF, "vcf", "",
		"Path to a VCF file or a file of paths to VCF files, one per line (required)")
	fl.StringVar(&opts.RefPgxVCF, "ref-pgx-vcf", "pharmcat_positions.vcf.bgz",
		"Sorted VCF of PharmCAT PGx positions")
	fl.StringVar(&opts.RefFasta, "ref-fna", "",
		"GRCh38 reference sequence in FASTA format (downloaded when absent)")
	fl.StringVarP(&opts.SampleFile, "samples", "S", "",
		"File of samples to process, one per line")
	fl.StringVar(&bcftoolsPath, "bcftools", "",
		"Alternative path to the bcftools executable")
	fl.StringVar(&bgzipPath, "bgzip", "",
		"Alternative path to the bgzip executable")
	fl.StringVarP(&opts.OutputDir, "output-dir", "o", "",
		"Directory for outputs (default: directory of the input VCF)")
	fl.StringVarP(&opts.BaseFilename, "base-filename", "b", "",
		"Output prefix (default: input base name)")
	fl.BoolVarP(&opts.KeepIntermediates, "keep-intermediates", "k", false,
		"Keep intermediate files")
	fl.BoolVarP(&opts.MissingToRef, "missing-to-ref", "0", false,
		"Assume genotypes at missing PGx positions are 0/0. DANGEROUS!")
	cobra.CheckErr(cmd.MarkFlagRequired("vcf"))

	return cmd
}

// applyConfigDefaults fills flags the user did not set from the viper
// config layer (~/.pgxprep.yaml or PGXPREP_* environment variables).
func applyConfigDefaults(cmd *cobra.Command, opts *preprocess.Options, bcftoolsPath, bgzipPath *string) {
	fl := cmd.Flags()
	if !fl.Changed("bcftools") && viper.IsSet("tools.bcftools") {
		*bcftoolsPath = viper.GetString("tools.bcftools")
	}
	if !fl.Changed("bgzip") && viper.IsSet("tools.bgzip") {
		*bgzipPath = viper.GetString("tools.bgzip")
	}
	if !fl.Changed("ref-pgx-vcf") && viper.IsSet("reference.pgx_vcf") {
		opts.RefPgxVCF = viper.GetString("reference.pgx_vcf")
	}
	if !fl.Changed("ref-fna") && viper.IsSet("reference.fasta") {
		opts.RefFasta = viper.GetString("reference.fasta")
	}
	if !fl.Changed("output-dir") && viper.IsSet("output.dir") {
		opts.OutputDir = viper.GetString("output.dir")
	}
}

func runPreprocess(opts preprocess.Options, bcftoolsPath, bgzipPath string) error {
	if opts.MissingToRef {
		fmt.Print(missingToRefWarning)
	}

	logger := newLogger()
	defer logger.Sync()

	tools := bcftools.New(bcftoolsPath, bgzipPath)
	tools.SetLogger(logger)
	if err := tools.CheckVersions(); err != nil {
		return err
	}

	opts.DownloadReference = func(dir string) (string, error) {
		return downloadReference(tools, dir)
	}

	runner := preprocess.NewRunner(tools)
	runner.SetLogger(logger)

	start := time.Now()
	if _, err := runner.Run(opts); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Done.")
	fmt.Printf("Preprocessed input VCF in %.2f seconds\n", time.Since(start).Seconds())
	return nil
}
