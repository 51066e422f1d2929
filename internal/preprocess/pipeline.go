package preprocess

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pharmgo/pgxprep/internal/vcf"
)

// Artifacts tracks the files produced by one pipeline invocation. The
// intermediate stage outputs are owned by the Runner and removed by
// Cleanup unless retention was requested; per-sample outputs and the
// missing-position report are always kept.
type Artifacts struct {
	Regions       string   // stage 1: PGx-region/sample subset
	Normalized    string   // stage 2: normalized
	PgxOnly       string   // stage 3: exact PGx positions only
	PerSample     []string // stage 4: final PharmCAT-ready outputs
	MissingReport string   // set when PGx positions were missing

	extras []string // rename maps, per-file subsets, plain-text stage output
}

// Intermediates returns every artifact eligible for cleanup, in
// creation order.
func (a *Artifacts) Intermediates() []string {
	var paths []string
	paths = append(paths, a.extras...)
	for _, p := range []string{a.Regions, a.Normalized, a.PgxOnly} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func (a *Artifacts) addExtra(paths ...string) {
	a.extras = append(a.extras, paths...)
}

// Runner executes the preprocessing pipeline. Stages run strictly in
// sequence and any stage failure aborts the run.
type Runner struct {
	tools  Toolchain
	logger *zap.Logger
}

// NewRunner creates a Runner using the given toolchain.
func NewRunner(tools Toolchain) *Runner {
	return &Runner{tools: tools, logger: zap.NewNop()}
}

// SetLogger sets the logger for pipeline diagnostics.
func (r *Runner) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Run validates inputs, resolves the sample set and reference
// sequence, and executes the four transformation stages. The returned
// Artifacts describe everything that was written, including after
// cleanup.
func (r *Runner) Run(opts Options) (*Artifacts, error) {
	in, err := ResolveInput(opts.VCF, r.tools)
	if err != nil {
		return nil, err
	}

	outputDir, err := ResolveOutputDir(opts.OutputDir, opts.VCF)
	if err != nil {
		return nil, err
	}
	fmt.Printf("Saving output to %s\n", outputDir)

	if !fileExists(opts.RefPgxVCF) {
		return nil, fmt.Errorf("VCF of the reference PGx positions was not found at: %s", opts.RefPgxVCF)
	}
	if !fileExists(opts.RefPgxVCF + ".csi") {
		if err := r.tools.Index(opts.RefPgxVCF); err != nil {
			return nil, fmt.Errorf("index reference PGx VCF: %w", err)
		}
	}

	refFasta, err := ResolveReference(opts.RefFasta, outputDir, opts.DownloadReference)
	if err != nil {
		return nil, err
	}

	samples, err := ResolveSamples(opts.SampleFile, in, r.tools)
	if err != nil {
		return nil, err
	}
	if err := ValidateSamples(samples); err != nil {
		return nil, err
	}
	r.logger.Info("resolved samples", zap.Int("count", len(samples)))

	base := opts.BaseFilename
	if base == "" {
		base = in.BaseName
	}

	art := &Artifacts{}

	if err := r.subsetStage(in, opts.RefPgxVCF, samples, outputDir, in.BaseName, art); err != nil {
		return art, err
	}

	art.Normalized = filepath.Join(outputDir, in.BaseName+".normalized.vcf.bgz")
	if err := r.tools.Normalize(art.Regions, refFasta, art.Normalized); err != nil {
		return art, fmt.Errorf("normalize: %w", err)
	}
	if err := r.tools.Index(art.Normalized); err != nil {
		return art, fmt.Errorf("index normalized VCF: %w", err)
	}

	if err := r.filterStage(opts, outputDir, in.BaseName, art); err != nil {
		return art, err
	}

	for _, sample := range samples {
		out := filepath.Join(outputDir, fmt.Sprintf("%s.%s.vcf.bgz", base, sample))
		if err := r.tools.ExtractSample(art.PgxOnly, sample, out); err != nil {
			return art, fmt.Errorf("extract sample %s: %w", sample, err)
		}
		art.PerSample = append(art.PerSample, out)
		fmt.Printf("Generated %s\n", out)
	}

	r.Cleanup(art, opts.KeepIntermediates)
	return art, nil
}

// subsetStage shrinks the input down to PGx regions and the selected
// samples, with chromosome naming canonicalized to chr<N>. A list of
// inputs is subset per file, concatenated, and position-sorted.
func (r *Runner) subsetStage(in *Input, refPgx string, samples []string, outputDir, base string, art *Artifacts) error {
	mapPath := filepath.Join(outputDir, base+".chr_rename.tsv")
	if err := writeChrRenameMap(mapPath); err != nil {
		return err
	}
	art.addExtra(mapPath)

	regions := filepath.Join(outputDir, base+".pgx_regions.vcf.bgz")

	if !in.IsList() {
		if err := r.subsetOne(in.VCFPath, mapPath, refPgx, samples,
			filepath.Join(outputDir, base+".chr.vcf.bgz"), regions, art); err != nil {
			return err
		}
		art.Regions = regions
		return nil
	}

	paths, err := readListFile(in.ListPath)
	if err != nil {
		return err
	}
	var parts []string
	for i, p := range paths {
		if !fileExists(p) {
			fmt.Printf("Warning: cannot find %s, skipping\n", p)
			continue
		}
		if !isGzipped(p) {
			gz := p + ".gz"
			if err := r.tools.Bgzip(p, gz); err != nil {
				return fmt.Errorf("bgzip %s: %w", p, err)
			}
			p = gz
		}
		part := filepath.Join(outputDir, fmt.Sprintf("%s.pgx_regions.%d.vcf.bgz", base, i))
		if err := r.subsetOne(p, mapPath, refPgx, samples,
			filepath.Join(outputDir, fmt.Sprintf("%s.chr.%d.vcf.bgz", base, i)), part, art); err != nil {
			return err
		}
		parts = append(parts, part)
		art.addExtra(part)
	}
	if len(parts) == 0 {
		return fmt.Errorf("cannot find any of the VCF files listed in %s", in.ListPath)
	}

	// bcftools concat keeps input order; an explicit sort guarantees
	// the position order the normalize stage requires.
	concat := filepath.Join(outputDir, base+".concat.vcf.bgz")
	if err := r.tools.Concat(parts, concat); err != nil {
		return fmt.Errorf("concatenate region subsets: %w", err)
	}
	art.addExtra(concat)
	if err := r.tools.Sort(concat, regions); err != nil {
		return fmt.Errorf("sort concatenated VCF: %w", err)
	}
	if err := r.tools.Index(regions); err != nil {
		return fmt.Errorf("index region subset: %w", err)
	}
	art.Regions = regions
	return nil
}

// subsetOne renames chromosomes in a single VCF and restricts it to
// PGx regions and the selected samples.
func (r *Runner) subsetOne(inPath, mapPath, refPgx string, samples []string, renamed, out string, art *Artifacts) error {
	if err := r.tools.RenameChromosomes(inPath, mapPath, renamed); err != nil {
		return fmt.Errorf("rename chromosomes: %w", err)
	}
	art.addExtra(renamed)
	if err := r.tools.Index(renamed); err != nil {
		return fmt.Errorf("index renamed VCF: %w", err)
	}
	if err := r.tools.SubsetRegions(renamed, refPgx, samples, out); err != nil {
		return fmt.Errorf("subset PGx regions: %w", err)
	}
	if err := r.tools.Index(out); err != nil {
		return fmt.Errorf("index region subset: %w", err)
	}
	return nil
}

// filterStage retains the exact PGx positions and accounts for missing
// ones, then block-compresses and indexes the result.
func (r *Runner) filterStage(opts Options, outputDir, base string, art *Artifacts) error {
	set, err := vcf.LoadPositions(opts.RefPgxVCF)
	if err != nil {
		return err
	}

	plain := filepath.Join(outputDir, base+".pgx_only.vcf")
	res, err := filterToPositions(art.Normalized, set, opts.MissingToRef, plain)
	if err != nil {
		return fmt.Errorf("filter to PGx positions: %w", err)
	}
	art.addExtra(plain)
	r.logger.Info("filtered to PGx positions",
		zap.Int("kept", res.Kept), zap.Int("missing", len(res.Missing)))

	if len(res.Missing) > 0 {
		report := filepath.Join(outputDir, base+".missing_pgx_var.vcf")
		if err := writeMissingReport(report, set.Header(), res.Missing); err != nil {
			return err
		}
		art.MissingReport = report
		fmt.Printf("Warning: %d PGx positions were not found in the input, see %s\n",
			len(res.Missing), report)
	}

	art.PgxOnly = filepath.Join(outputDir, base+".pgx_only.vcf.bgz")
	if err := r.tools.Bgzip(plain, art.PgxOnly); err != nil {
		return fmt.Errorf("bgzip filtered VCF: %w", err)
	}
	if err := r.tools.Index(art.PgxOnly); err != nil {
		return fmt.Errorf("index filtered VCF: %w", err)
	}
	return nil
}

// Cleanup removes the intermediate artifacts and their index
// companions unless retention was requested. Deletion failures are
// logged and otherwise ignored.
func (r *Runner) Cleanup(art *Artifacts, keep bool) {
	if keep {
		return
	}
	fmt.Println("Removing intermediate files")
	for _, p := range art.Intermediates() {
		for _, path := range []string{p, p + ".csi", p + ".tbi"} {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				r.logger.Debug("remove intermediate", zap.String("path", path), zap.Error(err))
			}
		}
	}
}

// readListFile returns the non-blank lines of a file of VCF paths.
func readListFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open VCF list: %w", err)
	}
	defer f.Close()
	var paths []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			paths = append(paths, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read VCF list: %w", err)
	}
	return paths, nil
}

// writeChrRenameMap writes the bcftools rename map canonicalizing
// chromosome names to the chr<N> form the PGx position VCF uses.
func writeChrRenameMap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chromosome rename map: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i := 1; i <= 22; i++ {
		fmt.Fprintf(w, "%d\tchr%d\n", i, i)
	}
	for _, c := range []string{"X", "Y"} {
		fmt.Fprintf(w, "%s\tchr%s\n", c, c)
	}
	fmt.Fprintf(w, "M\tchrM\n")
	fmt.Fprintf(w, "MT\tchrM\n")
	fmt.Fprintf(w, "chrMT\tchrM\n")
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write chromosome rename map: %w", err)
	}
	return nil
}
