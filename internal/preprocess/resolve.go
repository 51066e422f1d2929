package preprocess

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ReferenceName is the filename the resolver looks for, and the
// downloader produces, when no reference FASTA is supplied.
const ReferenceName = "reference.fna.bgz"

var vcfSuffixRe = regexp.MustCompile(`[.]vcf([.]b?gz)?$`)

// Input is the classified `vcf` argument: exactly one of VCFPath and
// ListPath is set. List contents are resolved lazily by later stages.
type Input struct {
	VCFPath  string // single variant file, block-compressed
	ListPath string // file of VCF paths, one per line
	BaseName string // output basename derived from the input name
}

// IsList reports whether the input is a file of VCF paths.
func (in *Input) IsList() bool {
	return in.ListPath != ""
}

// StripVCFSuffix removes a trailing .vcf, .vcf.gz, or .vcf.bgz from a
// file basename.
func StripVCFSuffix(name string) string {
	return vcfSuffixRe.ReplaceAllString(filepath.Base(name), "")
}

// ResolveInput classifies the vcf argument as a single VCF or a list
// file, verifies existence, and ensures a single VCF is
// block-compressed (compressing a copy via bgzip when it is not).
// Already-compressed input is used as-is.
func ResolveInput(path string, tools Toolchain) (*Input, error) {
	if vcfSuffixRe.MatchString(filepath.Base(path)) {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("cannot find %s", path)
		}
		vcfPath := path
		if !isGzipped(path) {
			gz := path + ".gz"
			fmt.Printf("Compressing %s\n", path)
			if err := tools.Bgzip(path, gz); err != nil {
				return nil, fmt.Errorf("bgzip input: %w", err)
			}
			vcfPath = gz
		}
		return &Input{VCFPath: vcfPath, BaseName: StripVCFSuffix(vcfPath)}, nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cannot find %s", path)
	}
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return &Input{ListPath: path, BaseName: base}, nil
}

// isGzipped sniffs the file for the gzip magic number. Errors are
// treated as not-compressed; the subsequent bgzip call surfaces them.
func isGzipped(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	buf := make([]byte, 2)
	if _, err := f.Read(buf); err != nil {
		return false
	}
	return buf[0] == 0x1f && buf[1] == 0x8b
}

// ResolveOutputDir returns the output directory, creating it when
// explicitly requested, and defaulting to the input file's directory.
func ResolveOutputDir(outputDir, inputPath string) (string, error) {
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
		return outputDir, nil
	}
	abs, err := filepath.Abs(inputPath)
	if err != nil {
		return "", fmt.Errorf("resolve input path: %w", err)
	}
	return filepath.Dir(abs), nil
}

// ResolveReference picks the reference FASTA: an explicit path wins
// unconditionally, then reference.fna.bgz in the output directory, then
// in the working directory, then download fetches the default into the
// output directory.
func ResolveReference(explicit, outputDir string, download func(dir string) (string, error)) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if p := filepath.Join(outputDir, ReferenceName); fileExists(p) {
		fmt.Printf("Using default FASTA reference at %s\n", p)
		return p, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	if p := filepath.Join(cwd, ReferenceName); fileExists(p) {
		fmt.Printf("Using default FASTA reference at %s\n", p)
		return p, nil
	}
	if download == nil {
		return "", fmt.Errorf("no reference FASTA found and no downloader configured")
	}
	p, err := download(outputDir)
	if err != nil {
		return "", fmt.Errorf("download reference FASTA: %w", err)
	}
	fmt.Printf("Downloaded to %s\n", p)
	return p, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ResolveSamples determines the samples to process: an explicit sample
// file wins, then the single input VCF's embedded samples, then the
// samples of the first existing file named in the list. The batch is
// assumed to carry consistent sample sets, so scanning stops at the
// first hit.
func ResolveSamples(sampleFile string, in *Input, tools SampleLister) ([]string, error) {
	if sampleFile != "" {
		return readSampleFile(sampleFile)
	}
	if !in.IsList() {
		return tools.ListSamples(in.VCFPath)
	}

	f, err := os.Open(in.ListPath)
	if err != nil {
		return nil, fmt.Errorf("open VCF list: %w", err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !fileExists(line) {
			continue
		}
		return tools.ListSamples(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read VCF list: %w", err)
	}
	return nil, nil
}

func readSampleFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sample file: %w", err)
	}
	defer f.Close()
	var samples []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			samples = append(samples, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read sample file: %w", err)
	}
	return samples, nil
}

// ValidateSamples rejects empty sample sets and identifiers containing
// a comma, which would break the comma-separated sample list syntax
// bcftools expects.
func ValidateSamples(samples []string) error {
	if len(samples) == 0 {
		return fmt.Errorf("no samples found to process")
	}
	for _, s := range samples {
		if strings.Contains(s, ",") {
			return fmt.Errorf("please remove comma ',' from sample name %q, "+
				"which violates the bcftools sample name convention", s)
		}
	}
	return nil
}
