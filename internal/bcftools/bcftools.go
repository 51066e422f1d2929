// Package bcftools drives the external bcftools and bgzip executables
// that perform every VCF transformation in the preprocessing pipeline.
package bcftools

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Tools invokes bcftools and bgzip as subprocesses. Every invocation is
// attempted exactly once; a non-zero exit is returned as an error with
// the tool's stderr attached.
type Tools struct {
	bcftools string
	bgzip    string
	logger   *zap.Logger
}

// New returns a Tools using the given executable paths. Empty paths
// fall back to looking up "bcftools" and "bgzip" on $PATH.
func New(bcftoolsPath, bgzipPath string) *Tools {
	if bcftoolsPath == "" {
		bcftoolsPath = "bcftools"
	}
	if bgzipPath == "" {
		bgzipPath = "bgzip"
	}
	return &Tools{
		bcftools: bcftoolsPath,
		bgzip:    bgzipPath,
		logger:   zap.NewNop(),
	}
}

// SetLogger sets the logger for subprocess diagnostics.
func (t *Tools) SetLogger(l *zap.Logger) {
	t.logger = l
}

// run executes a command and returns its combined output, failing on a
// non-zero exit.
func (t *Tools) run(name string, args ...string) ([]byte, error) {
	t.logger.Debug("exec", zap.String("cmd", name), zap.Strings("args", args))
	cmd := exec.Command(name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return buf.Bytes(), fmt.Errorf("%s %s: %w: %s",
			name, strings.Join(args, " "), err, strings.TrimSpace(buf.String()))
	}
	return buf.Bytes(), nil
}

// runLenient executes a command and returns its combined output,
// ignoring the exit status. Only process start failures are errors.
func (t *Tools) runLenient(name string, args ...string) ([]byte, error) {
	t.logger.Debug("exec", zap.String("cmd", name), zap.Strings("args", args))
	cmd := exec.Command(name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Index creates a CSI index for a block-compressed VCF.
func (t *Tools) Index(vcfPath string) error {
	_, err := t.run(t.bcftools, "index", "-f", vcfPath)
	return err
}

// ListSamples returns the sample identifiers embedded in a VCF, in the
// order bcftools reports them.
func (t *Tools) ListSamples(vcfPath string) ([]string, error) {
	out, err := t.run(t.bcftools, "query", "-l", vcfPath)
	if err != nil {
		return nil, err
	}
	var samples []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			samples = append(samples, line)
		}
	}
	return samples, nil
}

// Bgzip block-compresses inPath into outPath, leaving the input in
// place.
func (t *Tools) Bgzip(inPath, outPath string) error {
	cmd := exec.Command(t.bgzip, "-c", inPath)
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer out.Close()
	var errBuf bytes.Buffer
	cmd.Stdout = out
	cmd.Stderr = &errBuf
	t.logger.Debug("exec", zap.String("cmd", t.bgzip), zap.String("input", inPath))
	if err := cmd.Run(); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("%s -c %s: %w: %s", t.bgzip, inPath, err, strings.TrimSpace(errBuf.String()))
	}
	return nil
}

// RenameChromosomes rewrites chromosome names using the rename map file
// (old name, new name per line) and writes a block-compressed result.
func (t *Tools) RenameChromosomes(inPath, mapPath, outPath string) error {
	_, err := t.run(t.bcftools, "annotate", "--rename-chrs", mapPath,
		"-Oz", "-o", outPath, inPath)
	return err
}

// SubsetRegions restricts a block-compressed, indexed VCF to the
// regions spanned by regionsVCF and to the given samples, writing a
// block-compressed result.
func (t *Tools) SubsetRegions(inPath, regionsVCF string, samples []string, outPath string) error {
	args := []string{"view", "-R", regionsVCF}
	if len(samples) > 0 {
		args = append(args, "-s", strings.Join(samples, ","))
	}
	args = append(args, "-Oz", "-o", outPath, inPath)
	_, err := t.run(t.bcftools, args...)
	return err
}

// Concat concatenates block-compressed, indexed VCFs covering possibly
// overlapping regions into one block-compressed output.
func (t *Tools) Concat(inPaths []string, outPath string) error {
	args := []string{"concat", "-a", "-Oz", "-o", outPath}
	args = append(args, inPaths...)
	_, err := t.run(t.bcftools, args...)
	return err
}

// Sort sorts a VCF by genomic position into a block-compressed output.
func (t *Tools) Sort(inPath, outPath string) error {
	_, err := t.run(t.bcftools, "sort", "-Oz", "-o", outPath, inPath)
	return err
}

// Normalize left-aligns indels against the reference FASTA and splits
// multi-allelic records into one allele per record.
func (t *Tools) Normalize(inPath, refFasta, outPath string) error {
	_, err := t.run(t.bcftools, "norm",
		"-m-any", "-c", "ws", "-f", refFasta,
		"-Oz", "-o", outPath, inPath)
	return err
}

// ExtractSample writes a single-sample view of the input VCF as a
// block-compressed output.
func (t *Tools) ExtractSample(inPath, sample, outPath string) error {
	_, err := t.run(t.bcftools, "view",
		"-s", sample, "-Oz", "-o", outPath, inPath)
	return err
}
