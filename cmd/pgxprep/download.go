package main

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pharmgo/pgxprep/internal/bcftools"
	"github.com/pharmgo/pgxprep/internal/preprocess"
)

// Default GRCh38 reference sequence (no-alt analysis set).
const referenceFastaURL = "https://ftp.ncbi.nlm.nih.gov/genomes/all/GCA/000/001/405/GCA_000001405.15_GRCh38/" +
	"seqs_for_alignment_pipelines.ucsc_ids/GCA_000001405.15_GRCh38_no_alt_analysis_set.fna.gz"

func newDownloadCmd() *cobra.Command {
	var (
		outputDir    string
		bcftoolsPath string
		bgzipPath    string
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the GRCh38 reference sequence",
		Long: `Downloads the GRCh38 no-alt analysis set FASTA and recompresses it
with bgzip as reference.fna.bgz, the file the preprocess command looks
for when --ref-fna is not given.

The download is about 900MB; preprocess fetches it on demand, this
command just lets you do it ahead of time.`,
		Example: `  pgxprep download
  pgxprep download -o /data/reference`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputDir == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("resolve working directory: %w", err)
				}
				outputDir = cwd
			}
			tools := bcftools.New(bcftoolsPath, bgzipPath)
			tools.SetLogger(newLogger())
			path, err := downloadReference(tools, outputDir)
			if err != nil {
				return err
			}
			fmt.Printf("\nDownload complete: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for the reference (default: working directory)")
	cmd.Flags().StringVar(&bcftoolsPath, "bcftools", "", "Alternative path to the bcftools executable")
	cmd.Flags().StringVar(&bgzipPath, "bgzip", "", "Alternative path to the bgzip executable")

	return cmd
}

// downloadReference fetches the default GRCh38 FASTA into dir and
// recompresses it with bgzip so bcftools can index it. Returns the
// path of the bgzipped reference.
func downloadReference(tools *bcftools.Tools, dir string) (string, error) {
	refPath := filepath.Join(dir, preprocess.ReferenceName)
	if _, err := os.Stat(refPath); err == nil {
		return refPath, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create directory %s: %w", dir, err)
	}

	gzPath := filepath.Join(dir, "reference.fna.gz")
	if err := downloadFile(referenceFastaURL, gzPath); err != nil {
		return "", fmt.Errorf("download reference FASTA: %w", err)
	}

	// The upstream file is plain gzip; bcftools needs bgzf, so
	// decompress and recompress.
	fnaPath := filepath.Join(dir, "reference.fna")
	if err := gunzipFile(gzPath, fnaPath); err != nil {
		return "", err
	}
	fmt.Printf("  Recompressing with bgzip...\n")
	if err := tools.Bgzip(fnaPath, refPath); err != nil {
		return "", err
	}

	os.Remove(gzPath)
	os.Remove(fnaPath)
	return refPath, nil
}

// gunzipFile decompresses src into dst.
func gunzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("create gzip reader: %w", err)
	}
	defer gz.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, gz); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("decompress %s: %w", src, err)
	}
	return out.Close()
}

// downloadFile downloads a file from URL to the destination path with progress.
func downloadFile(url, destPath string) error {
	if info, err := os.Stat(destPath); err == nil {
		fmt.Printf("  %s already exists (%s), skipping\n", filepath.Base(destPath), formatSize(info.Size()))
		return nil
	}

	fmt.Printf("  Downloading %s...\n", filepath.Base(destPath))

	client := &http.Client{
		Timeout: 60 * time.Minute, // Long timeout for large files
	}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %s", resp.Status)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	var downloaded int64
	pw := &progressWriter{
		total:      resp.ContentLength,
		downloaded: &downloaded,
		lastPrint:  time.Now(),
	}

	_, err = io.Copy(f, io.TeeReader(resp.Body, pw))
	f.Close()

	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("download failed: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename file: %w", err)
	}

	fmt.Printf("    Done: %s\n", formatSize(downloaded))
	return nil
}

// progressWriter tracks download progress.
type progressWriter struct {
	total      int64
	downloaded *int64
	lastPrint  time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	*pw.downloaded += int64(n)

	// Print progress every second
	if time.Since(pw.lastPrint) > time.Second {
		if pw.total > 0 {
			pct := float64(*pw.downloaded) / float64(pw.total) * 100
			fmt.Printf("\r    Progress: %s / %s (%.1f%%)  ",
				formatSize(*pw.downloaded), formatSize(pw.total), pct)
		} else {
			fmt.Printf("\r    Progress: %s  ", formatSize(*pw.downloaded))
		}
		pw.lastPrint = time.Now()
	}

	return n, nil
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
