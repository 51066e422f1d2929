package preprocess

import (
	"fmt"
	"os"
	"sort"

	"github.com/pharmgo/pgxprep/internal/vcf"
)

// FilterResult summarizes the position-filter stage.
type FilterResult struct {
	// Kept is the number of input records retained.
	Kept int
	// Missing holds the reference PGx entries with no corresponding
	// input record, in reference file order.
	Missing []*vcf.Record
}

// filterToPositions streams the normalized VCF and writes a plain-text
// VCF at outPath containing only records matching the reference PGx
// position set. Reference entries absent from the input are reported
// as missing, or synthesized as homozygous-reference records for every
// sample when missingToRef is set.
func filterToPositions(normalizedPath string, set *vcf.PositionSet, missingToRef bool, outPath string) (*FilterResult, error) {
	r, err := vcf.NewReader(normalizedPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	sampleCount := len(r.SampleNames())
	seen := make([]bool, set.Len())
	var kept []*vcf.Record

	for {
		rec, err := r.Next()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			break
		}
		if i, ok := set.MatchIndex(rec); ok {
			seen[i] = true
			kept = append(kept, rec)
		}
	}

	res := &FilterResult{}
	for i, entry := range set.Records() {
		if seen[i] {
			continue
		}
		if missingToRef {
			kept = append(kept, entry.HomRef(sampleCount))
		} else {
			res.Missing = append(res.Missing, entry)
		}
	}

	sortRecords(kept, set)
	res.Kept = len(kept)

	out, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", outPath, err)
	}
	defer out.Close()

	w := vcf.NewWriter(out)
	if err := w.WriteHeader(r.Header()); err != nil {
		return nil, err
	}
	for _, rec := range kept {
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("flush %s: %w", outPath, err)
	}
	return res, nil
}

// sortRecords orders records by genomic position, with chromosomes
// ranked by their first appearance in the reference position set. The
// input is already position-sorted; this restores order after 0/0
// synthesis inserts records.
func sortRecords(recs []*vcf.Record, set *vcf.PositionSet) {
	rank := make(map[string]int)
	for _, entry := range set.Records() {
		if _, ok := rank[entry.Chrom]; !ok {
			rank[entry.Chrom] = len(rank)
		}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Chrom != recs[j].Chrom {
			return rank[recs[i].Chrom] < rank[recs[j].Chrom]
		}
		return recs[i].Pos < recs[j].Pos
	})
}

// writeMissingReport writes the reference entries absent from the
// input to a plain-text VCF usable for manual review.
func writeMissingReport(path string, header []string, missing []*vcf.Record) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create missing-position report: %w", err)
	}
	defer out.Close()

	w := vcf.NewWriter(out)
	if err := w.WriteHeader(header); err != nil {
		return err
	}
	for _, rec := range missing {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return w.Flush()
}
