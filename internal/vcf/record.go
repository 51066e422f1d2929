// Package vcf provides VCF reading and writing for the preprocessing
// pipeline. Fields are kept as raw strings since records are re-emitted
// rather than interpreted.
package vcf

import (
	"strconv"
	"strings"
)

// Record represents a single VCF data line.
type Record struct {
	Chrom     string   // Chromosome name (e.g., "chr12")
	Pos       int64    // 1-based genomic position
	ID        string   // Variant identifier (e.g., rs ID)
	Ref       string   // Reference allele
	Alt       string   // Alternate allele(s), comma-separated
	Qual      string   // Quality score, kept verbatim
	Filter    string   // Filter status
	Info      string   // INFO column, kept verbatim
	Format    string   // FORMAT column ("" when absent)
	Genotypes []string // One column per sample
}

// Alts returns the individual alternate alleles.
func (r *Record) Alts() []string {
	return strings.Split(r.Alt, ",")
}

// HasAlt reports whether alt is among the record's alternate alleles.
func (r *Record) HasAlt(alt string) bool {
	for _, a := range r.Alts() {
		if a == alt {
			return true
		}
	}
	return false
}

// Line renders the record as a tab-separated VCF data line without a
// trailing newline.
func (r *Record) Line() string {
	fields := []string{
		r.Chrom, strconv.FormatInt(r.Pos, 10), r.ID,
		r.Ref, r.Alt, r.Qual, r.Filter, r.Info,
	}
	if r.Format != "" {
		fields = append(fields, r.Format)
		fields = append(fields, r.Genotypes...)
	}
	return strings.Join(fields, "\t")
}

// HomRef returns a copy of the record with every sample genotype set to
// homozygous reference. Used when missing PGx positions are assumed to
// be 0/0.
func (r *Record) HomRef(sampleCount int) *Record {
	out := *r
	out.Format = "GT"
	out.Genotypes = make([]string, sampleCount)
	for i := range out.Genotypes {
		out.Genotypes[i] = "0/0"
	}
	return &out
}
