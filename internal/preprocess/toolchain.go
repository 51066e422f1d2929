// Package preprocess orchestrates the PharmCAT VCF preprocessing
// pipeline: subset input to PGx regions, normalize variant
// representations, filter to the exact PGx position set, and emit one
// PharmCAT-ready VCF per sample.
package preprocess

// Toolchain is the set of external VCF transformations the pipeline
// depends on. The production implementation spawns bcftools and bgzip;
// tests substitute fakes.
type Toolchain interface {
	// Index creates an index for a block-compressed VCF.
	Index(vcfPath string) error

	// ListSamples returns the sample identifiers embedded in a VCF.
	ListSamples(vcfPath string) ([]string, error)

	// Bgzip block-compresses inPath into outPath, leaving the input
	// in place.
	Bgzip(inPath, outPath string) error

	// RenameChromosomes rewrites chromosome names per the rename map
	// file into a block-compressed output.
	RenameChromosomes(inPath, mapPath, outPath string) error

	// SubsetRegions restricts an indexed VCF to the regions of
	// regionsVCF and the given samples.
	SubsetRegions(inPath, regionsVCF string, samples []string, outPath string) error

	// Concat concatenates indexed, possibly overlapping VCFs.
	Concat(inPaths []string, outPath string) error

	// Sort sorts a VCF by genomic position.
	Sort(inPath, outPath string) error

	// Normalize left-aligns indels against the reference FASTA and
	// splits multi-allelic records.
	Normalize(inPath, refFasta, outPath string) error

	// ExtractSample writes a single-sample view of the input VCF.
	ExtractSample(inPath, sample, outPath string) error
}

// SampleLister is the part of the toolchain the sample resolver needs.
type SampleLister interface {
	ListSamples(vcfPath string) ([]string, error)
}
