package preprocess

// Options configures one pipeline invocation. VCF is the only required
// field; everything else has a resolvable default.
type Options struct {
	// VCF is the path to a single VCF file or to a file listing VCF
	// paths one per line.
	VCF string

	// RefPgxVCF is the sorted VCF of PharmCAT PGx positions.
	RefPgxVCF string

	// RefFasta is the GRCh38 reference sequence. When empty, a local
	// reference.fna.bgz is searched for and a default is downloaded as
	// a last resort.
	RefFasta string

	// SampleFile optionally lists the samples to process, one per
	// line.
	SampleFile string

	// OutputDir is the directory for outputs. Defaults to the
	// directory of the input file.
	OutputDir string

	// BaseFilename overrides the output prefix. Defaults to the input
	// base name.
	BaseFilename string

	// KeepIntermediates retains intermediate pipeline artifacts.
	KeepIntermediates bool

	// MissingToRef assumes genotypes at missing PGx positions are 0/0
	// instead of reporting them as missing. Dangerous; the caller is
	// expected to have warned the user.
	MissingToRef bool

	// DownloadReference fetches the default reference sequence into
	// dir and returns its path. Wired by the command so the resolver
	// stays testable offline.
	DownloadReference func(dir string) (string, error)
}
