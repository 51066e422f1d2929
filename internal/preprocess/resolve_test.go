package preprocess

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLister records which files were queried for samples.
type fakeLister struct {
	samples map[string][]string
	queried []string
}

func (f *fakeLister) ListSamples(path string) ([]string, error) {
	f.queried = append(f.queried, path)
	return f.samples[path], nil
}

func writeGzipped(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
}

func TestStripVCFSuffix(t *testing.T) {
	tests := []struct{ in, out string }{
		{"input.vcf", "input"},
		{"input.vcf.gz", "input"},
		{"input.vcf.bgz", "input"},
		{"/some/dir/cohort.vcf.gz", "cohort"},
		{"batch.txt", "batch.txt"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.out, StripVCFSuffix(tt.in))
	}
}

func TestResolveInput_CompressedVCFIsNotRecompressed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.vcf.gz")
	writeGzipped(t, path, "##fileformat=VCFv4.2\n")

	tools := newFakeTools()
	in, err := ResolveInput(path, tools)
	require.NoError(t, err)

	assert.Equal(t, path, in.VCFPath)
	assert.Equal(t, "input", in.BaseName)
	assert.False(t, in.IsList())
	assert.NotContains(t, tools.calls, "Bgzip", "compressed input must be used as-is")
}

func TestResolveInput_PlainVCFIsCompressed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.vcf")
	require.NoError(t, os.WriteFile(path, []byte("##fileformat=VCFv4.2\n"), 0644))

	tools := newFakeTools()
	in, err := ResolveInput(path, tools)
	require.NoError(t, err)

	assert.Equal(t, path+".gz", in.VCFPath)
	assert.Equal(t, "input", in.BaseName)
	assert.Contains(t, tools.calls, "Bgzip")
	assert.FileExists(t, path, "original input must be left in place")
}

func TestResolveInput_MissingVCF(t *testing.T) {
	_, err := ResolveInput(filepath.Join(t.TempDir(), "nope.vcf"), newFakeTools())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot find")
}

func TestResolveInput_ListFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.txt")
	require.NoError(t, os.WriteFile(path, []byte("a.vcf\nb.vcf\n"), 0644))

	tools := newFakeTools()
	in, err := ResolveInput(path, tools)
	require.NoError(t, err)

	assert.True(t, in.IsList())
	assert.Equal(t, path, in.ListPath)
	assert.Equal(t, "batch", in.BaseName)
	assert.Empty(t, tools.calls, "list contents are resolved lazily")
}

func TestResolveInput_MissingListFile(t *testing.T) {
	_, err := ResolveInput(filepath.Join(t.TempDir(), "batch.txt"), newFakeTools())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot find")
}

func TestResolveOutputDir(t *testing.T) {
	dir := t.TempDir()

	out, err := ResolveOutputDir(filepath.Join(dir, "new", "nested"), "ignored.vcf")
	require.NoError(t, err)
	assert.DirExists(t, out)

	input := filepath.Join(dir, "input.vcf")
	require.NoError(t, os.WriteFile(input, []byte("x"), 0644))
	out, err = ResolveOutputDir("", input)
	require.NoError(t, err)
	assert.Equal(t, dir, out)
}

func TestResolveReference_ExplicitWins(t *testing.T) {
	// No validation of the explicit path, by contract.
	path, err := ResolveReference("/data/custom.fna.bgz", t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, "/data/custom.fna.bgz", path)
}

func TestResolveReference_OutputDirShortCircuits(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, ReferenceName)
	require.NoError(t, os.WriteFile(local, []byte("ref"), 0644))

	path, err := ResolveReference("", dir, func(string) (string, error) {
		t.Fatal("download must not run when a local reference exists")
		return "", nil
	})
	require.NoError(t, err)
	assert.Equal(t, local, path)
}

func TestResolveReference_WorkingDirFallback(t *testing.T) {
	cwd := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cwd, ReferenceName), []byte("ref"), 0644))
	t.Chdir(cwd)

	path, err := ResolveReference("", t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, ReferenceName), path)
}

func TestResolveReference_DownloadFallback(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()

	var gotDir string
	path, err := ResolveReference("", dir, func(d string) (string, error) {
		gotDir = d
		return filepath.Join(d, ReferenceName), nil
	})
	require.NoError(t, err)
	assert.Equal(t, dir, gotDir)
	assert.Equal(t, filepath.Join(dir, ReferenceName), path)
}

func TestResolveSamples_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	sampleFile := filepath.Join(dir, "samples.txt")
	require.NoError(t, os.WriteFile(sampleFile, []byte("S2\n\n  S1  \nS3\n"), 0644))

	lister := &fakeLister{}
	samples, err := ResolveSamples(sampleFile, &Input{VCFPath: "in.vcf.gz"}, lister)
	require.NoError(t, err)

	assert.Equal(t, []string{"S2", "S1", "S3"}, samples, "file order preserved, blanks trimmed")
	assert.Empty(t, lister.queried, "explicit sample file wins over the toolchain")
}

func TestResolveSamples_SingleVCF(t *testing.T) {
	lister := &fakeLister{samples: map[string][]string{"in.vcf.gz": {"A", "B"}}}
	samples, err := ResolveSamples("", &Input{VCFPath: "in.vcf.gz"}, lister)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, samples)
}

func TestResolveSamples_ListStopsAtFirstExistingFile(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.vcf.gz")
	second := filepath.Join(dir, "second.vcf.gz")
	require.NoError(t, os.WriteFile(first, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("x"), 0644))

	listPath := filepath.Join(dir, "batch.txt")
	missing := filepath.Join(dir, "missing.vcf.gz")
	require.NoError(t, os.WriteFile(listPath,
		[]byte(missing+"\n"+first+"\n"+second+"\n"), 0644))

	lister := &fakeLister{samples: map[string][]string{
		first:  {"A"},
		second: {"B"},
	}}
	samples, err := ResolveSamples("", &Input{ListPath: listPath}, lister)
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, samples)
	assert.Equal(t, []string{first}, lister.queried, "remaining list entries are not inspected")
}

func TestResolveSamples_ListWithNoExistingFiles(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "batch.txt")
	require.NoError(t, os.WriteFile(listPath, []byte("a.vcf\nb.vcf\n"), 0644))

	samples, err := ResolveSamples("", &Input{ListPath: listPath}, &fakeLister{})
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestValidateSamples(t *testing.T) {
	assert.NoError(t, ValidateSamples([]string{"S1", "S2"}))

	err := ValidateSamples([]string{"S1", "Sample,1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "comma")

	err = ValidateSamples(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no samples")
}
