package preprocess

import (
	"fmt"
	"os"
	"strings"

	"github.com/pharmgo/pgxprep/internal/vcf"
)

// fakeTools implements Toolchain on plain-text files, simulating the
// bcftools transformations the fixtures do not actually need. It
// records calls by method name and can be told to fail a given method.
type fakeTools struct {
	calls  []string
	failOn string
}

func newFakeTools() *fakeTools {
	return &fakeTools{}
}

func (f *fakeTools) called(name string) error {
	f.calls = append(f.calls, name)
	if name == f.failOn {
		return fmt.Errorf("%s: simulated failure", name)
	}
	return nil
}

func (f *fakeTools) callCount(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

func (f *fakeTools) Index(vcfPath string) error {
	if err := f.called("Index"); err != nil {
		return err
	}
	return os.WriteFile(vcfPath+".csi", []byte("csi"), 0644)
}

func (f *fakeTools) ListSamples(vcfPath string) ([]string, error) {
	if err := f.called("ListSamples"); err != nil {
		return nil, err
	}
	r, err := vcf.NewReader(vcfPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.SampleNames(), nil
}

func (f *fakeTools) Bgzip(inPath, outPath string) error {
	if err := f.called("Bgzip"); err != nil {
		return err
	}
	return copyFile(inPath, outPath)
}

func (f *fakeTools) RenameChromosomes(inPath, mapPath, outPath string) error {
	if err := f.called("RenameChromosomes"); err != nil {
		return err
	}
	return copyFile(inPath, outPath)
}

func (f *fakeTools) SubsetRegions(inPath, regionsVCF string, samples []string, outPath string) error {
	if err := f.called("SubsetRegions"); err != nil {
		return err
	}
	return copyFile(inPath, outPath)
}

func (f *fakeTools) Concat(inPaths []string, outPath string) error {
	if err := f.called("Concat"); err != nil {
		return err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	w := vcf.NewWriter(out)
	for i, p := range inPaths {
		r, err := vcf.NewReader(p)
		if err != nil {
			return err
		}
		if i == 0 {
			if err := w.WriteHeader(r.Header()); err != nil {
				r.Close()
				return err
			}
		}
		for {
			rec, err := r.Next()
			if err != nil {
				r.Close()
				return err
			}
			if rec == nil {
				break
			}
			if err := w.Write(rec); err != nil {
				r.Close()
				return err
			}
		}
		r.Close()
	}
	return w.Flush()
}

func (f *fakeTools) Sort(inPath, outPath string) error {
	if err := f.called("Sort"); err != nil {
		return err
	}
	return copyFile(inPath, outPath)
}

func (f *fakeTools) Normalize(inPath, refFasta, outPath string) error {
	if err := f.called("Normalize"); err != nil {
		return err
	}
	return copyFile(inPath, outPath)
}

// ExtractSample rewrites the input with only the named sample's
// genotype column, the way bcftools view -s does.
func (f *fakeTools) ExtractSample(inPath, sample, outPath string) error {
	if err := f.called("ExtractSample"); err != nil {
		return err
	}
	r, err := vcf.NewReader(inPath)
	if err != nil {
		return err
	}
	defer r.Close()

	col := -1
	for i, s := range r.SampleNames() {
		if s == sample {
			col = i
			break
		}
	}
	if col < 0 {
		return fmt.Errorf("sample %s not in %s", sample, inPath)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	header := append([]string(nil), r.Header()...)
	last := len(header) - 1
	fields := strings.Split(header[last], "\t")
	header[last] = strings.Join(append(fields[:9], sample), "\t")

	w := vcf.NewWriter(out)
	if err := w.WriteHeader(header); err != nil {
		return err
	}
	for {
		rec, err := r.Next()
		if err != nil {
			return err
		}
		if rec == nil {
			break
		}
		single := *rec
		single.Genotypes = []string{rec.Genotypes[col]}
		if err := w.Write(&single); err != nil {
			return err
		}
	}
	return w.Flush()
}
