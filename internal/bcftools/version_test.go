package bcftools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBcftoolsVersion(t *testing.T) {
	out := "bcftools 1.18\nUsing htslib 1.18\nCopyright (C) 2023 Genome Research Ltd.\n"
	assert.Equal(t, "1.18", ParseBcftoolsVersion(out))

	assert.Equal(t, "1.16.1", ParseBcftoolsVersion("bcftools 1.16.1"))
	assert.Equal(t, "", ParseBcftoolsVersion("some unrelated output"))
	assert.Equal(t, "", ParseBcftoolsVersion(""))
}

func TestParseBgzipVersion(t *testing.T) {
	out := "\nProgram: bgzip (BGZF library)\nVersion: 1.17\n\nUsage:   bgzip [OPTIONS] [FILE] ...\n"
	assert.Equal(t, "1.17", ParseBgzipVersion(out))

	// bgzip <= 1.9 prints usage without any version line
	old := "Usage:   bgzip [OPTIONS] [FILE] ...\nOptions:\n   -b, --offset INT\n"
	assert.Equal(t, "", ParseBgzipVersion(old))
}

func TestVersionAtLeast(t *testing.T) {
	tests := []struct {
		got, want string
		ok        bool
	}{
		{"1.16", "1.16", true},
		{"1.16.1", "1.16", true},
		{"1.17", "1.16", true},
		{"2.0", "1.16", true},
		{"1.9", "1.16", false},
		{"1.15.1", "1.16", false},
		// numeric ordering, not lexical
		{"1.10", "1.9", true},
		{"1.9", "1.10", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, VersionAtLeast(tt.got, tt.want),
			"VersionAtLeast(%q, %q)", tt.got, tt.want)
	}
}
