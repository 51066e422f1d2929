package bcftools

import (
	"fmt"
	"regexp"

	"golang.org/x/mod/semver"
)

// Minimum required versions of the external tools.
const (
	MinBcftoolsVersion = "1.16"
	MinBgzipVersion    = "1.16"
)

var (
	bcftoolsVersionRe = regexp.MustCompile(`bcftools (\d+(\.\d+)*)`)
	bgzipVersionRe    = regexp.MustCompile(`Version: (\d+(\.\d+)*)`)
)

// ParseBcftoolsVersion extracts the version number from `bcftools -v` output.
// Returns an empty string if no version is found.
func ParseBcftoolsVersion(out string) string {
	m := bcftoolsVersionRe.FindStringSubmatch(out)
	if m == nil {
		return ""
	}
	return m[1]
}

// ParseBgzipVersion extracts the version number from `bgzip -h` output.
// bgzip releases before 1.10 print no version line at all, so an empty
// result reliably means the install is too old.
func ParseBgzipVersion(out string) string {
	m := bgzipVersionRe.FindStringSubmatch(out)
	if m == nil {
		return ""
	}
	return m[1]
}

// VersionAtLeast reports whether got >= want under semantic-version
// ordering (components compared numerically, not lexically).
func VersionAtLeast(got, want string) bool {
	return semver.Compare("v"+got, "v"+want) >= 0
}

// CheckVersions validates the bcftools and bgzip installs against the
// minimum supported versions. An unparseable bcftools version is a
// warning only; an unparseable bgzip version is fatal.
func (t *Tools) CheckVersions() error {
	out, err := t.run(t.bcftools, "-v")
	if err != nil {
		return fmt.Errorf("run %s -v: %w", t.bcftools, err)
	}
	if v := ParseBcftoolsVersion(string(out)); v == "" {
		fmt.Println("Could not find the version information for bcftools")
		fmt.Printf("Please use bcftools %s or higher\n", MinBcftoolsVersion)
	} else if !VersionAtLeast(v, MinBcftoolsVersion) {
		return fmt.Errorf("please use bcftools %s or higher (found %s)", MinBcftoolsVersion, v)
	}

	// bgzip has no -v; the version is buried in the -h output, and -h
	// exits non-zero on some releases, so only a failure to start the
	// process is reported here.
	out, err = t.runLenient(t.bgzip, "-h")
	if err != nil {
		return fmt.Errorf("run %s -h: %w", t.bgzip, err)
	}
	v := ParseBgzipVersion(string(out))
	if v == "" {
		return fmt.Errorf("could not find the version information for bgzip; "+
			"it is likely you are using bgzip <= 1.9, please use bgzip %s or higher", MinBgzipVersion)
	}
	if !VersionAtLeast(v, MinBgzipVersion) {
		return fmt.Errorf("please use bgzip %s or higher (found %s)", MinBgzipVersion, v)
	}
	return nil
}
