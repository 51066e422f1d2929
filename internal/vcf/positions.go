package vcf

import (
	"fmt"
	"strconv"
)

// PositionSet is the reference set of PGx positions and alleles that
// PharmCAT understands, loaded from the pharmcat_positions VCF. It is
// read-only once loaded; order follows the source file.
type PositionSet struct {
	records []*Record
	index   map[string]int
	header  []string
}

func positionKey(chrom string, pos int64, ref string) string {
	return chrom + ":" + strconv.FormatInt(pos, 10) + ":" + ref
}

// LoadPositions reads a PGx position VCF (plain or block-compressed)
// into a PositionSet.
func LoadPositions(path string) (*PositionSet, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("open PGx position VCF: %w", err)
	}
	defer r.Close()
	return loadPositions(r)
}

func loadPositions(r *Reader) (*PositionSet, error) {
	s := &PositionSet{
		index:  make(map[string]int),
		header: r.Header(),
	}
	for {
		rec, err := r.Next()
		if err != nil {
			return nil, fmt.Errorf("read PGx position VCF: %w", err)
		}
		if rec == nil {
			break
		}
		key := positionKey(rec.Chrom, rec.Pos, rec.Ref)
		if _, dup := s.index[key]; dup {
			continue
		}
		s.index[key] = len(s.records)
		s.records = append(s.records, rec)
	}
	return s, nil
}

// Len returns the number of reference positions.
func (s *PositionSet) Len() int {
	return len(s.records)
}

// Records returns the reference positions in file order.
func (s *PositionSet) Records() []*Record {
	return s.records
}

// Header returns the header lines of the source position VCF.
func (s *PositionSet) Header() []string {
	return s.header
}

// Find returns the reference entry at (chrom, pos, ref), if any.
func (s *PositionSet) Find(chrom string, pos int64, ref string) (*Record, bool) {
	i, ok := s.index[positionKey(chrom, pos, ref)]
	if !ok {
		return nil, false
	}
	return s.records[i], true
}

// MatchIndex reports whether a normalized input record corresponds to
// a reference PGx entry, and the entry's index when it does: same
// chromosome, position, and reference allele, with the record's
// alternate allele among the entry's alleles. Records with no
// alternate allele ('.') match on position alone.
func (s *PositionSet) MatchIndex(rec *Record) (int, bool) {
	i, ok := s.index[positionKey(rec.Chrom, rec.Pos, rec.Ref)]
	if !ok {
		return 0, false
	}
	if rec.Alt == "." || rec.Alt == "" {
		return i, true
	}
	if s.records[i].HasAlt(rec.Alt) {
		return i, true
	}
	return 0, false
}

// Matches reports whether a normalized input record corresponds to a
// reference PGx entry.
func (s *PositionSet) Matches(rec *Record) bool {
	_, ok := s.MatchIndex(rec)
	return ok
}
