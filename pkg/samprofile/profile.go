// Package samprofile scans the head of a SAM or BAM file and derives
// an encoding set configuration document from what it sees.
package samprofile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	logging "github.com/op/go-logging"

	"github.com/scttfrdmn/mpegg-go/pkg/config"
	"github.com/scttfrdmn/mpegg-go/pkg/core"
	"github.com/scttfrdmn/mpegg-go/pkg/paramqv1"
)

var log = logging.MustGetLogger("samprofile")

// DefaultMaxRecords bounds the scan when no limit is given
const DefaultMaxRecords = 100000

// qualities of the 8-level binning presets, as phred values
var binnedQualities = func() map[byte]bool {
	m := map[byte]bool{}
	for _, e := range paramqv1.PresetCodebook(paramqv1.PresetOffset33Range41).Entries() {
		m[e-33] = true
	}
	return m
}()

// Profile summarizes the scanned records
type Profile struct {
	Records  int
	Mapped   int
	Unmapped int

	MaxReadLength      int
	ConstReadLength    bool
	Paired             bool
	SplicedReads       bool
	MultipleAlignments bool

	// MinQual and MaxQual are phred values; both are zero when
	// no record carried qualities.
	MinQual, MaxQual byte
	BinnedQualities  bool

	ReadGroups []string
}

type recordReader interface {
	Read() (*sam.Record, error)
}

// Scan reads up to maxRecords records from r. The input is BAM when
// isBAM is set and SAM text otherwise.
func Scan(r io.Reader, isBAM bool, maxRecords int) (*Profile, error) {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	var (
		rr     recordReader
		header *sam.Header
	)
	if isBAM {
		br, err := bam.NewReader(r, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to create BAM reader: %w", err)
		}
		defer br.Close()
		rr, header = br, br.Header()
	} else {
		sr, err := sam.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create SAM reader: %w", err)
		}
		rr, header = sr, sr.Header()
	}

	p := &Profile{ConstReadLength: true, BinnedQualities: true}
	for _, rg := range header.RGs() {
		p.ReadGroups = append(p.ReadGroups, rg.Name())
	}

	sawQual := false
	for p.Records < maxRecords {
		rec, err := rr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read record %d: %w", p.Records+1, err)
		}
		p.Records++

		if rec.Flags&sam.Unmapped != 0 {
			p.Unmapped++
		} else {
			p.Mapped++
		}
		if rec.Flags&sam.Paired != 0 {
			p.Paired = true
		}
		if rec.Flags&(sam.Secondary|sam.Supplementary) != 0 {
			p.MultipleAlignments = true
		}
		for _, op := range rec.Cigar {
			if op.Type() == sam.CigarSkipped {
				p.SplicedReads = true
			}
		}

		n := rec.Seq.Length
		if p.Records > 1 && n != p.MaxReadLength {
			p.ConstReadLength = false
		}
		if n > p.MaxReadLength {
			p.MaxReadLength = n
		}

		for _, q := range rec.Qual {
			if q == 0xff { // missing
				continue
			}
			if !sawQual || q < p.MinQual {
				p.MinQual = q
			}
			if !sawQual || q > p.MaxQual {
				p.MaxQual = q
			}
			sawQual = true
			if !binnedQualities[q] {
				p.BinnedQualities = false
			}
		}
	}
	if !sawQual {
		p.BinnedQualities = false
	}
	log.Debugf("scanned %d records: %d mapped, read length %d", p.Records, p.Mapped, p.MaxReadLength)
	return p, nil
}

// ScanFile scans a local SAM or BAM file, choosing the format by
// extension.
func ScanFile(path string, maxRecords int) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Scan(f, strings.HasSuffix(strings.ToLower(path), ".bam"), maxRecords)
}

// Document builds a configuration for data like the scanned sample.
// Aligned data gets the aligned classes, plus HM when pairs were
// seen, and U whenever unmapped reads were seen.
func (p *Profile) Document(codec string) *config.Document {
	doc := &config.Document{
		DatasetType:        core.DatasetNonAligned.String(),
		Alphabet:           "acgtn",
		Paired:             p.Paired,
		MultipleAlignments: p.MultipleAlignments,
		SplicedReads:       p.SplicedReads,
		ReadGroups:         p.ReadGroups,
		DefaultCodec:       codec,
		QVDepth:            1,
	}
	if p.ConstReadLength && p.Records > 0 {
		doc.ReadLength = uint32(p.MaxReadLength)
	}

	var qv config.QualityValues
	if p.BinnedQualities {
		qv.Preset = paramqv1.PresetOffset33Range41.String()
	}

	var classes []core.ClassType
	if p.Mapped > 0 {
		doc.DatasetType = core.DatasetAligned.String()
		classes = append(classes, core.ClassP, core.ClassN, core.ClassM, core.ClassI)
		if p.Paired && p.Unmapped > 0 {
			classes = append(classes, core.ClassHM)
		}
	}
	if p.Unmapped > 0 || p.Mapped == 0 {
		classes = append(classes, core.ClassU)
	}
	for _, c := range classes {
		doc.Classes = append(doc.Classes, config.Class{ID: c.String(), QualityValues: qv})
	}
	return doc
}
