package samprofile

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/scttfrdmn/mpegg-go/pkg/core"
)

const header = "@HD\tVN:1.6\tSO:unsorted\n" +
	"@SQ\tSN:chr1\tLN:1000\n" +
	"@RG\tID:rg1\tSM:s1\n" +
	"@RG\tID:rg2\tSM:s2\n"

func record(fields ...string) string {
	return strings.Join(fields, "\t") + "\n"
}

func TestScanPaired(t *testing.T) {
	in := header +
		record("r1", "99", "chr1", "100", "60", "10M", "=", "200", "110", "ACGTACGTAC", "IIIIIIIIII") +
		record("r1", "147", "chr1", "200", "60", "5M100N5M", "=", "100", "-110", "ACGTACGTAC", "##########") +
		record("r2", "4", "*", "0", "0", "*", "*", "0", "0", "ACGTA", "IIIII")

	p, err := Scan(strings.NewReader(in), false, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := &Profile{
		Records:         3,
		Mapped:          2,
		Unmapped:        1,
		MaxReadLength:   10,
		ConstReadLength: false,
		Paired:          true,
		SplicedReads:    true,
		MinQual:         2,
		MaxQual:         40,
		ReadGroups:      []string{"rg1", "rg2"},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("profile (-want +got):\n%s", diff)
	}

	doc := p.Document("zstd")
	if doc.DatasetType != core.DatasetAligned.String() || doc.ReadLength != 0 || !doc.Paired {
		t.Errorf("document header: %+v", doc)
	}
	var ids []string
	for _, c := range doc.Classes {
		ids = append(ids, c.ID)
		if c.QualityValues.Preset != "" {
			t.Errorf("class %s got preset %q", c.ID, c.QualityValues.Preset)
		}
	}
	if diff := cmp.Diff([]string{"P", "N", "M", "I", "HM", "U"}, ids); diff != "" {
		t.Errorf("classes (-want +got):\n%s", diff)
	}
	if _, err := doc.Build(); err != nil {
		t.Errorf("Build: %v", err)
	}
}

func TestScanBinnedUnaligned(t *testing.T) {
	in := header +
		record("r1", "4", "*", "0", "0", "*", "*", "0", "0", "ACGTACGT", "JJ==))!!") +
		record("r2", "4", "*", "0", "0", "*", "*", "0", "0", "ACGTACGT", "BB33..88") +
		record("r3", "4", "*", "0", "0", "*", "*", "0", "0", "ACGTACGT", "JJJJJJJJ")

	p, err := Scan(strings.NewReader(in), false, 2)
	if err != nil {
		t.Fatal(err)
	}
	if p.Records != 2 || !p.ConstReadLength || !p.BinnedQualities || p.MaxQual != 41 {
		t.Errorf("profile: %+v", p)
	}

	doc := p.Document("cabac")
	if doc.DatasetType != core.DatasetNonAligned.String() || doc.ReadLength != 8 {
		t.Errorf("document header: %+v", doc)
	}
	if len(doc.Classes) != 1 || doc.Classes[0].ID != "U" || doc.Classes[0].QualityValues.Preset != "offset33_range41" {
		t.Errorf("classes: %+v", doc.Classes)
	}
	e, err := doc.Build()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"rg1", "rg2"}, e.ReadGroups()); diff != "" {
		t.Errorf("read groups (-want +got):\n%s", diff)
	}
}

func TestScanMissingFile(t *testing.T) {
	if _, err := ScanFile("/nonexistent/sample.bam", 0); err == nil {
		t.Error("expected error")
	}
}
