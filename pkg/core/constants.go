// Package core holds the genomic descriptor table, class and alphabet
// identifiers, and the error kinds used across the module.
package core

import "fmt"

// GenDesc identifies a genomic descriptor
type GenDesc uint8

const (
	DescPOS GenDesc = iota
	DescRCOMP
	DescFLAGS
	DescMMPOS
	DescMMTYPE
	DescCLIPS
	DescUREADS
	DescRLEN
	DescPAIR
	DescMSCORE
	DescMMAP
	DescMSAR
	DescRTYPE
	DescRGROUP
	DescQV
	DescRNAME
	DescRFTP
	DescRFTT

	NumDescriptors = 18
)

// GenSubIndex addresses one subsequence of a descriptor
type GenSubIndex struct {
	Desc GenDesc
	Sub  uint16
}

// SubDescriptor describes one descriptor subsequence
type SubDescriptor struct {
	ID               GenSubIndex
	Name             string
	MismatchDecoding bool
}

// DescriptorProperties describes a descriptor and its subsequences
type DescriptorProperties struct {
	ID        GenDesc
	Name      string
	TokenType bool
	SubSeqs   []SubDescriptor
}

func subs(desc GenDesc, names ...string) []SubDescriptor {
	out := make([]SubDescriptor, len(names))
	for i, n := range names {
		out[i] = SubDescriptor{ID: GenSubIndex{Desc: desc, Sub: uint16(i)}, Name: n}
	}
	return out
}

var descriptors = func() []DescriptorProperties {
	d := []DescriptorProperties{
		{DescPOS, "pos", false, subs(DescPOS, "first", "additional")},
		{DescRCOMP, "rcomp", false, subs(DescRCOMP, "rcomp")},
		{DescFLAGS, "flags", false, subs(DescFLAGS, "pcr_duplicate", "quality_flag", "proper_pair")},
		{DescMMPOS, "mmpos", false, subs(DescMMPOS, "terminator", "position")},
		{DescMMTYPE, "mmtype", false, subs(DescMMTYPE, "type", "substitution", "insertion")},
		{DescCLIPS, "clips", false, subs(DescCLIPS, "record_id", "type", "soft_string", "hard_length")},
		{DescUREADS, "ureads", false, subs(DescUREADS, "ureads")},
		{DescRLEN, "rlen", false, subs(DescRLEN, "rlen")},
		{DescPAIR, "pair", false, subs(DescPAIR, "decoding_case", "same_rec", "r1_split", "r2_split",
			"r1_diff_seq", "r2_diff_seq", "r1_diff_pos", "r2_diff_pos")},
		{DescMSCORE, "mscore", false, subs(DescMSCORE, "mscore")},
		{DescMMAP, "mmap", false, subs(DescMMAP, "number_alignments", "right_alignment_id",
			"other_rec_flag", "reference_seq", "reference_pos")},
		{DescMSAR, "msar", true, subs(DescMSAR, "cabac_0", "cabac_1")},
		{DescRTYPE, "rtype", false, subs(DescRTYPE, "rtype")},
		{DescRGROUP, "rgroup", false, subs(DescRGROUP, "rgroup")},
		{DescQV, "qv", false, subs(DescQV, "present", "codebook", "steps_0", "steps_1", "steps_2",
			"steps_3", "steps_4", "steps_5", "steps_6", "steps_7")},
		{DescRNAME, "rname", true, subs(DescRNAME, "cabac_0", "cabac_1")},
		{DescRFTP, "rftp", false, subs(DescRFTP, "rftp")},
		{DescRFTT, "rftt", false, subs(DescRFTT, "rftt")},
	}
	// substitutions are decoded against the reference base
	d[DescMMTYPE].SubSeqs[1].MismatchDecoding = true
	return d
}()

// Descriptors returns the descriptor table in GenDesc order.
// The returned slice must not be modified.
func Descriptors() []DescriptorProperties {
	return descriptors
}

// Descriptor returns the properties of desc. It panics on an
// out-of-range id; use Valid for untrusted input.
func Descriptor(desc GenDesc) DescriptorProperties {
	return descriptors[desc]
}

// Valid reports whether desc is a known descriptor
func (d GenDesc) Valid() bool {
	return d < NumDescriptors
}

func (d GenDesc) String() string {
	if !d.Valid() {
		return fmt.Sprintf("GenDesc(%d)", uint8(d))
	}
	return descriptors[d].Name
}

// DescriptorByName looks up a descriptor by its short name
func DescriptorByName(name string) (GenDesc, error) {
	for _, d := range descriptors {
		if d.Name == name {
			return d.ID, nil
		}
	}
	return 0, fmt.Errorf("unknown descriptor %q", name)
}

// AlphabetID selects the nucleotide alphabet
type AlphabetID uint8

const (
	AlphabetACGTN AlphabetID = iota
	AlphabetACGTRYSWKMBDHVN
)

// Alphabet holds the symbols of an alphabet in code order
type Alphabet struct {
	Symbols []byte
}

var alphabets = []Alphabet{
	{Symbols: []byte("ACGTN")},
	{Symbols: []byte("ACGTRYKMSWBDHVN-")},
}

// Alphabet returns the symbols of a.
func (a AlphabetID) Alphabet() (Alphabet, error) {
	if int(a) >= len(alphabets) {
		return Alphabet{}, fmt.Errorf("alphabet %d: %w", a, ErrMalformed)
	}
	return alphabets[a], nil
}

// ClassType is a record class
type ClassType uint8

const (
	ClassNone ClassType = iota
	ClassP
	ClassN
	ClassM
	ClassI
	ClassHM
	ClassU

	NumClassTypes = 7
)

var classNames = [...]string{"NONE", "P", "N", "M", "I", "HM", "U"}

func (c ClassType) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("ClassType(%d)", uint8(c))
}

// ParseClassType parses a class name as printed by String
func ParseClassType(s string) (ClassType, error) {
	for i, n := range classNames {
		if n == s {
			return ClassType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown class %q", s)
}

// DatasetType distinguishes aligned from unaligned datasets
type DatasetType uint8

const (
	DatasetNonAligned DatasetType = iota
	DatasetAligned
	DatasetReference
)

var datasetNames = [...]string{"non_aligned", "aligned", "reference"}

func (t DatasetType) String() string {
	if int(t) < len(datasetNames) {
		return datasetNames[t]
	}
	return fmt.Sprintf("DatasetType(%d)", uint8(t))
}

// ParseDatasetType parses a dataset type name as printed by String
func ParseDatasetType(s string) (DatasetType, error) {
	for i, n := range datasetNames {
		if n == s {
			return DatasetType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown dataset type %q", s)
}
