package paramqv1

import "fmt"

// PresetID selects a predefined codebook
type PresetID uint8

const (
	PresetASCII PresetID = iota
	PresetOffset33Range41
	PresetOffset64Range40

	numPresets
)

var presetNames = [...]string{"ascii", "offset33_range41", "offset64_range40"}

func (p PresetID) String() string {
	if p < numPresets {
		return presetNames[p]
	}
	return fmt.Sprintf("PresetID(%d)", uint8(p))
}

// ParsePresetID parses a preset name as printed by String
func ParsePresetID(s string) (PresetID, error) {
	for i, n := range presetNames {
		if n == s {
			return PresetID(i), nil
		}
	}
	return 0, fmt.Errorf("unknown qv preset %q", s)
}

var presets = func() [numPresets]*Codebook {
	var out [numPresets]*Codebook

	// every phred value 0..93 at offset 33
	ascii := &Codebook{entries: []uint8{33, 34}}
	for p := 2; p < 94; p++ {
		ascii.entries = append(ascii.entries, uint8(p+33))
	}
	out[PresetASCII] = ascii

	// Illumina 8-level binning
	binned := func(offset uint8) *Codebook {
		cb := &Codebook{entries: []uint8{offset, offset + 8}}
		for p := offset + 13; p <= offset+33; p += 5 {
			cb.entries = append(cb.entries, p)
		}
		cb.entries = append(cb.entries, offset+41)
		return cb
	}
	out[PresetOffset33Range41] = binned(33)
	out[PresetOffset64Range40] = binned(64)
	return out
}()

// PresetCodebook returns the codebook of preset id. It must not be modified.
func PresetCodebook(id PresetID) *Codebook {
	if id >= numPresets {
		return nil
	}
	return presets[id]
}
