package parameter

import (
	"fmt"

	"github.com/scttfrdmn/mpegg-go/pkg/bitio"
	"github.com/scttfrdmn/mpegg-go/pkg/core"
)

// ComputedRefAlgorithm is cr_alg_ID
type ComputedRefAlgorithm uint8

const (
	CRReserved ComputedRefAlgorithm = iota
	CRRefTransform
	CRPushIn
	CRLocalAssembly
	CRGlobalAssembly
)

// hasExtension reports whether alg carries pad and buffer sizes
func (a ComputedRefAlgorithm) hasExtension() bool {
	return a == CRPushIn || a == CRLocalAssembly
}

// ComputedRef configures computed reference coding
type ComputedRef struct {
	Algorithm ComputedRefAlgorithm

	// only for CRPushIn and CRLocalAssembly
	PadSize    uint8
	BufMaxSize uint32 // 24 bits
}

// ReadComputedRef parses a computed reference configuration
func ReadComputedRef(r *bitio.Reader) (*ComputedRef, error) {
	cr := &ComputedRef{Algorithm: ComputedRefAlgorithm(r.ReadUint8(8))}
	if cr.Algorithm > CRGlobalAssembly || cr.Algorithm == CRReserved {
		return nil, fmt.Errorf("cr_alg_ID %d: %w", cr.Algorithm, core.ErrMalformed)
	}
	if cr.Algorithm.hasExtension() {
		cr.PadSize = r.ReadUint8(8)
		cr.BufMaxSize = r.ReadUint32(24)
	}
	return cr, r.Err()
}

func (cr *ComputedRef) Write(w *bitio.Writer) {
	w.WriteBits(uint64(cr.Algorithm), 8)
	if cr.Algorithm.hasExtension() {
		w.WriteBits(uint64(cr.PadSize), 8)
		w.WriteBits(uint64(cr.BufMaxSize), 24)
	}
}

// Equal ignores extension fields the algorithm does not carry
func (cr *ComputedRef) Equal(other *ComputedRef) bool {
	if cr.Algorithm != other.Algorithm {
		return false
	}
	if !cr.Algorithm.hasExtension() {
		return true
	}
	return cr.PadSize == other.PadSize && cr.BufMaxSize == other.BufMaxSize
}
