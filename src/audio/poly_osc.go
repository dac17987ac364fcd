package audio

import (
	"math/bits"
	"sync/atomic"
)

const maxPoly = 32

// Slot states. The control side owns a voice's DSP fields while its slot is
// slotFree or slotDone, the render side while it is slotLive.
const (
	slotFree uint32 = iota
	slotLive
	slotDone // render saw the volume envelope reach idle
	slotKill // freed while live, waiting for render to let go
)

// ----- Voice ----- //

type voice struct {
	// control side
	key  Key
	note int
	held bool

	slot       atomic.Uint32
	releaseReq atomic.Bool
	level      atomicFloat

	// render side
	osc       fmOsc
	envelopes [numEnvelopeKinds]envelope
	lpf       lowpass
}

// start prepares a free voice and hands it to the render side.
func (v *voice) start(key Key, note int, cutoff, resonance float64) {
	v.key = key
	v.note = note
	v.held = true
	v.osc.initWithNote(note)
	for i := range v.envelopes {
		v.envelopes[i].noteOn()
	}
	v.lpf.reset(cutoff, resonance)
	v.releaseReq.Store(false)
	v.slot.Store(slotLive)
}

// ----- Voice Pool ----- //

type voicePool struct {
	voices [maxPoly]voice
	mask   uint32
}

func (p *voicePool) inUse(index int) bool {
	return p.mask&(1<<uint(index)) != 0
}

// allocate marks the lowest free slot as used. ok is false when all slots
// are taken.
func (p *voicePool) allocate() (index int, ok bool) {
	for free := ^p.mask; free != 0; free &= free - 1 {
		i := bits.TrailingZeros32(free)
		if p.voices[i].slot.Load() == slotKill {
			continue
		}
		p.mask |= 1 << uint(i)
		return i, true
	}
	return -1, false
}

// free releases a slot whatever its envelope is doing. Freeing a free or
// out-of-range slot does nothing.
func (p *voicePool) free(index int) {
	if index < 0 || index >= maxPoly || !p.inUse(index) {
		return
	}
	p.mask &^= 1 << uint(index)
	slot := &p.voices[index].slot
	if !slot.CompareAndSwap(slotLive, slotKill) {
		slot.Store(slotFree)
	}
}

func (p *voicePool) count() int {
	return bits.OnesCount32(p.mask)
}
