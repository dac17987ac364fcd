package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// ----- Patch ----- //

// Patch is the full set of live parameters.
type Patch struct {
	Volume              float64        `json:"volume"`
	Panning             float64        `json:"panning"`
	Octave              int            `json:"octave"`
	FMDepth             float64        `json:"fmDepth"`
	FMRatioCoarse       float64        `json:"fmRatioCoarse"`
	FMRatioFine         float64        `json:"fmRatioFine"`
	Cutoff              float64        `json:"cutoff"`
	Resonance           float64        `json:"resonance"`
	FilterEnvelopeDepth float64        `json:"filterEnvelopeDepth"`
	VolumeEnvelope      EnvelopeParams `json:"volumeEnvelope"`
	FMEnvelope          EnvelopeParams `json:"fmEnvelope"`
	FilterEnvelope      EnvelopeParams `json:"filterEnvelope"`
}

// DefaultPatch ...
func DefaultPatch() Patch {
	return Patch{
		Volume:              0.6,
		Octave:              DefaultOctave,
		FMDepth:             8,
		FMRatioCoarse:       1,
		FMRatioFine:         0,
		Cutoff:              0.001,
		Resonance:           1.7,
		FilterEnvelopeDepth: 0.02,
		VolumeEnvelope:      EnvelopeParams{Attack: 0.001, Decay: 10, Sustain: 0.5, Release: 0.2},
		FMEnvelope:          EnvelopeParams{Attack: 0.001, Decay: 4, Sustain: 0.1, Release: 0.2},
		FilterEnvelope:      EnvelopeParams{Attack: 0.001, Decay: 1, Sustain: 0.1, Release: 0.2},
	}
}

func (p Patch) toJSON() json.RawMessage {
	return toRawMessage(&p)
}

// Patch returns the current parameters.
func (s *Synth) Patch() Patch {
	return Patch{
		Volume:              s.params.volume.Load(),
		Panning:             s.params.panning.Load(),
		Octave:              s.Octave(),
		FMDepth:             s.params.fmDepth.Load(),
		FMRatioCoarse:       s.params.fmRatioCoarse.Load(),
		FMRatioFine:         s.params.fmRatioFine.Load(),
		Cutoff:              s.params.cutoff.Load(),
		Resonance:           s.params.resonance.Load(),
		FilterEnvelopeDepth: s.params.filterEnvelopeDepth.Load(),
		VolumeEnvelope:      s.Envelope(EnvelopeVolume),
		FMEnvelope:          s.Envelope(EnvelopeFM),
		FilterEnvelope:      s.Envelope(EnvelopeFilter),
	}
}

// ApplyPatch sets every parameter, clamping each to its range.
func (s *Synth) ApplyPatch(p Patch) {
	s.paramMu.Lock()
	defer s.paramMu.Unlock()
	s.applyPatch(p)
}

// applyPatch requires paramMu.
func (s *Synth) applyPatch(p Patch) {
	s.SetVolume(p.Volume)
	s.SetPanning(p.Panning)
	s.SetOctave(p.Octave)
	s.SetFMDepth(p.FMDepth)
	s.SetFMRatioCoarse(p.FMRatioCoarse)
	s.SetFMRatioFine(p.FMRatioFine)
	s.SetCutoff(p.Cutoff)
	s.SetResonance(p.Resonance)
	s.SetFilterEnvelopeDepth(p.FilterEnvelopeDepth)
	s.SetEnvelope(EnvelopeVolume, p.VolumeEnvelope)
	s.SetEnvelope(EnvelopeFM, p.FMEnvelope)
	s.SetEnvelope(EnvelopeFilter, p.FilterEnvelope)
}

// ApplyJSON overlays the fields present in data on the current patch.
func (s *Synth) ApplyJSON(data []byte) error {
	s.paramMu.Lock()
	defer s.paramMu.Unlock()
	p := s.Patch()
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to apply JSON to patch: %w", err)
	}
	s.applyPatch(p)
	return nil
}

// LoadPatch applies the patch file at path.
func (s *Synth) LoadPatch(path string) error {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return s.ApplyJSON(bytes)
}

// WatchPatch reloads the patch file whenever it changes, until ctx is done.
// The directory is watched so that editors replacing the file are noticed.
func WatchPatch(ctx context.Context, path string, s *Synth) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.Printf("failed to close patch watcher: %v\n", err)
		}
	}()
	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	log.Printf("watching patch %s\n", path)
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case ev, ok := <-watcher.Events:
			if !ok {
				break loop
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := s.LoadPatch(path); err != nil {
				log.Printf("failed to reload patch: %v\n", err)
				continue
			}
			log.Printf("patch reloaded: %s\n", s.Patch().toJSON())
		case err, ok := <-watcher.Errors:
			if !ok {
				break loop
			}
			log.Printf("patch watcher error: %v\n", err)
		}
	}
	log.Println("WatchPatch() ended.")
	return nil
}
