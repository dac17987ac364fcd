package audio

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestApplyJSON(t *testing.T) {
	s := NewSynth(testRate)
	expectNoError(t, s.ApplyJSON([]byte(`{"fmDepth": 3, "fmEnvelope": {"attack": 0.5, "decay": 2, "sustain": 0.3, "release": 0.4}}`)))
	p := s.Patch()
	expectEqual(t, p.FMDepth, 3.0)
	expectEqual(t, p.FMEnvelope, EnvelopeParams{Attack: 0.5, Decay: 2, Sustain: 0.3, Release: 0.4})
	expectEqual(t, p.Volume, 0.6)
	expectEqual(t, p.VolumeEnvelope, DefaultPatch().VolumeEnvelope)

	expectNoError(t, s.ApplyJSON([]byte(`{"cutoff": 5, "octave": 42}`)))
	expectEqual(t, s.Patch().Cutoff, 0.12)
	expectEqual(t, s.Octave(), maxOctave)

	expectError(t, s.ApplyJSON([]byte(`{"volume": "loud"}`)))
	expectError(t, s.ApplyJSON([]byte(`not json`)))
}

func TestApplyJSONKeepsConcurrentEnvelopeEdits(t *testing.T) {
	s := NewSynth(testRate)
	const n = 500
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 1; i <= n; i++ {
			expectNoError(t, s.ApplyJSON([]byte(`{"fmDepth": `+strconv.Itoa(i%16)+`}`)))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 1; i <= n; i++ {
			value := strconv.FormatFloat(float64(i)/100, 'f', 2, 64)
			expectNoError(t, s.Update([]string{"set", "envelope", "fm", "attack", value}))
		}
	}()
	wg.Wait()
	expectEqual(t, s.Patch().FMDepth, float64(n%16))
	expectEqual(t, s.Envelope(EnvelopeFM).Attack, 5.0)
}

func TestPatchJSONRoundTrip(t *testing.T) {
	s := NewSynth(testRate)
	p := DefaultPatch()
	p.Resonance = 0.3
	p.Octave = 2
	data := p.toJSON()
	expectEqual(t, json.Valid(data), true)
	expectNoError(t, s.ApplyJSON(data))
	expectEqual(t, s.Patch(), p)
}

func TestLoadPatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patch.json")
	expectNoError(t, os.WriteFile(path, []byte(`{"resonance": 0.5}`), 0o644))

	s := NewSynth(testRate)
	expectNoError(t, s.LoadPatch(path))
	expectEqual(t, s.Patch().Resonance, 0.5)

	expectError(t, s.LoadPatch(filepath.Join(dir, "missing.json")))
}

func TestWatchPatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patch.json")
	expectNoError(t, os.WriteFile(path, []byte(`{"fmDepth": 1}`), 0o644))

	s := NewSynth(testRate)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- WatchPatch(ctx, path, s)
	}()

	// the watcher may not be registered yet, so keep touching the file
	deadline := time.Now().Add(5 * time.Second)
	for s.Patch().FMDepth != 5 {
		if time.Now().After(deadline) {
			t.Fatalf("patch was not reloaded")
		}
		expectNoError(t, os.WriteFile(path, []byte(`{"fmDepth": 5}`), 0o644))
		time.Sleep(20 * time.Millisecond)
	}

	// other files in the directory are ignored
	expectNoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{"fmDepth": 7}`), 0o644))
	time.Sleep(50 * time.Millisecond)
	expectEqual(t, s.Patch().FMDepth, 5.0)

	cancel()
	select {
	case err := <-done:
		expectNoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("WatchPatch did not stop")
	}
}
