package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/jinjor/desktop-fm/src/audio"
	"golang.org/x/term"
)

var errQuit = errors.New("quit")

const (
	keyCtrlC     = 0x03
	keyQuit      = 'q'
	keyOctaveDn  = 'z'
	keyOctaveUp  = 'x'
	pollInterval = 5 * time.Millisecond
)

// keyboard turns terminal key presses into notes. A terminal reports no
// key-up, so each note is released after gate unless the key repeats.
type keyboard struct {
	synth    *audio.Synth
	gate     time.Duration
	timers   map[audio.Key]*time.Timer
	releases chan audio.Key
}

func newKeyboard(synth *audio.Synth, gate time.Duration) *keyboard {
	return &keyboard{
		synth:    synth,
		gate:     gate,
		timers:   make(map[audio.Key]*time.Timer),
		releases: make(chan audio.Key, 64),
	}
}

func (k *keyboard) press(b byte) error {
	switch b {
	case keyCtrlC, keyQuit:
		return errQuit
	case keyOctaveDn:
		log.Printf("octave: %d\n", k.synth.ShiftOctave(-1))
		return nil
	case keyOctaveUp:
		log.Printf("octave: %d\n", k.synth.ShiftOctave(1))
		return nil
	}
	key := audio.Key(b)
	if t, ok := k.timers[key]; ok {
		// a fired timer already queued its release; let that end the note
		if t.Stop() {
			t.Reset(k.gate)
		}
		return nil
	}
	if _, ok := k.synth.NoteOn(key, 1); !ok {
		return nil
	}
	k.timers[key] = time.AfterFunc(k.gate, func() {
		k.releases <- key
	})
	return nil
}

func (k *keyboard) release(key audio.Key) {
	delete(k.timers, key)
	k.synth.ReleaseKey(key)
}

func (k *keyboard) stop() {
	for key, t := range k.timers {
		t.Stop()
		k.synth.ReleaseKey(key)
	}
	k.timers = make(map[audio.Key]*time.Timer)
}

func runKeyboard(ctx context.Context, synth *audio.Synth, gate time.Duration) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		log.Println("stdin is not a terminal, keyboard disabled")
		return nil
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	if err := syscall.SetNonblock(fd, true); err != nil {
		_ = term.Restore(fd, oldState)
		return err
	}
	logOutput := log.Writer()
	log.SetOutput(crlfWriter{logOutput})
	defer func() {
		_ = syscall.SetNonblock(fd, false)
		_ = term.Restore(fd, oldState)
		log.SetOutput(logOutput)
		log.Println("runKeyboard() ended.")
	}()
	log.Println("keyboard: a w s e d f t g y h u j k o l p ; ' play, z/x octave, q quit")

	keys := make(chan byte, 64)
	go readKeys(ctx, fd, keys)
	k := newKeyboard(synth, gate)
	defer k.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case b, ok := <-keys:
			if !ok {
				return nil
			}
			if err := k.press(b); err != nil {
				return err
			}
		case key := <-k.releases:
			k.release(key)
		}
	}
}

func readKeys(ctx context.Context, fd int, keys chan<- byte) {
	defer close(keys)
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, err := syscall.Read(fd, buf)
		if n > 0 {
			select {
			case keys <- buf[0]:
			case <-ctx.Done():
				return
			}
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			time.Sleep(pollInterval)
			continue
		}
		if err != nil {
			return
		}
		if n == 0 {
			time.Sleep(pollInterval)
		}
	}
}

// crlfWriter keeps log lines aligned while the terminal is raw.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
