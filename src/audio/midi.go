package audio

import (
	"context"
	"errors"
	"log"

	"gitlab.com/gomidi/midi"
	"gitlab.com/gomidi/rtmididrv"
)

var errNoMidiIn = errors.New("MIDI IN not found")

func firstMidiIn(ins []midi.In) (midi.In, error) {
	if len(ins) == 0 {
		return nil, errNoMidiIn
	}
	return ins[0], nil
}

// ListenToMidiIn ...
func ListenToMidiIn(ctx context.Context) <-chan []byte {
	ch := make(chan []byte, 65536)
	go func() {
		defer close(ch)
		drv, err := rtmididrv.New()
		if err != nil {
			log.Printf("failed to initialize MIDI driver: %v\n", err)
			return
		}
		defer func() {
			err := drv.Close()
			if err != nil {
				log.Printf("failed to close MIDI driver: %v\n", err)
			}
		}()
		ins, err := drv.Ins()
		if err != nil {
			log.Printf("failed to get MIDI IN: %v\n", err)
			return
		}
		log.Printf("MIDI IN: %v\n", ins)

		in, err := firstMidiIn(ins)
		if err != nil {
			log.Printf("WARN: %v\n", err)
			return
		}
		if err := in.Open(); err != nil {
			log.Printf("failed to open MIDI IN: %v\n", err)
			return
		}
		log.Println("opened " + in.String())
		defer func() {
			err := in.Close()
			if err != nil {
				log.Printf("failed to close MIDI IN: %v\n", err)
			}
		}()
		log.Println("start listening MIDI IN...")
		if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
			msg := make([]byte, len(data))
			copy(msg, data)
			select {
			case ch <- msg:
			default:
			}
		}); err != nil {
			log.Println("failed to set listener: " + err.Error())
			return
		}
		defer func() {
			log.Println("stop listening MIDI IN...")
			err := in.StopListening()
			if err != nil {
				log.Printf("failed to stop listening: %v\n", err)
			}
		}()
		<-ctx.Done()
	}()
	return ch
}

// AddMidiEvent dispatches a note-on or note-off message. Other messages are
// ignored. A note-on with velocity 0 counts as note-off.
func (s *Synth) AddMidiEvent(data []byte) {
	if len(data) < 3 {
		return
	}
	note := int(data[1])
	velocity := float64(data[2]) / 127
	switch data[0] >> 4 {
	case 0x8:
		s.NoteOff(note)
	case 0x9:
		if data[2] == 0 {
			s.NoteOff(note)
			return
		}
		s.NoteOnNote(note, velocity)
	}
}
