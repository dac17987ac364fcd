package audio

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/hajimehoshi/oto"
)

// Output backends.
const (
	BackendOto       = "oto"
	BackendPortAudio = "portaudio"
	BackendNull      = "null"
)

// backend pulls blocks from an Audio until the context is cancelled.
type backend interface {
	run(ctx context.Context, a *Audio) error
	Close() error
}

func newBackend(config Config) (backend, error) {
	switch config.Backend {
	case BackendOto, "":
		return newOtoBackend(config)
	case BackendPortAudio:
		return newPortAudioBackend()
	case BackendNull:
		return &nullBackend{}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", config.Backend)
}

// ----- oto ----- //

type otoBackend struct {
	otoContext *oto.Context
	bufferSize int
}

func newOtoBackend(config Config) (*otoBackend, error) {
	bufferSize := config.Frames * bytesPerSample
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	otoContext, err := oto.NewContext(config.SampleRate, 1, bytesPerSample, bufferSize)
	if err != nil {
		return nil, fmt.Errorf("failed to open oto context: %w", err)
	}
	return &otoBackend{otoContext: otoContext, bufferSize: bufferSize}, nil
}

func (b *otoBackend) run(ctx context.Context, a *Audio) error {
	p := b.otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	// block until cancel() called
	if _, err := io.CopyBuffer(p, a, make([]byte, a.config.Frames*bytesPerSample)); err != nil {
		return err
	}
	return nil
}

func (b *otoBackend) Close() error {
	return b.otoContext.Close()
}

// ----- PortAudio ----- //

type portaudioBackend struct{}

func newPortAudioBackend() (*portaudioBackend, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	return &portaudioBackend{}, nil
}

func (b *portaudioBackend) run(ctx context.Context, a *Audio) error {
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(a.config.SampleRate), a.config.Frames, a.process)
	if err != nil {
		return err
	}
	defer func() {
		if err := stream.Close(); err != nil {
			log.Printf("error while closing stream: %v", err)
		}
	}()
	if err := stream.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return stream.Stop()
}

func (b *portaudioBackend) Close() error {
	return portaudio.Terminate()
}

// ----- Null ----- //

// nullBackend renders in real time and discards the samples.
type nullBackend struct{}

func (b *nullBackend) run(ctx context.Context, a *Audio) error {
	out := make([]int16, a.config.Frames)
	period := time.Duration(float64(time.Second) * float64(a.config.Frames) / float64(a.config.SampleRate))
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			a.process(out)
		}
	}
}

func (b *nullBackend) Close() error {
	return nil
}
