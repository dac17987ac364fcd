package audio

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"log"
	"sync"
)

const bytesPerSample = 2 // 16-bit mono

// ----- Utility ----- //

// clamp also maps NaN to lo.
func clamp(v, lo, hi float64) float64 {
	if !(v >= lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func toRawMessage(v interface{}) json.RawMessage {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(bytes)
}

// ----- Config ----- //

// Config ...
type Config struct {
	SampleRate int
	Frames     int // samples per block pulled by the backend
	Backend    string
}

// DefaultConfig ...
func DefaultConfig() Config {
	return Config{
		SampleRate: DefaultSampleRate,
		Frames:     1024,
		Backend:    BackendOto,
	}
}

// ----- Audio ----- //

// Audio connects a Synth to an output backend and a command channel.
type Audio struct {
	ctx       context.Context
	config    Config
	synth     *Synth
	backend   backend
	CommandCh chan []string
	pcm       []int16
	analyzer  *analyzer
	closeOnce sync.Once
}

var _ io.Reader = (*Audio)(nil)

// NewAudio ...
func NewAudio(config Config) (*Audio, error) {
	if config.SampleRate <= 0 {
		config.SampleRate = DefaultSampleRate
	}
	if config.Frames <= 0 {
		config.Frames = DefaultConfig().Frames
	}
	an, err := newAnalyzer()
	if err != nil {
		return nil, err
	}
	b, err := newBackend(config)
	if err != nil {
		return nil, err
	}
	commandCh := make(chan []string, 256)
	audio := &Audio{
		ctx:       context.Background(),
		config:    config,
		synth:     NewSynth(config.SampleRate),
		backend:   b,
		CommandCh: commandCh,
		pcm:       make([]int16, config.Frames),
		analyzer:  an,
	}
	go processCommands(audio, commandCh)
	return audio, nil
}

// Synth ...
func (a *Audio) Synth() *Synth {
	return a.synth
}

func processCommands(audio *Audio, commandCh <-chan []string) {
	for command := range commandCh {
		if err := audio.synth.Update(command); err != nil {
			log.Printf("failed to apply command %v: %v\n", command, err)
		}
	}
	log.Println("processCommands() ended.")
}

// Read renders little-endian 16-bit mono PCM into buf.
func (a *Audio) Read(buf []byte) (int, error) {
	select {
	case <-a.ctx.Done():
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
	}
	n := len(buf) / bytesPerSample
	if cap(a.pcm) < n {
		a.pcm = make([]int16, n)
	}
	pcm := a.pcm[:n]
	a.process(pcm)
	for i, v := range pcm {
		binary.LittleEndian.PutUint16(buf[i*bytesPerSample:], uint16(v))
	}
	return n * bytesPerSample, nil
}

// process is the render callback shared by all backends.
func (a *Audio) process(out []int16) {
	a.synth.Render(out)
	a.analyzer.write(out)
}

// Start plays until ctx is cancelled.
func (a *Audio) Start(ctx context.Context) error {
	a.ctx = ctx
	if err := a.backend.run(ctx, a); err != nil {
		return err
	}
	log.Println("Start() ended.")
	return nil
}

// Close ...
func (a *Audio) Close() error {
	log.Println("Closing Audio...")
	var err error
	a.closeOnce.Do(func() {
		close(a.CommandCh)
		err = a.backend.Close()
	})
	return err
}

// GetFFT returns the magnitude spectrum of the most recent output.
func (a *Audio) GetFFT() []float64 {
	return a.analyzer.spectrum()
}

// PeakFrequency returns the frequency of the strongest bin in the recent
// output, or 0 when it is silent.
func (a *Audio) PeakFrequency() float64 {
	return a.analyzer.peakFrequency(float64(a.config.SampleRate))
}
