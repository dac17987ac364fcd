package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jinjor/desktop-fm/src/audio"
	"golang.org/x/sync/errgroup"
)

var (
	sampleRate  = flag.Int("rate", audio.DefaultSampleRate, "output sample rate in Hz")
	frames      = flag.Int("frames", audio.DefaultConfig().Frames, "samples per output block")
	backendName = flag.String("backend", audio.BackendOto, "output backend: oto, portaudio or null")
	patchPath   = flag.String("patch", "", "JSON patch file, reloaded when it changes")
	sockPath    = flag.String("sock", "", "unix socket for commands and reports (disabled when empty)")
	useMidi     = flag.Bool("midi", false, "play notes from the first MIDI input")
	useKeyboard = flag.Bool("keyboard", true, "play notes from the terminal keyboard")
	gate        = flag.Duration("gate", 400*time.Millisecond, "how long a terminal key holds its note")
	reportEvery = flag.Duration("report", 0, "log voice and pitch reports at this interval (0 disables)")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	log.Printf("NumCPU: %v\n", runtime.NumCPU())

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	config := audio.Config{SampleRate: *sampleRate, Frames: *frames, Backend: *backendName}
	a, err := audio.NewAudio(config)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	defer a.Close()
	synth := a.Synth()
	if *patchPath != "" {
		if err := synth.LoadPatch(*patchPath); err != nil {
			log.Fatalf("error: %v\n", err)
		}
	}

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		sig := <-signalCh
		log.Printf("Caught signal %s: shutting down...\n", sig)
		cancel()
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Start(ctx)
	})
	g.Go(func() error {
		return runControlLoop(ctx, a, *reportEvery)
	})
	if *useKeyboard {
		g.Go(func() error {
			return runKeyboard(ctx, synth, *gate)
		})
	}
	if *useMidi {
		midiCh := audio.ListenToMidiIn(ctx)
		g.Go(func() error {
			for data := range midiCh {
				synth.AddMidiEvent(data)
			}
			return nil
		})
	}
	if *patchPath != "" {
		g.Go(func() error {
			return audio.WatchPatch(ctx, *patchPath, synth)
		})
	}
	if *sockPath != "" {
		g.Go(func() error {
			return withIPCConnection(ctx, *sockPath, func(conn net.Conn) error {
				g, ctx := errgroup.WithContext(ctx)
				g.Go(func() error {
					return receiveCommands(ctx, conn, a.CommandCh)
				})
				g.Go(func() error {
					return sendReports(ctx, conn, a)
				})
				return g.Wait()
			})
		})
	}
	err = g.Wait()
	if err != nil && !errors.Is(err, errQuit) {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

// runControlLoop returns finished voices to the pool once per frame.
func runControlLoop(ctx context.Context, a *audio.Audio, reportEvery time.Duration) error {
	t := time.NewTicker(time.Second / 60)
	defer t.Stop()
	synth := a.Synth()
	var lastReport time.Time
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case now := <-t.C:
			synth.Reclaim()
			if reportEvery > 0 && now.Sub(lastReport) >= reportEvery {
				lastReport = now
				log.Printf("voices: %d octave: %d peak: %.1fHz\n", synth.ActiveVoices(), synth.Octave(), a.PeakFrequency())
			}
		}
	}
	log.Println("runControlLoop() ended.")
	return nil
}

func withIPCConnection(ctx context.Context, sockFileName string, f func(net.Conn) error) error {
	os.Remove(sockFileName)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", sockFileName)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() {
		listener.Close()
	})
	defer func() {
		log.Println("Closing IPC...")
		if stop() {
			err := listener.Close()
			if err != nil {
				log.Printf("error while closing listener: %v", err)
			}
		}
		os.Remove(sockFileName)
	}()
	log.Printf("start listening on %s...\n", sockFileName)
	conn, err := listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	stopConn := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer func() {
		if stopConn() {
			err := conn.Close()
			if err != nil {
				log.Printf("error while closing connection: %v", err)
			}
		}
	}()
	return f(conn)
}

func receiveCommands(ctx context.Context, conn net.Conn, commandCh chan<- []string) error {
	reader := bufio.NewReader(conn)
	var line []byte
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("Connection interrupted")
			break loop
		default:
		}
		next, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break loop
		}
		if err != nil {
			if ctx.Err() != nil {
				break loop
			}
			return err
		}
		line = append(line, next...)
		if isPrefix {
			continue
		}
		command, err := parseCommand(string(line))
		if err != nil {
			return err
		}
		select {
		case commandCh <- command:
		case <-ctx.Done():
			break loop
		}
		log.Printf("received: %s\n", string(line))
		line = []byte{}
	}
	log.Println("receiveCommands() ended.")
	return nil
}

func parseCommand(line string) ([]string, error) {
	lineStr := strings.Split(line, " ")
	for i, item := range lineStr {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		lineStr[i] = escaped
	}
	return lineStr, nil
}

func sendReports(ctx context.Context, conn net.Conn, a *audio.Audio) error {
	t := time.NewTicker(time.Second / 60)
	defer t.Stop()
	var sb strings.Builder
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("sendReports() interrupted")
			break loop
		case <-t.C:
			sb.Reset()
			sb.WriteString("voices")
			for _, level := range a.Synth().VoiceLevels() {
				sb.WriteString(" " + strconv.FormatFloat(level, 'f', 3, 64))
			}
			sb.WriteString("\nfft")
			for _, value := range a.GetFFT() {
				sb.WriteString(" " + strconv.FormatFloat(value, 'f', 6, 64))
			}
			sb.WriteString("\n")
			if _, err := io.WriteString(conn, sb.String()); err != nil {
				if ctx.Err() != nil {
					break loop
				}
				return fmt.Errorf("failed to send report: %w", err)
			}
		}
	}
	log.Println("sendReports() ended.")
	return nil
}
