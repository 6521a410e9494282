// Package capture records audio from the host's default input device. It is
// the pipeline's capture adapter: start buffering on demand, and hand back a
// single encoded buffer plus the recorded duration once recording stops.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// MimeType of the buffers this recorder produces.
const MimeType = "audio/wav"

const framesPerBuffer = 1024

var (
	ErrAlreadyRecording = errors.New("a recording is already in progress")
	ErrNotRecording     = errors.New("no recording in progress")
)

// Recorder captures mono PCM from the default input device.
type Recorder struct {
	sampleRate int

	mu        sync.Mutex
	recording bool
	samples   []int16
	stream    *portaudio.Stream
	stop      chan struct{}
	done      chan struct{}
	readErr   error
}

func NewRecorder(sampleRate int) *Recorder {
	return &Recorder{sampleRate: sampleRate}
}

// Start opens the default input device and begins buffering. Overlapping
// starts are rejected: the pipeline runs one recording at a time.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return ErrAlreadyRecording
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize audio subsystem: %w", err)
	}

	in := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.sampleRate), len(in), in)
	if err != nil {
		_ = portaudio.Terminate()
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	r.recording = true
	r.samples = nil
	r.readErr = nil
	r.stream = stream
	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	go r.readLoop(ctx, stream, in, r.stop, r.done)

	log.Printf("Audio capture started (%d Hz, mono)", r.sampleRate)
	return nil
}

func (r *Recorder) readLoop(ctx context.Context, stream *portaudio.Stream, in []int16, stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := stream.Read(); err != nil {
			r.mu.Lock()
			r.readErr = err
			r.mu.Unlock()
			return
		}

		chunk := make([]int16, len(in))
		copy(chunk, in)

		r.mu.Lock()
		r.samples = append(r.samples, chunk...)
		r.mu.Unlock()
	}
}

// Stop ends the recording and returns the WAV-encoded buffer and its
// duration.
func (r *Recorder) Stop() ([]byte, time.Duration, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return nil, 0, ErrNotRecording
	}
	stop, done, stream := r.stop, r.done, r.stream
	r.mu.Unlock()

	close(stop)
	<-done

	_ = stream.Stop()
	_ = stream.Close()
	_ = portaudio.Terminate()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = false
	r.stream = nil

	if r.readErr != nil {
		return nil, 0, fmt.Errorf("audio read failed: %w", r.readErr)
	}

	duration := time.Duration(len(r.samples)) * time.Second / time.Duration(r.sampleRate)
	buf := encodeWAV(r.samples, r.sampleRate)
	samples := len(r.samples)
	r.samples = nil

	log.Printf("Audio capture stopped (%d samples, %s)", samples, duration)
	return buf, duration, nil
}

// Recording reports whether a capture is in progress.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}
