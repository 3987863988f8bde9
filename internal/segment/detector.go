// Package segment turns a stream of PCM16LE frames into discrete utterances
// using amplitude-based silence detection.
package segment

import (
	"time"

	"github.com/Aegis-ai-labs/Aegis/internal/audio"
)

// Event reports what happened inside the detector on a Feed or Flush call.
type Event int

const (
	EventNone Event = iota
	// EventStarted fires on the first frame of a new utterance.
	EventStarted
	// EventCompleted fires when an utterance is finalized; the PCM return
	// value carries everything accumulated since EventStarted.
	EventCompleted
	// EventDiscardedShort fires when the end-of-speech decision landed on a
	// buffer below the minimum utterance size. Usually a stray pop or click.
	EventDiscardedShort
	// EventDiscardedQuiet fires when the accumulated audio never rose above
	// the energy floor. Usually breathing or room noise.
	EventDiscardedQuiet
)

func (e Event) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventCompleted:
		return "completed"
	case EventDiscardedShort:
		return "discarded_short"
	case EventDiscardedQuiet:
		return "discarded_quiet"
	default:
		return "none"
	}
}

type Config struct {
	// SilenceThreshold is the mean absolute amplitude below which a frame
	// counts as silent.
	SilenceThreshold int
	// SilenceFramesToStop is the number of consecutive silent frames that
	// finalize an utterance.
	SilenceFramesToStop int
	// MinUtteranceBytes discards utterances shorter than this many PCM bytes.
	MinUtteranceBytes int
	// MinUtteranceRMS discards utterances whose overall energy stays below
	// this floor. 0 disables the check.
	MinUtteranceRMS float64
	// MaxRecording force-finalizes an utterance that has been running this
	// long, as if silence had been detected.
	MaxRecording time.Duration
}

func (c Config) withDefaults() Config {
	if c.SilenceThreshold <= 0 {
		c.SilenceThreshold = 500
	}
	if c.SilenceFramesToStop <= 0 {
		c.SilenceFramesToStop = 8
	}
	if c.MinUtteranceBytes <= 0 {
		c.MinUtteranceBytes = 3200
	}
	if c.MaxRecording <= 0 {
		c.MaxRecording = 10 * time.Second
	}
	return c
}

// Detector accumulates frames until enough trailing silence (or the recording
// cap) closes the utterance. It is not safe for concurrent use; each
// connection owns its own Detector.
type Detector struct {
	cfg       Config
	buf       []byte
	silentRun int
	recording bool
	startedAt time.Time
	now       func() time.Time
}

func NewDetector(cfg Config) *Detector {
	return &Detector{
		cfg: cfg.withDefaults(),
		now: time.Now,
	}
}

// Feed appends one PCM16LE frame. When the frame closes an utterance the
// accumulated PCM is returned together with EventCompleted. Discarded
// utterances return nil PCM and a discard event. Empty frames are ignored.
func (d *Detector) Feed(frame []byte) ([]byte, Event) {
	if len(frame) == 0 {
		return nil, EventNone
	}

	started := false
	if !d.recording {
		d.recording = true
		d.startedAt = d.now()
		started = true
	}

	d.buf = append(d.buf, frame...)

	if audio.IsSilent(frame, d.cfg.SilenceThreshold) {
		d.silentRun++
	} else {
		d.silentRun = 0
	}

	if d.now().Sub(d.startedAt) > d.cfg.MaxRecording {
		d.silentRun = d.cfg.SilenceFramesToStop
	}

	if d.silentRun >= d.cfg.SilenceFramesToStop {
		return d.finalize()
	}

	if started {
		return nil, EventStarted
	}
	return nil, EventNone
}

// Flush finalizes whatever is buffered, as on an explicit end-of-speech
// signal. With nothing buffered it returns EventNone.
func (d *Detector) Flush() ([]byte, Event) {
	if len(d.buf) == 0 {
		return nil, EventNone
	}
	return d.finalize()
}

// Reset drops buffered audio and returns the detector to idle.
func (d *Detector) Reset() {
	d.buf = nil
	d.silentRun = 0
	d.recording = false
	d.startedAt = time.Time{}
}

// Recording reports whether an utterance is currently accumulating.
func (d *Detector) Recording() bool { return d.recording }

// BufferedBytes returns the number of PCM bytes accumulated so far.
func (d *Detector) BufferedBytes() int { return len(d.buf) }

// Elapsed returns how long the current utterance has been recording.
func (d *Detector) Elapsed() time.Duration {
	if !d.recording {
		return 0
	}
	return d.now().Sub(d.startedAt)
}

func (d *Detector) finalize() ([]byte, Event) {
	pcm := d.buf
	d.Reset()

	if len(pcm) <= d.cfg.MinUtteranceBytes {
		return nil, EventDiscardedShort
	}
	if d.cfg.MinUtteranceRMS > 0 && audio.RMS(pcm) < d.cfg.MinUtteranceRMS {
		return nil, EventDiscardedQuiet
	}
	return pcm, EventCompleted
}
