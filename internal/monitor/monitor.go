// Package monitor polls the OS clipboard, classifies what it finds, and
// persists only genuinely new content. It owns the ephemeral last-seen
// fingerprints that keep unchanged clipboard state from costing a database
// round trip on every tick, and a self-ignore window so its own clipboard
// writes are never re-captured as external changes.
//
// All clipboard access happens on the single polling goroutine; ticks are
// single-flight — a tick that fires while the previous one is still doing
// slow work is skipped, never queued.
package monitor

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adyhwang/clipvault/internal/clipboard"
	"github.com/adyhwang/clipvault/internal/fingerprint"
	"github.com/adyhwang/clipvault/internal/imaging"
	"github.com/adyhwang/clipvault/internal/store"
)

// Config tunes the capture loop. Booleans mirror the external settings
// surface; the caller decides them, the monitor only consults them.
type Config struct {
	// PollInterval is the fixed clipboard polling period. Default: 500ms.
	PollInterval time.Duration
	// IgnoreWindow is how long a self-ignore guard stays up. Default: 500ms.
	IgnoreWindow time.Duration
	// MonitorEnabled gates the whole capture path.
	MonitorEnabled bool
	// CaptureImages enables the image capture path.
	CaptureImages bool
	// CaptureFiles enables the file-list capture path.
	CaptureFiles bool
	// RemoveDuplicates enables dedup against last-seen state and the store.
	RemoveDuplicates bool
	// MaxHistoryItems caps ungrouped history; 0 means unlimited.
	MaxHistoryItems int
}

func (c *Config) defaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.IgnoreWindow <= 0 {
		c.IgnoreWindow = 500 * time.Millisecond
	}
}

// Monitor is the capture/dedup state machine.
type Monitor struct {
	clip   clipboard.Reader
	writer clipboard.Writer
	store  *store.Store
	cfg    Config
	log    *slog.Logger

	// lifecycle guards Start/Stop transitions.
	lifecycle sync.Mutex
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}

	// tickMu serializes poll ticks and ignore priming; TryLock gives the
	// single-flight skip for overlapping ticks.
	tickMu sync.Mutex

	// Last-seen fingerprints, touched only under tickMu.
	lastText    string
	lastImageFP string
	lastFileFP  string

	ignoring atomic.Bool

	events chan Event

	// pathExists is stubbed in tests.
	pathExists func(string) bool
	now        func() time.Time
}

// New creates a Monitor. writer may be nil when replay is not needed.
func New(clip clipboard.Reader, writer clipboard.Writer, st *store.Store, cfg Config, logger *slog.Logger) *Monitor {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		clip:   clip,
		writer: writer,
		store:  st,
		cfg:    cfg,
		log:    logger,
		events: make(chan Event, 64),
		pathExists: func(p string) bool {
			_, err := os.Stat(p)
			return err == nil
		},
		now: time.Now,
	}
}

// Running reports whether the poll loop is active.
func (m *Monitor) Running() bool {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	return m.running
}

// Start primes the last-seen fingerprints from the current clipboard —
// without inserting anything, so a value sitting on the clipboard across a
// restart is not re-captured — then begins polling. No-op when already
// running.
func (m *Monitor) Start() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	if m.running {
		return
	}

	m.tickMu.Lock()
	m.primeLastSeen()
	m.tickMu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true
	go m.loop(ctx)
	m.log.Info("monitor: started", "interval", m.cfg.PollInterval)
}

// Stop cancels the poll loop and waits for an in-flight tick to finish its
// current store call. Safe to call from any goroutine; idempotent.
func (m *Monitor) Stop() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	if !m.running {
		return
	}
	m.cancel()
	<-m.done
	m.running = false
	m.log.Info("monitor: stopped")
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// tick runs one poll cycle with the single-flight guard.
func (m *Monitor) tick(ctx context.Context) {
	if !m.tickMu.TryLock() {
		// Previous tick still encoding or writing; skip, don't queue.
		return
	}
	defer m.tickMu.Unlock()
	// Store calls outlive a Stop() arriving mid-tick: the current
	// operation completes rather than rolling back half-applied.
	m.pollOnce(context.WithoutCancel(ctx))
}

// IgnoreNextChange re-primes the last-seen fingerprints from the current
// clipboard and raises a guard for the configured window, so the
// component's own upcoming clipboard write is not captured as an external
// change. Calls arriving while a window is active coalesce into a no-op to
// keep the primed state intact.
func (m *Monitor) IgnoreNextChange() {
	if !m.ignoring.CompareAndSwap(false, true) {
		return
	}
	m.tickMu.Lock()
	m.primeLastSeen()
	m.tickMu.Unlock()
	time.AfterFunc(m.cfg.IgnoreWindow, func() { m.ignoring.Store(false) })
}

// primeLastSeen samples the current clipboard into the last-seen
// fingerprints without persisting anything. Caller holds tickMu.
func (m *Monitor) primeLastSeen() {
	switch {
	case m.clip.ContainsText():
		if text, err := m.clip.Text(); err == nil {
			m.lastText = text
		}
	case m.clip.ContainsImage():
		img, err := m.clip.Image()
		if err != nil {
			return
		}
		data, err := imaging.Encode(img)
		if err != nil {
			return
		}
		m.lastImageFP = fingerprint.Bytes(data)
	case m.clip.ContainsFileList():
		if paths, err := m.clip.FileList(); err == nil && len(paths) > 0 {
			m.lastFileFP = fingerprint.FileSet(paths)
		}
	}
}

// WriteToClipboard replays a stored item back onto the clipboard (the
// copy/paste path), guarding against self-capture first, and bumps the
// item's timestamp so it moves to the top of history.
func (m *Monitor) WriteToClipboard(ctx context.Context, item *store.Item) error {
	if m.writer == nil {
		return clipboard.ErrUnavailable
	}
	m.IgnoreNextChange()

	var err error
	switch item.Kind {
	case store.KindText:
		err = m.writer.SetText(item.Content)
	case store.KindImage:
		err = m.writeImage(item)
	case store.KindFileList:
		err = m.writer.SetFileList(item.FilePaths)
	}
	if err != nil {
		return err
	}
	return m.store.TouchTimestampByID(ctx, item.ID)
}

func (m *Monitor) writeImage(item *store.Item) error {
	data, err := os.ReadFile(m.store.BlobPath(item.ImageRef))
	if err != nil {
		return err
	}
	img, err := imaging.Decode(data)
	if err != nil {
		return err
	}
	return m.writer.SetImage(img)
}
