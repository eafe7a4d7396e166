package prompter

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stwalsh4118/prompter/internal/logger"
	"github.com/stwalsh4118/prompter/internal/models"
)

const (
	defaultFrameInterval   = 16 * time.Millisecond
	defaultStatsInterval   = 500 * time.Millisecond
	defaultControlsTimeout = 3 * time.Second
)

// Options configures a session's timers and hooks
type Options struct {
	// FrameInterval is the period of the refresh signal driving frame steps
	FrameInterval time.Duration

	// StatsInterval is the period of the time statistics refresh
	StatsInterval time.Duration

	// ControlsTimeout hides the controls after this much inactivity while playing
	ControlsTimeout time.Duration

	// Clock supplies frame timestamps (defaults to SystemClock)
	Clock Clock

	// OnUpdate runs on the session loop after every event, including each
	// frame. It must not call back into the session.
	OnUpdate func(Snapshot)
}

func (o Options) withDefaults() Options {
	if o.FrameInterval <= 0 {
		o.FrameInterval = defaultFrameInterval
	}
	if o.StatsInterval <= 0 {
		o.StatsInterval = defaultStatsInterval
	}
	if o.ControlsTimeout <= 0 {
		o.ControlsTimeout = defaultControlsTimeout
	}
	if o.Clock == nil {
		o.Clock = SystemClock
	}
	return o
}

// Snapshot is a point-in-time view of a session for display
type Snapshot struct {
	SessionID       string        `json:"session_id"`
	ScriptID        string        `json:"script_id"`
	State           PlaybackState `json:"state"`
	Position        float64       `json:"position"`
	ScrollTop       float64       `json:"scroll_top"`
	MaxScroll       float64       `json:"max_scroll"`
	ClientHeight    float64       `json:"client_height"`
	Stats           TimeStats     `json:"stats"`
	ScrollSpeed     int           `json:"scroll_speed"`
	FontSize        int           `json:"font_size"`
	PaddingX        int           `json:"padding_x"`
	IsMirrored      bool          `json:"is_mirrored"`
	IsDarkMode      bool          `json:"is_dark_mode"`
	ControlsVisible bool          `json:"controls_visible"`
}

// Session is one open prompter view. A single goroutine owns the engine,
// the layout and every timer; exported methods hand closures to that
// goroutine and wait for them, so only the loop ever writes the scroll
// offset.
type Session struct {
	id        uuid.UUID
	scriptID  uuid.UUID
	createdAt time.Time

	opts   Options
	layout Layout
	frames *FrameQueue
	engine *Engine
	log    zerolog.Logger

	// Owned by the loop goroutine
	settings        models.Settings
	stats           TimeStats
	controlsVisible bool
	controlsTimer   *time.Timer
	controlsArmed   bool
	subscribers     map[int]chan Snapshot
	nextSubscriber  int

	cmds     chan func()
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	lastAccess      atomic.Int64
	subscriberCount atomic.Int32
}

// NewSession lays out the script on the given surface and starts the
// session loop. The caller must Close the session to release its timers.
func NewSession(scriptID uuid.UUID, content string, layout Layout, settings models.Settings, opts Options) *Session {
	opts = opts.withDefaults()

	controlsTimer := time.NewTimer(opts.ControlsTimeout)
	controlsTimer.Stop()

	s := &Session{
		id:              uuid.New(),
		scriptID:        scriptID,
		createdAt:       opts.Clock.Now().UTC(),
		opts:            opts,
		layout:          layout,
		frames:          NewFrameQueue(),
		settings:        settings,
		controlsVisible: true,
		controlsTimer:   controlsTimer,
		subscribers:     make(map[int]chan Snapshot),
		cmds:            make(chan func()),
		stopChan:        make(chan struct{}),
		done:            make(chan struct{}),
	}
	s.log = logger.Component("prompter").With().
		Str("session_id", s.id.String()).
		Str("script_id", scriptID.String()).
		Logger()

	layout.SetTypography(settings.FontSize, settings.PaddingX)
	layout.SetContent(content)

	s.engine = NewEngine(layout, s.frames, opts.Clock, EngineConfig{ScrollSpeed: settings.ScrollSpeed})
	s.engine.OnStateChange(s.handleStateChange)
	s.touch()

	go s.run()

	s.log.Info().
		Int("scroll_speed", settings.ScrollSpeed).
		Float64("max_scroll", MaxScroll(layout)).
		Msg("Prompter session opened")

	return s
}

// ID returns the session identifier
func (s *Session) ID() uuid.UUID { return s.id }

// ScriptID returns the script this session presents
func (s *Session) ScriptID() uuid.UUID { return s.scriptID }

// CreatedAt returns when the session was opened
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// LastAccess returns the wall-clock time of the most recent command
func (s *Session) LastAccess() time.Time {
	return time.Unix(0, s.lastAccess.Load())
}

// SubscriberCount returns the number of live snapshot subscriptions
func (s *Session) SubscriberCount() int {
	return int(s.subscriberCount.Load())
}

// Done is closed once the session loop has exited
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Play starts auto-scrolling.
func (s *Session) Play() (Snapshot, error) {
	return s.exec(s.engine.Play)
}

// Pause stops auto-scrolling.
func (s *Session) Pause() (Snapshot, error) {
	return s.exec(s.engine.Pause)
}

// Toggle flips between playing and paused.
func (s *Session) Toggle() (Snapshot, error) {
	return s.exec(s.engine.Toggle)
}

// ScrollTo moves the surface by hand. While paused the engine picks the
// new offset up on the next Play.
func (s *Session) ScrollTo(offset float64) (Snapshot, error) {
	return s.exec(func() {
		s.layout.SetScrollTop(offset)
		s.refreshStats()
	})
}

// ApplySettings pushes new display and speed settings into the live
// session. A speed change affects only future frames.
func (s *Session) ApplySettings(settings models.Settings) (Snapshot, error) {
	return s.exec(func() {
		prev := s.settings
		s.settings = settings
		if settings.FontSize != prev.FontSize || settings.PaddingX != prev.PaddingX {
			s.layout.SetTypography(settings.FontSize, settings.PaddingX)
		}
		if settings.ScrollSpeed != prev.ScrollSpeed {
			s.engine.SetScrollSpeed(settings.ScrollSpeed)
			s.log.Debug().
				Int("from", prev.ScrollSpeed).
				Int("to", settings.ScrollSpeed).
				Msg("Scroll speed changed")
		}
		s.refreshStats()
	})
}

// SetContent replaces the script text being presented.
func (s *Session) SetContent(content string) (Snapshot, error) {
	return s.exec(func() {
		s.layout.SetContent(content)
		s.refreshStats()
	})
}

// Resize changes the surface dimensions.
func (s *Session) Resize(width, height float64) (Snapshot, error) {
	return s.exec(func() {
		s.layout.Resize(width, height)
		s.refreshStats()
	})
}

// Activity records user interaction: controls are shown and, while
// playing, hidden again after the inactivity timeout.
func (s *Session) Activity() (Snapshot, error) {
	return s.exec(s.resetControls)
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := s.do(func() {
		snap = s.snapshot()
	})
	return snap, err
}

// Subscribe returns a channel receiving a snapshot on every statistics
// refresh and state change. Slow readers only see the latest snapshot. The
// channel is closed when the session closes; cancel releases it earlier.
func (s *Session) Subscribe() (<-chan Snapshot, func(), error) {
	ch := make(chan Snapshot, 1)
	var id int
	err := s.do(func() {
		id = s.nextSubscriber
		s.nextSubscriber++
		s.subscribers[id] = ch
		offer(ch, s.snapshot())
	})
	if err != nil {
		return nil, nil, err
	}
	s.subscriberCount.Add(1)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subscriberCount.Add(-1)
			_ = s.do(func() {
				if sub, ok := s.subscribers[id]; ok {
					delete(s.subscribers, id)
					close(sub)
				}
			})
		})
	}
	return ch, cancel, nil
}

// Close stops playback, cancels the pending frame, stops every timer and
// waits for the loop to exit. It is safe to call more than once.
func (s *Session) Close() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	<-s.done
}

func (s *Session) run() {
	defer close(s.done)

	frameTicker := time.NewTicker(s.opts.FrameInterval)
	defer frameTicker.Stop()
	statsTicker := time.NewTicker(s.opts.StatsInterval)
	defer statsTicker.Stop()
	defer s.controlsTimer.Stop()
	defer s.teardown()

	s.refreshStats()
	s.publish()

	for {
		// Only listen to the refresh signal while a frame is requested
		var frameC <-chan time.Time
		if s.frames.Pending() > 0 {
			frameC = frameTicker.C
		}
		var controlsC <-chan time.Time
		if s.controlsArmed {
			controlsC = s.controlsTimer.C
		}

		select {
		case <-s.stopChan:
			return
		case fn := <-s.cmds:
			fn()
		case <-frameC:
			s.frames.Drain(s.opts.Clock.Now())
			if s.opts.OnUpdate != nil {
				s.opts.OnUpdate(s.snapshot())
			}
		case <-statsTicker.C:
			s.refreshStats()
			s.publish()
		case <-controlsC:
			s.controlsArmed = false
			s.controlsVisible = false
			s.publish()
		}
	}
}

func (s *Session) teardown() {
	s.engine.Pause()
	s.engine.Detach()
	s.frames.Clear()
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	s.log.Info().Msg("Prompter session closed")
}

// do runs fn on the loop goroutine and waits for it to finish.
func (s *Session) do(fn func()) error {
	s.touch()
	finished := make(chan struct{})
	select {
	case s.cmds <- func() {
		fn()
		close(finished)
	}:
	case <-s.done:
		return ErrSessionClosed
	}
	<-finished
	return nil
}

// exec runs fn on the loop, publishes the result and returns a snapshot.
func (s *Session) exec(fn func()) (Snapshot, error) {
	var snap Snapshot
	err := s.do(func() {
		fn()
		s.publish()
		snap = s.snapshot()
	})
	return snap, err
}

func (s *Session) handleStateChange(state PlaybackState) {
	s.log.Debug().
		Str("state", string(state)).
		Float64("position", s.engine.Position()).
		Msg("Playback state changed")
	s.refreshStats()
	s.resetControls()
	s.publish()
}

func (s *Session) refreshStats() {
	s.stats = s.engine.Stats()
}

func (s *Session) resetControls() {
	s.controlsVisible = true
	s.controlsTimer.Stop()
	s.controlsArmed = false
	if s.engine.State() == StatePlaying {
		s.controlsTimer.Reset(s.opts.ControlsTimeout)
		s.controlsArmed = true
	}
}

func (s *Session) publish() {
	snap := s.snapshot()
	for _, ch := range s.subscribers {
		offer(ch, snap)
	}
	if s.opts.OnUpdate != nil {
		s.opts.OnUpdate(snap)
	}
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		SessionID:       s.id.String(),
		ScriptID:        s.scriptID.String(),
		State:           s.engine.State(),
		Position:        s.engine.Position(),
		ScrollTop:       s.layout.ScrollTop(),
		MaxScroll:       MaxScroll(s.layout),
		ClientHeight:    s.layout.ClientHeight(),
		Stats:           s.stats,
		ScrollSpeed:     s.engine.ScrollSpeed(),
		FontSize:        s.settings.FontSize,
		PaddingX:        s.settings.PaddingX,
		IsMirrored:      s.settings.IsMirrored,
		IsDarkMode:      s.settings.IsDarkMode,
		ControlsVisible: s.controlsVisible,
	}
}

func (s *Session) touch() {
	s.lastAccess.Store(time.Now().UnixNano())
}

// offer replaces any unread snapshot with the latest one.
func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}
