// Package campaign runs the two-step generation cycle (copy, then image) for
// one session and owns that session's status, result and error.
package campaign

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"adgenius/internal/ad"
)

// ErrBusy is returned when a cycle is already in flight for the session.
var ErrBusy = errors.New("a campaign is already being generated")

var errNoGenerators = errors.New("campaign: copy and image generators are required")

const unexpectedErrorMessage = "An unexpected error occurred."

type CopyGenerator interface {
	Generate(ctx context.Context, description, url string) (ad.Copy, error)
}

type ImageGenerator interface {
	Generate(ctx context.Context, imagePrompt string) (ad.Image, error)
}

type Options struct {
	Copy  CopyGenerator
	Image ImageGenerator

	// Timeout bounds a whole cycle. Zero leaves it to the HTTP client.
	Timeout time.Duration
	Logger  *slog.Logger

	// OnChange is called after every transition, outside the state lock and
	// in transition order. It must not start a cycle on the same Orchestrator.
	OnChange func(State)
}

// State is a point-in-time copy of the session. The pointed-to values are
// never mutated once published.
type State struct {
	Status      Status
	Description string
	URL         string

	// Copy is the copy of the current cycle, set once the copy step succeeds.
	Copy *ad.Copy
	// Result is set only while Status is StatusCompleted.
	Result *ad.GeneratedAd
	// Last is the most recent successful result. Failed cycles leave it alone.
	Last *ad.GeneratedAd

	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

type Orchestrator struct {
	copy     CopyGenerator
	image    ImageGenerator
	timeout  time.Duration
	logger   *slog.Logger
	onChange func(State)

	inflight *semaphore.Weighted

	mu    sync.Mutex
	state State

	// published and delivered order OnChange calls by publication sequence.
	published uint64
	notifyMu  sync.Mutex
	notified  *sync.Cond
	delivered uint64
}

func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	o := &Orchestrator{
		copy:     opts.Copy,
		image:    opts.Image,
		timeout:  opts.Timeout,
		logger:   logger,
		onChange: opts.OnChange,
		inflight: semaphore.NewWeighted(1),
		state:    State{Status: StatusIdle},
	}
	o.notified = sync.NewCond(&o.notifyMu)
	return o
}

func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Generate runs one cycle and blocks until it resolves. An empty description
// is a no-op. The cycle error, if any, is both recorded and returned.
func (o *Orchestrator) Generate(ctx context.Context, description, url string) error {
	started, err := o.begin(description, url)
	if err != nil || !started {
		return err
	}
	return o.run(ctx, description, url)
}

// Start is Generate on a new goroutine. started is false when the
// description is empty.
func (o *Orchestrator) Start(ctx context.Context, description, url string) (bool, error) {
	started, err := o.begin(description, url)
	if err != nil || !started {
		return false, err
	}

	go func() {
		_ = o.run(ctx, description, url)
	}()
	return true, nil
}

func (o *Orchestrator) begin(description, url string) (bool, error) {
	if strings.TrimSpace(description) == "" {
		return false, nil
	}
	if o.copy == nil || o.image == nil {
		return false, errNoGenerators
	}
	if !o.inflight.TryAcquire(1) {
		return false, ErrBusy
	}

	o.transition(func(st *State) {
		st.Status = StatusGeneratingCopy
		st.Description = description
		st.URL = url
		st.Copy = nil
		st.Result = nil
		st.Error = ""
		st.StartedAt = time.Now()
		st.FinishedAt = time.Time{}
	})
	return true, nil
}

// run must only be called while holding inflight. It releases inflight in
// the same critical section that publishes the terminal status.
func (o *Orchestrator) run(ctx context.Context, description, url string) error {
	// a started cycle always runs to Completed or Error
	ctx = context.WithoutCancel(ctx)
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()

	adCopy, err := o.copy.Generate(ctx, description, url)
	if err != nil {
		return o.fail(ad.StageCopy, err)
	}
	o.transition(func(st *State) {
		st.Status = StatusGeneratingImage
		st.Copy = &adCopy
	})

	img, err := o.image.Generate(ctx, adCopy.ImagePrompt)
	if err != nil {
		return o.fail(ad.StageImage, err)
	}

	result, err := ad.NewGeneratedAd(adCopy, img)
	if err != nil {
		return o.fail(ad.StageImage, err)
	}
	o.finish(func(st *State) {
		st.Status = StatusCompleted
		st.Result = &result
		st.Last = &result
		st.FinishedAt = time.Now()
	})

	o.logger.Info("campaign generated",
		"headline", adCopy.Headline,
		"mime", img.MimeType,
		"dur_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (o *Orchestrator) fail(stage ad.Stage, err error) error {
	msg := ErrorMessage(err)
	o.logger.Error("campaign generation failed", "stage", stage, "err", err)

	o.finish(func(st *State) {
		st.Status = StatusError
		st.Copy = nil
		st.Result = nil
		st.Error = msg
		st.FinishedAt = time.Now()
	})
	return err
}

func (o *Orchestrator) transition(fn func(*State)) {
	o.mu.Lock()
	fn(&o.state)
	snap, seq := o.state, o.published
	o.published++
	o.mu.Unlock()

	o.notify(seq, snap)
}

// finish publishes a terminal state and frees the session for the next
// cycle in the same critical section. Callbacks of a cycle started right
// after still queue behind this one.
func (o *Orchestrator) finish(fn func(*State)) {
	o.mu.Lock()
	fn(&o.state)
	snap, seq := o.state, o.published
	o.published++
	o.inflight.Release(1)
	o.mu.Unlock()

	o.notify(seq, snap)
}

func (o *Orchestrator) notify(seq uint64, snap State) {
	o.notifyMu.Lock()
	for o.delivered != seq {
		o.notified.Wait()
	}
	o.notifyMu.Unlock()

	if o.onChange != nil {
		o.onChange(snap)
	}

	o.notifyMu.Lock()
	o.delivered++
	o.notified.Broadcast()
	o.notifyMu.Unlock()
}

// ErrorMessage turns a cycle error into the text shown to the user.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var ge *ad.GenerationError
	if errors.As(err, &ge) {
		return ge.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The request timed out. Please try again."
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return unexpectedErrorMessage
}
