package campaign

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adgenius/internal/ad"
)

var testCopy = ad.Copy{
	Headline:    "Brush Green",
	Subheadline: "Bamboo handles, charcoal bristles.",
	CTA:         "Shop Now",
	ImagePrompt: "bamboo in mist",
	Colors: ad.Colors{
		Primary:    "#2E7D32",
		Secondary:  "#A5D6A7",
		Background: "#F1F8E9",
		Text:       "#FFFFFF",
		ButtonText: "#FFFFFF",
	},
}

var testImage = ad.Image{Base64: "aW1hZ2U=", MimeType: "image/jpeg"}

type stubCopy struct {
	out   ad.Copy
	err   error
	gate  chan struct{}
	calls int
	mu    sync.Mutex
}

func (s *stubCopy) Generate(ctx context.Context, description, url string) (ad.Copy, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.gate != nil {
		<-s.gate
	}
	return s.out, s.err
}

func (s *stubCopy) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubImage struct {
	out    ad.Image
	err    error
	gate   chan struct{}
	prompt string
	calls  int
}

func (s *stubImage) Generate(ctx context.Context, imagePrompt string) (ad.Image, error) {
	s.calls++
	s.prompt = imagePrompt
	if s.gate != nil {
		<-s.gate
	}
	return s.out, s.err
}

type recorder struct {
	mu       sync.Mutex
	statuses []Status
}

func (r *recorder) record(st State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, st.Status)
}

func (r *recorder) all() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status(nil), r.statuses...)
}

func TestGenerateHappyPath(t *testing.T) {
	rec := &recorder{}
	img := &stubImage{out: testImage}
	o := New(Options{Copy: &stubCopy{out: testCopy}, Image: img, OnChange: rec.record})

	require.Equal(t, StatusIdle, o.Snapshot().Status)

	err := o.Generate(context.Background(), "Eco-friendly bamboo toothbrush", "")
	require.NoError(t, err)

	assert.Equal(t, []Status{StatusGeneratingCopy, StatusGeneratingImage, StatusCompleted}, rec.all())
	assert.Equal(t, "bamboo in mist", img.prompt)

	st := o.Snapshot()
	assert.Equal(t, StatusCompleted, st.Status)
	require.NotNil(t, st.Result)
	assert.Equal(t, testCopy, st.Result.Copy)
	assert.Equal(t, testImage, st.Result.Image)
	assert.Same(t, st.Result, st.Last)
	assert.Empty(t, st.Error)
	assert.False(t, st.FinishedAt.IsZero())
}

func TestGenerateEmptyDescriptionIsNoop(t *testing.T) {
	rec := &recorder{}
	cp := &stubCopy{out: testCopy}
	o := New(Options{Copy: cp, Image: &stubImage{out: testImage}, OnChange: rec.record})

	require.NoError(t, o.Generate(context.Background(), "   ", "example.com"))

	assert.Equal(t, StatusIdle, o.Snapshot().Status)
	assert.Empty(t, rec.all())
	assert.Zero(t, cp.Calls())

	started, err := o.Start(context.Background(), "", "")
	require.NoError(t, err)
	assert.False(t, started)
}

func TestGenerateCopyFailure(t *testing.T) {
	rec := &recorder{}
	img := &stubImage{out: testImage}
	copyErr := &ad.GenerationError{Stage: ad.StageCopy, Msg: "Failed to parse ad copy:", Err: errors.New("unexpected end of JSON input")}
	o := New(Options{Copy: &stubCopy{err: copyErr}, Image: img, OnChange: rec.record})

	err := o.Generate(context.Background(), "desc", "")
	require.ErrorIs(t, err, copyErr)

	st := o.Snapshot()
	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, "Failed to parse ad copy: unexpected end of JSON input", st.Error)
	assert.Nil(t, st.Result)
	assert.Nil(t, st.Copy)
	assert.Zero(t, img.calls)
	assert.NotContains(t, rec.all(), StatusGeneratingImage)
}

func TestFailedCycleKeepsLastResult(t *testing.T) {
	cp := &stubCopy{out: testCopy}
	img := &stubImage{out: testImage}
	o := New(Options{Copy: cp, Image: img})

	require.NoError(t, o.Generate(context.Background(), "first", ""))
	first := o.Snapshot().Last
	require.NotNil(t, first)

	img.err = &ad.GenerationError{Stage: ad.StageImage, Msg: "No image data returned from Gemini."}
	require.Error(t, o.Generate(context.Background(), "second", ""))

	st := o.Snapshot()
	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, "No image data returned from Gemini.", st.Error)
	assert.Nil(t, st.Result)
	assert.Nil(t, st.Copy)
	assert.Same(t, first, st.Last)
	assert.Equal(t, "second", st.Description)
}

func TestRegenerateReplacesResult(t *testing.T) {
	cp := &stubCopy{out: testCopy}
	img := &stubImage{out: testImage}
	o := New(Options{Copy: cp, Image: img})

	require.NoError(t, o.Generate(context.Background(), "first", ""))
	first := o.Snapshot().Result

	img.out = ad.Image{Base64: "bmV3"}
	require.NoError(t, o.Generate(context.Background(), "first", ""))

	st := o.Snapshot()
	assert.Equal(t, 2, cp.Calls(), "identical inputs are not cached")
	assert.NotSame(t, first, st.Result)
	assert.Equal(t, "bmV3", st.Result.Image.Base64)
}

func TestStartRejectsConcurrentCycle(t *testing.T) {
	gate := make(chan struct{})
	cp := &stubCopy{out: testCopy, gate: gate}
	o := New(Options{Copy: cp, Image: &stubImage{out: testImage}})

	started, err := o.Start(context.Background(), "desc", "")
	require.NoError(t, err)
	require.True(t, started)

	before := o.Snapshot()
	assert.Equal(t, StatusGeneratingCopy, before.Status)

	started, err = o.Start(context.Background(), "other", "")
	require.ErrorIs(t, err, ErrBusy)
	assert.False(t, started)
	require.ErrorIs(t, o.Generate(context.Background(), "other", ""), ErrBusy)

	after := o.Snapshot()
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, "desc", after.Description)

	close(gate)
	require.Eventually(t, func() bool {
		return o.Snapshot().Status == StatusCompleted
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, cp.Calls())

	started, err = o.Start(context.Background(), "again", "")
	require.NoError(t, err)
	assert.True(t, started)
	require.Eventually(t, func() bool {
		return o.Snapshot().Status.IsFinished()
	}, 2*time.Second, 5*time.Millisecond)
}

func TestBusyDuringImageStage(t *testing.T) {
	gate := make(chan struct{})
	cp := &stubCopy{out: testCopy}
	o := New(Options{Copy: cp, Image: &stubImage{out: testImage, gate: gate}})

	started, err := o.Start(context.Background(), "desc", "pureearth.com")
	require.NoError(t, err)
	require.True(t, started)

	require.Eventually(t, func() bool {
		return o.Snapshot().Status == StatusGeneratingImage
	}, 2*time.Second, 5*time.Millisecond)
	before := o.Snapshot()

	started, err = o.Start(context.Background(), "other", "")
	require.ErrorIs(t, err, ErrBusy)
	assert.False(t, started)
	require.ErrorIs(t, o.Generate(context.Background(), "other", ""), ErrBusy)

	after := o.Snapshot()
	assert.Equal(t, StatusGeneratingImage, after.Status)
	assert.Equal(t, "desc", after.Description)
	assert.Equal(t, "pureearth.com", after.URL)
	assert.Equal(t, before.Copy, after.Copy)
	assert.Equal(t, before.StartedAt, after.StartedAt)
	assert.Equal(t, 1, cp.Calls())

	close(gate)
	require.Eventually(t, func() bool {
		return o.Snapshot().Status == StatusCompleted
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "desc", o.Snapshot().Description)
}

func TestCallbacksFollowTransitionOrder(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	rec := &recorder{}

	o := New(Options{
		Copy:  &stubCopy{out: testCopy},
		Image: &stubImage{out: testImage},
		OnChange: func(st State) {
			if st.Status == StatusCompleted {
				// hold the first terminal callback, like a slow photo upload
				once.Do(func() { <-release })
			}
			rec.record(st)
		},
	})

	first := make(chan error, 1)
	go func() { first <- o.Generate(context.Background(), "first", "") }()

	require.Eventually(t, func() bool {
		return o.Snapshot().Status == StatusCompleted
	}, 2*time.Second, 5*time.Millisecond)

	second := make(chan error, 1)
	go func() { second <- o.Generate(context.Background(), "second", "") }()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []Status{StatusGeneratingCopy, StatusGeneratingImage}, rec.all())

	close(release)
	require.NoError(t, <-first)
	require.NoError(t, <-second)

	assert.Equal(t, []Status{
		StatusGeneratingCopy, StatusGeneratingImage, StatusCompleted,
		StatusGeneratingCopy, StatusGeneratingImage, StatusCompleted,
	}, rec.all())
}

func TestCallbackMayReadSnapshot(t *testing.T) {
	var o *Orchestrator
	var seen []Status
	o = New(Options{
		Copy:  &stubCopy{out: testCopy},
		Image: &stubImage{out: testImage},
		OnChange: func(State) {
			seen = append(seen, o.Snapshot().Status)
		},
	})

	require.NoError(t, o.Generate(context.Background(), "desc", ""))
	assert.Equal(t, []Status{StatusGeneratingCopy, StatusGeneratingImage, StatusCompleted}, seen)
}

func TestGenerateWithoutGenerators(t *testing.T) {
	o := New(Options{Copy: &stubCopy{out: testCopy}})

	err := o.Generate(context.Background(), "desc", "")
	require.ErrorIs(t, err, errNoGenerators)

	started, err := o.Start(context.Background(), "desc", "")
	require.ErrorIs(t, err, errNoGenerators)
	assert.False(t, started)
	assert.Equal(t, StatusIdle, o.Snapshot().Status)
}

func TestStartIgnoresCallerCancellation(t *testing.T) {
	gate := make(chan struct{})
	o := New(Options{Copy: &stubCopy{out: testCopy, gate: gate}, Image: &stubImage{out: testImage}})

	ctx, cancel := context.WithCancel(context.Background())
	started, err := o.Start(ctx, "desc", "")
	require.NoError(t, err)
	require.True(t, started)

	cancel()
	close(gate)

	require.Eventually(t, func() bool {
		return o.Snapshot().Status == StatusCompleted
	}, 2*time.Second, 5*time.Millisecond)
}

func TestErrorMessage(t *testing.T) {
	assert.Empty(t, ErrorMessage(nil))
	assert.Equal(t, "No image data returned from Gemini.",
		ErrorMessage(&ad.GenerationError{Stage: ad.StageImage, Msg: "No image data returned from Gemini."}))
	assert.Equal(t, "The request timed out. Please try again.", ErrorMessage(context.DeadlineExceeded))
	assert.Equal(t, "gemini API 500", ErrorMessage(errors.New("gemini API 500")))
	assert.Equal(t, unexpectedErrorMessage, ErrorMessage(errors.New("  ")))
}

func TestStatusPredicates(t *testing.T) {
	tests := []struct {
		status   Status
		active   bool
		finished bool
	}{
		{StatusIdle, false, false},
		{StatusGeneratingCopy, true, false},
		{StatusGeneratingImage, true, false},
		{StatusCompleted, false, true},
		{StatusError, false, true},
	}

	for _, test := range tests {
		assert.Equal(t, test.active, test.status.IsActive(), "IsActive(%s)", test.status)
		assert.Equal(t, test.finished, test.status.IsFinished(), "IsFinished(%s)", test.status)
		assert.NotEmpty(t, test.status.Label())
	}
}
