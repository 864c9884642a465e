package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
	"github.com/custodia-labs/camdeck/internal/core/ports/driving"
)

// --- Playback surfaces ---

// fakeSurface records what the sequencer asks of it. Tests emit events
// explicitly through Opened, Ended and Failed.
type fakeSurface struct {
	camera   string
	events   driven.SurfaceEvents
	dispatch func(func())

	mu      sync.Mutex
	loaded  string
	playing string
	visible bool
	opens   []string
	plays   int
	stops   int
}

func (s *fakeSurface) Open(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = path
	s.playing = ""
	s.opens = append(s.opens, path)
}

func (s *fakeSurface) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = s.loaded
	s.plays++
}

func (s *fakeSurface) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = ""
	s.playing = ""
	s.stops++
}

func (s *fakeSurface) SetVisible(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = v
}

func (s *fakeSurface) Loaded() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *fakeSurface) Playing() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *fakeSurface) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

func (s *fakeSurface) Opens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.opens...)
}

func (s *fakeSurface) emitOpened() {
	path := s.Loaded()
	s.dispatch(func() { s.events.Opened(path) })
}

func (s *fakeSurface) emitEnded() {
	path := s.Playing()
	s.dispatch(func() { s.events.Ended(path) })
}

func (s *fakeSurface) emitFailed(err error) {
	path := s.Loaded()
	s.dispatch(func() { s.events.Failed(path, err) })
}

// fakeSurfaceFactory hands out fakeSurfaces and remembers them per camera.
type fakeSurfaceFactory struct {
	mu       sync.Mutex
	surfaces map[string][]*fakeSurface
}

func newFakeSurfaceFactory() *fakeSurfaceFactory {
	return &fakeSurfaceFactory{surfaces: make(map[string][]*fakeSurface)}
}

func (f *fakeSurfaceFactory) NewSurface(camera string, events driven.SurfaceEvents, dispatch func(func())) driven.Surface {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &fakeSurface{camera: camera, events: events, dispatch: dispatch}
	f.surfaces[camera] = append(f.surfaces[camera], s)
	return s
}

// loaded returns camera's surface holding path, or nil.
func (f *fakeSurfaceFactory) loaded(camera, path string) *fakeSurface {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.surfaces[camera] {
		if s.Loaded() == path {
			return s
		}
	}
	return nil
}

// playing returns camera's surface currently playing, or nil.
func (f *fakeSurfaceFactory) playing(camera string) *fakeSurface {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.surfaces[camera] {
		if s.Playing() != "" {
			return s
		}
	}
	return nil
}

func (f *fakeSurfaceFactory) all(camera string) []*fakeSurface {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeSurface(nil), f.surfaces[camera]...)
}

// syncDispatch runs events immediately, standing in for the playback loop.
func syncDispatch(f func()) { f() }

// --- Clock ---

type manualTimer struct {
	clock   *manualClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// manualClock only moves when Advance is called.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) driven.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and fires due timers in order.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

func (c *manualClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// --- Renderer ---

// fakeRenderProcess writes its output file when told to.
type fakeRenderProcess struct {
	output  string
	temp    bool
	done    chan struct{}
	waitErr error

	mu      sync.Mutex
	stops   int
	exited  bool
	removed bool
}

func (p *fakeRenderProcess) Output() string        { return p.output }
func (p *fakeRenderProcess) Done() <-chan struct{} { return p.done }

func (p *fakeRenderProcess) Wait() error {
	<-p.done
	return p.waitErr
}

func (p *fakeRenderProcess) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
	if !p.exited {
		p.exited = true
		close(p.done)
	}
	if p.temp && !p.removed {
		p.removed = true
		_ = os.Remove(p.output)
	}
	return nil
}

func (p *fakeRenderProcess) exit(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waitErr = err
	if !p.exited {
		p.exited = true
		close(p.done)
	}
}

func (p *fakeRenderProcess) Stops() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stops
}

// fakeRenderer starts fakeRenderProcesses and lets each test script them.
type fakeRenderer struct {
	dir      string
	startErr error
	script   func(p *fakeRenderProcess)

	mu    sync.Mutex
	jobs  []domain.RenderJob
	procs []*fakeRenderProcess
}

func (r *fakeRenderer) Start(_ context.Context, job domain.RenderJob) (driven.RenderProcess, error) {
	if r.startErr != nil {
		return nil, r.startErr
	}
	p := &fakeRenderProcess{output: job.Output, done: make(chan struct{})}
	if p.output == "" {
		p.output = filepath.Join(r.dir, "render.ts")
		p.temp = true
	}

	r.mu.Lock()
	r.jobs = append(r.jobs, job)
	r.procs = append(r.procs, p)
	r.mu.Unlock()

	if r.script != nil {
		go r.script(p)
	}
	return p, nil
}

func (r *fakeRenderer) lastJob() domain.RenderJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[len(r.jobs)-1]
}

func (r *fakeRenderer) lastProc() *fakeRenderProcess {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.procs[len(r.procs)-1]
}

// --- Prober, encoder, locator, watcher ---

type fakeProber struct {
	durations map[string]time.Duration
}

func (p *fakeProber) Duration(_ context.Context, path string) (time.Duration, error) {
	d, ok := p.durations[path]
	if !ok {
		return 0, errors.New("probe failed")
	}
	return d, nil
}

// fakeEncoder keeps the entries it was asked to encode.
type fakeEncoder struct {
	entries []driven.PlaylistEntry
}

func (e *fakeEncoder) Encode(entries []driven.PlaylistEntry) ([]byte, error) {
	e.entries = entries
	return []byte("#EXTM3U"), nil
}

func (e *fakeEncoder) ContentType() string { return "application/vnd.apple.mpegurl" }

type fakeLocator struct {
	roots []string
	err   error
}

func (l *fakeLocator) Locate(context.Context) ([]string, error) {
	return l.roots, l.err
}

type fakeWatcher struct {
	events  chan driven.WatchEvent
	roots   []string
	closed  bool
	watchMu sync.Mutex
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{events: make(chan driven.WatchEvent, 4)}
}

func (w *fakeWatcher) Watch(_ context.Context, roots []string) (<-chan driven.WatchEvent, error) {
	w.watchMu.Lock()
	defer w.watchMu.Unlock()
	w.roots = roots
	return w.events, nil
}

func (w *fakeWatcher) Close() error {
	w.watchMu.Lock()
	defer w.watchMu.Unlock()
	w.closed = true
	return nil
}

// --- Catalogue, history, telemetry ---

type fakeCatalogue struct {
	mu    sync.Mutex
	saved *domain.StorageIndex
}

func (c *fakeCatalogue) SaveIndex(_ context.Context, idx *domain.StorageIndex) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saved = idx
	return nil
}

func (c *fakeCatalogue) LoadIndex(context.Context) (*domain.StorageIndex, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saved == nil {
		return domain.EmptyIndex(), nil
	}
	return c.saved, nil
}

type fakeHistory struct {
	mu   sync.Mutex
	runs []domain.ScanRun
}

func (h *fakeHistory) RecordScan(_ context.Context, run domain.ScanRun) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs = append([]domain.ScanRun{run}, h.runs...)
	return nil
}

func (h *fakeHistory) ListScans(_ context.Context, limit int) ([]domain.ScanRun, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit > 0 && limit < len(h.runs) {
		return h.runs[:limit], nil
	}
	return h.runs, nil
}

type fakeTelemetry struct {
	mu          sync.Mutex
	scans       int
	advances    int
	preloaded   int
	failures    int
	renderFails int
}

func (t *fakeTelemetry) ScanCompleted(int, int, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scans++
}

func (t *fakeTelemetry) SegmentAdvanced(_ string, preloaded bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.advances++
	if preloaded {
		t.preloaded++
	}
}

func (t *fakeTelemetry) PlaybackFailed(string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures++
}

func (t *fakeTelemetry) RenderFailed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.renderFails++
}

// staticIndex serves a fixed StorageIndex.
type staticIndex struct {
	driving.IndexService
	idx *domain.StorageIndex
}

func (s *staticIndex) Current() *domain.StorageIndex { return s.idx }

// makeClip builds an in-memory clip. Each chunk lists its cameras.
func makeClip(id string, chunks ...[]string) domain.Clip {
	clip := domain.Clip{ID: id, Dir: "/clips/" + id, Name: id}
	for i, cams := range chunks {
		ts := chunk1Time.Add(time.Duration(i) * time.Minute)
		ch := domain.Chunk{Timestamp: ts, Segments: make(map[string]domain.Segment)}
		for _, cam := range cams {
			ch.Segments[cam] = domain.Segment{
				Path:      segPath(id, i, cam),
				Timestamp: ts,
				Camera:    cam,
				Ext:       "mp4",
			}
		}
		clip.Chunks = append(clip.Chunks, ch)
	}
	return clip
}

func segPath(clipID string, chunk int, camera string) string {
	ts := chunk1Time.Add(time.Duration(chunk) * time.Minute)
	return "/clips/" + clipID + "/" + domain.FormatSegmentName(ts, camera, "mp4")
}
