package pip

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/dkeye/pipcast/internal/core"
	"github.com/dkeye/pipcast/internal/domain"
)

type fakeTrack struct {
	id      string
	stopped atomic.Bool
}

func (t *fakeTrack) ID() string             { return t.id }
func (t *fakeTrack) Kind() domain.MediaKind { return domain.MediaVideo }
func (t *fakeTrack) Stop()                  { t.stopped.Store(true) }

type fakeStream struct {
	id     string
	tracks []core.MediaTrack
}

func (s *fakeStream) ID() string                { return s.id }
func (s *fakeStream) Tracks() []core.MediaTrack { return s.tracks }

type fakeElement struct {
	mu      sync.Mutex
	src     core.MediaStream
	muted   bool
	plays   int
	playErr error
}

func (e *fakeElement) SetSource(s core.MediaStream) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.src = s
}

func (e *fakeElement) Source() core.MediaStream {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src
}

func (e *fakeElement) SetMuted(m bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.muted = m
}

func (e *fakeElement) Play(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.plays++
	return e.playErr
}

// fakeBase is the mandatory part of a platform; variants embed it.
type fakeBase struct {
	mu         sync.Mutex
	element    *fakeElement
	created    int
	captures   int
	captureErr error
	requests   int
	exits      int
	exitErr    error
	tracks     []*fakeTrack
	listeners  map[core.PlatformEvent][]core.EventListener
	adds       int
	hidden     bool
}

func (p *fakeBase) CreatePlaybackElement() core.PlaybackElement {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created++
	p.element = &fakeElement{}
	return p.element
}

func (p *fakeBase) CaptureStream(src core.Surface, fps int) (core.MediaStream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.captures++
	if p.captureErr != nil {
		return nil, p.captureErr
	}
	t := &fakeTrack{id: fmt.Sprintf("canvas-%d", p.captures)}
	p.tracks = append(p.tracks, t)
	return &fakeStream{id: t.id, tracks: []core.MediaTrack{t}}, nil
}

func (p *fakeBase) AddEventListener(ev core.PlatformEvent, l core.EventListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listeners == nil {
		p.listeners = map[core.PlatformEvent][]core.EventListener{}
	}
	p.adds++
	p.listeners[ev] = append(p.listeners[ev], l)
}

func (p *fakeBase) RemoveEventListener(ev core.PlatformEvent, l core.EventListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ls := p.listeners[ev]
	for i, cur := range ls {
		if cur == l {
			p.listeners[ev] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

func (p *fakeBase) Hidden() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hidden
}

func (p *fakeBase) setHidden(h bool) {
	p.mu.Lock()
	p.hidden = h
	p.mu.Unlock()
}

func (p *fakeBase) fire(ev core.PlatformEvent) {
	p.mu.Lock()
	ls := append([]core.EventListener(nil), p.listeners[ev]...)
	p.mu.Unlock()
	for _, l := range ls {
		l.HandleEvent(ev)
	}
}

func (p *fakeBase) listenerCount(ev core.PlatformEvent) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners[ev])
}

// calls counts every side-effecting platform call.
func (p *fakeBase) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created + p.captures + p.requests + p.exits + p.adds
}

func (p *fakeBase) counts() (captures, requests, exits int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.captures, p.requests, p.exits
}

func (p *fakeBase) allTracks() []*fakeTrack {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*fakeTrack(nil), p.tracks...)
}

type stdPlatform struct {
	*fakeBase
	enabled   bool
	presented core.PlaybackElement
}

func newStdPlatform(enabled bool) *stdPlatform {
	return &stdPlatform{fakeBase: &fakeBase{}, enabled: enabled}
}

func (p *stdPlatform) PictureInPictureEnabled() bool { return p.enabled }

func (p *stdPlatform) RequestPictureInPicture(_ context.Context, el core.PlaybackElement) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests++
	p.presented = el
	return nil
}

func (p *stdPlatform) ExitPictureInPicture(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exits++
	p.presented = nil
	return p.exitErr
}

func (p *stdPlatform) PictureInPictureElement() core.PlaybackElement {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.presented
}

type vendorPlatform struct {
	*fakeBase
	modes map[core.PlaybackElement]core.PresentationMode
}

func newVendorPlatform() *vendorPlatform {
	return &vendorPlatform{fakeBase: &fakeBase{}, modes: map[core.PlaybackElement]core.PresentationMode{}}
}

func (p *vendorPlatform) SupportsPresentationMode() bool { return true }

func (p *vendorPlatform) SetPresentationMode(el core.PlaybackElement, mode core.PresentationMode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if mode == core.PresentationPictureInPicture {
		p.requests++
	} else {
		p.exits++
	}
	p.modes[el] = mode
	return nil
}

func (p *vendorPlatform) PresentationMode(el core.PlaybackElement) core.PresentationMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.modes[el]; ok {
		return m
	}
	return core.PresentationInline
}

type fakeState struct {
	mu    sync.Mutex
	snap  core.Snapshot
	reads atomic.Int64
	panic bool
}

func (s *fakeState) Snapshot() core.Snapshot {
	s.reads.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panic {
		panic("state unavailable")
	}
	return s.snap
}

func (s *fakeState) set(snap core.Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

// journal records subscription calls across sources in order.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(e string) {
	j.mu.Lock()
	j.entries = append(j.entries, e)
	j.mu.Unlock()
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type recordingSource struct {
	name    string
	journal *journal
	// keep ignores Off, so listeners stay attached.
	keep   bool
	offErr error

	mu        sync.Mutex
	listeners []core.LevelListener
	on, off   []core.LevelListener
}

func newSource(name string, j *journal) *recordingSource {
	return &recordingSource{name: name, journal: j}
}

func (s *recordingSource) On(_ core.TrackEvent, l core.LevelListener) {
	s.journal.add(s.name + ":on")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.on = append(s.on, l)
	s.listeners = append(s.listeners, l)
}

func (s *recordingSource) Off(_ core.TrackEvent, l core.LevelListener) error {
	s.journal.add(s.name + ":off")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.off = append(s.off, l)
	if s.keep {
		return s.offErr
	}
	for i, cur := range s.listeners {
		if cur == l {
			s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
			break
		}
	}
	return s.offErr
}

func (s *recordingSource) emit(level float64) {
	s.mu.Lock()
	ls := append([]core.LevelListener(nil), s.listeners...)
	s.mu.Unlock()
	for _, l := range ls {
		l.OnLevel(level)
	}
}

func (s *recordingSource) attached() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

type fakeCatalog struct{ missing bool }

func (c fakeCatalog) AudioLevelEvent() (core.TrackEvent, bool) {
	if c.missing {
		return "", false
	}
	return core.TrackAudioLevelChanged, true
}

type fakeStageVideo struct {
	ready core.ReadyState
	frame image.Image
}

func (v *fakeStageVideo) ReadyState() core.ReadyState { return v.ready }
func (v *fakeStageVideo) Frame() image.Image          { return v.frame }

type fakeStage map[domain.UserID]*fakeStageVideo

func (s fakeStage) LookupStage(id domain.UserID) (core.StageVideo, bool) {
	v, ok := s[id]
	if !ok {
		return nil, false
	}
	return v, true
}

func participant(id, name string) domain.Participant {
	return domain.Participant{ID: domain.UserID(id), Name: name}
}

func audioTrack(owner string, src core.TrackEventSource) core.Track {
	return core.Track{
		ID:          domain.TrackID(owner + "-audio"),
		Participant: domain.UserID(owner),
		Kind:        domain.MediaAudio,
		Events:      src,
	}
}

func videoTrack(owner string) core.Track {
	return core.Track{
		ID:          domain.TrackID(owner + "-video"),
		Participant: domain.UserID(owner),
		Kind:        domain.MediaVideo,
	}
}

func snapshotWith(onStage *domain.Participant, tracks ...core.Track) core.Snapshot {
	snap := core.Snapshot{OnStage: onStage, Tracks: tracks}
	if onStage != nil {
		snap.Participants = []domain.Participant{*onStage}
	}
	return snap
}
