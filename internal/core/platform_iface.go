package core

import (
	"context"
	"image"

	"github.com/dkeye/pipcast/internal/domain"
)

type PlatformEvent string

const (
	EventLeavePictureInPicture PlatformEvent = "leavepictureinpicture"
	EventVisibilityChange      PlatformEvent = "visibilitychange"
)

// EventListener must be comparable; RemoveEventListener matches by identity.
type EventListener interface {
	HandleEvent(PlatformEvent)
}

// Surface is a raster that can be sampled into a capture stream.
type Surface interface {
	Bounds() image.Rectangle
	// Snapshot returns a copy of the current pixels.
	Snapshot() image.Image
}

type MediaTrack interface {
	ID() string
	Kind() domain.MediaKind
	Stop()
}

type MediaStream interface {
	ID() string
	Tracks() []MediaTrack
}

// PlaybackElement plays a media stream; it is what gets presented in the
// floating window.
type PlaybackElement interface {
	SetSource(MediaStream)
	Source() MediaStream
	SetMuted(bool)
	Play(ctx context.Context) error
}

// Platform is the set of host capabilities every backend provides.
// Floating window presentation comes through one of the optional
// PictureInPictureAPI or PresentationModeAPI interfaces.
type Platform interface {
	CreatePlaybackElement() PlaybackElement
	CaptureStream(src Surface, fps int) (MediaStream, error)
	AddEventListener(PlatformEvent, EventListener)
	RemoveEventListener(PlatformEvent, EventListener)
	Hidden() bool
}

// PictureInPictureAPI is the standard floating window API.
type PictureInPictureAPI interface {
	PictureInPictureEnabled() bool
	RequestPictureInPicture(ctx context.Context, el PlaybackElement) error
	ExitPictureInPicture(ctx context.Context) error
	// PictureInPictureElement returns nil when nothing is presented.
	PictureInPictureElement() PlaybackElement
}

type PresentationMode string

const (
	PresentationInline           PresentationMode = "inline"
	PresentationPictureInPicture PresentationMode = "picture-in-picture"
)

// PresentationModeAPI is the vendor flavoured variant.
type PresentationModeAPI interface {
	SupportsPresentationMode() bool
	SetPresentationMode(el PlaybackElement, mode PresentationMode) error
	PresentationMode(el PlaybackElement) PresentationMode
}

type ReadyState int

const (
	HaveNothing ReadyState = iota
	HaveMetadata
	HaveCurrentData
	HaveFutureData
	HaveEnoughData
)

// StageVideo is the element currently rendering a participant on stage.
type StageVideo interface {
	ReadyState() ReadyState
	Frame() image.Image
}

type StageLocator interface {
	LookupStage(id domain.UserID) (StageVideo, bool)
}
