package domain

type TrackID string

// MediaKind mirrors the webrtc codec type names used on the wire.
type MediaKind string

const (
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
)
