package pip

import (
	"context"

	"github.com/dkeye/pipcast/internal/core"
)

// capabilities is the floating window API of a platform, normalised once.
type capabilities struct {
	variant    string
	supported  func() bool
	request    func(ctx context.Context, el core.PlaybackElement) error
	exit       func(ctx context.Context, el core.PlaybackElement) error
	presenting func(el core.PlaybackElement) bool
}

func resolveCapabilities(p core.Platform) capabilities {
	std, hasStd := p.(core.PictureInPictureAPI)
	vendor, hasVendor := p.(core.PresentationModeAPI)

	supported := func() bool {
		return (hasStd && std.PictureInPictureEnabled()) || (hasVendor && vendor.SupportsPresentationMode())
	}

	switch {
	case hasStd && (std.PictureInPictureEnabled() || !hasVendor):
		return capabilities{
			variant:   "standard",
			supported: supported,
			request:   std.RequestPictureInPicture,
			exit: func(ctx context.Context, _ core.PlaybackElement) error {
				return std.ExitPictureInPicture(ctx)
			},
			presenting: func(core.PlaybackElement) bool {
				return std.PictureInPictureElement() != nil
			},
		}
	case hasVendor:
		return capabilities{
			variant:   "presentation-mode",
			supported: supported,
			request: func(_ context.Context, el core.PlaybackElement) error {
				return vendor.SetPresentationMode(el, core.PresentationPictureInPicture)
			},
			exit: func(_ context.Context, el core.PlaybackElement) error {
				return vendor.SetPresentationMode(el, core.PresentationInline)
			},
			presenting: func(el core.PlaybackElement) bool {
				return vendor.PresentationMode(el) == core.PresentationPictureInPicture
			},
		}
	default:
		return capabilities{
			variant:   "none",
			supported: func() bool { return false },
			request: func(context.Context, core.PlaybackElement) error {
				return ErrUnsupported
			},
			exit:       func(context.Context, core.PlaybackElement) error { return nil },
			presenting: func(core.PlaybackElement) bool { return false },
		}
	}
}
