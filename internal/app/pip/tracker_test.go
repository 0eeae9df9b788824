package pip

import (
	"errors"
	"math"
	"testing"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerScalesAndClampsLevel(t *testing.T) {
	src := newSource("a", &journal{})
	p := participant("a", "Ada")
	snap := snapshotWith(&p, audioTrack("a", src))

	tr := NewTracker(fakeCatalog{}, nil)
	require.True(t, tr.Bind(snap, p.ID))

	src.emit(0.5)
	assert.InDelta(t, 0.6, tr.Level(), 1e-9)

	src.emit(0.9)
	assert.Equal(t, 1.0, tr.Level())

	src.emit(math.NaN())
	assert.Equal(t, 1.0, tr.Level())

	src.emit(-0.3)
	assert.Equal(t, 0.0, tr.Level())
}

func TestTrackerWithoutAudioTrack(t *testing.T) {
	p := participant("a", "Ada")
	snap := snapshotWith(&p, videoTrack("a"))

	tr := NewTracker(fakeCatalog{}, nil)
	assert.False(t, tr.Bind(snap, p.ID))
	assert.Zero(t, tr.Level())
	_, bound := tr.Binding()
	assert.False(t, bound)
}

func TestTrackerWithoutLevelEvent(t *testing.T) {
	src := newSource("a", &journal{})
	p := participant("a", "Ada")
	snap := snapshotWith(&p, audioTrack("a", src))

	tr := NewTracker(fakeCatalog{missing: true}, nil)
	assert.False(t, tr.Bind(snap, p.ID))
	assert.Zero(t, src.attached())
}

func TestTrackerUnbindReleasesSameListener(t *testing.T) {
	src := newSource("a", &journal{})
	p := participant("a", "Ada")
	snap := snapshotWith(&p, audioTrack("a", src))

	tr := NewTracker(fakeCatalog{}, nil)
	require.True(t, tr.Bind(snap, p.ID))
	b, ok := tr.Binding()
	require.True(t, ok)
	src.emit(0.5)

	tr.Unbind()

	require.Len(t, src.on, 1)
	require.Len(t, src.off, 1)
	assert.Same(t, src.on[0], src.off[0])
	assert.Same(t, b.Listener, src.off[0])
	assert.Zero(t, src.attached())
	assert.Zero(t, tr.Level())

	tr.Unbind()
	assert.Len(t, src.off, 1, "second unbind is a no-op")
}

func TestTrackerUnbindResetsWhenReleaseFails(t *testing.T) {
	src := newSource("a", &journal{})
	src.keep = true
	src.offErr = errors.New("track disposed")
	p := participant("a", "Ada")
	snap := snapshotWith(&p, audioTrack("a", src))

	tr := NewTracker(fakeCatalog{}, nil)
	require.True(t, tr.Bind(snap, p.ID))
	src.emit(0.4)
	require.NotZero(t, tr.Level())

	tr.Unbind()
	_, bound := tr.Binding()
	assert.False(t, bound)
	assert.Zero(t, tr.Level())

	// the listener could not be detached but must no longer move the level
	src.emit(0.8)
	assert.Zero(t, tr.Level())
}

func TestTrackerDetachedListenerRacingUnbind(t *testing.T) {
	tr := NewTracker(fakeCatalog{}, nil)
	p := participant("a", "Ada")

	for i := 0; i < 200; i++ {
		src := newSource("a", &journal{})
		src.keep = true
		src.offErr = errors.New("track disposed")
		require.True(t, tr.Bind(snapshotWith(&p, audioTrack("a", src)), p.ID))

		stop := make(chan struct{})
		var wg conc.WaitGroup
		wg.Go(func() {
			for {
				select {
				case <-stop:
					return
				default:
					src.emit(0.9)
				}
			}
		})

		tr.Unbind()
		for j := 0; j < 50; j++ {
			require.Zero(t, tr.Level(), "iteration %d", i)
		}
		close(stop)
		wg.Wait()
		require.Zero(t, tr.Level(), "iteration %d", i)
	}
}
