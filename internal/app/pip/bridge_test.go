package pip_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dkeye/pipcast/internal/app/pip"
	"github.com/dkeye/pipcast/internal/app/pip/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newBridge(t *testing.T, autoEnter bool) (*pip.Bridge, *mock.MockSession, *mock.MockStateStore, *func(uint64)) {
	ctrl := gomock.NewController(t)
	session := mock.NewMockSession(ctrl)
	store := mock.NewMockStateStore(ctrl)

	var hook func(uint64)
	session.EXPECT().OnPlatformExit(gomock.Any()).Do(func(fn func(uint64)) { hook = fn })
	return pip.NewBridge(session, store, autoEnter), session, store, &hook
}

func TestBridgeToggleEnters(t *testing.T) {
	b, session, store, _ := newBridge(t, true)
	ctx := context.Background()

	gomock.InOrder(
		store.EXPECT().InPip().Return(false),
		session.EXPECT().Supported().Return(true),
		session.EXPECT().Start(ctx).Return(nil),
		store.EXPECT().Dispatch(pip.ActionEntered),
	)
	require.NoError(t, b.Toggle(ctx))
}

func TestBridgeToggleExits(t *testing.T) {
	b, session, store, _ := newBridge(t, true)
	ctx := context.Background()

	gomock.InOrder(
		store.EXPECT().InPip().Return(true),
		session.EXPECT().Stop(ctx).Return(nil),
		store.EXPECT().Dispatch(pip.ActionExited),
	)
	require.NoError(t, b.Toggle(ctx))
}

func TestBridgeToggleUnsupported(t *testing.T) {
	b, session, store, _ := newBridge(t, true)

	store.EXPECT().InPip().Return(false)
	session.EXPECT().Supported().Return(false)
	require.NoError(t, b.Toggle(context.Background()))
}

func TestBridgeStartFailureKeepsIdle(t *testing.T) {
	b, session, store, _ := newBridge(t, true)
	boom := errors.New("capture failed")

	store.EXPECT().InPip().Return(false)
	session.EXPECT().Supported().Return(true)
	session.EXPECT().Start(gomock.Any()).Return(boom)
	assert.ErrorIs(t, b.Toggle(context.Background()), boom)
}

func TestBridgeVisibilityOnlyEnters(t *testing.T) {
	b, session, store, _ := newBridge(t, true)
	ctx := context.Background()

	require.NoError(t, b.VisibilityChanged(ctx, false))

	store.EXPECT().InPip().Return(true)
	require.NoError(t, b.VisibilityChanged(ctx, true))

	gomock.InOrder(
		store.EXPECT().InPip().Return(false).Times(2),
		session.EXPECT().Supported().Return(true),
		session.EXPECT().Start(ctx).Return(nil),
		store.EXPECT().Dispatch(pip.ActionEntered),
	)
	require.NoError(t, b.VisibilityChanged(ctx, true))
}

func TestBridgeVisibilityDisabled(t *testing.T) {
	b, _, _, _ := newBridge(t, false)
	require.NoError(t, b.VisibilityChanged(context.Background(), true))
}

func TestBridgePlatformExited(t *testing.T) {
	_, session, store, hook := newBridge(t, true)
	require.NotNil(t, *hook)

	gomock.InOrder(
		store.EXPECT().InPip().Return(true),
		session.EXPECT().Current().Return(uint64(3)),
		session.EXPECT().Stop(gomock.Any()).Return(nil),
		store.EXPECT().Dispatch(pip.ActionExited),
	)
	(*hook)(3)

	store.EXPECT().InPip().Return(false)
	(*hook)(3)
}

func TestBridgePlatformExitedIgnoresEndedSession(t *testing.T) {
	_, session, store, hook := newBridge(t, true)

	gomock.InOrder(
		store.EXPECT().InPip().Return(true),
		session.EXPECT().Current().Return(uint64(4)),
	)
	session.EXPECT().Stop(gomock.Any()).Times(0)
	store.EXPECT().Dispatch(gomock.Any()).Times(0)
	(*hook)(3)
}

func TestBridgeStatus(t *testing.T) {
	b, session, store, _ := newBridge(t, true)

	store.EXPECT().InPip().Return(true)
	session.EXPECT().Supported().Return(true)
	session.EXPECT().Running().Return(true)
	assert.Equal(t, pip.Status{InPip: true, Supported: true, Running: true}, b.Status())
}
