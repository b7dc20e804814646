package reactor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cofepy/reactor/common"
	"github.com/cofepy/reactor/polltest"
)

// movable 句柄可变的处理器，用来验证按身份去重
type movable struct {
	fd int
}

func (m *movable) Fd() int                          { return m.fd }
func (m *movable) OnReady(fd int, ev common.Events) {}

// sliceHandler 不可比较的处理器类型
type sliceHandler []int

func (s sliceHandler) Fd() int                          { return 1 }
func (s sliceHandler) OnReady(fd int, ev common.Events) {}

func newTestRegistry(t *testing.T) (*registry, *polltest.Fake, common.Handle) {
	t.Helper()
	f := polltest.New()
	h, err := f.Create()
	require.NoError(t, err)
	return newRegistry(f, h), f, h
}

func TestRegistryDistinctDescriptors(t *testing.T) {
	reg, f, h := newTestRegistry(t)
	for fd := 0; fd < 16; fd++ {
		require.NoError(t, reg.register(NewHandler(fd, nil, nil)))
		assert.Equal(t, fd+1, reg.len())
		assert.True(t, f.Watched(h, fd))
	}
}

func TestRegistryDuplicateDescriptor(t *testing.T) {
	reg, f, h := newTestRegistry(t)
	first := NewHandler(5, nil, nil)
	second := NewHandler(5, nil, nil)

	require.NoError(t, reg.register(first))
	err := reg.register(second)
	assert.ErrorIs(t, err, ErrDuplicate)

	assert.Equal(t, 1, reg.len())
	assert.Equal(t, []int{5}, f.Watches())
	assert.True(t, f.Watched(h, 5))
	assert.Same(t, first, reg.lookup(5).handler)
}

func TestRegistryDuplicateIdentity(t *testing.T) {
	reg, f, _ := newTestRegistry(t)
	m := &movable{fd: 3}
	require.NoError(t, reg.register(m))

	m.fd = 4
	assert.ErrorIs(t, reg.register(m), ErrDuplicate)
	assert.Equal(t, 1, reg.len())
	assert.Nil(t, reg.lookup(4))
	assert.Equal(t, []int{3}, f.Watches())
}

func TestRegistryUnregisterUsesRegisteredDescriptor(t *testing.T) {
	reg, f, _ := newTestRegistry(t)
	m := &movable{fd: 3}
	require.NoError(t, reg.register(m))

	m.fd = 4
	require.NoError(t, reg.unregister(m))
	assert.Equal(t, []int{3}, f.Unwatches())
	assert.Equal(t, 0, reg.len())
}

func TestRegistryUnregisterUnknown(t *testing.T) {
	reg, f, _ := newTestRegistry(t)
	require.NoError(t, reg.register(NewHandler(1, nil, nil)))

	assert.ErrorIs(t, reg.unregister(NewHandler(1, nil, nil)), ErrNotFound)
	assert.ErrorIs(t, reg.unregister(nil), ErrNotFound)
	assert.ErrorIs(t, reg.unregister(sliceHandler{}), ErrNotFound)
	assert.Empty(t, f.Unwatches())
	assert.Equal(t, 1, reg.len())
}

func TestRegistryUnregisterTwice(t *testing.T) {
	reg, f, _ := newTestRegistry(t)
	h := NewHandler(2, nil, nil)
	require.NoError(t, reg.register(h))

	require.NoError(t, reg.unregister(h))
	assert.ErrorIs(t, reg.unregister(h), ErrNotFound)
	assert.Equal(t, []int{2}, f.Unwatches())

	// 注销后可以重新注册
	require.NoError(t, reg.register(h))
	assert.Equal(t, 1, reg.len())
}

func TestRegistryWatchFailureLeavesNoEntry(t *testing.T) {
	reg, f, h := newTestRegistry(t)
	boom := errors.New("eperm")
	f.Fail(polltest.OpWatch, boom)

	handler := NewHandler(7, nil, nil)
	err := reg.register(handler)
	assert.ErrorIs(t, err, ErrFacility)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, reg.len())
	assert.Nil(t, reg.lookup(7))

	f.Fail(polltest.OpWatch, nil)
	require.NoError(t, reg.register(handler))
	assert.True(t, f.Watched(h, 7))
}

func TestRegistryUnwatchFailureStillRemoves(t *testing.T) {
	reg, f, _ := newTestRegistry(t)
	h := NewHandler(7, nil, nil)
	require.NoError(t, reg.register(h))

	boom := errors.New("enoent")
	f.Fail(polltest.OpUnwatch, boom)
	err := reg.unregister(h)
	assert.ErrorIs(t, err, ErrFacility)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, reg.len())
	assert.ErrorIs(t, reg.unregister(h), ErrNotFound)
}

func TestRegistryInvalidHandlers(t *testing.T) {
	reg, f, _ := newTestRegistry(t)
	var nilFunc *FuncHandler

	for name, h := range map[string]Handler{
		"nil":            nil,
		"nil pointer":    nilFunc,
		"negative fd":    NewHandler(-1, nil, nil),
		"not comparable": sliceHandler{1},
	} {
		assert.ErrorIs(t, reg.register(h), ErrInvalidHandler, name)
	}
	assert.Empty(t, f.Watches())
	assert.Equal(t, 0, reg.len())
}

func TestRegistryClear(t *testing.T) {
	reg, f, _ := newTestRegistry(t)
	for fd := 0; fd < 5; fd++ {
		require.NoError(t, reg.register(NewHandler(fd, nil, nil)))
	}
	f.Fail(polltest.OpUnwatch, errors.New("eio"))

	var failed []int
	reg.clear(func(fd int, err error) {
		assert.ErrorIs(t, err, ErrFacility)
		failed = append(failed, fd)
	})
	assert.Equal(t, 0, reg.len())
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4}, failed)
	assert.Len(t, f.Unwatches(), 5)
}
