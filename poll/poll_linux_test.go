//go:build linux

package poll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/cofepy/reactor"
	"github.com/cofepy/reactor/common"
)

func newPipe(t *testing.T) (r, w int) {
	t.Helper()
	var fds [2]int
	require.NoError(t, unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC))
	t.Cleanup(func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestPollReadReady(t *testing.T) {
	p, err := NewPoll()
	require.NoError(t, err)
	h, err := p.Create()
	require.NoError(t, err)
	defer p.Release(h)

	r, w := newPipe(t)
	require.NoError(t, p.Watch(h, r))

	events := make([]common.Event, 4)
	n, err := p.Wait(h, events, 0)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = unix.Write(w, []byte("ping"))
	require.NoError(t, err)

	n, err = p.Wait(h, events, 1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, int32(r), events[0].Fd)
	assert.True(t, events[0].Events.Has(common.EventRead))

	require.NoError(t, p.Unwatch(h, r))
	n, err = p.Wait(h, events, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPollHangup(t *testing.T) {
	p, err := NewPoll()
	require.NoError(t, err)
	h, err := p.Create()
	require.NoError(t, err)
	defer p.Release(h)

	var fds [2]int
	require.NoError(t, unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC))
	defer unix.Close(fds[0])
	require.NoError(t, p.Watch(h, fds[0]))
	require.NoError(t, unix.Close(fds[1]))

	events := make([]common.Event, 1)
	n, err := p.Wait(h, events, 1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.True(t, events[0].Events.Has(common.EventHangup))
}

func TestPollErrors(t *testing.T) {
	p, err := NewPoll()
	require.NoError(t, err)
	h, err := p.Create()
	require.NoError(t, err)

	r, _ := newPipe(t)
	require.NoError(t, p.Watch(h, r))
	assert.ErrorIs(t, p.Watch(h, r), unix.EEXIST)
	require.NoError(t, p.Unwatch(h, r))
	assert.ErrorIs(t, p.Unwatch(h, r), unix.ENOENT)

	require.NoError(t, p.Release(h))
	_, err = p.Wait(h, make([]common.Event, 1), 0)
	assert.Error(t, err)
}

func TestReactorOverEpoll(t *testing.T) {
	p, err := NewPoll()
	require.NoError(t, err)
	re, err := reactor.New(p, reactor.WithWaitTimeout(10*time.Millisecond))
	require.NoError(t, err)
	defer re.Close()

	r, w := newPipe(t)
	var got []byte
	h := reactor.NewHandler(r, nil, func(h *reactor.FuncHandler, events common.Events) {
		buf := make([]byte, 16)
		n, _ := unix.Read(h.Fd(), buf)
		got = append(got, buf[:n]...)
		re.Stop()
	})
	require.NoError(t, re.Register(h))

	_, err = unix.Write(w, []byte("hello"))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- re.Run() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		re.Stop()
		t.Fatal("event loop did not stop")
	}
	assert.Equal(t, "hello", string(got))
}
