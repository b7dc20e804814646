package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultOptions(t *testing.T) {
	o := getDefaultOptions()
	assert.Equal(t, DefaultWaitTimeout, o.waitTimeout)
	assert.Equal(t, DefaultMaxEvents, o.maxEvents)
	assert.Equal(t, 250, o.timeoutMs())
	assert.NotNil(t, o.logger)
}

func TestTimeoutRoundsUp(t *testing.T) {
	o := getDefaultOptions(WithWaitTimeout(1500 * time.Microsecond))
	assert.Equal(t, 2, o.timeoutMs())

	o = getDefaultOptions(WithWaitTimeout(time.Nanosecond))
	assert.Equal(t, 1, o.timeoutMs())
}

func TestOptionsRejectInvalid(t *testing.T) {
	assert.Panics(t, func() { getDefaultOptions(WithWaitTimeout(0)) })
	assert.Panics(t, func() { getDefaultOptions(WithMaxEvents(0)) })
	assert.Panics(t, func() { getDefaultOptions(WithLogger(nil)) })
}
