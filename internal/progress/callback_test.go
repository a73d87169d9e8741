package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCall_NilCallback(t *testing.T) {
	assert.NotPanics(t, func() {
		Call(nil, 5, 10, "Simulating")
	})
}

func TestCall_InvokesCallback(t *testing.T) {
	var gotCurrent, gotTotal int
	var gotMessage string

	cb := func(current, total int, message string) {
		gotCurrent = current
		gotTotal = total
		gotMessage = message
	}

	Call(cb, 3, 7, "Simulating")

	assert.Equal(t, 3, gotCurrent)
	assert.Equal(t, 7, gotTotal)
	assert.Equal(t, "Simulating", gotMessage)
}
