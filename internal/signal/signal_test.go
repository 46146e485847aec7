package signal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dqm4hep/dqm4hep-go/internal/signal"
)

func TestEmitInRegistrationOrder(t *testing.T) {
	s := signal.New[int]("sor")
	var order []int
	s.Connect("a", func(n int) { order = append(order, n*10+1) })
	s.Connect("b", func(n int) { order = append(order, n*10+2) })
	s.Emit(7)
	assert.Equal(t, []int{71, 72}, order)
}

func TestDisconnectByReceiverIdentity(t *testing.T) {
	s := signal.New[string]("eor")
	type receiver struct{}
	r1, r2 := &receiver{}, &receiver{}
	var calls []string
	s.Connect(r1, func(v string) { calls = append(calls, "r1:"+v) })
	s.Connect(r2, func(v string) { calls = append(calls, "r2:"+v) })
	s.Disconnect(r1)
	s.Emit("x")
	assert.Equal(t, []string{"r2:x"}, calls)
}

func TestEmitSurvivesPanickingSlot(t *testing.T) {
	s := signal.New[int]("sor")
	var called bool
	s.Connect("panicker", func(int) { panic("boom") })
	s.Connect("survivor", func(int) { called = true })
	assert.NotPanics(t, func() { s.Emit(1) })
	assert.True(t, called)
}

func TestLenReflectsConnections(t *testing.T) {
	s := signal.New[int]("x")
	assert.Equal(t, 0, s.Len())
	s.Connect("a", func(int) {})
	s.Connect("b", func(int) {})
	assert.Equal(t, 2, s.Len())
}
