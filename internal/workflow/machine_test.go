package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testStatus string

const (
	statusDraft     testStatus = "draft"
	statusConfirmed testStatus = "confirmed"
	statusDone      testStatus = "done"
	statusCancelled testStatus = "cancelled"
)

func testMachine() *Machine[testStatus] {
	return New(map[testStatus][]testStatus{
		statusDraft:     {statusConfirmed, statusCancelled},
		statusConfirmed: {statusDone, statusCancelled},
	})
}

func TestCanTransition(t *testing.T) {
	m := testMachine()

	require.True(t, m.CanTransition(statusDraft, statusConfirmed))
	require.True(t, m.CanTransition(statusConfirmed, statusCancelled))
	require.False(t, m.CanTransition(statusDraft, statusDone))
	require.False(t, m.CanTransition(statusDone, statusDraft))
	require.False(t, m.CanTransition(statusCancelled, statusConfirmed))
}

func TestCheckWrapsSentinel(t *testing.T) {
	m := testMachine()

	require.NoError(t, m.Check(statusDraft, statusConfirmed))

	err := m.Check(statusDone, statusDraft)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Contains(t, err.Error(), "done -> draft")
}

func TestAllowedFromReturnsCopy(t *testing.T) {
	m := testMachine()

	allowed := m.AllowedFrom(statusDraft)
	require.ElementsMatch(t, []testStatus{statusConfirmed, statusCancelled}, allowed)

	allowed[0] = statusDone
	require.True(t, m.CanTransition(statusDraft, statusConfirmed))

	require.Empty(t, m.AllowedFrom(statusDone))
}

func TestStatesEnumeratesGraph(t *testing.T) {
	m := testMachine()
	require.ElementsMatch(t,
		[]testStatus{statusDraft, statusConfirmed, statusDone, statusCancelled},
		m.States())
}
