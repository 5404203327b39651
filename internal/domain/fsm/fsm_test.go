package fsm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lightTable() map[State]map[Event]State {
	return map[State]map[Event]State{
		"red":    {"GO": "green"},
		"green":  {"CAUTION": "yellow"},
		"yellow": {"STOP": "red"},
	}
}

func TestNewDefinition(t *testing.T) {
	def, err := NewDefinition("light", "red", lightTable())
	require.NoError(t, err)
	assert.Equal(t, "light", def.ID())
	assert.Equal(t, State("red"), def.Initial())
	assert.Equal(t, []State{"green", "red", "yellow"}, def.States())
	assert.Equal(t, []Event{"CAUTION", "GO", "STOP"}, def.Events())
}

func TestNewDefinitionEmptyTable(t *testing.T) {
	_, err := NewDefinition("empty", "x", nil)
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestNewDefinitionUnknownInitial(t *testing.T) {
	_, err := NewDefinition("light", "purple", lightTable())
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestNewDefinitionRegistersTerminalStates(t *testing.T) {
	def, err := NewDefinition("oneway", "a", map[State]map[Event]State{
		"a": {"FINISH": "done"},
	})
	require.NoError(t, err)
	assert.True(t, def.Contains("done"))

	inst, err := def.Restore("done")
	require.NoError(t, err)
	assert.Empty(t, inst.AvailableEvents())
}

func TestDefinitionSealedAgainstInputMutation(t *testing.T) {
	table := lightTable()
	def, err := NewDefinition("light", "red", table)
	require.NoError(t, err)

	table["red"]["SMASH"] = "broken"
	inst := def.NewInstance()
	assert.False(t, inst.Can("SMASH"))
}

func TestSendAdvancesAndAppendsHistory(t *testing.T) {
	def := MustNewDefinition("light", "red", lightTable())
	inst := def.NewInstance()

	next, err := inst.Send("GO")
	require.NoError(t, err)
	assert.Equal(t, State("green"), next.State())
	require.Len(t, next.History(), 1)
	assert.Equal(t, Transition{Event: "GO", From: "red", To: "green"}, next.History()[0])

	// Original instance is untouched.
	assert.Equal(t, State("red"), inst.State())
	assert.Empty(t, inst.History())
}

func TestSendRejectsUnknownEvent(t *testing.T) {
	def := MustNewDefinition("light", "red", lightTable())
	inst := def.NewInstance()

	_, err := inst.Send("STOP")
	require.Error(t, err)

	var invalid *InvalidTransitionError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "light", invalid.Machine)
	assert.Equal(t, State("red"), invalid.From)
	assert.Equal(t, Event("STOP"), invalid.Event)
}

func TestSendDoesNotShareHistoryBetweenBranches(t *testing.T) {
	def := MustNewDefinition("light", "red", lightTable())
	base, err := def.NewInstance().Send("GO")
	require.NoError(t, err)

	a, err := base.Send("CAUTION")
	require.NoError(t, err)
	b, err := base.Send("CAUTION")
	require.NoError(t, err)

	require.Len(t, a.History(), 2)
	require.Len(t, b.History(), 2)
	assert.Len(t, base.History(), 1)
}

func TestCanAndAvailableEvents(t *testing.T) {
	def := MustNewDefinition("branchy", "start", map[State]map[Event]State{
		"start": {"A": "left", "B": "right", "C": "left"},
	})
	inst := def.NewInstance()
	assert.True(t, inst.Can("A"))
	assert.True(t, inst.Can("B"))
	assert.False(t, inst.Can("Z"))
	assert.Equal(t, []Event{"A", "B", "C"}, inst.AvailableEvents())
}

func TestRestoreUnknownState(t *testing.T) {
	def := MustNewDefinition("light", "red", lightTable())
	_, err := def.Restore("ultraviolet")
	assert.ErrorIs(t, err, ErrUnknownState)
}

// Exhaustive cross product: every (state, event) pair either matches the
// documented next state or fails with InvalidTransitionError.
func TestExhaustiveDispatch(t *testing.T) {
	table := lightTable()
	def := MustNewDefinition("light", "red", table)

	for _, state := range def.States() {
		for _, event := range def.Events() {
			inst, err := def.Restore(state)
			require.NoError(t, err)

			next, err := inst.Send(event)
			want, legal := table[state][event]
			if legal {
				require.NoError(t, err, "state=%s event=%s", state, event)
				assert.Equal(t, want, next.State())
			} else {
				var invalid *InvalidTransitionError
				require.True(t, errors.As(err, &invalid), "state=%s event=%s", state, event)
			}
		}
	}
}
