package gate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"condopapers/internal/gate"
)

func TestCheck(t *testing.T) {
	cases := []struct {
		name    string
		items   []gate.Item
		allowed bool
		missing []string
	}{
		{
			name:    "required unsatisfied blocks",
			items:   []gate.Item{{Name: "ART", Required: true}, {Name: "schedule", Required: false, Satisfied: false}},
			allowed: false,
			missing: []string{"ART"},
		},
		{
			name:    "required unsatisfied blocks even if optional satisfied",
			items:   []gate.Item{{Name: "ART", Required: true}, {Name: "schedule", Required: false, Satisfied: true}},
			allowed: false,
			missing: []string{"ART"},
		},
		{
			name:    "all required satisfied",
			items:   []gate.Item{{Name: "ART", Required: true, Satisfied: true}, {Name: "project", Required: true, Satisfied: true}},
			allowed: true,
		},
		{
			name:    "optional never blocks",
			items:   []gate.Item{{Name: "intercom", Required: false, Satisfied: false}},
			allowed: true,
		},
		{
			name:    "empty collection",
			items:   nil,
			allowed: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := gate.Check(tc.items)
			assert.Equal(t, tc.allowed, res.Allowed)
			assert.Equal(t, tc.missing, res.Missing)
			if tc.allowed {
				assert.Empty(t, res.Reason)
			} else {
				assert.Equal(t, gate.ReasonIncomplete, res.Reason)
			}
		})
	}
}

func TestCheckFunc(t *testing.T) {
	type task struct {
		title    string
		required bool
		done     bool
	}
	tasks := []task{{"lights", true, true}, {"cameras", true, false}, {"intercom", false, false}}
	res := gate.CheckFunc(tasks, func(tk task) gate.Item {
		return gate.Item{Name: tk.title, Required: tk.required, Satisfied: tk.done}
	})
	assert.False(t, res.Allowed)
	assert.Equal(t, []string{"cameras"}, res.Missing)
}
