package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/breaktime/internal/domain"
)

func TestBuildCart(t *testing.T) {
	cart, err := buildCart([]itemArg{{name: "Tea", quantity: 2}, {name: "Milk", quantity: 1}, {name: "Tea", quantity: 3}})
	require.NoError(t, err)
	assert.Equal(t, domain.CartState{domain.ItemKindTea: 5, domain.ItemKindMilk: 1}, cart)

	_, err = buildCart([]itemArg{{name: "Tea", quantity: domain.MaxOrderItems}, {name: "Coffee", quantity: 1}})
	require.ErrorIs(t, err, domain.ErrOrderTooLarge)

	_, err = buildCart([]itemArg{{name: "Tea", quantity: -1}})
	require.ErrorIs(t, err, domain.ErrItemQtyInvalid)

	_, err = buildCart([]itemArg{{name: "Tea", quantity: 0}})
	require.ErrorIs(t, err, domain.ErrItemsRequired)
}

func TestStateJSON_SumsRepeats(t *testing.T) {
	testCases := map[string]struct {
		args []itemArg
		want map[string]any
	}{
		"repeat with zero": {
			args: []itemArg{{name: "Tea", quantity: 2}, {name: "Tea", quantity: 0}},
			want: map[string]any{"Tea": 2},
		},
		"repeats add up": {
			args: []itemArg{{name: "Tea", quantity: 1}, {name: "Coffee", quantity: 0}, {name: "Tea", quantity: 4}},
			want: map[string]any{"Tea": 5, "Coffee": 0},
		},
		"negative is kept": {
			args: []itemArg{{name: "Tea", quantity: 3}, {name: "Tea", quantity: -1}, {name: "Tea", quantity: 5}},
			want: map[string]any{"Tea": -1},
		},
		"unknown names pass through": {
			args: []itemArg{{name: "Juice", quantity: 1}},
			want: map[string]any{"Juice": 1},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, map[string]any{"items": tc.want}, stateJSON(tc.args))
		})
	}
}
