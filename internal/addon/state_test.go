package addon

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func numericAddon(required bool) Addon {
	return Addon{Key: "guests", Required: required, Spec: Numeric{Price: dec("5"), MinUnits: 2, MaxUnits: 6}}
}

func TestNumericBoundsFromAnyStoredValue(t *testing.T) {
	inputs := []string{
		`{"quantity":-4}`, `{"quantity":0}`, `{"quantity":3}`, `{"quantity":99}`,
		`{"quantity":"5"}`, `{"quantity":"abc"}`, `{"quantity":null}`, `{"quantity":2.7}`,
		`{"quantity":true}`, `{}`, `"garbage"`, ``,
	}
	for _, required := range []bool{false, true} {
		a := numericAddon(required)
		lo := EffectiveMin(a, a.Spec.(Numeric))
		for _, in := range inputs {
			st := ValidateBounds(a, DecodeState(a, json.RawMessage(in)))
			n, ok := st.(NumericState)
			require.True(t, ok)
			require.NotNil(t, n.Quantity, "input %s", in)
			require.GreaterOrEqual(t, *n.Quantity, lo, "input %s", in)
			require.LessOrEqual(t, *n.Quantity, 6, "input %s", in)
		}
	}
}

func TestDecodeStateIsTolerant(t *testing.T) {
	a := numericAddon(false)
	require.Nil(t, DecodeState(a, json.RawMessage(`{"quantity":"abc"}`)).(NumericState).Quantity)
	require.Equal(t, 5, DecodeState(a, json.RawMessage(`{"quantity":"5"}`)).(NumericState).Value())

	sw := Addon{Key: "wifi", Spec: Switcher{}}
	require.True(t, DecodeState(sw, json.RawMessage(`{"enabled":true}`)).(SwitcherState).Enabled)
	require.False(t, DecodeState(sw, json.RawMessage(`{"enabled":"nope"}`)).(SwitcherState).Enabled)

	custom := Addon{Key: "gear", Spec: CustomSelect{}}
	st := DecodeState(custom, json.RawMessage(`{"selected":{"item":"kayak","quantity":"2"}}`)).(CustomSelectState)
	require.Equal(t, &ItemQuantity{Item: "kayak", Quantity: 2}, st.Selected)
	require.Nil(t, DecodeState(custom, json.RawMessage(`{"selected":null}`)).(CustomSelectState).Selected)

	require.Nil(t, DecodeState(Addon{Spec: unknown{}}, json.RawMessage(`{}`)))
}

func TestDefaultState(t *testing.T) {
	sw := Addon{Key: "wifi", Spec: Switcher{}}
	require.Equal(t, SwitcherState{Enabled: false}, DefaultState(sw, nil))
	require.Equal(t, SwitcherState{Enabled: true}, DefaultState(sw, []string{"1"}))
	sw.Required = true
	require.Equal(t, SwitcherState{Enabled: true}, DefaultState(sw, nil))

	require.Equal(t, 0, DefaultState(numericAddon(false), nil).(NumericState).Value())
	require.Equal(t, 2, DefaultState(numericAddon(true), nil).(NumericState).Value())
	require.Equal(t, 4, DefaultState(numericAddon(false), []string{"4"}).(NumericState).Value())
	require.Equal(t, 0, DefaultState(numericAddon(false), []string{"9"}).(NumericState).Value(), "out of range search value is ignored")
	require.Equal(t, 2, DefaultState(numericAddon(true), []string{"x"}).(NumericState).Value())

	sel := Addon{Key: "room", Spec: Select{Choices: []Choice{{Value: "single"}, {Value: "suite"}}}}
	require.Equal(t, SelectState{}, DefaultState(sel, nil))
	require.Equal(t, SelectState{Selected: "suite"}, DefaultState(sel, []string{"suite"}))
	sel.Required = true
	require.Equal(t, SelectState{Selected: "single"}, DefaultState(sel, nil))

	multi := Addon{Key: "extras", Spec: Multiselect{Choices: []Choice{{Value: "a"}, {Value: "b"}}}}
	require.Equal(t, MultiselectState{Selected: []string{"b"}}, DefaultState(multi, []string{"b", "b", "z"}))
}

func TestMutations(t *testing.T) {
	sw := Addon{Key: "wifi", Spec: Switcher{}}
	st := Toggle(sw, nil)
	require.Equal(t, SwitcherState{Enabled: true}, st)
	require.Equal(t, SwitcherState{Enabled: false}, Toggle(sw, st))
	sw.Required = true
	require.Equal(t, SwitcherState{Enabled: true}, Toggle(sw, SwitcherState{Enabled: true}))

	require.Equal(t, 6, SetQuantity(numericAddon(false), nil, 42).(NumericState).Value())
	require.Equal(t, 2, SetQuantity(numericAddon(true), nil, -1).(NumericState).Value())

	multi := Addon{Key: "extras", Spec: Multiselect{Choices: []Choice{{Value: "a"}, {Value: "b"}}}}
	ms := ToggleChoice(multi, MultiselectState{}, "a")
	ms = ToggleChoice(multi, ms, "b")
	require.Equal(t, MultiselectState{Selected: []string{"a", "b"}}, ms)
	require.Equal(t, MultiselectState{Selected: []string{"b"}}, ToggleChoice(multi, ms, "a"))
	require.Equal(t, MultiselectState{Selected: []string{"a", "b"}}, ToggleChoice(multi, ms, "zzz"))

	choices := []CustomChoice{
		{Choice: Choice{Value: "kayak"}, Quantity: QuantityRange{Enabled: true, Min: 2, Max: 3}},
		{Choice: Choice{Value: "map"}},
	}
	custom := Addon{Key: "gear", Spec: CustomSelect{Choices: choices}}
	cs := Choose(custom, nil, "kayak")
	require.Equal(t, &ItemQuantity{Item: "kayak", Quantity: 2}, cs.(CustomSelectState).Selected)
	cs = SetChoiceQuantity(custom, cs, "kayak", 10)
	require.Equal(t, 3, cs.(CustomSelectState).Selected.Quantity)
	require.Equal(t, cs, SetChoiceQuantity(custom, cs, "map", 2), "unselected choices are ignored")
	require.Nil(t, Choose(custom, cs, "kayak").(CustomSelectState).Selected, "choosing again clears")

	customMulti := Addon{Key: "gear", Spec: CustomMultiselect{Choices: choices}}
	cm := ToggleChoice(customMulti, nil, "map")
	cm = ToggleChoice(customMulti, cm, "kayak")
	cm = SetChoiceQuantity(customMulti, cm, "kayak", 0)
	require.Equal(t, []ItemQuantity{{Item: "map", Quantity: 1}, {Item: "kayak", Quantity: 2}}, cm.(CustomMultiselectState).Selected)
}

func TestRequiredAddonKeepsLastSelection(t *testing.T) {
	choices := []CustomChoice{{Choice: Choice{Value: "a", Price: dec("5")}}, {Choice: Choice{Value: "b", Price: dec("9")}}}

	custom := Addon{Key: "board", Required: true, Spec: CustomSelect{Choices: choices}}
	cs := CustomSelectState{Selected: &ItemQuantity{Item: "b", Quantity: 1}}
	require.Equal(t, cs, Choose(custom, cs, "b"))
	require.Equal(t, "a", Choose(custom, cs, "a").(CustomSelectState).Selected.Item)

	sel := Addon{Key: "room", Required: true, Spec: Select{Choices: []Choice{{Value: "single"}, {Value: "suite"}}}}
	require.Equal(t, SelectState{Selected: "suite"}, Choose(sel, SelectState{Selected: "suite"}, ""))

	multi := Addon{Key: "extras", Required: true, Spec: Multiselect{Choices: []Choice{{Value: "a"}, {Value: "b"}}}}
	only := MultiselectState{Selected: []string{"b"}}
	require.Equal(t, only, ToggleChoice(multi, only, "b"))
	require.Equal(t, MultiselectState{Selected: []string{"a"}}, ToggleChoice(multi, MultiselectState{Selected: []string{"a", "b"}}, "b"))

	customMulti := Addon{Key: "gear", Required: true, Spec: CustomMultiselect{Choices: choices}}
	cm := CustomMultiselectState{Selected: []ItemQuantity{{Item: "b", Quantity: 1}}}
	require.Equal(t, cm, ToggleChoice(customMulti, cm, "b"))

	custom.Required = false
	require.Nil(t, Choose(custom, cs, "b").(CustomSelectState).Selected)
}

func TestExternalHandlerHidesUnselectedChoices(t *testing.T) {
	choices := []CustomChoice{{Choice: Choice{Value: "kayak"}}, {Choice: Choice{Value: "map"}}}
	a := Addon{Key: "gear", Spec: CustomMultiselect{Choices: choices, HasExternalHandler: true}}

	require.Empty(t, PanelChoices(a, CustomMultiselectState{}))
	require.False(t, Visible(a, CustomMultiselectState{}))

	st := CustomMultiselectState{Selected: []ItemQuantity{{Item: "map", Quantity: 1}}}
	visible := PanelChoices(a, st)
	require.Len(t, visible, 1)
	require.Equal(t, "map", visible[0].Value)
	require.True(t, Visible(a, st))

	a.Spec = CustomMultiselect{Choices: choices}
	require.Len(t, PanelChoices(a, CustomMultiselectState{}), 2)
}
