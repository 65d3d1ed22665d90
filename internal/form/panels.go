package form

import "github.com/noah-isme/productform/internal/addon"

// Panel is the display state of one addon panel.
type Panel struct {
	Addon   string `json:"addon"`
	Visible bool   `json:"visible"`
	// Choices are the custom choice values the panel lists. It is empty for
	// addons without custom choices.
	Choices []string `json:"choices,omitempty"`
}

// Panels reports what each addon panel shows for st, in declared order. Custom
// addons driven by an external handler only list choices that are already
// selected, and their panel is hidden while nothing is.
func (s *Session) Panels(st State) []Panel {
	panels := make([]Panel, 0, len(s.addons))
	for _, a := range s.addons {
		current := st.Addons[a.Key]
		p := Panel{Addon: a.Key, Visible: addon.Visible(a, current)}
		for _, c := range addon.PanelChoices(a, current) {
			p.Choices = append(p.Choices, c.Value)
		}
		panels = append(panels, p)
	}
	return panels
}
