package slot

// Option is the select-box shape handed to clients. Disabled options stay
// visible but carry a hint explaining why they cannot be picked.
type Option struct {
	Value    string `json:"value"`
	Display  string `json:"display"`
	Disabled bool   `json:"disabled"`
	Hint     string `json:"hint,omitempty"`
}

func Options(slots []Slot) []Option {
	out := make([]Option, 0, len(slots))
	for _, s := range slots {
		out = append(out, Option{
			Value:    s.Time.String(),
			Display:  s.Label,
			Disabled: s.Disabled,
			Hint:     s.Reason.Hint(),
		})
	}
	return out
}

// Available counts the slots that can still be booked.
func Available(slots []Slot) int {
	n := 0
	for _, s := range slots {
		if !s.Disabled {
			n++
		}
	}
	return n
}
