package seats

import (
	"github.com/shopspring/decimal"
)

// Selection accumulates the units a buyer picked from one layout.
type Selection struct {
	layout   *Layout
	index    map[string]int
	selected []string
	picked   map[string]bool
}

func NewSelection(layout *Layout) *Selection {
	index := make(map[string]int, len(layout.Units))
	for i, u := range layout.Units {
		index[u.ID] = i
	}
	return &Selection{layout: layout, index: index, picked: map[string]bool{}}
}

// Toggle adds or removes a unit and reports whether it is selected afterwards.
// Unknown or unavailable units are ignored.
func (s *Selection) Toggle(id string) bool {
	i, ok := s.index[id]
	if !ok || !s.layout.Units[i].Available {
		return false
	}

	if s.picked[id] {
		delete(s.picked, id)
		for j, sel := range s.selected {
			if sel == id {
				s.selected = append(s.selected[:j], s.selected[j+1:]...)
				break
			}
		}
		return false
	}

	s.picked[id] = true
	s.selected = append(s.selected, id)
	return true
}

func (s *Selection) IsSelected(id string) bool {
	return s.picked[id]
}

// Units returns the selected units in selection order.
func (s *Selection) Units() []Unit {
	out := make([]Unit, 0, len(s.selected))
	for _, id := range s.selected {
		out = append(out, s.layout.Units[s.index[id]])
	}
	return out
}

func (s *Selection) IDs() []string {
	return append([]string(nil), s.selected...)
}

func (s *Selection) Len() int {
	return len(s.selected)
}

// Total is the running sum of the selected prices.
func (s *Selection) Total() decimal.Decimal {
	total := decimal.Zero
	for _, id := range s.selected {
		total = total.Add(s.layout.Units[s.index[id]].Price)
	}
	return total
}
