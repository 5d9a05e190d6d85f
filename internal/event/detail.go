package event

import "strings"

// Spec is one name/description pair from an event's detail panel
type Spec struct {
	Name        string
	Description string
}

// Details is an ordered set of detail specs. Order is the order scraped.
type Details []Spec

// Set adds a spec, replacing the description of an existing spec with the same
// name in place.
func (d *Details) Set(name, description string) {
	name = strings.TrimSpace(name)
	for i := range *d {
		if (*d)[i].Name == name {
			(*d)[i].Description = description
			return
		}
	}
	*d = append(*d, Spec{Name: name, Description: description})
}

// Encode flattens the specs into "name: desc | name: desc". Every run of
// whitespace collapses to one space so the result fits a single CSV field.
// No decoder exists; stored Detail values are only compared as opaque strings.
func (d Details) Encode() string {
	if len(d) == 0 {
		return ""
	}
	parts := make([]string, 0, len(d))
	for _, s := range d {
		parts = append(parts, collapse(s.Name)+": "+collapse(s.Description))
	}
	return strings.Join(parts, " | ")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
