package hook

// Info is one row of the diagnostic registry listing, consumed by
// introspection tooling such as the `fieldwatch hooks` command.
type Info struct {
	TypeName  string `json:"type"`
	Name      string `json:"name"`
	Trigger   string `json:"trigger"`
	Watch     string `json:"watch,omitempty"`
	Condition string `json:"condition,omitempty"`
	Priority  int    `json:"priority"`
	Async     bool   `json:"async"`
	OnCommit  bool   `json:"on_commit"`
}

// Describe returns the built registry as listing rows: types in sorted
// order, triggers in their fixed order, hooks in execution order. Calling
// Describe freezes every type's table, so the listing always reflects what
// dispatch will actually do.
func (r *Registry) Describe() []Info {
	var out []Info
	for _, typeName := range r.TypeNames() {
		for _, trigger := range Triggers {
			for _, d := range r.Hooks(typeName, trigger) {
				info := Info{
					TypeName: typeName,
					Name:     d.Name,
					Trigger:  string(trigger),
					Watch:    d.Watch,
					Priority: d.Priority,
					Async:    d.Async(),
					OnCommit: d.OnCommit,
				}
				if c := d.Condition(); c != nil {
					info.Condition = c.String()
				}
				out = append(out, info)
			}
		}
	}
	return out
}
