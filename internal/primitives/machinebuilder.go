// Package primitives includes builder helpers for MachineConfig.
package primitives

// MachineBuilder builds a MachineConfig fluently.
type MachineBuilder struct {
	config *MachineConfig
}

// NewMachineBuilder creates a new MachineBuilder.
func NewMachineBuilder(id, initial string) *MachineBuilder {
	return &MachineBuilder{
		config: &MachineConfig{
			ID:      id,
			Initial: initial,
			Context: Context{},
			States:  make(map[string]*StateConfig),
			Guards:  make(map[string]GuardConfig),
			Actions: make(map[string]ActionConfig),
		},
	}
}

// Version pins the config version.
func (b *MachineBuilder) Version(v string) *MachineBuilder {
	b.config.Version = v
	return b
}

// With sets a default context field.
func (b *MachineBuilder) With(field string, value any) *MachineBuilder {
	b.config.Context[field] = CloneValue(value)
	return b
}

// Guard declares a guard expression.
func (b *MachineBuilder) Guard(name, expr string) *MachineBuilder {
	b.config.Guards[name] = Guard(expr)
	return b
}

// GuardFunc declares a closure guard.
func (b *MachineBuilder) GuardFunc(name string, fn GuardFunc) *MachineBuilder {
	b.config.Guards[name] = GuardClosure(fn)
	return b
}

// Action declares a mutation action.
func (b *MachineBuilder) Action(name, mutation string) *MachineBuilder {
	b.config.Actions[name] = Mutation(mutation)
	return b
}

// Describe attaches a description and emitted event names to a declared action.
func (b *MachineBuilder) Describe(name, description string, emits ...string) *MachineBuilder {
	a := b.config.Actions[name]
	a.Description = description
	a.Emits = emits
	b.config.Actions[name] = a
	return b
}

// ActionFunc declares a closure action.
func (b *MachineBuilder) ActionFunc(name string, fn ActionFunc) *MachineBuilder {
	b.config.Actions[name] = ActionClosure(fn)
	return b
}

// State starts or resumes a state.
func (b *MachineBuilder) State(name string) *StateBuilder {
	s, ok := b.config.States[name]
	if !ok {
		s = NewStateConfig()
		b.config.States[name] = s
	}
	return &StateBuilder{state: s, mb: b}
}

// StateBuilder for fluent transitions.
type StateBuilder struct {
	state *StateConfig
	mb    *MachineBuilder
}

// On adds a shorthand transition.
func (sb *StateBuilder) On(event, target string) *StateBuilder {
	sb.state.Transition(event, target)
	return sb
}

// OnGuarded adds a guarded transition with optional actions.
func (sb *StateBuilder) OnGuarded(event, target, guard string, actions ...string) *StateBuilder {
	sb.state.AddTransition(event, To(target).WithGuard(guard).WithActions(actions...))
	return sb
}

// OnDo adds an unguarded transition with actions.
func (sb *StateBuilder) OnDo(event, target string, actions ...string) *StateBuilder {
	sb.state.AddTransition(event, To(target).WithActions(actions...))
	return sb
}

// Entry appends entry actions.
func (sb *StateBuilder) Entry(actions ...string) *StateBuilder {
	sb.state.AddEntry(actions...)
	return sb
}

// Exit appends exit actions.
func (sb *StateBuilder) Exit(actions ...string) *StateBuilder {
	sb.state.AddExit(actions...)
	return sb
}

// State moves to another state.
func (sb *StateBuilder) State(name string) *StateBuilder {
	return sb.mb.State(name)
}

// Done returns to the machine builder.
func (sb *StateBuilder) Done() *MachineBuilder {
	return sb.mb
}

// Build finalizes and validates the config.
func (b *MachineBuilder) Build() (MachineConfig, error) {
	if err := b.config.Validate(); err != nil {
		return MachineConfig{}, err
	}
	return *b.config, nil
}

// MustBuild is Build for configs known to be valid; it panics otherwise.
func (b *MachineBuilder) MustBuild() MachineConfig {
	cfg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return cfg
}
