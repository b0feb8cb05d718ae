package interpreter

// Diagnostics counts every permissive skip and no-op path taken by the
// loader and the engine. The core never raises on malformed input; these
// counters are the observable signal that lets callers and tests tell
// "intentionally ignored" from "silently broken".
type Diagnostics struct {
	// Source lines dropped during load
	ParseSkips int `yaml:"parse_skips"`
	// Instructions executed as no-ops because the opcode is not implemented
	UnknownOpcodes int `yaml:"unknown_opcodes"`
	// Instructions skipped because an operand failed to resolve
	UnresolvedOperands int `yaml:"unresolved_operands"`
	// Integer or float divisions ignored because the divisor was zero
	DivisionsByZero int `yaml:"divisions_by_zero"`
	// Control transfers to labels absent from the label table
	UnresolvedJumps int `yaml:"unresolved_jumps"`
}

// Total returns the number of skips of any kind
func (d Diagnostics) Total() int {
	return d.ParseSkips + d.UnknownOpcodes + d.UnresolvedOperands + d.DivisionsByZero + d.UnresolvedJumps
}
