package asm

import (
	"fmt"
	"regexp"
	"strings"
)

// Dialect selects the operand syntax the loader parses. The normalized
// instruction stream downstream is dialect-agnostic.
type Dialect uint

const (
	// Dialect_Auto detects the dialect from directives and operand tokens
	Dialect_Auto Dialect = iota
	// Dialect_Intel: destination-first operands, bare registers, bracketed
	// [base±offset] memory, bare-number immediates
	Dialect_Intel
	// Dialect_ATT: source-first operands, %-prefixed registers, $-prefixed
	// immediates, offset(%base) memory, size-suffixed mnemonics
	Dialect_ATT
)

func (d Dialect) String() string {
	switch d {
	case Dialect_Auto:
		return "auto"
	case Dialect_Intel:
		return "intel"
	case Dialect_ATT:
		return "att"
	}

	panic("unreachable")
}

// ParseDialect parses a dialect name as used in config files and CLI flags
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "auto", "":
		return Dialect_Auto, nil
	case "intel":
		return Dialect_Intel, nil
	case "att", "at&t", "gas":
		return Dialect_ATT, nil
	}
	return Dialect_Auto, fmt.Errorf("unknown assembly dialect %q (expected auto, intel or att)", name)
}

var attTokenPattern = regexp.MustCompile(`(%[a-z][a-z0-9]*|\$-?[0-9])`)

// DetectDialect resolves Dialect_Auto against the program text. An explicit
// syntax directive wins; otherwise the presence of %-registers or
// $-immediates selects AT&T, and Intel is the fallback.
func DetectDialect(text string) Dialect {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.Contains(line, ".intel_syntax") {
			return Dialect_Intel
		}
		if strings.Contains(line, ".att_syntax") {
			return Dialect_ATT
		}
	}

	if attTokenPattern.MatchString(text) {
		return Dialect_ATT
	}
	return Dialect_Intel
}
