// Package utils provides small helpers shared across the x86sim project.
package utils

import (
	"regexp"
	"strings"

	"github.com/fatih/color"
)

// Assembly syntax highlighting colors
var (
	asmMnemonicColor  = color.New(color.FgYellow, color.Bold)
	asmRegisterColor  = color.New(color.FgGreen)
	asmImmediateColor = color.New(color.FgCyan)
	asmLabelColor     = color.New(color.FgHiCyan)
	asmDirectiveColor = color.New(color.FgBlue)
	asmCommentColor   = color.New(color.FgHiBlack)
)

// Register names of both dialects, including narrow aliases
var asmRegisters = map[string]bool{
	"rax": true, "rbx": true, "rcx": true, "rdx": true,
	"rsi": true, "rdi": true, "rbp": true, "rsp": true,
	"r8": true, "r9": true, "r10": true, "r11": true,
	"r12": true, "r13": true, "r14": true, "r15": true,
	"rip": true,
	"eax": true, "ebx": true, "ecx": true, "edx": true,
	"esi": true, "edi": true, "ebp": true, "esp": true,
	"ax": true, "bx": true, "cx": true, "dx": true,
	"si": true, "di": true, "bp": true, "sp": true,
	"al": true, "bl": true, "cl": true, "dl": true,
	"sil": true, "dil": true, "bpl": true, "spl": true,
}

// Patterns for syntax elements
var (
	// Matches line comments of either dialect
	asmCommentPattern = regexp.MustCompile(`[#;].*$`)
	// Matches assembler directives at the start of a line
	asmDirectivePattern = regexp.MustCompile(`^\s*\.[a-z_]+`)
	// Matches label definitions at the start of a line
	asmLabelPattern = regexp.MustCompile(`^\s*\.?[A-Za-z_][\w.]*:`)
	// Matches the mnemonic at the start of an instruction line
	asmMnemonicPattern = regexp.MustCompile(`^\s*[a-z][a-z0-9]*`)
	// Matches %-prefixed and xmm registers
	asmRegTokenPattern = regexp.MustCompile(`%?[a-z][a-z0-9]*`)
	// Matches immediates of either dialect
	asmImmediatePattern = regexp.MustCompile(`\$?-?\b(?:0[xX][0-9a-fA-F]+|[0-9]+)\b`)
)

// token represents a syntax-highlighted token
type token struct {
	text  string
	color *color.Color
	start int
	end   int
}

// HighlightAssembly applies syntax highlighting to one line of x86-64
// assembly, in either dialect, and returns the colored string
func HighlightAssembly(line string) string {
	if line == "" {
		return ""
	}

	var tokens []token

	// Comments first: nothing inside a comment should be highlighted
	if match := asmCommentPattern.FindStringIndex(line); match != nil {
		tokens = append(tokens, token{
			text:  line[match[0]:match[1]],
			color: asmCommentColor,
			start: match[0],
			end:   match[1],
		})
	}

	// Label definitions and directives claim the whole line head
	if match := asmLabelPattern.FindStringIndex(line); match != nil {
		if !overlapsAny(match[0], match[1], tokens) {
			tokens = append(tokens, token{
				text:  line[match[0]:match[1]],
				color: asmLabelColor,
				start: match[0],
				end:   match[1],
			})
		}
	} else if match := asmDirectivePattern.FindStringIndex(line); match != nil {
		if !overlapsAny(match[0], match[1], tokens) {
			tokens = append(tokens, token{
				text:  line[match[0]:match[1]],
				color: asmDirectiveColor,
				start: match[0],
				end:   match[1],
			})
		}
	} else if match := asmMnemonicPattern.FindStringIndex(line); match != nil {
		if !overlapsAny(match[0], match[1], tokens) {
			tokens = append(tokens, token{
				text:  line[match[0]:match[1]],
				color: asmMnemonicColor,
				start: match[0],
				end:   match[1],
			})
		}
	}

	// Registers
	for _, match := range asmRegTokenPattern.FindAllStringIndex(line, -1) {
		word := line[match[0]:match[1]]
		name := strings.TrimPrefix(word, "%")
		if !asmRegisters[name] && !strings.HasPrefix(name, "xmm") {
			continue
		}
		if !overlapsAny(match[0], match[1], tokens) {
			tokens = append(tokens, token{
				text:  word,
				color: asmRegisterColor,
				start: match[0],
				end:   match[1],
			})
		}
	}

	// Immediates
	for _, match := range asmImmediatePattern.FindAllStringIndex(line, -1) {
		if !overlapsAny(match[0], match[1], tokens) {
			tokens = append(tokens, token{
				text:  line[match[0]:match[1]],
				color: asmImmediateColor,
				start: match[0],
				end:   match[1],
			})
		}
	}

	return buildHighlightedString(line, tokens)
}

// overlapsAny checks if a range overlaps with any existing token
func overlapsAny(start, end int, tokens []token) bool {
	for _, t := range tokens {
		if start < t.end && end > t.start {
			return true
		}
	}
	return false
}

// buildHighlightedString constructs the final string with color codes
func buildHighlightedString(code string, tokens []token) string {
	if len(tokens) == 0 {
		return code
	}

	// Sort tokens by start position
	sortTokens(tokens)

	var result strings.Builder
	pos := 0

	for _, t := range tokens {
		// Add unhighlighted text before this token
		if t.start > pos {
			result.WriteString(code[pos:t.start])
		}
		// Add highlighted token
		result.WriteString(t.color.Sprint(t.text))
		pos = t.end
	}

	// Add remaining unhighlighted text
	if pos < len(code) {
		result.WriteString(code[pos:])
	}

	return result.String()
}

// sortTokens sorts tokens by start position (simple insertion sort for small arrays)
func sortTokens(tokens []token) {
	for i := 1; i < len(tokens); i++ {
		key := tokens[i]
		j := i - 1
		for j >= 0 && tokens[j].start > key.start {
			tokens[j+1] = tokens[j]
			j--
		}
		tokens[j+1] = key
	}
}
