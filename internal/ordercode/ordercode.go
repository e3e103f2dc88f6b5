// =============================================================================
// GAEB LV Tools - Order Code Codec
// =============================================================================
//
// This package handles the hierarchical ordering numbers (OZ) that identify a
// node's place in the official structure of a bill of quantities. Order codes
// are dotted strings such as "01.02.0010"; parsed, they become a sequence of
// integers (1, 2, 10) which is the sole sort key for siblings at any level of
// the document tree.
//
// PARSING RULES:
//   - Empty or missing input yields the empty code.
//   - A token that is not purely numeric contributes only its embedded digits
//     ("2a" -> 2); a token without any digits contributes 0. Parsing never
//     fails: malformed codes degrade to a best-effort numeric reading.
//
// =============================================================================

package ordercode

import (
	"strconv"
	"strings"
)

// Code is a parsed order code: the numeric components of a dotted OZ string.
// A nil or empty Code is valid and sorts before every non-empty one.
type Code []int

// Parse converts a dotted OZ string into a Code.
//
// Each token between dots reduces to the integer formed by its digits, 0 if it
// has none. Whitespace inside the string is ignored. Parse never returns an
// error; "" yields an empty Code.
//
// Examples:
//
//	Parse("1.2.10")  -> Code{1, 2, 10}
//	Parse("01.02")   -> Code{1, 2}
//	Parse("1.2a")    -> Code{1, 2}
//	Parse("1..x")    -> Code{1, 0, 0}
//	Parse("")        -> Code{}
func Parse(oz string) Code {
	oz = strings.ReplaceAll(oz, " ", "")
	if oz == "" {
		return Code{}
	}

	tokens := strings.Split(oz, ".")
	out := make(Code, 0, len(tokens))

	for _, tok := range tokens {
		if n, err := strconv.Atoi(tok); err == nil && n >= 0 {
			out = append(out, n)
			continue
		}

		// Conservative fallback: keep only the digits of the token.
		var digits strings.Builder
		for _, r := range tok {
			if r >= '0' && r <= '9' {
				digits.WriteRune(r)
			}
		}
		if digits.Len() == 0 {
			out = append(out, 0)
			continue
		}
		n, err := strconv.Atoi(digits.String())
		if err != nil {
			// Digit run too long for an int; clamp rather than fail.
			n = 0
		}
		out = append(out, n)
	}

	return out
}

// String joins the components with dots: Code{1, 2, 10} -> "1.2.10".
// The zero-padding of the source string is not preserved.
func (c Code) String() string {
	if len(c) == 0 {
		return ""
	}
	parts := make([]string, len(c))
	for i, n := range c {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// Compare orders two codes lexicographically by their numeric components.
// A code that is a strict prefix of another sorts first. The result is
// -1, 0 or +1, suitable for slices.SortFunc.
//
// Note that comparison is numeric, not textual: "1.9" < "1.10".
func Compare(a, b Code) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// LastSegment splits a raw OZ string on "." and returns its final segment
// twice: zero-padded to width digits, and as written. Both spellings are
// needed when looking up priced line items, because some documents key their
// price rows with the padded final block ("0001") and others with the plain
// one ("1"). Width 0 leaves the padded form identical to the plain form.
func LastSegment(oz string, width int) (padded, plain string) {
	parts := strings.Split(strings.TrimSpace(oz), ".")
	plain = parts[len(parts)-1]
	padded = plain
	if width > len(plain) {
		padded = strings.Repeat("0", width-len(plain)) + plain
	}
	return padded, plain
}
