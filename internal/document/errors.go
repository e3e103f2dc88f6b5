package document

import "errors"

// ErrUnreadableInput marks extractor input that could not be parsed as a
// document at all. It is the only extraction failure that reaches callers:
// all other irregularities (malformed order codes, unknown units, unmatched
// prices) degrade in place by design.
var ErrUnreadableInput = errors.New("input could not be parsed as a document")
