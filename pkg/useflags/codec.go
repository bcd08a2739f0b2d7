// Package useflags implements the configuration-space exploration
// engine: the integer/assignment codec and the combination sampler.
package useflags

import (
	"strings"

	"github.com/fff7d1bc/pkg-testing-tools/pkg/errors"
)

// Assignment is one concrete on/off setting for every option in an
// ordered option set. Each token is the option name, prefixed with
// '-' when the option is off.
type Assignment []string

// String joins the signed tokens with spaces, the form used in
// package.use lines and reports.
func (a Assignment) String() string {
	return strings.Join(a, " ")
}

// MaxCodecOptions is the largest option set the integer codec can
// address. Larger sets are handled by the sampler's bitwise path.
const MaxCodecOptions = 62

// Decode maps an index in [0, 2^len(options)) to an assignment. Bit k
// of the index corresponds to options[k]: set means on, clear means
// off.
func Decode(index uint64, options []string) Assignment {
	assignment := make(Assignment, len(options))
	for k, option := range options {
		if index&(1<<uint(k)) != 0 {
			assignment[k] = option
		} else {
			assignment[k] = "-" + option
		}
	}
	return assignment
}

// Encode is the inverse of Decode: it reads the sign of each token
// back into the corresponding bit.
func Encode(assignment Assignment) (uint64, error) {
	if len(assignment) > MaxCodecOptions {
		return 0, errors.Newf(errors.ErrInvalidInput, "assignment of %d options exceeds codec limit of %d", len(assignment), MaxCodecOptions)
	}

	var index uint64
	for k, token := range assignment {
		if token == "" || token == "-" {
			return 0, errors.Newf(errors.ErrInvalidInput, "empty option token at position %d", k)
		}
		if !strings.HasPrefix(token, "-") {
			index |= 1 << uint(k)
		}
	}
	return index, nil
}
