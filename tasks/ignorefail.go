package tasks

import "fmt"

// IgnoreFail is the failure policy of sequence and parallel tasks.
//
//go:generate go run golang.org/x/tools/cmd/stringer -type IgnoreFail -linecomment
type IgnoreFail int

const (
	// IgnoreFailNever aborts on the first failed subtask.
	IgnoreFailNever IgnoreFail = iota // false
	// IgnoreFailReturnZero runs every subtask and succeeds regardless.
	IgnoreFailReturnZero // return_zero
	// IgnoreFailReturnNonZero runs every subtask, then fails if any of
	// them failed.
	IgnoreFailReturnNonZero // return_non_zero
)

// ParseIgnoreFail accepts the values allowed in a task file: true, false,
// "return_zero" and "return_non_zero". True means "return_zero".
func ParseIgnoreFail(v any) (IgnoreFail, error) {
	switch v := v.(type) {
	case nil:
		return IgnoreFailNever, nil
	case bool:
		if v {
			return IgnoreFailReturnZero, nil
		}
		return IgnoreFailNever, nil
	case string:
		switch v {
		case "return_zero":
			return IgnoreFailReturnZero, nil
		case "return_non_zero":
			return IgnoreFailReturnNonZero, nil
		}
	}
	return 0, fmt.Errorf(`unsupported value %v for option "ignore_fail", expected true, false, "return_zero" or "return_non_zero"`, v)
}
