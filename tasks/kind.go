package tasks

import "fmt"

// Kind is the closed set of task kinds. A task's kind is named by the key
// holding its content in the task file, as in `cmd = "go test"`.
//
//go:generate go run golang.org/x/tools/cmd/stringer -type Kind -linecomment
type Kind int

const (
	KindCmd      Kind = iota // cmd
	KindShell                // shell
	KindScript               // script
	KindRef                  // ref
	KindSequence             // sequence
	KindParallel             // parallel
	KindSwitch               // switch
)

var kinds = []Kind{KindCmd, KindShell, KindScript, KindRef, KindSequence, KindParallel, KindSwitch}

// Kinds returns every kind, in declaration order.
func Kinds() []Kind { return append([]Kind(nil), kinds...) }

func ParseKind(s string) (Kind, error) {
	for _, k := range kinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown task type %q", s)
}

// Leaf reports whether tasks of this kind run OS processes themselves, as
// opposed to running other tasks.
func (k Kind) Leaf() bool {
	return k == KindCmd || k == KindShell || k == KindScript
}

// TakesString reports whether the content of this kind is a string. The
// others take a list (sequence, parallel) or a table (switch).
func (k Kind) TakesString() bool {
	return k == KindCmd || k == KindShell || k == KindScript || k == KindRef
}
