// Lockfinder reads a lock trace written by chore when CHORE_MUTEX_LOG is
// set, and reports which locks were held, and by whom, when the trace ended.
// It is for debugging deadlocks.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func main() {
	cmd := &cobra.Command{
		Use:   "lockfinder [mutex.log]",
		Short: "Report the locks held at the end of a chore lock trace.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "mutex.log"
			if len(args) == 1 {
				path = args[0]
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			holders, err := trace(f)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report(holders))
			return nil
		},
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var re = regexp.MustCompile(`^(?P<Date>.{25}) \[(?P<Lock>[^\]]+)\] (?:(?P<Fn>.*) )?(?P<Op>seeks|receives|releases) lock$`)

// trace replays a lock trace. It returns, for every lock mentioned, the
// function holding it at the end, or "" if it was free.
func trace(r io.Reader) (map[string]string, error) {
	holders := map[string]string{}
	scn := bufio.NewScanner(r)
	for scn.Scan() {
		match := re.FindStringSubmatch(scn.Text())
		if match == nil {
			continue
		}
		lock, fn := match[re.SubexpIndex("Lock")], match[re.SubexpIndex("Fn")]
		switch match[re.SubexpIndex("Op")] {
		case "seeks":
			if _, ok := holders[lock]; !ok {
				holders[lock] = ""
			}
		case "receives":
			holders[lock] = fn
		case "releases":
			holders[lock] = ""
		}
	}
	return holders, scn.Err()
}

func report(holders map[string]string) string {
	var held, free []string
	for lock, fn := range holders {
		if fn != "" {
			held = append(held, fmt.Sprintf("- %s is held by %s\n", lock, fn))
		} else {
			free = append(free, fmt.Sprintf("- %s is not held\n", lock))
		}
	}
	sort.Strings(held)
	sort.Strings(free)

	var buf strings.Builder
	fmt.Fprintf(&buf, "report\n")
	buf.WriteString(strings.Join(held, ""))
	buf.WriteString(strings.Join(free, ""))
	return buf.String()
}
