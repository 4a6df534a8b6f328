// Package watcher reports file changes under a directory, for watch mode.
package watcher

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/rjeczalik/notify"
)

type EventInfo struct {
	// Path is relative to the watched directory, with forward slashes.
	Path  string
	Event string
}

// Debounce is how long Watch collects events before reporting them.
var Debounce = 500 * time.Millisecond

// Watch reports changes to the files within dir that match pattern. Events
// are batched: each receive from the channel is every event in a Debounce
// window. Call stop to end the watch and close the channel.
var Watch = func(dir, pattern string) (<-chan []EventInfo, func(), error) {
	root, match := split(pattern)

	var (
		raw  = make(chan notify.EventInfo, 1)
		out  = make(chan EventInfo)
		once sync.Once
	)
	stop := func() {
		once.Do(func() {
			notify.Stop(raw)
			close(raw)
		})
	}
	if err := notify.Watch(filepath.Join(dir, root), raw, notify.All); err != nil {
		stop()
		return nil, nil, err
	}

	go func() {
		defer close(out)
		for ev := range raw {
			p, err := filepath.Rel(dir, ev.Path())
			if err != nil {
				continue
			}
			p = filepath.ToSlash(p)
			// "./" lets "**/" match files at the top level, too.
			if match != nil && !match.Match(p) && !match.Match("./"+p) {
				continue
			}
			out <- EventInfo{Path: p, Event: strings.TrimPrefix(ev.Event().String(), "notify.")}
		}
	}()

	return debounce(Debounce, out), stop, nil
}

// debounce batches events from c. A batch is sent dur after its first event,
// or dropped if nobody is ready to receive it.
func debounce(dur time.Duration, c <-chan EventInfo) <-chan []EventInfo {
	batches := make(chan []EventInfo)
	go func() {
		defer close(batches)
		var (
			batch []EventInfo
			fire  <-chan time.Time
		)
		for {
			select {
			case ev, ok := <-c:
				if !ok {
					return
				}
				batch = append(batch, ev)
				if fire == nil {
					fire = time.After(dur)
				}
			case <-fire:
				select {
				case batches <- batch:
				default:
				}
				batch, fire = nil, nil
			}
		}
	}()
	return batches
}

// split breaks a pattern into a directory to watch and a glob to match
// events against. The glob is nil when the pattern has no wildcard.
//
// Given "src/website/**/*.js", split returns "src/website/..." for a
// recursive watch on src/website, and a glob for "src/website/**/*.js".
func split(pattern string) (string, glob.Glob) {
	pattern = filepath.ToSlash(filepath.Clean(pattern))
	segments := strings.Split(pattern, "/")
	for i, seg := range segments {
		if strings.ContainsAny(seg, "*?[{") {
			return filepath.Join(filepath.Join(segments[:i]...), "..."), glob.MustCompile(pattern, '/')
		}
	}
	return pattern, nil
}
