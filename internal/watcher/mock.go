package watcher

import (
	"fmt"
	"sync"
)

var OriginalWatch = Watch

var (
	mocks   map[string]chan []EventInfo
	mocksmu sync.Mutex
)

// Mock replaces Watch with a fake whose events are sent by Dispatch.
// Mocks are keyed by pattern.
func Mock() {
	mocksmu.Lock()
	defer mocksmu.Unlock()

	mocks = map[string]chan []EventInfo{}
	Watch = func(dir, pattern string) (<-chan []EventInfo, func(), error) {
		mocksmu.Lock()
		defer mocksmu.Unlock()

		mock, hasMock := mocks[pattern]
		if !hasMock {
			mock = make(chan []EventInfo)
			mocks[pattern] = mock
		}
		var once sync.Once
		stop := func() { once.Do(func() { close(mock) }) }
		return mock, stop, nil
	}
}

// Watched reports whether a mocked watch on pattern has started.
func Watched(pattern string) bool {
	mocksmu.Lock()
	defer mocksmu.Unlock()
	_, ok := mocks[pattern]
	return ok
}

func Dispatch(pattern, path string) {
	mocksmu.Lock()
	mock, hasMock := mocks[pattern]
	mocksmu.Unlock()

	if !hasMock {
		panic(fmt.Errorf("can't dispatch on unwatched pattern '%s'", pattern))
	}
	mock <- []EventInfo{{Path: path}}
}

func Unmock() {
	mocksmu.Lock()
	defer mocksmu.Unlock()
	mocks = nil
	Watch = OriginalWatch
}
