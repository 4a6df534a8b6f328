package color

import (
	"hash/fnv"
	"math"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

var (
	hashMu    sync.Mutex
	hashCache = map[string]lipgloss.AdaptiveColor{}
)

// Hash derives a stable color from a task name, so a task keeps its color
// across runs: lighter on dark backgrounds and darker on light ones.
func Hash(s string) lipgloss.AdaptiveColor {
	hashMu.Lock()
	defer hashMu.Unlock()

	if c, ok := hashCache[s]; ok {
		return c
	}
	h := fnv.New32a()
	h.Write([]byte(s))
	hue := 360 * float64(h.Sum32()) / float64(math.MaxUint32)

	c := lipgloss.AdaptiveColor{
		Dark:  colorful.Hsl(hue, 1.0, 0.7).Hex(),
		Light: colorful.Hsl(hue, 1.0, 0.3).Hex(),
	}
	hashCache[s] = c
	return c
}
