package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/ritzau/dataflows/pkg/graph"
	"github.com/ritzau/dataflows/pkg/scene"
)

// Color definitions
var (
	bold   = color.New(color.Bold)
	red    = color.New(color.FgRed)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
)

// PrintSceneList prints one line per scene with its size
func PrintSceneList(w io.Writer, scenes []*scene.Scene) {
	if len(scenes) == 0 {
		yellow.Fprintln(w, "No scenes stored")
		return
	}

	bold.Fprintf(w, "%-6s %-24s %8s %6s\n", "ID", "NAME", "DEVICES", "CORDS")
	for _, s := range scenes {
		name := s.Name
		if name == "" {
			name = "(unnamed)"
		}
		cyan.Fprintf(w, "%-6d ", s.ID)
		fmt.Fprintf(w, "%-24s %8d %6d\n", name, len(s.Devices), len(s.Cords))
	}
}

// PrintSummary prints the topology report for one scene
func PrintSummary(w io.Writer, s graph.Summary) {
	title := fmt.Sprintf("Scene %d", s.ID)
	if s.Name != "" {
		title += ": " + s.Name
	}
	bold.Fprintln(w, title)
	bold.Fprintln(w, strings.Repeat("=", len(title)))

	fmt.Fprintf(w, "Devices: %d\n", s.Devices)
	types := make([]string, 0, len(s.Types))
	for t := range s.Types {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		cyan.Fprintf(w, "  %-8s %d\n", t, s.Types[t])
	}
	fmt.Fprintf(w, "Cords: %d\n", s.Cords)
	fmt.Fprintln(w)

	// A single component means every device can reach every other one
	switch {
	case s.Devices == 0:
		yellow.Fprintln(w, "Empty scene")
	case len(s.Components) == 1:
		green.Fprintln(w, "✓ All devices are connected")
	default:
		yellow.Fprintf(w, "%d disconnected groups:\n", len(s.Components))
		for _, c := range s.Components {
			fmt.Fprintf(w, "  %s\n", joinIDs(c))
		}
	}

	if len(s.Loops) > 0 {
		red.Fprintf(w, "%d loop(s):\n", len(s.Loops))
		for _, l := range s.Loops {
			fmt.Fprintf(w, "  %s\n", joinIDs(l))
		}
	}
}

// PrintRoute prints the hops between two devices
func PrintRoute(w io.Writer, r graph.Route) {
	if !r.Reachable {
		red.Fprintf(w, "No route from %d to %d\n", r.From, r.To)
		return
	}
	green.Fprintf(w, "%d hop(s): ", r.Hops())
	fmt.Fprintln(w, strings.Join(idStrings(r.Devices), " -> "))
}

func joinIDs(ids []int) string {
	return strings.Join(idStrings(ids), ", ")
}

func idStrings(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = fmt.Sprint(id)
	}
	return out
}
