// Package diagram renders workflow graphs as Mermaid flowcharts, a
// text-based view of the canvas for docs and debugging.
package diagram

import (
	"fmt"
	"strings"

	"github.com/Joseph-k-iype/multi-agent/pkg/schema"
)

// RenderMermaid renders a workflow graph as a Mermaid flowchart string.
// Entry nodes are drawn as circles, exit nodes as stadiums, everything else
// as rectangles.
func RenderMermaid(g *schema.Graph) string {
	var b strings.Builder

	b.WriteString("graph TD\n")
	if g.WorkflowID != "" {
		b.WriteString(fmt.Sprintf("    %%%% workflow %s\n", g.WorkflowID))
	}

	entries := toSet(g.EntryNodes())
	exits := toSet(g.ExitNodes())

	for _, n := range g.Nodes {
		b.WriteString("    " + nodeDef(n, entries, exits) + "\n")
	}

	for _, e := range g.Edges {
		label := ""
		if e.Data.Label != "" {
			label = fmt.Sprintf("|%s|", escapeLabel(e.Data.Label))
		}
		b.WriteString(fmt.Sprintf("    %s -->%s %s\n", safeID(e.Source), label, safeID(e.Target)))
	}

	return b.String()
}

// nodeDef returns a Mermaid node definition with a shape for its role in
// the graph.
func nodeDef(n schema.Node, entries, exits map[string]struct{}) string {
	id := safeID(n.ID)
	label := escapeLabel(displayLabel(n))

	_, entry := entries[n.ID]
	_, exit := exits[n.ID]
	switch {
	case entry && exit:
		return fmt.Sprintf("%s((%q))", id, label)
	case entry:
		return fmt.Sprintf("%s((%q))", id, label)
	case exit:
		return fmt.Sprintf("%s([%q])", id, label)
	default:
		return fmt.Sprintf("%s[%q]", id, label)
	}
}

func displayLabel(n schema.Node) string {
	if n.Data.Label != "" {
		return firstLine(n.Data.Label)
	}
	return n.Type
}

// safeID converts a node ID to a Mermaid-safe identifier.
func safeID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", " ", "_")
	return r.Replace(id)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "'")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
