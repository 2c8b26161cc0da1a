package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/vk/arbor/internal/network"
)

// describe writes a stable plain-text report of a built network: the
// architecture tree, the computation order, every variable and the
// accumulated update rules.
func describe(w io.Writer, net *network.Network) error {
	if _, err := fmt.Fprintln(w, "Architecture:"); err != nil {
		return err
	}
	if err := writeTree(w, net.Root(), 1); err != nil {
		return err
	}

	order := net.Graph().Topological()
	if _, err := fmt.Fprintf(w, "\nComputation order:\n  %s\n", strings.Join(order, ", ")); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "\nVariables:"); err != nil {
		return err
	}
	for _, v := range net.Variables(network.SubtreeFilter{}) {
		if _, err := fmt.Fprintf(w, "  %s\n", v); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, "\nUpdate rules:"); err != nil {
		return err
	}
	rules := net.UpdateDeltas().List()
	if len(rules) == 0 {
		_, err := fmt.Fprintln(w, "  (none)")
		return err
	}
	for _, rule := range rules {
		if _, err := fmt.Fprintf(w, "  %s <- %s + %s\n", rule.Variable.Name, rule.Variable.Name, rule.Expr); err != nil {
			return err
		}
	}
	return nil
}

// writeTree renders the architecture tree with two-space indentation. A
// node shows its type tag when it has one.
func writeTree(w io.Writer, n network.Node, depth int) error {
	label := n.Name()
	if k, ok := n.(interface{ Kind() string }); ok {
		label = fmt.Sprintf("%s (%s)", label, k.Kind())
	}
	if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), label); err != nil {
		return err
	}
	for _, child := range n.ArchitectureChildren() {
		if err := writeTree(w, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}
