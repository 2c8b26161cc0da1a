package hclspec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/arbor/internal/ctxlog"
	"github.com/vk/arbor/internal/network"
	"github.com/vk/arbor/internal/registry"
)

// Document is the fully loaded form of an architecture spec: the built
// root node plus the network-level hyperparameter maps.
type Document struct {
	Root      network.Node
	Defaults  map[string]any
	Overrides map[string]any
}

// Options translates the document's hyperparameter blocks into build
// options for network.New.
func (d *Document) Options() network.Options {
	return network.Options{
		OverrideHyperparameters: d.Overrides,
		DefaultHyperparameters:  d.Defaults,
	}
}

// Loader parses HCL architecture documents and builds node trees through
// a registry.
type Loader struct {
	registry *registry.Registry
}

// NewLoader creates a new architecture document loader.
func NewLoader(r *registry.Registry) *Loader {
	return &Loader{registry: r}
}

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Defaults *attrsBlock  `hcl:"defaults,block"`
	Override *attrsBlock  `hcl:"override,block"`
	Nodes    []*nodeBlock `hcl:"node,block"`
}

// attrsBlock captures a block whose body is a flat set of attributes.
type attrsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// nodeBlock is the recursive on-disk form of one node. Nested node blocks
// are decoded into Children; everything else in the body is the node's
// hyperparameter set.
type nodeBlock struct {
	Type     string       `hcl:"type,label"`
	Name     string       `hcl:"name,label"`
	Children []*nodeBlock `hcl:"node,block"`
	Remain   hcl.Body     `hcl:",remain"`
}

// Load parses every .hcl file under the given paths and assembles them
// into a single document. Exactly one node block must exist across all
// files; defaults and override blocks merge attribute-wise, with later
// files winning.
func (l *Loader) Load(ctx context.Context, paths ...string) (*Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Architecture loader started.", "path_count", len(paths))

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered architecture files.", "count", len(hclFiles))
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no architecture files found under %v", paths)
	}

	doc := &Document{
		Defaults:  make(map[string]any),
		Overrides: make(map[string]any),
	}
	var rootBlocks []*nodeBlock

	parser := hclparse.NewParser()

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse architecture file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode architecture file %s: %w", file, diags)
		}

		if root.Defaults != nil {
			if err := mergeAttrs(doc.Defaults, root.Defaults.Body); err != nil {
				return nil, fmt.Errorf("in defaults block of %s: %w", file, err)
			}
		}
		if root.Override != nil {
			if err := mergeAttrs(doc.Overrides, root.Override.Body); err != nil {
				return nil, fmt.Errorf("in override block of %s: %w", file, err)
			}
		}
		rootBlocks = append(rootBlocks, root.Nodes...)
	}

	if len(rootBlocks) != 1 {
		return nil, fmt.Errorf("architecture must have exactly one top-level node block, found %d", len(rootBlocks))
	}

	doc.Root, err = l.buildNode(ctx, rootBlocks[0])
	if err != nil {
		return nil, err
	}

	logger.Debug("Architecture loading complete.",
		"root", doc.Root.Name(),
		"defaults", len(doc.Defaults),
		"overrides", len(doc.Overrides),
	)
	return doc, nil
}

// buildNode assembles a node and its subtree bottom-up via the registry.
func (l *Loader) buildNode(ctx context.Context, block *nodeBlock) (network.Node, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building node from block.", "type", block.Type, "name", block.Name, "children", len(block.Children))

	children := make([]network.Node, 0, len(block.Children))
	for _, child := range block.Children {
		built, err := l.buildNode(ctx, child)
		if err != nil {
			return nil, err
		}
		children = append(children, built)
	}

	attrs, err := decodeAttrs(block.Remain)
	if err != nil {
		return nil, fmt.Errorf("in node %q: %w", block.Name, err)
	}

	node, err := l.registry.NewNode(block.Type, registry.Spec{
		Name:     block.Name,
		Attrs:    attrs,
		Children: children,
	})
	if err != nil {
		return nil, fmt.Errorf("in node %q: %w", block.Name, err)
	}
	return node, nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // It's not an error if a configured path doesn't exist.
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if info.IsDir() {
			err := filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && filepath.Ext(p) == ".hcl" {
					if _, wasSeen := seen[p]; !wasSeen {
						allFiles = append(allFiles, p)
						seen[p] = struct{}{}
					}
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else if filepath.Ext(path) == ".hcl" {
			if _, wasSeen := seen[path]; !wasSeen {
				allFiles = append(allFiles, path)
				seen[path] = struct{}{}
			}
		}
	}
	return allFiles, nil
}
