package app

import (
	"github.com/vk/arbor/internal/nodes"
	"github.com/vk/arbor/internal/registry"
)

// coreModules is the definitive list of all node modules that are compiled
// into the arbor binary.
var coreModules = []registry.Module{
	&nodes.Module{},
}
