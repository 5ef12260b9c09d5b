package app

import (
	"github.com/vk/graphc/internal/passes"
	"github.com/vk/graphc/internal/registry"
)

// coreModules is the definitive list of pass modules compiled into the
// graphc binary.
var coreModules = []registry.Module{
	&passes.Module{},
}
