package templator

import (
	_ "embed"

	"github.com/terabiome/ksxen/pkg/constants"
)

var (
	//go:embed templates/xen/install.cfg.tpl
	xenInstallTemplate string

	//go:embed templates/xen/steady.cfg.tpl
	xenSteadyTemplate string
)

// NewXenEngine returns an engine preloaded with the built-in install and steady-state
// xl domain templates.
func NewXenEngine() *Engine {
	e := NewEngine()
	e.LoadTemplateText(constants.TemplateXenInstall, xenInstallTemplate)
	e.LoadTemplateText(constants.TemplateXenSteady, xenSteadyTemplate)
	return e
}
