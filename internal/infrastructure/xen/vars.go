package xen

import (
	"github.com/google/uuid"

	"github.com/terabiome/ksxen/pkg/templator"
)

// DomainTemplateVars are shared by the install and steady-state configurations.
// MAC and UUID must be identical across both so the guest keeps its network identity.
type DomainTemplateVars struct {
	Name       string
	UUID       uuid.UUID
	MemoryMB   int64
	MACAddress string
	ImagePath  string
	Bridge     string
}

// InstallTemplateVars add the network boot parameters used during installation.
type InstallTemplateVars struct {
	DomainTemplateVars
	BootDir      string
	KickstartURL string
}

func (v DomainTemplateVars) toVars() templator.Vars {
	return templator.Vars{
		"name":     v.Name,
		"uuid":     v.UUID.String(),
		"ram":      v.MemoryMB,
		"mac_addr": v.MACAddress,
		"img_path": v.ImagePath,
		"bridge":   v.Bridge,
	}
}

func (v InstallTemplateVars) toVars() templator.Vars {
	vars := v.DomainTemplateVars.toVars()
	vars["tempdir"] = v.BootDir
	vars["ksurl"] = v.KickstartURL
	return vars
}
