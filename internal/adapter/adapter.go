package adapter

import (
	"github.com/terabiome/ksxen/internal/api"
	"github.com/terabiome/ksxen/internal/config"
	"github.com/terabiome/ksxen/internal/service"
)

func AdaptProvision(req api.ProvisionRequest) service.ProvisionParams {
	return service.ProvisionParams{
		ConfigPath:   req.ConfigPath,
		ImagePath:    req.ImagePath,
		InstallURL:   req.InstallURL,
		DiskSizeMB:   req.DiskSizeMB,
		RootPassword: req.RootPassword,
		BridgeName:   req.BridgeName,
		KickstartURL: req.KickstartURL,
		Name:         req.Name,
		MemoryMB:     req.RAMMB,
		Extra:        req.Extra,
	}
}

func AdaptSettings(cfg *config.Config) service.Settings {
	return service.Settings{
		ListenAddress:  cfg.ListenAddress,
		ArtifactPath:   cfg.ArtifactPath,
		Artifacts:      append([]string(nil), cfg.Artifacts...),
		KickstartFile:  cfg.KickstartFile,
		BackupSuffix:   cfg.BackupSuffix,
		WorkdirPattern: cfg.WorkdirPattern,
		PasswordScheme: cfg.PasswordScheme,
		SettleDelay:    cfg.SettleDelay,
	}
}
