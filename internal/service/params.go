package service

import (
	"time"

	"github.com/google/uuid"
)

// ProvisionParams contains transport-agnostic parameters for provisioning one domain.
type ProvisionParams struct {
	ConfigPath   string
	ImagePath    string
	InstallURL   string
	DiskSizeMB   int64
	RootPassword string
	BridgeName   string
	KickstartURL string
	Name         string
	MemoryMB     int64
	Extra        string
}

// Settings are the operational knobs of a provisioning run.
type Settings struct {
	ListenAddress  string
	ArtifactPath   string
	Artifacts      []string
	KickstartFile  string
	BackupSuffix   string
	WorkdirPattern string
	PasswordScheme string
	SettleDelay    time.Duration
}

// Result describes how far a provisioning run got.
type Result struct {
	State        State
	WorkDir      string
	Port         int
	KickstartURL string
	MACAddress   string
	UUID         uuid.UUID
	BackupPath   string
}
