package constants

const (
	TemplateXenInstall = "xen-install"
	TemplateXenSteady  = "xen-steady"
)

const (
	KickstartFilename = "ks.cfg"
	BootArtifactPath  = "images/pxeboot"
	ImageBackupSuffix = ".old"
)

// BootArtifacts are fetched from the install tree before the install domain is created.
// upgrade.img only exists on some distributions.
var BootArtifacts = []string{"vmlinuz", "initrd.img", "upgrade.img"}
