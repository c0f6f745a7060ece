package service

// State is a step of the provisioning sequence. A run only moves forward.
type State string

const (
	StateInit                 State = "init"
	StateDiskPrepared         State = "disk_prepared"
	StateServingBootFiles     State = "serving_boot_files"
	StateArtifactsFetched     State = "artifacts_fetched"
	StateKickstartWritten     State = "kickstart_written"
	StateInstallConfigWritten State = "install_config_written"
	StateInstallBooting       State = "install_booting"
	StateInstallAttached      State = "install_attached"
	StateSteadyConfigWritten  State = "steady_config_written"
	StateVerified             State = "verified"
	StateRestarted            State = "restarted"
	StateAlreadyRunning       State = "already_running"
)

// Terminal reports whether s ends a successful run.
func (s State) Terminal() bool {
	return s == StateRestarted || s == StateAlreadyRunning
}
