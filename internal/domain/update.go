package domain

// UpdateStatus is the outcome of one update check.
type UpdateStatus struct {
	InstalledVersion string `json:"installed_version"`
	LatestVersion    string `json:"latest_version"`
	Title            string `json:"title"`
	ReleaseURL       string `json:"release_url"`
	// AptUpdates is the number of pending OS packages, or -1 when unknown.
	AptUpdates int `json:"-"`
}

func (u UpdateStatus) Available() bool {
	return u.LatestVersion != "" && u.LatestVersion != u.InstalledVersion
}

// HostFacts are slow changing properties used to describe the device.
type HostFacts struct {
	Hostname     string
	Model        string
	Manufacturer string
	OS           string
	Kernel       string
	MAC          string
}

// Command is a control payload received on the command topic.
type Command string

const (
	CommandInstall    Command = "install"
	CommandRestart    Command = "restart"
	CommandShutdown   Command = "shutdown"
	CommandDisplayOn  Command = "display_on"
	CommandDisplayOff Command = "display_off"
)

// Commands lists the recognised commands in the order their buttons are
// announced.
func Commands() []Command {
	return []Command{CommandInstall, CommandRestart, CommandShutdown, CommandDisplayOn, CommandDisplayOff}
}
