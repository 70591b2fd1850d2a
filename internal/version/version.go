// ABOUTME: Version information for the widget client
// ABOUTME: Reported by --version and in the startup log line
package version

const (
	Product      = "Voice Widget"
	Manufacturer = "Resonate"
)

// Version is overridden at build time with -ldflags "-X .../version.Version=..."
var Version = "0.3.0"

// String is the one-line version banner
func String() string {
	return Product + " " + Version + " (" + Manufacturer + ")"
}
