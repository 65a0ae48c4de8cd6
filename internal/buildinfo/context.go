// Package buildinfo holds build-time metadata, kept apart from user
// configuration.
package buildinfo

import "fmt"

// UnknownValue is reported for metadata the build did not set
const UnknownValue = "unknown"

// Context contains the values injected with -ldflags at build time.
type Context struct {
	// Version is the git tag of the build
	Version string

	// BuildDate is the time the binary was built
	BuildDate string
}

// GetVersion returns the version or UnknownValue.
func (c *Context) GetVersion() string {
	if c == nil || c.Version == "" {
		return UnknownValue
	}
	return c.Version
}

// GetBuildDate returns the build date or UnknownValue.
func (c *Context) GetBuildDate() string {
	if c == nil || c.BuildDate == "" {
		return UnknownValue
	}
	return c.BuildDate
}

// UserAgent identifies the exporter to the classification server and the
// label host.
func (c *Context) UserAgent() string {
	return UserAgent(c.GetVersion())
}

// UserAgent formats the User-Agent header for version.
func UserAgent(version string) string {
	if version == "" {
		version = UnknownValue
	}
	return fmt.Sprintf("birdnet-exporter/%s", version)
}
