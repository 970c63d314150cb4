// Package version exposes casky's version string.
package version

const versionString = "0.1.0"

// String returns casky's semantic version, e.g. "0.1.0".
func String() string {
	return versionString
}
