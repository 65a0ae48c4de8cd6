//go:build !unix

package inbox

func isCrossDevice(error) bool {
	return false
}
