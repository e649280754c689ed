//go:build !linux

package imds

// onEC2 always reports false: EC2 instance detection is only implemented for
// linux, and the metadata endpoint is unreachable from anywhere else we run.
func onEC2() bool {
	return false
}
