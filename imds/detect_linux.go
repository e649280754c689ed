//go:build linux

package imds

import (
	"os"
	"strings"
)

// hypervisorUUIDPath identifies the hypervisor on Xen-based instances. A
// uuid beginning "ec2" means EC2.
const hypervisorUUIDPath = "/sys/hypervisor/uuid"

// onEC2 reports whether this host is a genuine EC2 instance.
func onEC2() bool {
	data, err := os.ReadFile(hypervisorUUIDPath)
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(string(data))), "ec2")
}
