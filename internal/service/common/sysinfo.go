//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/oshokin/gitea-spk/internal/logger"
)

// SystemInfoFunc returns a one-line description of the host.
type SystemInfoFunc func(ctx context.Context) (string, error)

// DetectSystemInfo returns the output of "uname -a". DSM appends the
// synology_<arch>_<model> token there. Hosts without uname fall back to the
// facts gopsutil can collect, which never carry that token.
func DetectSystemInfo(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "uname", "-a").Output()
	if err == nil {
		return strings.TrimSpace(string(out)), nil
	}

	logger.DebugKV(ctx, "uname failed, falling back to host facts", "error", err)

	info, hostErr := host.InfoWithContext(ctx)
	if hostErr != nil {
		return "", fmt.Errorf("query system info: %w", errors.Join(err, hostErr))
	}

	return describeHost(info), nil
}

// describeHost renders host facts in uname order.
func describeHost(info *host.InfoStat) string {
	fields := []string{
		info.OS,
		info.Hostname,
		info.KernelVersion,
		info.KernelArch,
		info.Platform,
		info.PlatformVersion,
	}

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		if field = strings.TrimSpace(field); field != "" {
			parts = append(parts, field)
		}
	}

	return strings.Join(parts, " ")
}
