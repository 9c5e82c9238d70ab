package detectors

import (
	"regexp"

	"github.com/varalys/cmdguard/internal/config"
	"github.com/varalys/cmdguard/internal/types"
)

const containerRun = `\b(?:docker|podman|nerdctl)\s+(?:container\s+)?(?:run|create|exec)\b[^;&|\n]*`

// CI runners set these; privileged builds there are tolerated when the
// detector allows it.
var reCIMarker = re(`\b(?:CI|GITHUB_ACTIONS|GITLAB_CI|BUILDKITE|CIRCLECI|JENKINS_URL|TF_BUILD)=(?:["']?(?:1|true|yes)["']?)|\$\{?(?:CI|GITHUB_ACTIONS|GITLAB_CI)\}?\b`)

var containerEscape = newDetector(Detector{
	ID:          "container-escape",
	Description: "Container breakouts through mounts, privileges and kernel interfaces",
	Safe: []*regexp.Regexp{
		re(`\A\s*(?:docker|podman|nerdctl)\s+(?:ps|images|logs|inspect|version|info|stats|top|port|history|pull|login|build)\b[^;&|\n]*\z`),
	},
	Categories: []Category{
		{
			Name:     "host-mount",
			Priority: 100,
			Severity: types.SevHigh,
			Message:  "Container mounts sensitive host path {token}",
			Rules: rules(
				re(`\b(?:docker|podman|nerdctl)\b[^;&|\n]*\s(?:-v|--volume)[= ]?\s*["']?(/(?:etc|root|proc|sys|dev|boot|var/run/docker\.sock|run/docker\.sock|run/containerd/containerd\.sock|run/podman/podman\.sock|var/lib/docker|var/lib/kubelet)?)/?:`),
				re(`\b(?:docker|podman|nerdctl)\b[^;&|\n]*\s--mount[= ][^;&|\n]*(?:source|src)=(/(?:etc|root|proc|sys|var/run/docker\.sock|run/docker\.sock)?)/?(?:,|\s|$)`),
				re(`(?i)"?hostPath"?\s*:\s*\{?\s*"?path"?\s*:\s*"?(/(?:etc|root|proc|sys|var/run/docker\.sock)?)"?(?:\s|,|\}|$)`),
			),
		},
		{
			Name:     "privileged-container",
			Priority: 90,
			Severity: types.SevHigh,
			Message:  "Container started with elevated privileges ({token})",
			When: func(text string, cfg config.DetectorConfig) bool {
				return !(cfg.AllowPrivilegedForCI && reCIMarker.MatchString(text))
			},
			Rules: rules(
				re(containerRun+`\s(--privileged)\b`),
				re(containerRun+`\s(--cap-add[= ]?(?:ALL|SYS_ADMIN|SYS_PTRACE|SYS_MODULE|DAC_READ_SEARCH|SYS_RAWIO))\b`),
				re(containerRun+`\s(--security-opt[= ]?(?:(?:apparmor|seccomp)[=:]unconfined|label[=:]disable))`),
				re(containerRun+`\s(--device[= ]?/dev/(?:sd\w*|nvme\w*|mem|kmem))`),
				re(`\bkubectl\s+run\b[^;&|\n]*(--privileged)\b`),
				re(`("?privileged"?\s*:\s*true)`),
			),
		},
		{
			Name:     "namespace-escape",
			Priority: 80,
			Severity: types.SevHigh,
			Message:  "Entering host namespaces ({token})",
			Rules: rules(
				cmd(`nsenter`, `[^;&|\n]*(?:\s-t\s*1|\s--target[= ]1|\s-a|\s--all)\b`),
				re(`\b(chroot\s+/(?:host|mnt|rootfs|proc/1/root)\S*)`),
				re(`(/proc/1/root)\b`),
			),
		},
		{
			Name:     "kernel-interface",
			Priority: 70,
			Severity: types.SevHigh,
			Message:  "Kernel interface abuse ({token})",
			Rules: rules(
				re(`(/proc/sys/kernel/core_pattern|/sys/kernel/uevent_helper|/proc/sysrq-trigger)\b`),
				re(`\b(release_agent|notify_on_release)\b`),
				re(`\b(mount\s+[^;&|\n]*-t\s+cgroup2?)\b`),
				cmd(`insmod|modprobe|rmmod`, `[^;&|\n]*`),
				re(`\b(debugfs)\b`),
				re(`(/dev/(?:mem|kmem|port))\b`),
			),
		},
		{
			Name:     "host-namespace",
			Priority: 60,
			Severity: types.SevMed,
			Message:  "Container shares a host namespace ({token})",
			Rules: rules(
				re(containerRun+`\s(--(?:net|network|pid|ipc|uts|userns|cgroupns)[= ]host)\b`),
				re(`("?host(?:PID|Network|IPC)"?\s*:\s*true)`),
				re(`\b(unshare\b[^;&|\n]*\s-[a-zA-Z]*[rU][a-zA-Z]*)\b`),
			),
		},
	},
})
