package detectors

import (
	"github.com/varalys/cmdguard/internal/types"
)

// writeTo matches the ways a command writes or installs a file.
const writeTo = `(?:>>?\s*|\btee\s+(?:-a\s+)?|\b(?:cp|mv|install)\b[^;&|\n]*\s|\bln\s+-s[f]?\s+\S+\s+|\bsed\s+-i\b[^;&|\n]*\s)["']?`

var backdoorPersistence = newDetector(Detector{
	ID:          "backdoor-persistence",
	Description: "Reverse shells and mechanisms that survive a restart",
	Categories: []Category{
		{
			// Reverse shells are the worst case here. Levels above high are
			// not part of the severity scale, so it is reported as high.
			Name:     "reverse-shell",
			Priority: 100,
			Severity: types.SevHigh,
			Message:  "Reverse shell ({token})",
			Rules: rules(
				re(`(/dev/(?:tcp|udp)/[^/\s]+/\d+)`),
				re(`\b((?:nc|ncat|netcat)\b[^;&|\n]*\s-[a-zA-Z]*[ec]\s+\S*(?:sh|bash|cmd(?:\.exe)?))\b`),
				re(`\b(ncat\b[^;&|\n]*--(?:exec|sh-exec|lua-exec))\b`),
				re(`\b(socat\b[^;&|\n]*\b(?:exec|system):)`),
				re(`\b(mkfifo\b[^\n]*\|\s*(?:nc|ncat|netcat|telnet|openssl\s+s_client))\b`),
				re(`\b(python[\d.]*\b[^\n]*socket[^\n]*(?:pty\.spawn|subprocess|os\.dup2))`),
				re(`\b(perl\b[^\n]*Socket[^\n]*exec)\b`),
				re(`\b(php\b[^\n]*fsockopen)\b`),
				re(`\b(ruby\b[^\n]*TCPSocket)\b`),
				re(`\b((?:ba)?sh\s+-i\s*[<>]&)`),
				re(`\b(xterm\s+-display\s+\S+:\d)`),
			),
		},
		{
			Name:     "authorized-keys",
			Priority: 90,
			Severity: types.SevHigh,
			Message:  "SSH access persisted through {token}",
			Rules: rules(
				re(writeTo+`(\S*\.ssh/authorized_keys2?)\b`),
				re(`(PermitRootLogin\s+yes)\b`),
				re(writeTo+`(/etc/ssh/sshd_config)\b`),
			),
		},
		{
			Name:     "cron-job",
			Priority: 80,
			Severity: types.SevHigh,
			Message:  "Scheduled task installed ({token})",
			Rules: rules(
				re(`\b(crontab\s+(?:-u\s+\S+\s+)?(?:[^-\s]\S*|-))(?:\s|$)`),
				re(writeTo+`(/etc/crontab|/etc/cron\.(?:d|daily|hourly|weekly|monthly)/\S*|/var/spool/cron/\S*)`),
				re(`\|\s*(at\s+(?:now|midnight|noon|\d))`),
				re(`\b(schtasks\s+/create)\b`),
			),
		},
		{
			Name:     "service-persistence",
			Priority: 70,
			Severity: types.SevHigh,
			Message:  "Service or login item installed ({token})",
			Rules: rules(
				re(writeTo+`(\S*(?:/etc/systemd/system/|\.config/systemd/user/|/lib/systemd/system/|/etc/init\.d/|/etc/rc\.local|Library/LaunchAgents/|Library/LaunchDaemons/|/etc/xdg/autostart/|\.config/autostart/)\S*)`),
				re(`\b(launchctl\s+(?:load|bootstrap)\b[^;&|\n]*)`),
				re(`(?i)\b(reg(?:\.exe)?\s+add\s+\S*\\CurrentVersion\\Run\S*)`),
			),
		},
		{
			Name:     "shell-profile-hook",
			Priority: 60,
			Severity: types.SevHigh,
			Message:  "Shell startup file runs remote or encoded code ({token})",
			Rules: []Rule{{
				Pattern:  re(`(?:>>?\s*|\btee\s+-a\s+)["']?((?:~|\$HOME|\$\{HOME\}|/root|/home/[^/\s]+)?/?\.(?:bashrc|bash_profile|bash_login|profile|zshrc|zprofile|zshenv|zlogin|config/fish/config\.fish)|/etc/(?:profile|bash\.bashrc|zshrc|environment)|/etc/profile\.d/\S*)\b`),
				Requires: re(`\b(?:curl|wget|nc|ncat|base64|eval|python[\d.]*\s+-c|/dev/tcp)\b`),
			}},
		},
		{
			Name:     "shell-profile-modification",
			Priority: 55,
			Severity: types.SevMed,
			Message:  "Shell startup file modified ({token})",
			Rules: rules(
				re(`(?:>>?\s*|\btee\s+-a\s+)["']?((?:~|\$HOME|\$\{HOME\}|/root|/home/[^/\s]+)?/?\.(?:bashrc|bash_profile|bash_login|profile|zshrc|zprofile|zshenv|zlogin|config/fish/config\.fish)|/etc/(?:profile|bash\.bashrc|zshrc|environment)|/etc/profile\.d/\S*)\b`),
			),
		},
		{
			Name:     "account-creation",
			Priority: 50,
			Severity: types.SevHigh,
			Message:  "Local account created or altered ({token})",
			Rules: rules(
				cmd(`useradd|adduser|newusers|chpasswd`, `[^;&|\n]*`),
				re(`(?:>>?\s*|\btee\s+(?:-a\s+)?)(/etc/(?:passwd|shadow|group))\b`),
				re(`\b(dscl\s+\.\s+-create\s+/Users/\S+)`),
				re(`(?i)\b(net\s+user\s+\S+\s+\S+\s+/add)\b`),
			),
		},
		{
			Name:     "git-hook-implant",
			Priority: 40,
			Severity: types.SevMed,
			Message:  "Git hook or hook path installed ({token})",
			Rules: rules(
				re(writeTo+`(\S*\.git/hooks/[a-z-]+)\b`),
				re(`\b(git\s+config\s+(?:--global\s+|--system\s+|--local\s+)?core\.(?:hooksPath|sshCommand|fsmonitor|pager))\b`),
				re(`\b(git\s+config\b[^;&|\n]*\balias\.\S+\s+["']?!)`),
			),
		},
	},
})
