package detectors

import (
	"regexp"

	"github.com/varalys/cmdguard/internal/types"
)

const securityTools = `auditd|falcon-sensor|falcond|osqueryd|sysmon\S*|crowdstrike|sentinel\w*|wazuh\S*|ossec\S*|clamd|fail2ban|apparmor|snort|suricata|elastic-agent|filebeat|auditbeat|santad?|carbonblack|cbagentd|mdatp|defender|firewalld|ufw`

var processManipulation = newDetector(Detector{
	ID:          "process-manipulation",
	Description: "Killing, injecting into or hiding processes",
	Safe: []*regexp.Regexp{
		re(`\A\s*(?:ps|pgrep|pidof|top|htop|lsof|jobs)\b[^;&|\n]*\z`),
		re(`\A\s*kill\s+-0\s+\S+\s*\z`),
	},
	Categories: []Category{
		{
			Name:     "system-halt",
			Priority: 100,
			Severity: types.SevHigh,
			Message:  "Init, all processes or the host itself terminated ({token})",
			Rules: rules(
				re(`\b(kill\s+(?:-(?:9|KILL|SIGKILL|15|TERM|SIGTERM|s\s+\S+)\s+)?(?:-1|1))\s*(?:$|[\n;&|)])`),
				re(`\b(killall5)\b`),
				re(`\b(pkill\s+(?:-\S+\s+)*(?:-u\s+root|init|systemd|launchd))\b`),
				cmd(`shutdown|reboot|halt|poweroff`, `[^;&|\n]*`),
				re(`\b(systemctl\s+(?:poweroff|reboot|halt|kexec))\b`),
				re(`\b(init\s+[06])\b`),
			),
		},
		{
			Name:     "security-tool-tampering",
			Priority: 90,
			Severity: types.SevHigh,
			Message:  "Security tooling disabled ({token})",
			Rules: rules(
				re(`\b((?:kill|pkill|killall)\b[^;&|\n]*\b(?:`+securityTools+`))\b`),
				re(`\b((?:systemctl|service)\s+(?:stop|disable|mask)\s+(?:`+securityTools+`))`),
				re(`\b(setenforce\s+0)\b`),
				re(`\b(ufw\s+disable)\b`),
				re(`\b(iptables\s+(?:-F|--flush))\b`),
				re(`\b(auditctl\s+-[De])\b`),
				re(`\b(spctl\s+--master-disable)\b`),
				re(`\b(csrutil\s+disable)\b`),
				re(`(?i)\b(Set-MpPreference\s+-Disable\w+)`),
				re(`\b(unset\s+HISTFILE|HISTFILE=/dev/null|HISTSIZE=0|history\s+-c)\b`),
			),
		},
		{
			Name:     "process-injection",
			Priority: 80,
			Severity: types.SevHigh,
			Message:  "Code injected into another process ({token})",
			Rules: rules(
				re(`\b(gdb\b[^;&|\n]*\s(?:-p|--pid)[= ]?\s*\S+)`),
				re(`\b(gdb\s+(?:-\S+\s+)*attach)\b`),
				re(`\b((?:LD_PRELOAD|DYLD_INSERT_LIBRARIES|LD_AUDIT)=\S+)`),
				re(`(/etc/ld\.so\.preload)\b`),
				re(`(/proc/(?:\d+|\$\w+|\$\{\w+\})/mem)\b`),
				re(`\b(frida\b[^;&|\n]*\s-p\b)`),
			),
		},
		{
			Name:     "process-hiding",
			Priority: 70,
			Severity: types.SevMed,
			Message:  "Process hidden or disguised ({token})",
			Rules: rules(
				re(`\b(mount\s+[^;&|\n]*(?:--bind|-o\s+bind)\s+\S+\s+/proc/\d+)`),
				re(`\b(hidepid=\d)`),
				re(`\b(exec\s+-a\s+\S+)`),
				re(`\b(prctl\b[^;&|\n]*PR_SET_NAME)\b`),
				re(`\b(nohup\b[^\n]*&\s*disown)\b`),
			),
		},
		{
			Name:     "mass-kill",
			Priority: 60,
			Severity: types.SevMed,
			Message:  "Processes killed in bulk ({token})",
			Rules: rules(
				re(`\b((?:pkill|killall)\s+-(?:9|KILL|SIGKILL)\b[^;&|\n]*)`),
				re(`\b(kill\s+-(?:9|KILL|SIGKILL)\s+(?:\$\(|` + "`" + `))`),
				re(`\b(xargs\s+(?:-\S+\s+)*kill\s+-(?:9|KILL|SIGKILL))\b`),
			),
		},
		{
			Name:     "resource-exhaustion",
			Priority: 50,
			Severity: types.SevMed,
			Message:  "Resource exhaustion ({token})",
			Rules: rules(
				re(`\b(while\s+(?:true|:|\[\s*1\s*\])\s*;\s*do\s+[^;\n]*&\s*(?:;\s*)?done)`),
				re(`\b(yes\s*>\s*/dev/null\s*&)`),
				re(`\b(stress(?:-ng)?\b[^;&|\n]*--(?:cpu|vm|io|fork)\b)`),
				re(`\b(ulimit\s+-[a-zA-Z]*\s+unlimited)\b`),
			),
		},
	},
})
