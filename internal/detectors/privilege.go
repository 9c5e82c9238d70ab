package detectors

import (
	"regexp"

	"github.com/varalys/cmdguard/internal/types"
)

const systemPath = `(?:/(?:etc|usr|bin|sbin|lib|lib64|boot|opt|var|root)\b\S*|/)`

var privilegeEscalation = newDetector(Detector{
	ID:          "privilege-escalation",
	Description: "Gaining or granting elevated privileges",
	Safe: []*regexp.Regexp{
		re(`\A\s*sudo\s+-[lkvK]+\s*\z`),
		re(`\A\s*(?:id|whoami|groups)\s*\z`),
	},
	Categories: []Category{
		{
			Name:     "setuid-bit",
			Priority: 100,
			Severity: types.SevHigh,
			Message:  "Setuid or setgid bit applied ({token})",
			Rules: rules(
				cmd(`chmod`, `\s+(?:-\S+\s+)*([ugoa]*\+[rwxXt]*s[rwxXt]*|0?[2467][0-7]{3})\b`),
			),
		},
		{
			Name:     "sudoers-modification",
			Priority: 90,
			Severity: types.SevHigh,
			Message:  "Sudo policy or admin group changed ({token})",
			Rules: rules(
				re(`(?:>>?\s*|\btee\s+(?:-a\s+)?|\bvisudo\s+-f\s*|\bsed\s+-i\b[^;&|\n]*\s)(/etc/sudoers(?:\.d/\S*)?)`),
				re(`\b(NOPASSWD\s*:)`),
				re(`\b(usermod\s+[^;&|\n]*-a?G\s*\S*\b(?:sudo|wheel|admin|root|docker)\b)`),
				re(`\b(gpasswd\s+-a\s+\S+\s+(?:sudo|wheel|admin|docker))\b`),
				re(`\b(dseditgroup\s+[^;&|\n]*-g\s+admin)\b`),
			),
		},
		{
			Name:     "capability-grant",
			Priority: 80,
			Severity: types.SevHigh,
			Message:  "File capability granted ({token})",
			Rules: rules(
				re(`\b(setcap\s+["']?cap_(?:setuid|setgid|sys_admin|dac_override|dac_read_search|sys_ptrace|sys_module|chown|fowner)\S*)`),
			),
		},
		{
			Name:     "root-shell",
			Priority: 70,
			Severity: types.SevMed,
			Message:  "Interactive root shell ({token})",
			Rules: rules(
				re(`\b(sudo\s+(?:-[a-zA-Z]*[is][a-zA-Z]*|su\b|(?:/bin/|/usr/bin/)?(?:ba|z|da|k)?sh)(?:\s|$))`),
				re(`\b(su\s+(?:-\s+|-l\s+)?root)\b`),
				re(`(?:^|[\n;&|]\s*)(su)\s*(?:$|[\n;&|-])`),
				re(`\b(sudo\s+-u\s+root\s+(?:ba|z)?sh)\b`),
				cmd(`pkexec`, `[^;&|\n]*`),
				re(`\b(doas\s+(?:ba|z)?sh)\b`),
			),
		},
		{
			Name:     "world-writable-system-path",
			Priority: 60,
			Severity: types.SevMed,
			Message:  "System path made world-writable ({token})",
			Rules: rules(
				cmd(`chmod`, `\s+(?:-\S+\s+)*(?:0?777|a\+rwx|o\+w|ugo\+rwx|a\+w)\s+["']?(`+systemPath+`)(?:\s|$|["';&|])`),
				cmd(`chown`, `\s+(?:-\S+\s+)*\S+\s+(/etc/(?:passwd|shadow|sudoers|group))\b`),
			),
		},
	},
})
