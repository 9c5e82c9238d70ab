package detectors

import (
	"regexp"

	"github.com/varalys/cmdguard/internal/types"
)

const toInterpreter = `\|\s*(?:sudo\s+)?(?:\S*/)?(?:(?:ba|z|da|k)?sh|python[\d.]*|perl|ruby|node|php)\b`

var codeInjection = newDetector(Detector{
	ID:          "code-injection",
	Description: "Executing decoded, obfuscated or dynamically built code",
	Safe: []*regexp.Regexp{
		re(`\A\s*eval\s+["']?\$\(\s*(?:ssh-agent|pyenv|rbenv|nodenv|direnv|brew|starship|zoxide|fnm|conda|mise|rtx|keychain|opam|gpg-agent|dircolors)\b[^)]*\)["']?\s*\z`),
	},
	Categories: []Category{
		{
			Name:     "encoded-payload-execution",
			Priority: 100,
			Severity: types.SevHigh,
			Message:  "Decoded payload executed ({token})",
			Rules: rules(
				re(`\b((?:base64\s+(?:-d|--decode|-D)|openssl\s+(?:base64|enc)\b[^|;&\n]*\s-d|xxd\s+-r|uudecode|gunzip\s+-c|zcat)\b[^;&\n]*`+toInterpreter+`)`),
				re(`(?i)\b((?:exec|eval)\s*\(\s*(?:base64\.b64decode|codecs\.decode|zlib\.decompress|bytes\.fromhex|marshal\.loads))`),
				re(`(?i)\b(eval\s*\(\s*(?:atob|Buffer\.from\([^)]*['"]base64['"]))`),
				re(`(?i)\b((?:powershell|pwsh)(?:\.exe)?\b[^;&\n]*\s-(?:e|ec|enc|encodedcommand)\s+[A-Za-z0-9+/=]{16,})`),
			),
		},
		{
			Name:     "dynamic-eval",
			Priority: 90,
			Severity: types.SevHigh,
			Message:  "Evaluation of fetched or decoded data ({token})",
			Rules: rules(
				re(`\b(eval\s+["']?\$\(\s*(?:curl|wget|base64|xxd|openssl)\b)`),
				re(`\b(eval\s+["']?\$\([^)]*\|\s*base64\s+(?:-d|--decode))`),
				re(`\b(eval\s+["']?`+"`"+`)`),
				re(`\b(source\s+/dev/stdin)\b`),
			),
		},
		{
			Name:     "inline-interpreter",
			Priority: 80,
			Severity: types.SevMed,
			Message:  "Inline interpreter running system commands ({token})",
			Rules: rules(
				re(`\b(python[\d.]*\s+-c\s+["'][^"']*(?:os\.system|subprocess|os\.popen|exec\(|eval\(|__import__|pty\.spawn|socket\.))`),
				re(`\b(node\s+(?:-e|--eval|-p|--print)\s+["'][^"']*(?:child_process|execSync|spawnSync|spawn\(|eval\(|require\(["']net["']\)))`),
				re(`\b(perl\s+(?:-\w+\s+)*-e\s+["'][^"']*(?:system|exec|`+"`"+`|qx|socket))`),
				re(`\b(ruby\s+-e\s+["'][^"']*(?:system|exec|%x|`+"`"+`|Socket|IO\.popen))`),
				re(`\b(php\s+-r\s+["'][^"']*(?:system|exec|shell_exec|passthru|popen|proc_open))`),
				re(`\b(awk\s+(?:-\S+\s+)*["'][^"']*system\s*\()`),
			),
		},
		{
			Name:     "obfuscated-command",
			Priority: 70,
			Severity: types.SevMed,
			Message:  "Obfuscated command construction ({token})",
			Rules: rules(
				re(`(\$'(?:\\x[0-9a-fA-F]{2}){3,})`),
				re(`((?:\\x[0-9a-fA-F]{2}){6,})`),
				re(`(\$\{IFS\}|\$IFS\b)`),
				re(`\b(rev\b[^;&\n]*`+toInterpreter+`)`),
				re(`\b(tr\s+["']?[a-zA-Z]-[a-zA-Z][^|;&\n]*`+toInterpreter+`)`),
				re(`\b(printf\s+["']?(?:\\[0-7]{3}){3,})`),
				re(`\b(echo\s+-e\s+["'](?:\\x[0-9a-fA-F]{2}){3,}[^|;&\n]*`+toInterpreter+`)`),
			),
		},
		{
			Name:     "variable-eval",
			Priority: 60,
			Severity: types.SevLow,
			Message:  "eval of variable content ({token})",
			Rules:    rules(re(`\b(eval\s+["']?\$\{?[A-Za-z_][A-Za-z0-9_]*)`)),
		},
	},
})
