package detectors

import (
	"regexp"
	"strings"
)

// Ecosystem holds the package names typosquat checks compare against.
// Popular names are the squatting targets; Known names are legitimate
// packages that happen to sit close to a popular one.
type Ecosystem struct {
	Name    string
	Popular []string
	Known   []string
}

var (
	NPM = Ecosystem{
		Name: "npm",
		Popular: []string{
			"react", "react-dom", "vue", "angular", "lodash", "express", "axios", "moment",
			"webpack", "typescript", "jquery", "chalk", "commander", "debug", "request",
			"underscore", "async", "bluebird", "uuid", "dotenv", "eslint", "prettier", "jest",
			"mocha", "next", "nuxt", "svelte", "redux", "rxjs", "socket.io", "mongoose",
			"body-parser", "cors", "yargs", "inquirer", "minimist", "semver", "classnames",
			"prop-types", "cross-env", "nodemon", "electron", "vite", "tailwindcss", "postcss",
			"esbuild", "rollup", "dayjs", "date-fns", "node-fetch", "colors", "puppeteer",
			"playwright", "sequelize", "prisma", "mysql", "redis", "graphql", "fastify",
		},
		Known: []string{
			"preact", "vuex", "chai", "color", "expresso", "jsx", "nest", "redis-om", "koa",
			"ajv", "got", "ora", "execa", "react-is", "mysql2", "colord", "async-es",
			"vitest", "yup", "lit", "mime", "knex", "ioredis", "jose", "ejs", "pug", "less",
			"uvu", "nuxi", "mitt", "uuidv4", "yarn", "bun", "hast", "acorn",
		},
	}
	PyPI = Ecosystem{
		Name: "PyPI",
		Popular: []string{
			"requests", "numpy", "pandas", "django", "flask", "boto3", "urllib3", "setuptools",
			"pytest", "scipy", "matplotlib", "tensorflow", "torch", "scikit-learn", "pillow",
			"pyyaml", "cryptography", "beautifulsoup4", "selenium", "sqlalchemy", "fastapi",
			"pydantic", "jinja2", "click", "httpx", "aiohttp", "openai", "transformers",
			"colorama", "certifi", "python-dateutil", "psycopg2", "celery", "redis", "pymongo",
			"paramiko",
		},
		Known: []string{
			"numba", "scapy", "boto", "jinja", "httpie", "flask-cors", "pytest-cov", "pandas-gbq",
			"torchx", "psycopg", "psycopg3", "requests-oauthlib", "aiohttp-cors",
			"black", "sympy", "dask", "pyaml", "numpyro", "pandasql", "djongo", "scrapy",
			"pynacl", "moto", "motor", "flax", "pygame", "vcrpy",
		},
	}
	RubyGems = Ecosystem{
		Name: "RubyGems",
		Popular: []string{
			"rails", "rake", "bundler", "rspec", "nokogiri", "devise", "puma", "sidekiq",
			"rack", "json", "activesupport", "sinatra", "rubocop", "capistrano", "faraday",
		},
		Known: []string{"rspec-core", "racc", "rails-html-sanitizer", "oj", "pry"},
	}
	Crates = Ecosystem{
		Name: "crates.io",
		Popular: []string{
			"serde", "tokio", "rand", "clap", "regex", "reqwest", "anyhow", "thiserror",
			"chrono", "hyper", "futures", "itertools", "lazy_static", "once_cell",
			"serde_json", "tracing", "bytes", "libc", "rayon", "actix-web", "axum",
		},
		Known: []string{"serde_yaml", "tokio-util", "rand_core", "hyper-util", "futures-util", "bytemuck"},
	}
)

// FindTyposquat returns the popular package candidate likely imitates.
// Scoped names, names shorter than 3 chars, exact (case-insensitive) popular
// names and known legitimate names are never reported. A candidate qualifies
// against a popular name when their edit distance is 1 or 2 and their lengths
// differ by at most 2. The first qualifying name in Popular order is returned.
func FindTyposquat(candidate string, eco Ecosystem) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(candidate))
	if len(name) < 3 || strings.Contains(name, "/") || strings.HasPrefix(name, "@") {
		return "", false
	}
	for _, p := range eco.Popular {
		if strings.EqualFold(p, name) {
			return "", false
		}
	}
	for _, k := range eco.Known {
		if strings.EqualFold(k, name) {
			return "", false
		}
	}
	for _, p := range eco.Popular {
		lp := strings.ToLower(p)
		if abs(len(lp)-len(name)) > 2 {
			continue
		}
		if d := levenshtein(name, lp); d > 0 && d <= 2 {
			return p, true
		}
	}
	return "", false
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

type installer struct {
	re  *regexp.Regexp
	eco Ecosystem
}

var installers = []installer{
	{re(`\b(?:npm|pnpm|bun|cnpm)\s+(?:install|i|add|isntall)\b([^;&|\n]*)`), NPM},
	{re(`\byarn\s+(?:global\s+)?add\b([^;&|\n]*)`), NPM},
	{re(`\bnpx\s+((?:-y\s+|--yes\s+)?[^\s;&|]+)`), NPM},
	{re(`\b(?:pip\d?(?:\.\d+)?|python\d?(?:\.\d+)?\s+-m\s+pip|uv\s+pip|pipx)\s+install\b([^;&|\n]*)`), PyPI},
	{re(`\b(?:uv|poetry)\s+add\b([^;&|\n]*)`), PyPI},
	{re(`\bgem\s+install\b([^;&|\n]*)`), RubyGems},
	{re(`\bcargo\s+(?:install|add)\b([^;&|\n]*)`), Crates},
}

// Flags whose next argument is a value, not a package.
var valueFlags = map[string]bool{
	"-r": true, "--requirement": true, "-c": true, "--constraint": true, "-i": true,
	"--index-url": true, "--extra-index-url": true, "--registry": true, "--source": true,
	"-v": true, "--version": true, "-t": true, "--target": true, "--prefix": true,
	"--tag": true, "--git": true, "--path": true, "--features": true, "-e": true,
}

var reVersionSuffix = regexp.MustCompile(`(?:\[[^\]]*\])?(?:[=<>!~]=?.*)?$`)

// packageNames extracts bare registry package names from install arguments.
func packageNames(args string) []string {
	var out []string
	fields := strings.Fields(args)
	for i := 0; i < len(fields); i++ {
		f := strings.Trim(fields[i], `"'`)
		if strings.HasPrefix(f, "-") {
			if valueFlags[f] {
				i++
			}
			continue
		}
		if strings.Contains(f, "://") || strings.HasPrefix(f, ".") || strings.HasPrefix(f, "/") ||
			strings.HasPrefix(f, "git+") || strings.Contains(f, ":") {
			continue
		}
		if strings.HasPrefix(f, "@") {
			continue
		}
		if at := strings.Index(f, "@"); at > 0 {
			f = f[:at]
		}
		f = reVersionSuffix.ReplaceAllString(f, "")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// typosquat scans install commands for names close to popular packages.
func typosquat(text string) (string, bool) {
	for _, in := range installers {
		for _, m := range in.re.FindAllStringSubmatch(text, -1) {
			for _, name := range packageNames(m[1]) {
				if target, ok := FindTyposquat(name, in.eco); ok {
					return `"` + name + `" resembles popular ` + in.eco.Name + ` package "` + target + `"`, true
				}
			}
		}
	}
	return "", false
}
