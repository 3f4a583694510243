// Package flagx lets several flag sets share one command line: each
// consumer filters os.Args down to the flags it owns before parsing.
package flagx

import (
	"flag"
	"strings"
)

// Filter returns the arguments belonging to the allowed flags. The map value
// tells whether the flag takes a separate value ("-c conf.json"); boolean
// flags map to false and never swallow the following token. The "-f=value"
// form is always kept whole. Filtering stops at a "--" terminator.
func Filter(args []string, allowed map[string]bool) []string {
	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		takesValue, ok := allowed[arg]
		if !ok {
			continue
		}
		filtered = append(filtered, arg)
		if takesValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// FilterArgs is Filter for flags that all take a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]bool, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = true
	}
	return Filter(args, allowed)
}

// ConfigPath extracts the config file path given with -c or -config.
// It returns "" when neither is present; the last occurrence wins.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to config file (JSON or YAML)")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return path
}
