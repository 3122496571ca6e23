// Package flagx helps config loaders share os.Args: each loader picks out the
// flags it owns and ignores the rest.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs returns only the allowed flags from args, together with their
// values. Both "-f value" and "-f=value" forms are recognised; a following
// argument that starts with "-" is never taken as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// Sources names the optional files a config loader overlays on its defaults.
type Sources struct {
	// JSONFile comes from -c / -config.
	JSONFile string
	// EnvFile comes from -envfile; it is loaded into the process environment
	// before env variables are parsed.
	EnvFile string
}

// ConfigSources extracts the config file locations from args
// (usually os.Args[1:]). Unknown flags are ignored; the last occurrence wins.
func ConfigSources(args []string) Sources {
	var s Sources

	filtered := FilterArgs(args, []string{"-c", "-config", "-envfile"})

	fs := flag.NewFlagSet("sources", flag.ContinueOnError)
	fs.StringVar(&s.JSONFile, "config", "", "path to JSON config file")
	fs.StringVar(&s.JSONFile, "c", "", "path to JSON config file (short)")
	fs.StringVar(&s.EnvFile, "envfile", "", "path to .env file")
	_ = fs.Parse(filtered)

	return s
}
