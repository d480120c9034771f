// Package flagx lets several independent flag sets share one command line.
// Each set sees only the arguments it defines; everything else is dropped
// before parsing.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs returns the arguments naming one of allowedFlags, together with
// their values. Both "-f value" and "-f=value" forms are kept. A separate
// value is taken only when it does not start with "-".
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]bool, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = false
	}
	return filter(args, allowed)
}

// FilterFor is FilterArgs for the flags defined on fs, accepting both the
// single and double dash spelling. Boolean flags never consume the next
// argument, so "-once db.sqlite" does not swallow the positional value.
func FilterFor(args []string, fs *flag.FlagSet) []string {
	allowed := make(map[string]bool)
	fs.VisitAll(func(f *flag.Flag) {
		b, ok := f.Value.(interface{ IsBoolFlag() bool })
		isBool := ok && b.IsBoolFlag()
		allowed["-"+f.Name] = isBool
		allowed["--"+f.Name] = isBool
	})
	return filter(args, allowed)
}

// allowed maps a flag spelling to whether it is boolean.
func filter(args []string, allowed map[string]bool) []string {
	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		isBool, ok := allowed[arg]
		if !ok {
			continue
		}
		filtered = append(filtered, arg)
		if !isBool && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// JSONConfigPath returns the config file named by -c or -config in args, or
// "" when neither is present. Other arguments are ignored.
func JSONConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (short)")
	_ = fs.Parse(FilterFor(args, fs))

	return path
}
