// Package flagx lets several configuration layers share os.Args: each layer
// picks out only the flags it owns before parsing.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs keeps only the allowed flags and their values from args.
// Both "-c conf.json" and "--config=conf.json" forms are recognized. A token
// that starts with "-" is never consumed as the value of a preceding flag.
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

// ConfigFileFlag returns the JSON config path given with -c or -config,
// or "" when neither is present.
func ConfigFileFlag() string {
	return stringFlag([]string{"c", "config"}, "path to JSON config file")
}

// EnvFileFlag returns the dotenv path given with -env, or "" when absent.
func EnvFileFlag() string {
	return stringFlag([]string{"env"}, "path to .env file")
}

func stringFlag(names []string, usage string) string {
	var value string

	dashed := make([]string, 0, len(names))
	for _, n := range names {
		dashed = append(dashed, "-"+n)
	}
	args := FilterArgs(os.Args[1:], dashed)

	fs := flag.NewFlagSet(names[0], flag.ContinueOnError)
	for _, n := range names {
		fs.StringVar(&value, n, "", usage)
	}
	_ = fs.Parse(args)

	return value
}
