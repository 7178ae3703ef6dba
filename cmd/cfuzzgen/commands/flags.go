package commands

import (
	"fmt"
	"strconv"
)

// parseFlags reads a flat "--name value" / "--name=value" arg list into a
// map (SPEC_FULL.md §6's verbs take no positional arguments, only named
// flags). No third-party flag/CLI library is imported directly by any
// pack repo (grounded choice, see DESIGN.md), so this mirrors the
// teacher's own manual arg handling rather than reaching for one.
func parseFlags(args []string) (map[string]string, error) {
	out := make(map[string]string)
	for i := 0; i < len(args); i++ {
		a := args[i]
		if len(a) < 2 || a[:2] != "--" {
			return nil, fmt.Errorf("unexpected argument %q (flags must be --name value)", a)
		}
		name := a[2:]
		if eq := indexByte(name, '='); eq >= 0 {
			out[name[:eq]] = name[eq+1:]
			continue
		}
		if i+1 >= len(args) {
			return nil, fmt.Errorf("flag --%s requires a value", name)
		}
		i++
		out[name] = args[i]
	}
	return out, nil
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func parseUint64(flags map[string]string, name string, def uint64) (uint64, error) {
	v, ok := flags[name]
	if !ok {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("--%s: %v", name, err)
	}
	return n, nil
}

func parseInt(flags map[string]string, name string, def int) (int, error) {
	v, ok := flags[name]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("--%s: %v", name, err)
	}
	return n, nil
}
