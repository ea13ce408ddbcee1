package config

import (
	"os"
	"runtime"
	"strings"
)

// Locations lists the candidate config files, most specific first.
func Locations() []string {
	return locations(runtime.GOOS, os.LookupEnv)
}

func locations(goos string, lookup func(string) (string, bool)) []string {
	env := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	if goos == "windows" {
		user := `\`
		if dir := env("APPDATA"); dir != "" {
			user = winJoin(dir, FileName)
		} else if dir := env("USERPROFILE"); dir != "" {
			user = winJoin(dir, "AppData", "Roaming", FileName)
		} else {
			user = winJoin(user, FileName)
		}
		return []string{user, winJoin(`C:\`, "ProgramData", FileName)}
	}

	user := "/" + FileName
	if dir := env("XDG_CONFIG_HOME"); dir != "" {
		user = unixJoin(dir, FileName)
	} else if dir := env("HOME"); dir != "" {
		user = unixJoin(dir, ".config", FileName)
	}
	return []string{user, unixJoin("/etc", FileName)}
}

// Joins are done by hand so the result does not depend on the host OS.
func unixJoin(parts ...string) string {
	return join("/", parts)
}

func winJoin(parts ...string) string {
	return join(`\`, parts)
}

func join(sep string, parts []string) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			p = strings.TrimLeft(p, sep)
			if !strings.HasSuffix(b.String(), sep) {
				b.WriteString(sep)
			}
		}
		b.WriteString(p)
	}
	return b.String()
}
