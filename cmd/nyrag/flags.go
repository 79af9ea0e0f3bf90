package main

import "github.com/spf13/pflag"

// bindFlag binds a flag to a config key. Unset flags leave environment
// and file values in place.
func (a *app) bindFlag(key string, f *pflag.Flag) {
	if f == nil {
		panic("nyrag: unknown flag for " + key)
	}
	// BindPFlag only fails for a nil flag.
	_ = a.v.BindPFlag(key, f)
}
