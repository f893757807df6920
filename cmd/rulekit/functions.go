package main

import (
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"mercator-hq/rulekit/pkg/rules/condition"
	"mercator-hq/rulekit/pkg/rules/ruleset"
	"mercator-hq/rulekit/pkg/rules/value"
)

// now is replaced in tests.
var now = time.Now

// functions are the function operands available to rule documents run by
// the CLI:
//
//	now()                Unix time in seconds
//	env(name)            environment variable, absent when unset
//	concat(args...)      arguments joined as text
//	len(text)            number of characters
var functions = map[string]condition.FunctionBlock{
	"now": func(args ...value.Value) value.Value {
		return value.Int(now().Unix())
	},
	"env": func(args ...value.Value) value.Value {
		if len(args) != 1 {
			return value.Absent()
		}
		v, ok := os.LookupEnv(args[0].String())
		if !ok {
			return value.Absent()
		}
		return value.Text(v)
	},
	"concat": func(args ...value.Value) value.Value {
		var b strings.Builder
		for _, a := range args {
			b.WriteString(a.String())
		}
		return value.Text(b.String())
	},
	"len": func(args ...value.Value) value.Value {
		if len(args) != 1 {
			return value.Absent()
		}
		s, ok := args[0].AsText()
		if !ok {
			return value.Absent()
		}
		return value.Int(int64(utf8.RuneCountInString(s)))
	},
}

func registerFunctions(loader *ruleset.Loader) *ruleset.Loader {
	for name, block := range functions {
		loader.RegisterFunction(name, block)
	}
	return loader
}
