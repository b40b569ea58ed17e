// +build !release

package main

const (
	DEBUG                   = true
	SecretsPath             = "secrets-debug.json"
	MaxDBconnectionPoolSize = 30
	APIlistenAddr           = ":12080"
	DailyAssignmentHour     = 6
)
