// +build release

package main

const (
	DEBUG                   = false
	SecretsPath             = "secrets.json"
	MaxDBconnectionPoolSize = 30
	APIlistenAddr           = ":12080"
	DailyAssignmentHour     = 6
)
