// Package ui renders human-facing console output for view and viewset
// commands.
//
// It colorizes per-repository outcome lines, attaches remediation hints to
// classified git failures, and prompts for confirmation before destructive
// operations, while structured telemetry continues to flow through zap.
package ui
