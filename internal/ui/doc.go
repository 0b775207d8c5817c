// Package ui renders styled output for the headless apswitch commands.
//
// Unlike the interactive screen in internal/tui, these components follow
// a "print and move on" pattern:
//
//   - RenderHeader: command banner with ordered parameters
//   - Result: success, warning and failure boxes; failure boxes carry the
//     troubleshooting tips for the connect error type
//   - Printer: writes boxes and console log lines, and can Follow a Log
//   - ReadPassphrase / Confirm: terminal prompts
//
// Logging is controlled via the APSWITCH_LOG_LEVEL environment variable.
// When unset, zap is silent so the curated output stays readable.
package ui
