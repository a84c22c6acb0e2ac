// Package secrets is the offline secret-scanning agent. It reuses the
// redaction rule table so detection and prompt sanitization never drift
// apart.
package secrets
