// Package redact strips secret material from text before it leaves the
// machine. The rule table doubles as the detection source for the
// secret-scan agent.
package redact
