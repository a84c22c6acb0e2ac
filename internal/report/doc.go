// Package report assembles the final run envelope and hands it off to
// output writers (text, markdown, json) and publishing adapters. The
// GitHub adapter posts review threads idempotently using hidden
// fingerprint markers and sets a commit status from the verdict.
package report
