// Package github is a minimal GitHub REST client for the pieces the
// reporting adapter needs: PR diffs, review posting, review-comment
// listing, and commit statuses.
package github
