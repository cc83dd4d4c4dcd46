// Package idgen provides short, URL-safe unique ID generation backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// IssuePrefix is prepended to generated issue keys.
var IssuePrefix = "AY"

// RequestPrefix is prepended to generated search request IDs.
var RequestPrefix = "rq-"

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_"

// Length is the number of random characters generated (excluding the prefix).
var Length = 18

// IssueKey returns a new issue key.
func IssueKey() (string, error) {
	return GenerateWithPrefix(IssuePrefix, Length)
}

// RequestID returns a short ID used to correlate a search request with its
// response in logs. It never fails; on generator error it returns the bare
// prefix.
func RequestID() string {
	id, err := GenerateWithPrefix(RequestPrefix, 8)
	if err != nil {
		return RequestPrefix
	}
	return id
}

// GenerateWithPrefix returns a new unique ID of n random characters with the
// given prefix.
func GenerateWithPrefix(prefix string, n int) (string, error) {
	id, err := nanoid.Generate(Alphabet, n)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
