// Package alias mints and validates the two alias forms a file can be
// addressed by: a 6-character short alias drawn from an unambiguous
// alphabet, and a long alias joining three distinct dictionary words with
// hyphens (spec §4.3).
package alias

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// ErrGenerationFailed is returned when no free alias could be minted
// within the retry budget.
var ErrGenerationFailed = errors.New("alias: generation failed")

// shortChars excludes visually ambiguous characters (0/O, 1/I/l).
const shortChars = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

const shortLength = 6

var (
	shortRegex = regexp.MustCompile(fmt.Sprintf("^[%s]{%d}$", shortChars, shortLength))
	longRegex  = regexp.MustCompile(`^[a-z]{3,}(?:-[a-z]{3,}){2}$`)
)

// IsShort reports whether alias matches the short alias format.
func IsShort(a string) bool {
	return shortRegex.MatchString(a)
}

// IsLong reports whether alias matches the long alias format.
func IsLong(a string) bool {
	return longRegex.MatchString(a)
}

// IsValid reports whether alias matches either alias format.
func IsValid(a string) bool {
	return IsShort(a) || IsLong(a)
}

// RandomShort returns a random 6-character short alias.
func RandomShort() (string, error) {
	var b strings.Builder
	b.Grow(shortLength)
	for i := 0; i < shortLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(shortChars))))
		if err != nil {
			return "", fmt.Errorf("alias: random short: %w", err)
		}
		b.WriteByte(shortChars[n.Int64()])
	}
	return b.String(), nil
}

// RandomLong returns a random long alias: three distinct words joined by
// hyphens.
func RandomLong() (string, error) {
	chosen, err := chooseDistinct(3)
	if err != nil {
		return "", err
	}
	return strings.Join(chosen, "-"), nil
}

func chooseDistinct(n int) ([]string, error) {
	picked := make(map[int]struct{}, n)
	result := make([]string, 0, n)
	for len(result) < n {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(words))))
		if err != nil {
			return nil, fmt.Errorf("alias: random long: %w", err)
		}
		i := int(idx.Int64())
		if _, taken := picked[i]; taken {
			continue
		}
		picked[i] = struct{}{}
		result = append(result, words[i])
	}
	return result, nil
}

// Kind discriminates which form an alias probe checks.
type Kind int

const (
	Short Kind = iota
	Long
)

// Checker probes whether a candidate alias is already taken, backed by the
// metastore.
type Checker func(alias string, kind Kind) (bool, error)

// maxAttempts bounds retries per alias slot before giving up (spec §4.3).
const maxAttempts = 20

// Mint generates a fresh, unused pair of (short, long) aliases, retrying
// each independently up to maxAttempts times against exists.
func Mint(exists Checker) (short, long string, err error) {
	short, err = mintSlot(Short, RandomShort, exists)
	if err != nil {
		return "", "", err
	}
	long, err = mintSlot(Long, RandomLong, exists)
	if err != nil {
		return "", "", err
	}
	return short, long, nil
}

func mintSlot(kind Kind, gen func() (string, error), exists Checker) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate, err := gen()
		if err != nil {
			return "", err
		}
		taken, err := exists(candidate, kind)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrGenerationFailed
}
