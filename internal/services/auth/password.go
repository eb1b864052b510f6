// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"bufio"
	"embed"
	"fmt"
	"strings"
	"unicode"

	"codeberg.org/vrmates/accounts/internal/validate"
)

//go:embed common_passwords.txt
var commonPasswordsFS embed.FS

var commonPasswords = loadCommonPasswords()

// minSimilarityLength is the shortest attribute compared against passwords.
const minSimilarityLength = 4

func loadCommonPasswords() map[string]struct{} {
	passwords := make(map[string]struct{})
	file, err := commonPasswordsFS.Open("common_passwords.txt")
	if err != nil {
		return passwords
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		password := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if password != "" {
			passwords[password] = struct{}{}
		}
	}
	return passwords
}

// PasswordPolicy checks new passwords before they are hashed.
type PasswordPolicy struct {
	MinLength            int
	MaxLength            int // bcrypt ignores everything past 72 bytes
	CheckCommonPasswords bool
	CheckUserSimilarity  bool
}

// DefaultPasswordPolicy returns a policy with sensible defaults.
func DefaultPasswordPolicy(minLength int) *PasswordPolicy {
	if minLength <= 0 {
		minLength = 8
	}
	return &PasswordPolicy{
		MinLength:            minLength,
		MaxLength:            72,
		CheckCommonPasswords: true,
		CheckUserSimilarity:  true,
	}
}

// Check adds a message to errs under field for every rule password breaks.
// userAttributes are values the password must not resemble, like the email.
func (p *PasswordPolicy) Check(errs validate.Errors, field, password string, userAttributes ...string) {
	if password == "" {
		errs.Add(field, "This field is required.")
		return
	}

	if len([]rune(password)) < p.MinLength {
		errs.Add(field, fmt.Sprintf("This password is too short. It must contain at least %d characters.", p.MinLength))
	}

	if p.MaxLength > 0 && len(password) > p.MaxLength {
		errs.Add(field, fmt.Sprintf("This password is too long. It must contain at most %d bytes.", p.MaxLength))
	}

	if isEntirelyNumeric(password) {
		errs.Add(field, "This password is entirely numeric.")
	}

	if p.CheckCommonPasswords {
		if _, ok := commonPasswords[strings.ToLower(password)]; ok {
			errs.Add(field, "This password is too common.")
		}
	}

	if p.CheckUserSimilarity && isSimilarToUserAttributes(password, userAttributes) {
		errs.Add(field, "The password is too similar to your personal information.")
	}
}

func isEntirelyNumeric(password string) bool {
	for _, r := range password {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(password) > 0
}

func isSimilarToUserAttributes(password string, attributes []string) bool {
	passwordLower := strings.ToLower(password)

	for _, attr := range attributes {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if attr == "" {
			continue
		}

		// Compare against the whole value and, for emails, the local part.
		parts := []string{attr}
		if local, _, ok := strings.Cut(attr, "@"); ok && local != "" {
			parts = append(parts, local)
		}

		for _, part := range parts {
			if len(part) < minSimilarityLength {
				continue
			}
			if strings.Contains(passwordLower, part) || strings.Contains(part, passwordLower) {
				return true
			}
			if similarity(passwordLower, part) > 0.7 {
				return true
			}
		}
	}

	return false
}

// similarity is the length of the longest common subsequence relative to
// the longer string.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}

	return float64(prev[len(b)]) / float64(max(len(a), len(b)))
}
