package utils

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strings"
)

// FileSHA256 returns the lowercase hex sha256 digest of name.
func FileSHA256(name string) (string, error) {
	f, err := os.Open(name)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

// VerifySHA256 checks name against expected and returns the actual digest.
func VerifySHA256(name, expected string) (string, error) {
	actual, err := FileSHA256(name)
	if err != nil {
		return "", err
	}

	if !strings.EqualFold(actual, strings.TrimSpace(expected)) {
		return actual, fmt.Errorf("hashes do not match: expected: %s, actual: %s", expected, actual)
	}

	return actual, nil
}
