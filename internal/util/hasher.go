// Package util has small file helpers shared by the installer.
package util

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"
)

const hashChunk = 1 << 20

// HashFileSHA256 streams path through SHA-256 in 1 MiB reads, stopping
// early when ctx is cancelled.
func HashFileSHA256(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	buf := make([]byte, hashChunk)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := f.Read(buf)
		h.Write(buf[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MatchesSHA256 reports whether the file at path hashes to want, a hex
// digest optionally prefixed with "sha256:". Case is ignored.
func MatchesSHA256(ctx context.Context, path, want string) (bool, error) {
	want = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(want), "sha256:"))
	got, err := HashFileSHA256(ctx, path)
	if err != nil {
		return false, err
	}
	return got == want, nil
}
