package integrity

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashBytesDeterministic(t *testing.T) {
	a, err := HashBytes(SHA256, []byte("hello"))
	require.NoError(t, err)
	b, err := HashBytes(SHA256, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestHashBytesBlake3(t *testing.T) {
	h, err := HashBytes(BLAKE3, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, BLAKE3, h.Algorithm)
	require.NotEmpty(t, h.Hex)
}

func TestSRIRoundTrip(t *testing.T) {
	h, err := HashBytes(SHA256, []byte("payload"))
	require.NoError(t, err)
	sri, err := h.SRI()
	require.NoError(t, err)

	parsed, err := ParseHash(sri)
	require.NoError(t, err)
	require.Equal(t, h.Hex, parsed.Hex)
	require.Equal(t, h.Algorithm, parsed.Algorithm)
}

func TestParseHashHex(t *testing.T) {
	h, err := HashBytes(SHA256, []byte("payload"))
	require.NoError(t, err)
	parsed, err := ParseHash(h.String())
	require.NoError(t, err)
	require.Equal(t, h, parsed)
}

func TestHashDirectoryOrderIndependent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("b"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("ref: x"), 0o644))

	h1, err := HashDirectory(root, DirOptions{})
	require.NoError(t, err)
	h2, err := HashDirectory(root, DirOptions{})
	require.NoError(t, err)
	require.Equal(t, h1, h2)

	ok, err := VerifyDirectory(h1, root, DirOptions{})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestHashDirectorySkipsDotAndScratchDirs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "keep.txt"), []byte("x"), 0o644))

	base, err := HashDirectory(root, DirOptions{})
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "zig-cache"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "zig-cache", "junk"), []byte("noise"), 0o644))

	withJunk, err := HashDirectory(root, DirOptions{})
	require.NoError(t, err)
	require.Equal(t, base, withJunk)
}

func TestHashBytesHelloWorldLiteral(t *testing.T) {
	h, err := HashBytes(SHA256, []byte("hello world"))
	require.NoError(t, err)
	require.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", h.Hex)
}

func TestHexToHashAllZero(t *testing.T) {
	zeros := strings.Repeat("0", 64)
	h, err := HexToHash(SHA256, zeros)
	require.NoError(t, err)
	require.Equal(t, zeros, HashToHex(h))
}

func TestHexToHashRejectsBadInput(t *testing.T) {
	_, err := HexToHash(SHA256, strings.Repeat("0", 63))
	require.Error(t, err)

	_, err = HexToHash(SHA256, strings.Repeat("z", 64))
	require.Error(t, err)
}

func TestHashDirectoryLiteralVector(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hi"), 0o644))

	h, err := HashDirectory(root, DirOptions{})
	require.NoError(t, err)
	// sha256("a.txt" || sha256("hi")), per §4.1: hash the path bytes then
	// the raw digest bytes, nothing else folded in.
	require.Equal(t, "367c24eb82a04296fac600538f8f7e3376df62420d385003def3f8f6fe6135a8", h.Hex)
}

func TestVerifyBytesDetectsMismatch(t *testing.T) {
	h, err := HashBytes(SHA256, []byte("original"))
	require.NoError(t, err)
	ok, err := VerifyBytes(h, []byte("tampered"))
	require.NoError(t, err)
	require.False(t, ok)
}
