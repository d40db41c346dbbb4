package compress

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeTool(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are unix only")
	}
	p := filepath.Join(t.TempDir(), "fakezstd")
	body := "#!/bin/sh\n" + script + "\n"
	require.NoError(t, os.WriteFile(p, []byte(body), 0755))
	return p
}

func writeInput(t *testing.T, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "container.tar")
	require.NoError(t, os.WriteFile(p, data, 0644))
	return p
}

func TestZstdArgs(t *testing.T) {
	z := &Zstd{}
	assert.Equal(t,
		[]string{"-q", "-f", "-T1", "--ultra", "-22", "in", "-o", "out"},
		z.Args("in", "out"),
	)
	assert.Equal(t, "zstd", z.Name())

	z = &Zstd{Binary: "/opt/zstd", Level: 19}
	assert.Equal(t,
		[]string{"-q", "-f", "-T1", "-19", "in", "-o", "out"},
		z.Args("in", "out"),
	)
	assert.Equal(t, "/opt/zstd", z.Name())
}

func TestZstdMissingBinary(t *testing.T) {
	z := &Zstd{Binary: filepath.Join(t.TempDir(), "no-such-zstd")}
	src := writeInput(t, []byte("data"))
	dst := filepath.Join(t.TempDir(), "out.zst")

	err := z.Compress(context.Background(), src, dst)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolchainMissing)
	assert.Contains(t, err.Error(), "no-such-zstd")
	assert.NoFileExists(t, dst)
}

func TestZstdExitStatus(t *testing.T) {
	bin := fakeTool(t, "echo boom >&2\nexit 3")
	z := &Zstd{Binary: bin}
	src := writeInput(t, []byte("data"))

	err := z.Compress(
		context.Background(), src,
		filepath.Join(t.TempDir(), "out.zst"),
	)
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "%v", err)
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, "boom", exitErr.Stderr)
	assert.Contains(t, err.Error(), "status 3")
}

func TestZstdPassesArguments(t *testing.T) {
	// -q -f -T1 -3 <src> -o <dst>
	bin := fakeTool(t, `cp "$5" "$7"`)
	z := &Zstd{Binary: bin, Level: 3}
	src := writeInput(t, []byte("payload"))
	dst := filepath.Join(t.TempDir(), "out.zst")

	require.NoError(t, z.Compress(context.Background(), src, dst))
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestZstdRealBinaryDeterministic(t *testing.T) {
	if _, err := exec.LookPath("zstd"); err != nil {
		t.Skip("zstd not installed")
	}
	src := writeInput(t, bytes.Repeat([]byte("reproducible "), 4096))
	dir := t.TempDir()
	z := &Zstd{}

	a := filepath.Join(dir, "a.zst")
	b := filepath.Join(dir, "b.zst")
	require.NoError(t, z.Compress(context.Background(), src, a))
	require.NoError(t, z.Compress(context.Background(), src, b))

	da, err := os.ReadFile(a)
	require.NoError(t, err)
	db, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func TestBuiltinRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("tar block "), 10000)
	src := writeInput(t, data)
	dst := filepath.Join(t.TempDir(), "out.zst")

	require.NoError(t, Builtin{}.Compress(
		context.Background(), src, dst,
	))

	compressed, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(data))

	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()
	plain, err := dec.DecodeAll(compressed, nil)
	require.NoError(t, err)
	assert.Equal(t, data, plain)
}

func TestBuiltinDeterministic(t *testing.T) {
	src := writeInput(t, bytes.Repeat([]byte("abcdefgh"), 50000))
	dir := t.TempDir()

	var outs [][]byte
	for _, name := range []string{"a.zst", "b.zst"} {
		dst := filepath.Join(dir, name)
		require.NoError(t, Builtin{}.Compress(
			context.Background(), src, dst,
		))
		b, err := os.ReadFile(dst)
		require.NoError(t, err)
		outs = append(outs, b)
	}
	assert.Equal(t, outs[0], outs[1])
}

func TestBuiltinCanceled(t *testing.T) {
	src := writeInput(t, []byte("data"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Builtin{}.Compress(
		ctx, src, filepath.Join(t.TempDir(), "out.zst"),
	)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	c, err := New("", "", 0)
	require.NoError(t, err)
	assert.IsType(t, &Zstd{}, c)

	c, err = New(BackendBuiltin, "", 3)
	require.NoError(t, err)
	assert.Equal(t, "builtin", c.Name())
	assert.Equal(t, &Builtin{Level: 3}, c)

	_, err = New("gzip", "", 0)
	assert.Error(t, err)
}

func TestBuiltinLevel(t *testing.T) {
	assert.Equal(t, zstd.SpeedBestCompression, Builtin{}.EncoderLevel())
	assert.Equal(t, zstd.SpeedBestCompression, Builtin{Level: 22}.EncoderLevel())
	assert.Equal(t, zstd.SpeedFastest, Builtin{Level: 1}.EncoderLevel())
	assert.Equal(t, zstd.SpeedDefault, Builtin{Level: 3}.EncoderLevel())

	var data []byte
	for i := 0; i < 20000; i++ {
		data = append(data, []byte(fmt.Sprintf("line %d of %d\n", i%97, i%13))...)
	}
	src := writeInput(t, data)
	dir := t.TempDir()

	sizes := map[int]int{}
	for _, level := range []int{1, 22} {
		dst := filepath.Join(dir, fmt.Sprintf("%d.zst", level))
		require.NoError(t, Builtin{Level: level}.Compress(
			context.Background(), src, dst,
		))
		b, err := os.ReadFile(dst)
		require.NoError(t, err)

		dec, err := zstd.NewReader(nil)
		require.NoError(t, err)
		plain, err := dec.DecodeAll(b, nil)
		dec.Close()
		require.NoError(t, err)
		assert.Equal(t, data, plain)
		sizes[level] = len(b)
	}
	assert.NotEqual(t, sizes[1], sizes[22])
}
