package artifacts

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wordsift/wordsift/internal/types"
)

func zipBytes(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func tgzBytes(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, data := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(data)), Typeflag: tar.TypeReg}))
		_, err := tw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func paths(bs []types.Blob) []string {
	out := make([]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.Path)
	}
	return out
}

func TestCollect_NestedArchives(t *testing.T) {
	dir := t.TempDir()
	inner := tgzBytes(t, map[string][]byte{"deep.txt": []byte("二货")})
	outer := zipBytes(t, map[string][]byte{"a.txt": []byte("hello"), "inner.tgz": inner})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bundle.zip"), outer, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain.txt"), []byte("x"), 0o644))

	blobs, err := Collect(context.Background(), dir, DefaultLimits(), nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bundle.zip::a.txt", "bundle.zip::inner.tgz::deep.txt"}, paths(blobs))
}

func TestCollect_DepthLimit(t *testing.T) {
	dir := t.TempDir()
	inner := tgzBytes(t, map[string][]byte{"deep.txt": []byte("x")})
	outer := zipBytes(t, map[string][]byte{"inner.tgz": inner})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bundle.zip"), outer, 0o644))

	l := DefaultLimits()
	l.MaxDepth = 0
	blobs, err := Collect(context.Background(), dir, l, nil)
	require.NoError(t, err)
	assert.Empty(t, blobs)
}

func TestCollect_EntryAndByteLimits(t *testing.T) {
	dir := t.TempDir()
	data := tgzBytes(t, map[string][]byte{"1.txt": []byte("one"), "2.txt": []byte("two"), "3.txt": []byte("three")})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.tar.gz"), data, 0o644))

	l := DefaultLimits()
	l.MaxEntries = 1
	blobs, err := Collect(context.Background(), dir, l, nil)
	require.NoError(t, err)
	assert.Len(t, blobs, 1)

	l = DefaultLimits()
	l.MaxArchiveBytes = 2
	blobs, err = Collect(context.Background(), dir, l, nil)
	require.NoError(t, err)
	assert.Empty(t, blobs)
}

func TestCollect_GzipAndFilter(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = gz.Write([]byte("badword"))
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt.gz"), buf.Bytes(), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vendor"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor", "x.gz"), buf.Bytes(), 0o644))

	blobs, err := Collect(context.Background(), dir, DefaultLimits(), func(rel string) bool {
		return filepath.Dir(rel) != "vendor"
	})
	require.NoError(t, err)
	require.Len(t, blobs, 1)
	assert.Equal(t, "notes.txt.gz::notes.txt", blobs[0].Path)
	assert.Equal(t, "badword", string(blobs[0].Data))
}

func TestCollect_CorruptArchiveSkipped(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.zip"), []byte("not a zip"), 0o644))
	blobs, err := Collect(context.Background(), dir, DefaultLimits(), nil)
	require.NoError(t, err)
	assert.Empty(t, blobs)
}

func TestCollect_Canceled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.zip"), zipBytes(t, map[string][]byte{"a.txt": []byte("x")}), 0o644))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Collect(ctx, dir, DefaultLimits(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
