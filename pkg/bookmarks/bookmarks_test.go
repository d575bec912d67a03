// Copyright © 2018 One Concern

package bookmarks

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/oneconcern/blobimport/pkg/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	onesHash = model.MustNodeHashFromHex("1111111111111111111111111111111111111111")
	twosHash = model.MustNodeHashFromHex("2222222222222222222222222222222222222222")
)

func assertBookmark(t testing.TB, b *Bookmarks, name string, expected model.NodeHash, expectedOK bool) {
	hash, version, ok := b.Get(name)
	require.Equal(t, expectedOK, ok, name)
	if !expectedOK {
		return
	}
	assert.Equal(t, expected, hash, name)
	assert.Equal(t, CurrentVersion, version, name)
}

func TestParse(t *testing.T) {
	const disk = "1111111111111111111111111111111111111111 abc\n" +
		"2222222222222222222222222222222222222222 def\n" +
		"1111111111111111111111111111111111111111 test123\n"

	b, err := FromReader(strings.NewReader(disk))
	require.NoError(t, err)

	assertBookmark(t, b, "abc", onesHash, true)
	assertBookmark(t, b, "def", twosHash, true)
	assertBookmark(t, b, "test123", onesHash, true)
	assertBookmark(t, b, "abcdef", model.NullHash, false)

	keys := b.Keys()
	sort.Strings(keys)
	assert.Equal(t, []string{"abc", "def", "test123"}, keys)
}

func TestParseLastWins(t *testing.T) {
	const disk = "1111111111111111111111111111111111111111 abc\n" +
		"2222222222222222222222222222222222222222 abc"

	b, err := FromReader(strings.NewReader(disk))
	require.NoError(t, err)
	assertBookmark(t, b, "abc", twosHash, true)
	assert.Equal(t, 1, b.Len())
}

func TestParseCarriageReturn(t *testing.T) {
	b, err := FromReader(strings.NewReader("1111111111111111111111111111111111111111 abc\r\n"))
	require.NoError(t, err)
	assertBookmark(t, b, "abc\r", onesHash, true)
	assertBookmark(t, b, "abc", model.NullHash, false)
}

func TestInvalid(t *testing.T) {
	for _, toPin := range []struct {
		name        string
		input       string
		invalidHash bool
	}{
		{name: "short line", input: "111\n"},
		{name: "no space or bookmark name", input: "1111111111111111111111111111111111111111\n"},
		{name: "no bookmark name", input: "1111111111111111111111111111111111111111 \n"},
		{name: "no space after hash", input: "1111111111111111111111111111111111111111ab\n"},
		{name: "empty line", input: "1111111111111111111111111111111111111111 abc\n\n"},
		{name: "short hash", input: "111111111111111111111111111111111111111  1ab\n", invalidHash: true},
		{name: "non-ASCII", input: "111111111111111111111111111111111111111\xff test\n", invalidHash: true},
		{name: "not a valid hex string", input: "abcdefgabcdefgabcdefgabcdefgabcdefgabcde test\n", invalidHash: true},
	} {
		fixture := toPin
		t.Run(fixture.name, func(t *testing.T) {
			_, err := FromReader(strings.NewReader(fixture.input))
			require.Error(t, err)

			var badLine *InvalidBookmarkLineError
			var badHash *InvalidHashError
			if fixture.invalidHash {
				require.Truef(t, errors.As(err, &badHash), "unexpected error %v", err)
				assert.Len(t, []rune(badHash.Hash), model.NodeHashSizeHex)
				assert.False(t, errors.As(err, &badLine))
				return
			}
			require.Truef(t, errors.As(err, &badLine), "unexpected error %v", err)
			assert.False(t, errors.As(err, &badHash))
		})
	}
}

func TestRead(t *testing.T) {
	fs := afero.NewMemMapFs()

	t.Run("should treat a missing file as empty", func(t *testing.T) {
		b, err := Read(fs, ".hg")
		require.NoError(t, err)
		assert.Empty(t, b.Keys())
	})

	t.Run("should read the bookmarks file", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, ".hg/bookmarks",
			[]byte("2222222222222222222222222222222222222222 main\n"), 0o644))

		b, err := Read(fs, ".hg")
		require.NoError(t, err)
		assertBookmark(t, b, "main", twosHash, true)
	})
}
