package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const onesHex = "1111111111111111111111111111111111111111"

func TestNodeHash(t *testing.T) {
	t.Run("should parse hex", func(t *testing.T) {
		h, err := NodeHashFromHex(onesHex)
		require.NoError(t, err)
		assert.Equal(t, onesHex, h.String())
		assert.False(t, h.IsNull())

		upper, err := NodeHashFromHex(strings.ToUpper("abcdefabcdefabcdefabcdefabcdefabcdefabcd"))
		require.NoError(t, err)
		assert.Equal(t, "abcdefabcdefabcdefabcdefabcdefabcdefabcd", upper.String())
	})

	t.Run("should reject bad hashes", func(t *testing.T) {
		for _, bad := range []string{"", "111", onesHex + "1", "abcdefgabcdefgabcdefgabcdefgabcdefgabcde"} {
			_, err := NodeHashFromHex(bad)
			require.Error(t, err, bad)
			var target *BadNodeHash
			require.ErrorAs(t, err, &target)
		}
		require.Panics(t, func() { _ = MustNodeHashFromHex("zz") })
	})

	t.Run("should hash independently of parents order", func(t *testing.T) {
		p1 := MustNodeHashFromHex(onesHex)
		p2 := MustNodeHashFromHex("2222222222222222222222222222222222222222")
		assert.Equal(t, HashNode(p1, p2, []byte("text")), HashNode(p2, p1, []byte("text")))
		assert.NotEqual(t, HashNode(p1, p2, []byte("text")), HashNode(p1, p2, []byte("other")))
	})

	t.Run("should marshal as text", func(t *testing.T) {
		h := MustNodeHashFromHex(onesHex)
		txt, err := h.MarshalText()
		require.NoError(t, err)
		var back NodeHash
		require.NoError(t, back.UnmarshalText(txt))
		assert.Equal(t, h, back)
	})
}

func TestRepoPath(t *testing.T) {
	for _, p := range []RepoPath{RootPath(), DirPath("a/b"), FilePath("a/b/c.txt")} {
		back, err := ParseRepoPath(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, back)
	}
	_, err := ParseRepoPath("nowhere")
	require.Error(t, err)
}

func TestChangeset(t *testing.T) {
	cs := &Changeset{
		Manifest: MustNodeHashFromHex(onesHex),
		User:     "alice <alice@example.com>",
		Time:     time.Date(2018, 1, 2, 3, 4, 5, 0, time.UTC),
		Extra:    map[string]string{"branch": "stable"},
		Files:    []string{"b.txt", "a.txt"},
		Message:  "initial import",
	}
	cs.ID = cs.ComputeID()

	t.Run("should derive a stable identity", func(t *testing.T) {
		assert.False(t, cs.ID.IsNull())
		assert.Equal(t, cs.ID, cs.ComputeID())
		assert.Equal(t, "changeset-"+cs.ID.String(), cs.Key())
		assert.Equal(t, "stable", cs.Branch())
		assert.True(t, cs.P1().IsNull())
		assert.True(t, cs.P2().IsNull())
		assert.Contains(t, string(cs.Text()), "a.txt\nb.txt\n\ninitial import")
	})

	t.Run("should round-trip through the codec", func(t *testing.T) {
		data, err := cs.Encode()
		require.NoError(t, err)
		back, err := DecodeChangeset(data)
		require.NoError(t, err)
		assert.Equal(t, cs.ID, back.ID)
		assert.Equal(t, cs.Manifest, back.Manifest)
		assert.Equal(t, cs.Files, back.Files)
		assert.True(t, cs.Time.Equal(back.Time))
		assert.Equal(t, cs.ID, back.ComputeID())
	})

	t.Run("should default branch", func(t *testing.T) {
		assert.Equal(t, DefaultBranch, (&Changeset{}).Branch())
	})
}

func TestEntry(t *testing.T) {
	cs := MustNodeHashFromHex(onesHex)
	e := Entry{Path: FilePath("a"), Data: []byte("content")}
	assert.Equal(t, ContentKey([]byte("content")), e.Key())
	assert.True(t, strings.HasPrefix(e.Key(), "sha1-"))
	assert.NotEqual(t, e.Key(), ContentKey([]byte("other")))
	assert.True(t, e.IntroducedBy(cs))

	e.Linknode = MustNodeHashFromHex("2222222222222222222222222222222222222222")
	assert.False(t, e.IntroducedBy(cs))
	assert.True(t, e.IntroducedBy(e.Linknode))
}
