// Copyright © 2018 One Concern

package model

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	// DefaultBranch is the branch of changesets which do not carry a branch name
	DefaultBranch = "default"

	changesetKeyPrefix = "changeset-"
	branchExtra        = "branch"
)

// Changeset is an immutable commit record.
//
// Its ID is derived from its parents and its textual representation.
type Changeset struct {
	ID       NodeHash          `msgpack:"id"`
	Parents  []NodeHash        `msgpack:"parents,omitempty"`
	Manifest NodeHash          `msgpack:"manifest"`
	User     string            `msgpack:"user"`
	Time     time.Time         `msgpack:"time"`
	TZ       int               `msgpack:"tz"` // offset in seconds west of UTC
	Extra    map[string]string `msgpack:"extra,omitempty"`
	Files    []string          `msgpack:"files,omitempty"`
	Message  string            `msgpack:"message"`
}

// Key is the blob key under which the changeset is stored
func (c *Changeset) Key() string {
	return ChangesetKey(c.ID)
}

// ChangesetKey is the blob key for a changeset ID
func ChangesetKey(id NodeHash) string {
	return changesetKeyPrefix + id.String()
}

// Branch the changeset belongs to
func (c *Changeset) Branch() string {
	if b, ok := c.Extra[branchExtra]; ok && b != "" {
		return b
	}
	return DefaultBranch
}

// P1 is the first parent, or the null revision
func (c *Changeset) P1() NodeHash {
	if len(c.Parents) > 0 {
		return c.Parents[0]
	}
	return NullHash
}

// P2 is the second parent, or the null revision
func (c *Changeset) P2() NodeHash {
	if len(c.Parents) > 1 {
		return c.Parents[1]
	}
	return NullHash
}

// Text is the changelog representation of the changeset:
//
//	<manifest>
//	<user>
//	<unix time> <tz offset>[ <extra>]
//	<files, one per line>
//
//	<message>
func (c *Changeset) Text() []byte {
	var buf bytes.Buffer
	buf.WriteString(c.Manifest.String())
	buf.WriteByte('\n')
	buf.WriteString(c.User)
	buf.WriteByte('\n')

	buf.WriteString(strconv.FormatInt(c.Time.Unix(), 10))
	buf.WriteByte(' ')
	buf.WriteString(strconv.Itoa(c.TZ))
	if len(c.Extra) > 0 {
		keys := make([]string, 0, len(c.Extra))
		for k := range c.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		extras := make([]string, 0, len(keys))
		for _, k := range keys {
			extras = append(extras, k+":"+c.Extra[k])
		}
		buf.WriteByte(' ')
		buf.WriteString(strings.Join(extras, "\x00"))
	}
	buf.WriteByte('\n')

	files := append([]string(nil), c.Files...)
	sort.Strings(files)
	for _, f := range files {
		buf.WriteString(f)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// ComputeID derives the content-based identity of the changeset
func (c *Changeset) ComputeID() NodeHash {
	return HashNode(c.P1(), c.P2(), c.Text())
}

// Encode serializes the changeset for storage
func (c *Changeset) Encode() ([]byte, error) {
	data, err := msgpack.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode changeset %s: %w", c.ID, err)
	}
	return data, nil
}

// DecodeChangeset reads back a stored changeset
func DecodeChangeset(data []byte) (*Changeset, error) {
	var c Changeset
	if err := msgpack.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode changeset: %w", err)
	}
	return &c, nil
}
