// Copyright © 2018 One Concern

// Package histdump is a history source reading a YAML export of a repository
// from <repo>/.hg/history.yaml.
//
// Node hashes are derived the way mercurial does, with one root manifest per
// changeset listing "<path>\x00<file node>" lines.
package histdump

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oneconcern/blobimport/pkg/model"
	"github.com/oneconcern/blobimport/pkg/source"
	"github.com/spf13/afero"
	yaml "gopkg.in/yaml.v2"
)

// HgDir is the mercurial metadata directory of a repository
const HgDir = ".hg"

var _ source.Source = &Dump{}

type loaded struct {
	changeset *model.Changeset
	entries   []model.Entry
}

// Dump is a fully loaded history export
type Dump struct {
	order      []model.NodeHash
	changesets map[model.NodeHash]loaded
	heads      []model.NodeHash
}

// Open the history export of the repository at repo
func Open(fs afero.Fs, repo string) (*Dump, error) {
	hg := filepath.Join(repo, HgDir)
	info, err := fs.Stat(hg)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s is not a repository: no %s directory", repo, HgDir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", hg)
	}

	data, err := afero.ReadFile(fs, filepath.Join(hg, File))
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return Parse(data)
}

// Parse a history export
func Parse(data []byte) (*Dump, error) {
	var h history
	if err := yaml.UnmarshalStrict(data, &h); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}

	b := newBuilder(len(h.Changesets))
	for i, cs := range h.Changesets {
		if err := b.add(i, cs); err != nil {
			return nil, fmt.Errorf("changeset #%d: %w", i, err)
		}
	}
	return b.dump(), nil
}

// Changesets in commit order
func (d *Dump) Changesets(context.Context) ([]model.NodeHash, error) {
	return append([]model.NodeHash(nil), d.order...), nil
}

// Changeset with its root manifest and the file revisions it touches
func (d *Dump) Changeset(_ context.Context, id model.NodeHash) (*model.Changeset, []model.Entry, error) {
	l, ok := d.changesets[id]
	if !ok {
		return nil, nil, fmt.Errorf("unknown changeset %s", id)
	}
	return l.changeset, append([]model.Entry(nil), l.entries...), nil
}

// Heads are the changesets without children
func (d *Dump) Heads(context.Context) ([]model.NodeHash, error) {
	return append([]model.NodeHash(nil), d.heads...), nil
}

type linkKey struct {
	path model.RepoPath
	node model.NodeHash
}

type manifest map[string]model.NodeHash

type builder struct {
	ids       []model.NodeHash
	manifests []manifest
	mnodes    []model.NodeHash
	children  []int
	linknodes map[linkKey]model.NodeHash
	loaded    map[model.NodeHash]loaded
}

func newBuilder(size int) *builder {
	return &builder{
		ids:       make([]model.NodeHash, 0, size),
		manifests: make([]manifest, 0, size),
		mnodes:    make([]model.NodeHash, 0, size),
		children:  make([]int, size),
		linknodes: make(map[linkKey]model.NodeHash),
		loaded:    make(map[model.NodeHash]loaded, size),
	}
}

func (b *builder) add(index int, cs changesetDump) error {
	if len(cs.Parents) > 2 {
		return fmt.Errorf("a changeset has at most 2 parents, got %d", len(cs.Parents))
	}
	for _, p := range cs.Parents {
		if p < 0 || p >= index {
			return fmt.Errorf("parent #%d is not an earlier changeset", p)
		}
	}
	date, err := time.Parse(time.RFC3339, cs.Date)
	if err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}

	parentManifest := func(n int) manifest {
		if n < len(cs.Parents) {
			return b.manifests[cs.Parents[n]]
		}
		return nil
	}
	parentNode := func(n int, nodes []model.NodeHash) model.NodeHash {
		if n < len(cs.Parents) {
			return nodes[cs.Parents[n]]
		}
		return model.NullHash
	}
	p1m, p2m := parentManifest(0), parentManifest(1)

	// the new manifest starts from p1, with files only known to p2
	current := make(manifest, len(p1m))
	for pth, node := range p2m {
		current[pth] = node
	}
	for pth, node := range p1m {
		current[pth] = node
	}
	removed := make(map[string]bool, len(cs.Removed))
	for _, pth := range cs.Removed {
		removed[pth] = true
		if _, ok := current[pth]; !ok {
			return fmt.Errorf("removed file %q is not in the parent manifest", pth)
		}
		delete(current, pth)
	}

	changed := make([]string, 0, len(cs.Files))
	for pth := range cs.Files {
		changed = append(changed, pth)
	}
	sort.Strings(changed)

	type fileRev struct {
		path model.RepoPath
		node model.NodeHash
		data []byte
	}
	revs := make([]fileRev, 0, len(changed))
	for _, pth := range changed {
		if pth == "" {
			return fmt.Errorf("empty file path")
		}
		if removed[pth] {
			return fmt.Errorf("file %q is both changed and removed", pth)
		}
		data := []byte(cs.Files[pth])
		node := model.HashNode(p1m[pth], p2m[pth], data)
		current[pth] = node
		revs = append(revs, fileRev{path: model.FilePath(pth), node: node, data: data})
	}

	mtext := manifestText(current)
	mnode := model.HashNode(parentNode(0, b.mnodes), parentNode(1, b.mnodes), mtext)

	changeset := &model.Changeset{
		Manifest: mnode,
		User:     cs.User,
		Time:     date,
		TZ:       tzOffset(date),
		Files:    append(changed, cs.Removed...),
		Message:  cs.Message,
	}
	for n := range cs.Parents {
		changeset.Parents = append(changeset.Parents, parentNode(n, b.ids))
	}
	if cs.Branch != "" && cs.Branch != model.DefaultBranch {
		changeset.Extra = map[string]string{"branch": cs.Branch}
	}
	sort.Strings(changeset.Files)
	changeset.ID = changeset.ComputeID()
	if _, exists := b.loaded[changeset.ID]; exists {
		return fmt.Errorf("duplicate changeset %s", changeset.ID)
	}

	entries := make([]model.Entry, 0, len(revs)+1)
	entries = append(entries, b.entry(changeset.ID, model.RootPath(), mnode, mtext))
	for _, rev := range revs {
		entries = append(entries, b.entry(changeset.ID, rev.path, rev.node, rev.data))
	}

	for _, p := range cs.Parents {
		b.children[p]++
	}
	b.ids = append(b.ids, changeset.ID)
	b.manifests = append(b.manifests, current)
	b.mnodes = append(b.mnodes, mnode)
	b.loaded[changeset.ID] = loaded{changeset: changeset, entries: entries}
	return nil
}

// entry records the first changeset introducing a (path, node) pair as its linknode
func (b *builder) entry(id model.NodeHash, pth model.RepoPath, node model.NodeHash, data []byte) model.Entry {
	k := linkKey{path: pth, node: node}
	linknode, ok := b.linknodes[k]
	if !ok {
		linknode = id
		b.linknodes[k] = id
	}
	return model.Entry{Path: pth, Node: node, Linknode: linknode, Data: data}
}

func (b *builder) dump() *Dump {
	d := &Dump{
		order:      b.ids,
		changesets: b.loaded,
	}
	for i, id := range b.ids {
		if b.children[i] == 0 {
			d.heads = append(d.heads, id)
		}
	}
	return d
}

func manifestText(m manifest) []byte {
	paths := make([]string, 0, len(m))
	for pth := range m {
		paths = append(paths, pth)
	}
	sort.Strings(paths)

	var buf bytes.Buffer
	for _, pth := range paths {
		buf.WriteString(pth)
		buf.WriteByte(0)
		buf.WriteString(m[pth].String())
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// tzOffset is the zone offset in seconds west of UTC
func tzOffset(t time.Time) int {
	_, offset := t.Zone()
	return -offset
}
