// Package smbtest provides an in-memory SMB backend implementing the smb client
// interfaces, with per-operation call counters, recorded CREATE profiles, handle
// tracking, failure injection and disconnect simulation.
package smbtest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/javi11/smbvfs/internal/smb"
)

// Operation names used for call counters and failure injection.
const (
	OpConnect       = "connect"
	OpAuthenticate  = "authenticate"
	OpConnectShare  = "connectShare"
	OpMkdir         = "mkdir"
	OpStat          = "stat"
	OpOpenFile      = "openFile"
	OpOpenDirectory = "openDirectory"
	OpList          = "list"
	OpRm            = "rm"
	OpRmdir         = "rmdir"
	OpFileExists    = "fileExists"
	OpFolderExists  = "folderExists"
	OpRemoteCopy    = "remoteCopy"
	OpRename        = "rename"
	OpInputStream   = "inputStream"
	OpOutputStream  = "outputStream"
	OpClose         = "close"
)

// AnyPath matches every path when injecting failures.
const AnyPath = "*"

// OpenRecord is one CREATE request received by the backend.
type OpenRecord struct {
	Directory bool
	Path      string
	Params    smb.OpenParams
}

// RmdirRecord is one directory removal received by the backend.
type RmdirRecord struct {
	Path      string
	Recursive bool
}

type node struct {
	dir     bool
	data    []byte
	modTime time.Time
}

// Backend is an in-memory SMB server holding a single tree of files.
type Backend struct {
	mu sync.Mutex

	shares    map[string]bool
	nodes     map[string]*node
	calls     map[string]int
	failures  map[string]error
	remaining map[string]int
	opens     []OpenRecord
	rmdirs    []RmdirRecord
	handles   []*Handle
	auths     []smb.AuthenticationContext
	trees     []*Share
	synthetic []string
	clock     time.Time
}

// NewBackend creates a backend exposing the given share names. With no names every
// share name is accepted.
func NewBackend(shares ...string) *Backend {
	b := &Backend{
		shares:    make(map[string]bool),
		nodes:     map[string]*node{"": {dir: true}},
		calls:     make(map[string]int),
		failures:  make(map[string]error),
		remaining: make(map[string]int),
		synthetic: []string{".", ".."},
		clock:     time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC),
	}
	for _, s := range shares {
		b.shares[strings.ToLower(s)] = true
	}
	return b
}

// Client returns an smb.Client connected to this backend.
func (b *Backend) Client() smb.Client {
	return &client{b: b}
}

// PutFile creates or replaces a file, creating missing parent folders.
func (b *Backend) PutFile(path string, data []byte, modTime time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := clean(path)
	b.mkdirAllLocked(parentOf(p))
	b.nodes[p] = &node{data: append([]byte(nil), data...), modTime: modTime}
}

// PutDir creates a folder and its missing parents.
func (b *Backend) PutDir(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.mkdirAllLocked(clean(path))
}

// Content returns the content of a file.
func (b *Backend) Content(path string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, ok := b.nodes[clean(path)]
	if !ok || n.dir {
		return nil, false
	}
	return append([]byte(nil), n.data...), true
}

// Exists reports whether path exists and whether it is a folder.
func (b *Backend) Exists(path string) (exists bool, dir bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, ok := b.nodes[clean(path)]
	if !ok {
		return false, false
	}
	return true, n.dir
}

// Calls returns how many times op was invoked.
func (b *Backend) Calls(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

// ResetCalls clears the call counters and the recorded requests.
func (b *Backend) ResetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = make(map[string]int)
	b.opens = nil
	b.rmdirs = nil
	b.handles = nil
}

// Opens returns the CREATE requests received so far.
func (b *Backend) Opens() []OpenRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]OpenRecord(nil), b.opens...)
}

// Rmdirs returns the directory removals received so far.
func (b *Backend) Rmdirs() []RmdirRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RmdirRecord(nil), b.rmdirs...)
}

// Handles returns every handle opened so far.
func (b *Backend) Handles() []*Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Handle(nil), b.handles...)
}

// Authentications returns the credentials of every session setup.
func (b *Backend) Authentications() []smb.AuthenticationContext {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]smb.AuthenticationContext(nil), b.auths...)
}

// Fail makes op on path (or AnyPath) return err until ClearFailures is called.
func (b *Backend) Fail(op, path string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[op+"|"+clean(path)] = err
}

// FailTimes makes the next n calls of op on path (or AnyPath) return err.
func (b *Backend) FailTimes(op, path string, err error, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := op + "|" + clean(path)
	b.failures[key] = err
	b.remaining[key] = n
}

// ClearFailures removes every injected failure.
func (b *Backend) ClearFailures() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = make(map[string]error)
	b.remaining = make(map[string]int)
}

// SetSyntheticEntries replaces the self and parent entries every listing starts with.
func (b *Backend) SetSyntheticEntries(names ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.synthetic = append([]string(nil), names...)
}

// Disconnect marks every connected tree as disconnected.
func (b *Backend) Disconnect() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, t := range b.trees {
		t.connected = false
	}
}

// record counts a call and returns the injected failure, if any. Callers hold b.mu.
func (b *Backend) record(op, path string) error {
	b.calls[op]++

	for _, key := range []string{op + "|" + clean(path), op + "|" + AnyPath} {
		err, ok := b.failures[key]
		if !ok {
			continue
		}
		if n, limited := b.remaining[key]; limited {
			if n <= 1 {
				delete(b.failures, key)
				delete(b.remaining, key)
			} else {
				b.remaining[key] = n - 1
			}
		}
		return err
	}
	return nil
}

func (b *Backend) tick() time.Time {
	b.clock = b.clock.Add(time.Second)
	return b.clock
}

func (b *Backend) mkdirAllLocked(p string) {
	if p == "" {
		return
	}
	if n, ok := b.nodes[p]; ok && n.dir {
		return
	}
	b.mkdirAllLocked(parentOf(p))
	b.nodes[p] = &node{dir: true, modTime: b.clock}
}

func (b *Backend) lookup(op, p string) (*node, error) {
	n, ok := b.nodes[p]
	if ok {
		return n, nil
	}
	if _, parentOK := b.nodes[parentOf(p)]; !parentOK {
		return nil, smb.NewStatusError(op, p, smb.StatusObjectPathNotFound)
	}
	return nil, smb.NewStatusError(op, p, smb.StatusObjectNameNotFound)
}

func (b *Backend) children(p string) []string {
	prefix := p + `\`
	if p == "" {
		prefix = ""
	}

	var names []string
	for k := range b.nodes {
		if k == "" || !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := k[len(prefix):]
		if rest != "" && !strings.Contains(rest, `\`) {
			names = append(names, rest)
		}
	}
	sort.Strings(names)
	return names
}

func (b *Backend) subtree(p string) []string {
	keys := []string{p}
	prefix := p + `\`
	for k := range b.nodes {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys
}

type client struct {
	b *Backend
}

func (c *client) Connect(_ context.Context, host string) (smb.Connection, error) {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()

	if err := c.b.record(OpConnect, host); err != nil {
		return nil, err
	}
	return &connection{b: c.b}, nil
}

type connection struct {
	b *Backend
}

func (c *connection) Authenticate(_ context.Context, auth smb.AuthenticationContext) (smb.Session, error) {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()

	if err := c.b.record(OpAuthenticate, auth.Username); err != nil {
		return nil, err
	}
	c.b.auths = append(c.b.auths, auth)
	return &session{b: c.b}, nil
}

func (c *connection) Close() error { return nil }

type session struct {
	b *Backend
}

func (s *session) ConnectShare(_ context.Context, name string) (smb.Share, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	if err := s.b.record(OpConnectShare, name); err != nil {
		return nil, err
	}
	if len(s.b.shares) > 0 && !s.b.shares[strings.ToLower(name)] {
		return nil, smb.NewStatusError("tree connect", name, smb.StatusBadNetworkName)
	}

	t := &Share{b: s.b, name: name, connected: true}
	s.b.trees = append(s.b.trees, t)
	return t, nil
}

func (s *session) Logoff() error { return nil }

// Share is a tree connected to the backend.
type Share struct {
	b         *Backend
	name      string
	connected bool
}

func (s *Share) IsConnected() bool {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	return s.connected
}

func (s *Share) Mkdir(_ context.Context, path string) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	p := clean(path)
	if err := s.b.record(OpMkdir, p); err != nil {
		return err
	}
	if _, ok := s.b.nodes[p]; ok {
		return smb.NewStatusError("create", p, smb.StatusObjectNameCollision)
	}
	if parent, ok := s.b.nodes[parentOf(p)]; !ok || !parent.dir {
		return smb.NewStatusError("create", p, smb.StatusObjectPathNotFound)
	}
	s.b.nodes[p] = &node{dir: true, modTime: s.b.tick()}
	return nil
}

func (s *Share) FileInformation(_ context.Context, path string) (*smb.FileAllInformation, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	p := clean(path)
	if err := s.b.record(OpStat, p); err != nil {
		return nil, err
	}
	n, err := s.b.lookup("query info", p)
	if err != nil {
		return nil, err
	}

	info := &smb.FileAllInformation{
		LastWriteTime: n.modTime,
		EndOfFile:     int64(len(n.data)),
		Directory:     n.dir,
		Attributes:    smb.FileAttributeNormal,
	}
	if n.dir {
		info.Attributes = smb.FileAttributeDirectory
	}
	return info, nil
}

func (s *Share) OpenFile(_ context.Context, path string, params smb.OpenParams) (smb.File, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	p := clean(path)
	s.b.opens = append(s.b.opens, OpenRecord{Path: p, Params: params})
	if err := s.b.record(OpOpenFile, p); err != nil {
		return nil, err
	}

	n, ok := s.b.nodes[p]
	switch {
	case ok && n.dir && params.CreateOptions.Has(smb.FileNonDirectoryFile):
		return nil, smb.NewStatusError("create", p, smb.StatusFileIsADirectory)
	case ok && (params.Disposition == smb.FileOverwrite || params.Disposition == smb.FileOverwriteIf):
		n.data = nil
		n.modTime = s.b.tick()
	case ok && params.Disposition == smb.FileCreate:
		return nil, smb.NewStatusError("create", p, smb.StatusObjectNameCollision)
	case !ok && !params.Disposition.MayCreate():
		_, err := s.b.lookup("create", p)
		return nil, err
	case !ok:
		if parent, parentOK := s.b.nodes[parentOf(p)]; !parentOK || !parent.dir {
			return nil, smb.NewStatusError("create", p, smb.StatusObjectPathNotFound)
		}
		s.b.nodes[p] = &node{modTime: s.b.tick()}
	}

	h := &Handle{b: s.b, share: s, path: p, params: params}
	s.b.handles = append(s.b.handles, h)
	return &File{Handle: h}, nil
}

func (s *Share) OpenDirectory(_ context.Context, path string, params smb.OpenParams) (smb.Directory, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	p := clean(path)
	s.b.opens = append(s.b.opens, OpenRecord{Directory: true, Path: p, Params: params})
	if err := s.b.record(OpOpenDirectory, p); err != nil {
		return nil, err
	}

	n, ok := s.b.nodes[p]
	switch {
	case ok && !n.dir:
		return nil, smb.NewStatusError("create", p, smb.StatusNotADirectory)
	case !ok && !params.Disposition.MayCreate():
		_, err := s.b.lookup("create", p)
		return nil, err
	case !ok:
		if parent, parentOK := s.b.nodes[parentOf(p)]; !parentOK || !parent.dir {
			return nil, smb.NewStatusError("create", p, smb.StatusObjectPathNotFound)
		}
		s.b.nodes[p] = &node{dir: true, modTime: s.b.tick()}
	}

	h := &Handle{b: s.b, share: s, path: p, params: params, dir: true}
	s.b.handles = append(s.b.handles, h)
	return h, nil
}

// List returns the folder content preceded by the synthetic entries servers send.
func (s *Share) List(_ context.Context, path string) ([]smb.DirectoryEntry, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	p := clean(path)
	if err := s.b.record(OpList, p); err != nil {
		return nil, err
	}
	n, err := s.b.lookup("query directory", p)
	if err != nil {
		return nil, err
	}
	if !n.dir {
		return nil, smb.NewStatusError("query directory", p, smb.StatusNotADirectory)
	}

	entries := make([]smb.DirectoryEntry, 0, len(s.b.synthetic))
	for _, name := range s.b.synthetic {
		entries = append(entries, smb.DirectoryEntry{FileName: name, Attributes: smb.FileAttributeDirectory, LastWriteTime: n.modTime})
	}
	for _, name := range s.b.children(p) {
		child := s.b.nodes[join(p, name)]
		entry := smb.DirectoryEntry{
			FileName:      name,
			Attributes:    smb.FileAttributeArchive,
			EndOfFile:     int64(len(child.data)),
			LastWriteTime: child.modTime,
		}
		if child.dir {
			entry.Attributes = smb.FileAttributeDirectory
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Share) Rm(_ context.Context, path string) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	p := clean(path)
	if err := s.b.record(OpRm, p); err != nil {
		return err
	}
	n, err := s.b.lookup("delete", p)
	if err != nil {
		return err
	}
	if n.dir {
		return smb.NewStatusError("delete", p, smb.StatusFileIsADirectory)
	}
	delete(s.b.nodes, p)
	return nil
}

func (s *Share) Rmdir(_ context.Context, path string, recursive bool) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	p := clean(path)
	s.b.rmdirs = append(s.b.rmdirs, RmdirRecord{Path: p, Recursive: recursive})
	if err := s.b.record(OpRmdir, p); err != nil {
		return err
	}
	n, err := s.b.lookup("delete", p)
	if err != nil {
		return err
	}
	if !n.dir {
		return smb.NewStatusError("delete", p, smb.StatusNotADirectory)
	}
	if !recursive && len(s.b.children(p)) > 0 {
		return smb.NewStatusError("delete", p, smb.StatusDirectoryNotEmpty)
	}
	for _, k := range s.b.subtree(p) {
		delete(s.b.nodes, k)
	}
	return nil
}

func (s *Share) FileExists(_ context.Context, path string) (bool, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	p := clean(path)
	if err := s.b.record(OpFileExists, p); err != nil {
		return false, err
	}
	n, ok := s.b.nodes[p]
	return ok && !n.dir, nil
}

func (s *Share) FolderExists(_ context.Context, path string) (bool, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	p := clean(path)
	if err := s.b.record(OpFolderExists, p); err != nil {
		return false, err
	}
	n, ok := s.b.nodes[p]
	return ok && n.dir, nil
}

func (s *Share) Close() error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.connected = false
	return nil
}

// Handle is an open file or directory handle.
type Handle struct {
	b      *Backend
	share  *Share
	path   string
	params smb.OpenParams
	dir    bool
	closes int
}

func (h *Handle) Path() string { return h.path }

// Params returns the CREATE profile the handle was opened with.
func (h *Handle) Params() smb.OpenParams { return h.params }

// IsDirectory reports whether the handle was opened as a directory.
func (h *Handle) IsDirectory() bool { return h.dir }

// Closes returns how many times Close was called on the handle.
func (h *Handle) Closes() int {
	h.b.mu.Lock()
	defer h.b.mu.Unlock()
	return h.closes
}

func (h *Handle) Rename(_ context.Context, newPath string) error {
	h.b.mu.Lock()
	defer h.b.mu.Unlock()

	target := clean(newPath)
	if err := h.b.record(OpRename, h.path); err != nil {
		return err
	}
	if h.closes > 0 {
		return fmt.Errorf("smbtest: rename on closed handle %q", h.path)
	}
	if _, ok := h.b.nodes[target]; ok {
		return smb.NewStatusError("set info", target, smb.StatusObjectNameCollision)
	}
	if parent, ok := h.b.nodes[parentOf(target)]; !ok || !parent.dir {
		return smb.NewStatusError("set info", target, smb.StatusObjectPathNotFound)
	}

	for _, k := range h.b.subtree(h.path) {
		h.b.nodes[target+k[len(h.path):]] = h.b.nodes[k]
		delete(h.b.nodes, k)
	}
	h.path = target
	return nil
}

func (h *Handle) Close() error {
	h.b.mu.Lock()
	defer h.b.mu.Unlock()

	h.b.calls[OpClose]++
	h.closes++
	if h.closes > 1 {
		return fmt.Errorf("smbtest: handle %q closed twice", h.path)
	}
	return nil
}

// File is an open file handle.
type File struct {
	*Handle
}

func (f *File) InputStream() io.ReadCloser {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()

	f.b.calls[OpInputStream]++
	var data []byte
	if n, ok := f.b.nodes[f.path]; ok {
		data = append([]byte(nil), n.data...)
	}
	return &stream{b: f.b, r: bytes.NewReader(data)}
}

func (f *File) OutputStream(append bool) (io.WriteCloser, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()

	if err := f.b.record(OpOutputStream, f.path); err != nil {
		return nil, err
	}
	n, ok := f.b.nodes[f.path]
	if !ok {
		return nil, smb.NewStatusError("write", f.path, smb.StatusObjectNameNotFound)
	}
	if !append {
		n.data = nil
		n.modTime = f.b.tick()
	}
	return &stream{b: f.b, file: f.Handle}, nil
}

func (f *File) RemoteCopyTo(_ context.Context, dst smb.File) error {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()

	if err := f.b.record(OpRemoteCopy, f.path); err != nil {
		return err
	}
	target, ok := dst.(*File)
	if !ok || target.b != f.b {
		return fmt.Errorf("smbtest: remote copy target is not on this backend")
	}
	src, ok := f.b.nodes[f.path]
	if !ok {
		return smb.NewStatusError("ioctl", f.path, smb.StatusObjectNameNotFound)
	}
	out, ok := f.b.nodes[target.path]
	if !ok {
		return smb.NewStatusError("ioctl", target.path, smb.StatusObjectNameNotFound)
	}
	// The target is truncated before the chunks are copied, as on a real server.
	out.data = nil
	out.data = append(out.data, src.data...)
	out.modTime = f.b.tick()
	return nil
}

// stream reads a snapshot of the file or appends to it.
type stream struct {
	b      *Backend
	r      *bytes.Reader
	file   *Handle
	closed bool
}

func (s *stream) Read(p []byte) (int, error) {
	if s.closed {
		return 0, io.ErrClosedPipe
	}
	return s.r.Read(p)
}

func (s *stream) Write(p []byte) (int, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	if s.closed {
		return 0, io.ErrClosedPipe
	}
	n, ok := s.b.nodes[s.file.path]
	if !ok {
		return 0, smb.NewStatusError("write", s.file.path, smb.StatusObjectNameNotFound)
	}
	n.data = append(n.data, p...)
	n.modTime = s.b.tick()
	return len(p), nil
}

func (s *stream) Close() error {
	s.closed = true
	return nil
}

func clean(path string) string {
	if path == AnyPath {
		return path
	}
	return strings.Trim(strings.ReplaceAll(path, "/", `\`), `\`)
}

func parentOf(p string) string {
	if i := strings.LastIndex(p, `\`); i >= 0 {
		return p[:i]
	}
	return ""
}

func join(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + `\` + name
}
