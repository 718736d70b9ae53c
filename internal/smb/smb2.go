package smb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hirochachacha/go-smb2"
)

// Smb2Client is a Client backed by github.com/hirochachacha/go-smb2.
//
// go-smb2 derives CREATE flags from os.OpenFile style flags, so the OpenParams
// profiles are translated to the closest flag set (see openFlags).
type Smb2Client struct {
	dialer *net.Dialer
	port   int
	log    *slog.Logger
}

// Smb2Options configures an Smb2Client.
type Smb2Options struct {
	DialTimeout time.Duration
	Port        int
}

// NewSmb2Client creates a Client that dials real SMB servers.
func NewSmb2Client(opts Smb2Options) *Smb2Client {
	port := opts.Port
	if port <= 0 {
		port = DefaultPort
	}

	return &Smb2Client{
		dialer: &net.Dialer{Timeout: opts.DialTimeout},
		port:   port,
		log:    slog.Default().With("component", "smb2-client"),
	}
}

// Connect dials the server. Dialect negotiation happens together with session setup
// in Authenticate because go-smb2 performs both in a single call.
func (c *Smb2Client) Connect(ctx context.Context, host string) (Connection, error) {
	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, strconv.Itoa(c.port))
	}

	conn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	c.log.DebugContext(ctx, "TCP connection established", "addr", addr)

	return &smb2Connection{conn: conn, server: hostOnly(host)}, nil
}

type smb2Connection struct {
	conn   net.Conn
	server string
}

func (c *smb2Connection) Authenticate(ctx context.Context, auth AuthenticationContext) (Session, error) {
	d := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     auth.Username,
			Password: auth.Password,
			Domain:   auth.Domain,
		},
	}

	s, err := d.DialContext(ctx, c.conn)
	if err != nil {
		return nil, translate("session setup", "", err)
	}

	sess := &smb2Session{session: s, conn: c.conn, server: c.server}
	sess.connected.Store(true)

	return sess, nil
}

func (c *smb2Connection) Close() error {
	return c.conn.Close()
}

type smb2Session struct {
	session   *smb2.Session
	conn      net.Conn
	server    string
	connected atomic.Bool
}

func (s *smb2Session) ConnectShare(ctx context.Context, name string) (Share, error) {
	fs, err := s.session.WithContext(ctx).Mount(`\\` + s.server + `\` + name)
	if err != nil {
		return nil, s.observe("tree connect", name, err)
	}

	return &smb2Share{fs: fs, session: s}, nil
}

func (s *smb2Session) Logoff() error {
	err := s.session.Logoff()
	s.connected.Store(false)
	return errors.Join(err, s.conn.Close())
}

// observe translates err and flags the session as disconnected when the failure did
// not come from a server response.
func (s *smb2Session) observe(op, path string, err error) error {
	if err == nil {
		return nil
	}

	var re *smb2.ResponseError
	if !errors.As(err, &re) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		s.connected.Store(false)
	}

	return translate(op, path, err)
}

type smb2Share struct {
	fs      *smb2.Share
	session *smb2Session
}

func (s *smb2Share) IsConnected() bool {
	return s.session.connected.Load()
}

func (s *smb2Share) with(ctx context.Context) *smb2.Share {
	return s.fs.WithContext(ctx)
}

func (s *smb2Share) Mkdir(ctx context.Context, path string) error {
	return s.session.observe("mkdir", path, s.with(ctx).Mkdir(path, 0o755))
}

func (s *smb2Share) FileInformation(ctx context.Context, path string) (*FileAllInformation, error) {
	fi, err := s.with(ctx).Stat(path)
	if err != nil {
		return nil, s.session.observe("query info", path, err)
	}

	info := &FileAllInformation{
		LastWriteTime: fi.ModTime(),
		EndOfFile:     fi.Size(),
		Directory:     fi.IsDir(),
		Attributes:    attributesOf(fi),
	}

	return info, nil
}

func (s *smb2Share) OpenFile(ctx context.Context, path string, params OpenParams) (File, error) {
	fs := s.with(ctx)

	f, err := fs.OpenFile(path, openFlags(params), 0o644)
	if err != nil {
		return nil, s.session.observe("create", path, err)
	}

	if params.CreateOptions.Has(FileNonDirectoryFile) {
		fi, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, s.session.observe("query info", path, err)
		}
		if fi.IsDir() {
			_ = f.Close()
			return nil, NewStatusError("create", path, StatusFileIsADirectory)
		}
	}

	return &smb2File{smb2Entry: smb2Entry{share: s, path: path, handle: f}}, nil
}

func (s *smb2Share) OpenDirectory(ctx context.Context, path string, params OpenParams) (Directory, error) {
	fs := s.with(ctx)

	if params.Disposition.MayCreate() {
		if _, err := fs.Stat(path); err != nil {
			if !isResponseNotFound(err) {
				return nil, s.session.observe("query info", path, err)
			}
			if err := fs.Mkdir(path, 0o755); err != nil {
				return nil, s.session.observe("mkdir", path, err)
			}
		}
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, s.session.observe("create", path, err)
	}

	return &smb2Entry{share: s, path: path, handle: f}, nil
}

func (s *smb2Share) List(ctx context.Context, path string) ([]DirectoryEntry, error) {
	infos, err := s.with(ctx).ReadDir(path)
	if err != nil {
		return nil, s.session.observe("query directory", path, err)
	}

	entries := make([]DirectoryEntry, 0, len(infos))
	for _, fi := range infos {
		entries = append(entries, DirectoryEntry{
			FileName:      fi.Name(),
			Attributes:    attributesOf(fi),
			EndOfFile:     fi.Size(),
			LastWriteTime: fi.ModTime(),
		})
	}

	return entries, nil
}

func (s *smb2Share) Rm(ctx context.Context, path string) error {
	return s.session.observe("delete", path, s.with(ctx).Remove(path))
}

func (s *smb2Share) Rmdir(ctx context.Context, path string, recursive bool) error {
	if recursive {
		return s.session.observe("delete", path, s.with(ctx).RemoveAll(path))
	}
	return s.session.observe("delete", path, s.with(ctx).Remove(path))
}

func (s *smb2Share) FileExists(ctx context.Context, path string) (bool, error) {
	return s.exists(ctx, path, false)
}

func (s *smb2Share) FolderExists(ctx context.Context, path string) (bool, error) {
	return s.exists(ctx, path, true)
}

func (s *smb2Share) exists(ctx context.Context, path string, dir bool) (bool, error) {
	fi, err := s.with(ctx).Stat(path)
	if err != nil {
		if isResponseNotFound(err) {
			return false, nil
		}
		return false, s.session.observe("query info", path, err)
	}
	return fi.IsDir() == dir, nil
}

func (s *smb2Share) Close() error {
	return s.fs.Umount()
}

type smb2Entry struct {
	share  *smb2Share
	path   string
	handle *smb2.File
	once   sync.Once
	err    error
}

func (e *smb2Entry) Path() string { return e.path }

// Rename releases the handle before renaming: go-smb2 opens its own DELETE handle for
// the rename and does not grant FILE_SHARE_DELETE on the handles it hands out.
func (e *smb2Entry) Rename(ctx context.Context, newPath string) error {
	if err := e.Close(); err != nil {
		return err
	}
	return e.share.session.observe("set info", e.path, e.share.with(ctx).Rename(e.path, newPath))
}

func (e *smb2Entry) Close() error {
	e.once.Do(func() {
		e.err = e.share.session.observe("close", e.path, e.handle.Close())
	})
	return e.err
}

type smb2File struct {
	smb2Entry
}

func (f *smb2File) InputStream() io.ReadCloser {
	return &smb2Stream{file: f.handle}
}

func (f *smb2File) OutputStream(append bool) (io.WriteCloser, error) {
	if append {
		if _, err := f.handle.Seek(0, io.SeekEnd); err != nil {
			return nil, f.share.session.observe("seek", f.path, err)
		}
	} else {
		if err := f.handle.Truncate(0); err != nil {
			return nil, f.share.session.observe("set info", f.path, err)
		}
	}
	return &smb2Stream{file: f.handle}, nil
}

// RemoteCopyTo uses go-smb2's ReadFrom, which issues FSCTL_SRV_COPYCHUNK when both
// files live on the same tree. Copy-chunk needs read access on the source and write
// access on the target, so dedicated handles are opened for the transfer.
func (f *smb2File) RemoteCopyTo(ctx context.Context, dst File) error {
	target, ok := dst.(*smb2File)
	if !ok || target.share != f.share {
		return fmt.Errorf("smb remote copy %q: destination is not on the same share", f.path)
	}
	if target.path == f.path {
		return nil
	}

	fs := f.share.with(ctx)

	src, err := fs.Open(f.path)
	if err != nil {
		return f.share.session.observe("create", f.path, err)
	}
	defer src.Close()

	out, err := fs.OpenFile(target.path, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return f.share.session.observe("create", target.path, err)
	}
	defer out.Close()

	if _, err := out.ReadFrom(src); err != nil {
		return f.share.session.observe("ioctl copychunk", f.path, err)
	}

	return nil
}

// smb2Stream exposes the handle as a stream; closing it leaves the handle open.
type smb2Stream struct {
	file   *smb2.File
	closed atomic.Bool
}

func (s *smb2Stream) Read(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, os.ErrClosed
	}
	return s.file.Read(p)
}

func (s *smb2Stream) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, os.ErrClosed
	}
	return s.file.Write(p)
}

func (s *smb2Stream) Close() error {
	s.closed.Store(true)
	return nil
}

// openFlags maps a CREATE profile onto os.OpenFile flags understood by go-smb2.
func openFlags(p OpenParams) int {
	var flag int
	switch {
	case p.AccessMask.CanRead() && p.AccessMask.CanWrite():
		flag = os.O_RDWR
	case p.AccessMask.CanWrite():
		flag = os.O_WRONLY
	default:
		flag = os.O_RDONLY
	}

	switch p.Disposition {
	case FileCreate:
		flag |= os.O_CREATE | os.O_EXCL
	case FileOpenIf:
		flag |= os.O_CREATE
	case FileOverwriteIf, FileSupersede:
		flag |= os.O_CREATE | os.O_TRUNC
	case FileOverwrite:
		flag |= os.O_TRUNC
	}

	return flag
}

func attributesOf(fi os.FileInfo) FileAttributes {
	if st, ok := fi.(*smb2.FileStat); ok {
		return FileAttributes(st.FileAttributes)
	}
	if fi.IsDir() {
		return FileAttributeDirectory
	}
	return FileAttributeNormal
}

func isResponseNotFound(err error) bool {
	return IsNotFound(translate("", "", err))
}

// translate converts go-smb2 errors into StatusError where the server sent a status.
func translate(op, path string, err error) error {
	if err == nil {
		return nil
	}

	var re *smb2.ResponseError
	if errors.As(err, &re) {
		return &StatusError{Op: op, Path: path, Status: NtStatus(re.Code), cause: err}
	}

	return fmt.Errorf("smb %s %q: %w", op, path, err)
}

func hostOnly(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
