// Copyright 2026 The Magenta Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fdio is the POSIX surface: open/close/read/write/dup/fcntl and
// the rest of the calls a process issues against its file descriptor
// table. It is the layer that turns internal/fdtable's bind/unbind/lookup
// primitives and internal/transport's non-blocking vtable into ordinary
// blocking, errno-returning POSIX semantics.
//
// Every exported method here corresponds to one POSIX call; the control
// flow they share is: look up fd under the table lock (taking a
// reference), drop the lock, invoke the transport, release the
// reference. Path-taking calls additionally resolve through the cwd or
// dirfd transport via internal/pathresolve.
package fdio

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/donball360/magenta/internal/cwd"
	"github.com/donball360/magenta/internal/dirstream"
	"github.com/donball360/magenta/internal/fdtable"
	"github.com/donball360/magenta/internal/kernel"
	"github.com/donball360/magenta/internal/metrics"
	"github.com/donball360/magenta/internal/obslog"
	"github.com/donball360/magenta/internal/pathresolve"
	"github.com/donball360/magenta/internal/posixflags"
	"github.com/donball360/magenta/internal/status"
	"github.com/donball360/magenta/internal/transport"
)

// Core bundles one process's fd table, cwd state, root transport, and
// downward kernel dependency into the single object every POSIX method
// hangs off of. Processes in this design have exactly one Core, installed
// by the startup hook (package fdio/startup) and torn down by its exit
// hook.
type Core struct {
	Tab  *fdtable.Table
	Cwd  *cwd.State
	ops  kernel.Ops
	root transport.Transport

	mu    sync.Mutex
	umask uint32 // GUARDED_BY(mu)

	dmu  sync.Mutex
	dirs map[int]*dirstream.Stream // GUARDED_BY(dmu)
}

// New builds a Core with the given root transport, cwd state, and kernel
// dependency. A nil root makes absolute-path resolution fail EBADF;
// startup.Build always passes a root, substituting a null transport when
// none was supplied.
func New(root transport.Transport, cw *cwd.State, ops kernel.Ops) *Core {
	return &Core{
		Tab:  fdtable.New(),
		Cwd:  cw,
		ops:  ops,
		root: root,
		dirs: make(map[int]*dirstream.Stream),
	}
}

func (c *Core) lookupFn() pathresolve.Lookup {
	return func(fd int) transport.Transport { return c.Tab.Lookup(fd) }
}

func (c *Core) resolve(dirfd int, path string) (transport.Transport, string, error) {
	return pathresolve.Resolve(c.root, c.Cwd.Transport(), c.lookupFn(), dirfd, path)
}

// wrap matches the ambient error-handling convention: POSIX-facing
// functions wrap the underlying *status.Errno with the call name.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ---- open / close -------------------------------------------------

// Openat implements openat(2): resolve dirfd+path, walk any remaining
// path components one at a time via repeated transport Open calls, bind
// the result into a fresh fd.
func (c *Core) Openat(dirfd int, path string, flags transport.OpenFlags, mode uint32) (int, error) {
	if flags&transport.OCreat != 0 && flags&transport.ODirectory != 0 {
		obslog.Op("openat", -1, status.EINVAL())
		return -1, wrap("openat", status.EINVAL())
	}

	base, residual, err := c.resolve(dirfd, path)
	if err != nil {
		obslog.Op("openat", -1, err)
		return -1, wrap("openat", err)
	}

	tr, err := walk(base, residual, flags, mode)
	releaseIfLast(base)
	if err != nil {
		obslog.Op("openat", -1, err)
		return -1, wrap("openat", err)
	}

	fd, dc, err := c.Tab.Bind(tr, -1, 0)
	if err != nil {
		releaseIfLast(tr)
		obslog.Op("openat", -1, err)
		return -1, wrap("openat", err)
	}
	dc.Run()
	metrics.OpenFDs.Inc()
	obslog.Op("openat", fd, nil)
	return fd, nil
}

// Open is openat(AT_FDCWD, path, ...).
func (c *Core) Open(path string, flags transport.OpenFlags, mode uint32) (int, error) {
	return c.Openat(pathresolve.AtFDCWD, path, flags, mode)
}

// Creat is open(path, O_CREAT|O_TRUNC|O_WRONLY, mode).
func (c *Core) Creat(path string, mode uint32) (int, error) {
	return c.Open(path, transport.OCreat|transport.OTrunc|transport.OWronly, mode)
}

// walk resolves every residual path component one at a time starting
// from base, one child lookup per component. Only the final component
// receives the caller's flags/mode; intermediate components are opened
// with no flags and mode 0.
func walk(base transport.Transport, residual string, flags transport.OpenFlags, mode uint32) (transport.Transport, error) {
	if residual == "." {
		base.Header().Ref()
		return base, nil
	}

	comps := splitPath(residual)
	cur := base
	cur.Header().Ref()
	for i, comp := range comps {
		last := i == len(comps)-1
		var f transport.OpenFlags
		var m uint32
		if last {
			f, m = flags, mode
		}
		next, err := cur.Open(comp, f, m)
		releaseIfLast(cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func splitPath(p string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(p); i++ {
		if i == len(p) || p[i] == '/' {
			if i > start {
				out = append(out, p[start:i])
			}
			start = i + 1
		}
	}
	if len(out) == 0 {
		return []string{"."}
	}
	return out
}

func releaseIfLast(tr transport.Transport) {
	if tr == nil {
		return
	}
	if tr.Header().Release() {
		tr.Close()
	}
}

// Close implements close(2): remove fd and close the transport only if
// this was its last dup. Closing one of several dup'd fds never disturbs
// the others.
func (c *Core) Close(fd int) error {
	tr, err := c.Tab.Remove(fd)
	if err != nil {
		obslog.Op("close", fd, err)
		return wrap("close", err)
	}
	c.dmu.Lock()
	delete(c.dirs, fd)
	c.dmu.Unlock()

	metrics.OpenFDs.Dec()
	if releaseIfLastReport(tr) {
		obslog.Op("close", fd, nil)
		return nil
	}
	obslog.Op("close", fd, nil)
	return nil
}

func releaseIfLastReport(tr transport.Transport) bool {
	if tr.Header().Release() {
		tr.Close()
		return true
	}
	return false
}

// ---- read / write ---------------------------------------------------

// Read implements read(2), synthesizing blocking semantics via the
// retry loop described by waitFD.
func (c *Core) Read(fd int, buf []byte) (int, error) {
	return c.ioLoop(fd, transport.POLLIN, func(tr transport.Transport) (int, error) {
		return tr.Read(buf)
	})
}

// Write implements write(2).
func (c *Core) Write(fd int, buf []byte) (int, error) {
	return c.ioLoop(fd, transport.POLLOUT, func(tr transport.Transport) (int, error) {
		return tr.Write(buf)
	})
}

// Pread implements pread(2).
func (c *Core) Pread(fd int, buf []byte, off int64) (int, error) {
	return c.ioLoop(fd, transport.POLLIN, func(tr transport.Transport) (int, error) {
		return tr.ReadAt(buf, off)
	})
}

// Pwrite implements pwrite(2).
func (c *Core) Pwrite(fd int, buf []byte, off int64) (int, error) {
	return c.ioLoop(fd, transport.POLLOUT, func(tr transport.Transport) (int, error) {
		return tr.WriteAt(buf, off)
	})
}

// Readv implements readv(2) as a sequence of reads into successive
// buffers; this core does not special-case true vector I/O at the
// transport layer since every bundled transport is memory-backed.
func (c *Core) Readv(fd int, iov [][]byte) (int, error) {
	total := 0
	for _, b := range iov {
		n, err := c.Read(fd, b)
		total += n
		if err != nil {
			return total, err
		}
		if n < len(b) {
			break
		}
	}
	return total, nil
}

// Writev implements writev(2).
func (c *Core) Writev(fd int, iov [][]byte) (int, error) {
	total := 0
	for _, b := range iov {
		n, err := c.Write(fd, b)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ioLoop implements the blocking-emulation algorithm: call op; if it
// reports ERR_SHOULD_WAIT and the transport is not itself NONBLOCK, wait
// on the fd's readiness and retry; if NONBLOCK, surface EAGAIN directly.
func (c *Core) ioLoop(fd int, want transport.PollEvents, op func(transport.Transport) (int, error)) (int, error) {
	tr := c.Tab.Lookup(fd)
	if tr == nil {
		return -1, wrap("io", status.EBADF())
	}
	defer func() { releaseIfLast(tr) }()

	for {
		n, err := op(tr)
		if err == nil {
			return n, nil
		}
		if !status.ShouldWait(err) {
			return -1, wrap("io", err)
		}
		if tr.Header().Flags()&transport.NONBLOCK != 0 {
			return -1, wrap("io", err)
		}
		metrics.BlockingRetries.Inc()
		if werr := c.waitFD(tr, want, -1); werr != nil {
			return -1, wrap("io", werr)
		}
	}
}

// waitFD implements wait_fd: obtain a waitable handle from the
// transport, block on it via the kernel, translate back to POSIX events.
func (c *Core) waitFD(tr transport.Transport, events transport.PollEvents, timeoutMs int64) error {
	h, sigMask := tr.WaitBegin(events)
	if h == kernel.Invalid {
		return status.EINVAL()
	}
	var timeout = infiniteWait
	if timeoutMs >= 0 {
		timeout = msToDuration(timeoutMs)
	}
	pending, err := c.ops.WaitOne(h, sigMask, timeout)
	if err != nil && err != kernel.ErrTimedOut {
		return status.New(status.ErrIO)
	}
	tr.WaitEnd(pending)
	return nil
}

// Lseek implements lseek(2).
func (c *Core) Lseek(fd int, off int64, whence transport.Whence) (int64, error) {
	tr := c.Tab.Lookup(fd)
	if tr == nil {
		return -1, wrap("lseek", status.EBADF())
	}
	defer releaseIfLast(tr)
	n, err := tr.Seek(off, whence)
	return n, wrap("lseek", err)
}

// ---- dup family -------------------------------------------------

// Dup implements dup(2).
func (c *Core) Dup(fd int) (int, error) {
	n, err := c.Tab.Dup(fd, -1, 0)
	if err == nil {
		metrics.Dups.Inc()
	}
	return n, wrap("dup", err)
}

// Dup2 implements dup2(2): if oldfd == newfd and oldfd is valid, it's a
// no-op success; otherwise behaves like Dup3 with flags 0.
func (c *Core) Dup2(oldfd, newfd int) (int, error) {
	if oldfd == newfd {
		if c.Tab.Get(oldfd) == nil {
			return -1, wrap("dup2", status.EBADF())
		}
		return newfd, nil
	}
	return c.Dup3(oldfd, newfd, 0)
}

// Dup3 implements dup3(2): like dup2 but fails EINVAL on oldfd==newfd and
// validates the flags argument (only O_CLOEXEC or 0 legal).
func (c *Core) Dup3(oldfd, newfd, rawFlags int) (int, error) {
	if oldfd == newfd {
		return -1, wrap("dup3", status.EINVAL())
	}
	if err := posixflags.ValidateDup3Flags(rawFlags); err != nil {
		return -1, wrap("dup3", err)
	}
	n, err := c.Tab.Dup(oldfd, newfd, 0)
	if err != nil {
		return -1, wrap("dup3", err)
	}
	metrics.Dups.Inc()
	return n, nil
}

// ---- fcntl -------------------------------------------------

// FcntlGetFL implements fcntl(fd, F_GETFL), reporting the real O_NONBLOCK
// bit value rather than the core's internal flag numbering.
func (c *Core) FcntlGetFL(fd int) (int, error) {
	tr := c.Tab.Lookup(fd)
	if tr == nil {
		return -1, wrap("fcntl", status.EBADF())
	}
	defer releaseIfLast(tr)
	return posixflags.GetFL(tr.Header()), nil
}

// FcntlSetFL implements fcntl(fd, F_SETFL, arg): only the NONBLOCK bit is
// ever toggled; all other bits in rawFlags are ignored.
func (c *Core) FcntlSetFL(fd int, rawFlags int) error {
	tr := c.Tab.Lookup(fd)
	if tr == nil {
		return wrap("fcntl", status.EBADF())
	}
	defer releaseIfLast(tr)
	posixflags.ApplySetFL(tr.Header(), rawFlags)
	return nil
}

// FcntlDupFD implements fcntl(fd, F_DUPFD[_CLOEXEC], minFd): like dup, but
// the new fd is the lowest one at or above minFd rather than the lowest
// one overall. Close-on-exec is accepted but not tracked, matching the
// stated gap: no fd in this table carries a persisted CLOEXEC bit.
func (c *Core) FcntlDupFD(fd, minFd int) (int, error) {
	n, err := c.Tab.Dup(fd, -1, minFd)
	if err != nil {
		return -1, wrap("fcntl", err)
	}
	metrics.Dups.Inc()
	return n, nil
}

// FcntlGetFD implements fcntl(fd, F_GETFD): always reports no CLOEXEC,
// since this table does not persist the bit.
func (c *Core) FcntlGetFD(fd int) (int, error) {
	if c.Tab.Get(fd) == nil {
		return -1, wrap("fcntl", status.EBADF())
	}
	return 0, nil
}

// FcntlSetFD implements fcntl(fd, F_SETFD, arg): accepted and ignored.
func (c *Core) FcntlSetFD(fd int) error {
	if c.Tab.Get(fd) == nil {
		return wrap("fcntl", status.EBADF())
	}
	return nil
}

// FcntlNosys implements the fcntl commands this core never supports
// (F_GETOWN, F_SETOWN, byte-range locks): always ENOSYS.
func (c *Core) FcntlNosys() error {
	return wrap("fcntl", posixflags.ErrNosys)
}

// ---- misc-backed operations -------------------------------------------------

// Fstat implements fstat(2).
func (c *Core) Fstat(fd int) (*transport.Stat, error) {
	tr := c.Tab.Lookup(fd)
	if tr == nil {
		return nil, wrap("fstat", status.EBADF())
	}
	defer releaseIfLast(tr)
	reply, err := tr.Misc(transport.MiscStat, 0, nil)
	if err != nil {
		return nil, wrap("fstat", err)
	}
	return reply.(*transport.Stat), nil
}

// Fstatat implements fstatat(2).
func (c *Core) Fstatat(dirfd int, path string) (*transport.Stat, error) {
	base, residual, err := c.resolve(dirfd, path)
	if err != nil {
		return nil, wrap("fstatat", err)
	}
	tr, err := walk(base, residual, 0, 0)
	releaseIfLast(base)
	if err != nil {
		return nil, wrap("fstatat", err)
	}
	defer releaseIfLast(tr)
	reply, err := tr.Misc(transport.MiscStat, 0, nil)
	if err != nil {
		return nil, wrap("fstatat", err)
	}
	return reply.(*transport.Stat), nil
}

// Ftruncate implements ftruncate(2).
func (c *Core) Ftruncate(fd int, size int64) error {
	tr := c.Tab.Lookup(fd)
	if tr == nil {
		return wrap("ftruncate", status.EBADF())
	}
	defer releaseIfLast(tr)
	_, err := tr.Misc(transport.MiscTruncate, size, nil)
	return wrap("ftruncate", err)
}

// Truncate implements truncate(2).
func (c *Core) Truncate(path string, size int64) error {
	fd, err := c.Open(path, transport.OWronly, 0)
	if err != nil {
		return wrap("truncate", err)
	}
	defer c.Close(fd)
	return c.Ftruncate(fd, size)
}

// Mkdirat implements mkdirat(2).
func (c *Core) Mkdirat(dirfd int, path string, mode uint32) error {
	base, residual, err := c.resolve(dirfd, path)
	if err != nil {
		return wrap("mkdirat", err)
	}
	defer releaseIfLast(base)
	tr, err := walk(base, residual, transport.OCreat|transport.OExcl|transport.ODirectory, mode)
	if err != nil {
		return wrap("mkdirat", err)
	}
	releaseIfLast(tr)
	return nil
}

// Mkdir is mkdirat(AT_FDCWD, path, mode).
func (c *Core) Mkdir(path string, mode uint32) error {
	return c.Mkdirat(pathresolve.AtFDCWD, path, mode)
}

// Unlinkat implements unlinkat(2).
func (c *Core) Unlinkat(dirfd int, path string) error {
	parent, leaf, err := pathresolve.ResolveContainer(c.root, c.Cwd.Transport(), c.lookupFn(), dirfd, path)
	if err != nil {
		return wrap("unlinkat", err)
	}
	defer releaseIfLast(parent)
	_, err = parent.Misc(transport.MiscUnlink, 0, []byte(leaf))
	return wrap("unlinkat", err)
}

// Unlink is unlinkat(AT_FDCWD, path).
func (c *Core) Unlink(path string) error {
	return c.Unlinkat(pathresolve.AtFDCWD, path)
}

// twoPathDir picks the directory transport rename and link submit their
// Misc call against: both paths must agree on absolute-vs-relative, since
// a transport only ever sees one base to resolve both ends from.
func twoPathDir(root, cw transport.Transport, oldpath, newpath string) (transport.Transport, error) {
	oldAbs := len(oldpath) > 0 && oldpath[0] == '/'
	newAbs := len(newpath) > 0 && newpath[0] == '/'
	if oldAbs != newAbs {
		return nil, status.New(status.ErrNotSupported)
	}
	if oldAbs {
		return root, nil
	}
	return cw, nil
}

// Rename implements rename(2): encodes both paths as NUL-separated
// strings in one buffer and submits via misc.
func (c *Core) Rename(oldpath, newpath string) error {
	dir, err := twoPathDir(c.root, c.Cwd.Transport(), oldpath, newpath)
	if err != nil {
		return wrap("rename", err)
	}
	payload := append([]byte(oldpath), 0)
	payload = append(payload, []byte(newpath)...)
	payload = append(payload, 0)
	_, err = dir.Misc(transport.MiscRename, 0, payload)
	return wrap("rename", err)
}

// Link implements link(2), same two-path encoding as Rename.
func (c *Core) Link(oldpath, newpath string) error {
	dir, err := twoPathDir(c.root, c.Cwd.Transport(), oldpath, newpath)
	if err != nil {
		return wrap("link", err)
	}
	payload := append([]byte(oldpath), 0)
	payload = append(payload, []byte(newpath)...)
	payload = append(payload, 0)
	_, err = dir.Misc(transport.MiscLink, 0, payload)
	return wrap("link", err)
}

// Fsync implements fsync(2)/fdatasync(2) (this core does not distinguish
// metadata-only sync).
func (c *Core) Fsync(fd int) error {
	tr := c.Tab.Lookup(fd)
	if tr == nil {
		return wrap("fsync", status.EBADF())
	}
	defer releaseIfLast(tr)
	_, err := tr.Misc(transport.MiscSync, 0, nil)
	return wrap("fsync", err)
}

// Futimens implements futimens(2).
func (c *Core) Futimens(fd int) error {
	tr := c.Tab.Lookup(fd)
	if tr == nil {
		return wrap("futimens", status.EBADF())
	}
	defer releaseIfLast(tr)
	_, err := tr.Misc(transport.MiscSetAttr, 0, nil)
	return wrap("futimens", err)
}

// Utimensat implements utimensat(2). AT_SYMLINK_NOFOLLOW is rejected
// EINVAL since no transport here models symlinks to begin with.
func (c *Core) Utimensat(dirfd int, path string, rawFlags int) error {
	if rawFlags&unix.AT_SYMLINK_NOFOLLOW != 0 {
		return wrap("utimensat", status.EINVAL())
	}
	base, residual, err := c.resolve(dirfd, path)
	if err != nil {
		return wrap("utimensat", err)
	}
	defer releaseIfLast(base)
	tr, err := walk(base, residual, 0, 0)
	if err != nil {
		return wrap("utimensat", err)
	}
	defer releaseIfLast(tr)
	_, err = tr.Misc(transport.MiscSetAttr, 0, nil)
	return wrap("utimensat", err)
}

const faccessatModeMask = unix.R_OK | unix.W_OK | unix.X_OK

// Faccessat implements faccessat(2): resolves the path and succeeds if
// stat succeeds; this core does not model permission bits beyond
// existence, so any legal mode (F_OK, or a subset of R_OK|W_OK|X_OK) and
// any legal flags (a subset of AT_EACCESS) are accepted once the path is
// found.
func (c *Core) Faccessat(dirfd int, path string, mode, rawFlags int) error {
	if mode != unix.F_OK && mode & ^faccessatModeMask != 0 {
		return wrap("faccessat", status.EINVAL())
	}
	if rawFlags & ^unix.AT_EACCESS != 0 {
		return wrap("faccessat", status.EINVAL())
	}
	_, err := c.Fstatat(dirfd, path)
	if err != nil {
		return wrap("faccessat", err)
	}
	return nil
}

// ---- cwd -------------------------------------------------

// Getcwd implements getcwd(2).
func (c *Core) Getcwd() (string, error) {
	return c.Cwd.Path(), nil
}

// Chdir implements chdir(2): resolves path to a directory transport and
// installs it as the new cwd.
func (c *Core) Chdir(path string) error {
	base, residual, err := c.resolve(pathresolve.AtFDCWD, path)
	if err != nil {
		return wrap("chdir", err)
	}
	tr, err := walk(base, residual, transport.ODirectory, 0)
	releaseIfLast(base)
	if err != nil {
		return wrap("chdir", err)
	}
	old := c.Cwd.Transport()
	c.Cwd.Set(path, tr)
	releaseIfLast(old)
	return nil
}

// ---- misc -------------------------------------------------

// Isatty reports whether fd names a TTY-like transport. No bundled
// transport is a TTY; this always returns false, matching the
// conservative default a capability-only system assigns unconfigured
// descriptors.
func (c *Core) Isatty(fd int) bool {
	return false
}

// Umask implements umask(2): returns the previous mask and installs the
// new one.
func (c *Core) Umask(mask uint32) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.umask
	c.umask = mask & 0777
	return old
}

// Ioctl implements ioctl(2).
func (c *Core) Ioctl(fd int, op uint32, in []byte) ([]byte, error) {
	tr := c.Tab.Lookup(fd)
	if tr == nil {
		return nil, wrap("ioctl", status.EBADF())
	}
	defer releaseIfLast(tr)
	out, err := tr.Ioctl(op, in)
	return out, wrap("ioctl", err)
}

// Pipe implements pipe(2)/pipe2(2) by delegating transport construction
// to the caller-supplied factory (internal/transport/pipetransport.New)
// and binding both ends into fresh fds.
func (c *Core) Pipe(readEnd, writeEnd transport.Transport) (r, w int, err error) {
	r, dc1, err := c.Tab.Bind(readEnd, -1, 0)
	if err != nil {
		return -1, -1, wrap("pipe", err)
	}
	dc1.Run()

	w, dc2, err := c.Tab.Bind(writeEnd, -1, 0)
	if err != nil {
		c.Tab.Unbind(r)
		releaseIfLast(readEnd)
		return -1, -1, wrap("pipe", err)
	}
	dc2.Run()
	metrics.OpenFDs.Add(2)
	return r, w, nil
}

// ---- directory iteration -------------------------------------------------

// Opendir implements opendir(3): open with O_DIRECTORY and wrap the fd in
// a dir stream.
func (c *Core) Opendir(path string) (int, error) {
	fd, err := c.Open(path, transport.ODirectory, 0)
	if err != nil {
		return -1, err
	}
	return c.Fdopendir(fd)
}

// Fdopendir implements fdopendir(3): wraps an already-open directory fd.
func (c *Core) Fdopendir(fd int) (int, error) {
	tr := c.Tab.Lookup(fd)
	if tr == nil {
		return -1, wrap("fdopendir", status.EBADF())
	}
	defer releaseIfLast(tr)

	c.dmu.Lock()
	defer c.dmu.Unlock()
	c.dirs[fd] = dirstream.Open(fd, tr)
	return fd, nil
}

// Readdir implements readdir(3).
func (c *Core) Readdir(fd int) (transport.Dirent, bool, error) {
	c.dmu.Lock()
	s, ok := c.dirs[fd]
	c.dmu.Unlock()
	if !ok {
		return transport.Dirent{}, false, wrap("readdir", status.EBADF())
	}
	d, ok2, err := s.Next()
	return d, ok2, wrap("readdir", err)
}

// Rewinddir implements rewinddir(3).
func (c *Core) Rewinddir(fd int) error {
	c.dmu.Lock()
	s, ok := c.dirs[fd]
	c.dmu.Unlock()
	if !ok {
		return wrap("rewinddir", status.EBADF())
	}
	s.Rewind()
	return nil
}

// Closedir implements closedir(3): closes the fd and frees the stream.
func (c *Core) Closedir(fd int) error {
	c.dmu.Lock()
	delete(c.dirs, fd)
	c.dmu.Unlock()
	return c.Close(fd)
}

// Dirfd implements dirfd(3).
func (c *Core) Dirfd(fd int) (int, error) {
	c.dmu.Lock()
	s, ok := c.dirs[fd]
	c.dmu.Unlock()
	if !ok {
		return -1, wrap("dirfd", status.EBADF())
	}
	return s.FD(), nil
}
