// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import log "github.com/sirupsen/logrus"

// debugHandshake gates the verbose KEX tracing the teacher's
// handshake.go hides behind the debugHandshake constant and
// original_source's ssh_log() calls. Flip to true locally when
// debugging an interop failure; never gates protocol behavior.
const debugHandshake = false

func logKex(entry *log.Entry, format string, args ...interface{}) {
	if !debugHandshake || entry == nil {
		return
	}
	entry.Debugf(format, args...)
}
