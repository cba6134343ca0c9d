// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

// Message numbers, grounded on original_source/ssh/ssh_constants.h.
const (
	msgDisconnect   = 1
	msgIgnore       = 2
	msgUnimplemented = 3
	msgDebug        = 4
	msgServiceRequest = 5
	msgServiceAccept  = 6
	msgKexInit      = 20
	msgNewKeys      = 21
	msgKexDHInit    = 30
	msgKexDHReply   = 31
)

// SSH_MSG_DISCONNECT reason codes (RFC 4253 section 11.1), grounded
// on original_source/ssh/ssh_constants.h.
const (
	disconnectHostNotAllowedToConnect  = 1
	disconnectProtocolError            = 2
	disconnectKeyExchangeFailed        = 3
	disconnectReserved                 = 4
	disconnectMacError                 = 5
	disconnectCompressionError         = 6
	disconnectServiceNotAvailable      = 7
	disconnectProtocolVersionNotSupported = 8
	disconnectHostKeyNotVerifiable     = 9
	disconnectConnectionLost           = 10
	disconnectByApplication            = 11
	disconnectTooManyConnections       = 12
	disconnectAuthCancelledByUser      = 13
	disconnectNoMoreAuthMethodsAvailable = 14
	disconnectIllegalUserName          = 15
)
