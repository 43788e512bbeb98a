// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package gaitrec

import "errors"

var (
	// ErrChannelsRequired is returned when the first event of a stream is added
	// without a channel set.
	ErrChannelsRequired = errors.New("channels must be specified on first call")
	// ErrChannelMismatch is returned when an event supplies channels that differ
	// in count, identity or order from the stream's established channel set.
	ErrChannelMismatch = errors.New("channels do not match the established channel set")
	// ErrIndexOutOfRange is returned by scalar accessors given an index outside the stream.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrOriginLocked is returned when a session origin is changed after data was recorded.
	ErrOriginLocked = errors.New("origin cannot change once data has been recorded")
	// ErrNonFinite is returned by WriteJSON when the session holds a NaN or
	// infinite value, which JSON cannot represent.
	ErrNonFinite = errors.New("session holds NaN or infinite values")
)
