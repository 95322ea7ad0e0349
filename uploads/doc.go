// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package uploads stores guest photos on local disk.
//
// Photos are kept in one flat directory under random uuid names, so the
// original file name never reaches the filesystem. Save enforces the
// extension allowlist, the size cap, and content sniffing, and writes a JPEG
// thumbnail for formats the image package can decode. Resolve is the only way
// from a stored name to a path and rejects traversal attempts.
package uploads
