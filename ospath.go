// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winmd

import "os"

// FromOS loads every `.winmd` file from the platform's system metadata
// directory (spec §6 `from_os()`, SPEC_FULL.md §14). It is the only
// environment-sensitive entry point: everything else in this package is
// a pure function of its input bytes.
//
// The source helper branches between "System32" (64-bit pointers) and
// "SysNative" (32-bit pointers running under WOW64); this reader always
// builds as a single architecture with no 32-bit Go target to key that
// branch off of, so it always appends "System32".
func FromOS(opts *Options) (*Reader, error) {
	const op = "FromOS"
	windir := os.Getenv("windir")
	if windir == "" {
		return nil, invalidData(op, "windir environment variable is not set")
	}
	return FromDirectory(windir+`\System32\WinMetadata`, opts)
}
