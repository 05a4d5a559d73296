// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winmd

// Fuzz is the go-fuzz entry point: it must never panic on arbitrary input,
// only return an error.
func Fuzz(data []byte) int {
	r, err := NewBytes(data, &Options{WinRTOnly: false})
	if err != nil {
		return 0
	}
	defer r.Close()
	return 1
}
