// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeMethodNameAccessors(t *testing.T) {
	cases := []struct {
		raw     string
		special bool
		want    string
	}{
		{"get_Width", true, "width"},
		{"get_IsEnabled", true, "is_enabled"},
		{"put_Width", true, "set_width"},
		{"add_Closed", true, "closed"},
		{"remove_Closed", true, "revoke_closed"},
		{"Clone", false, "clone"},
		{"ToString", false, "to_string"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, normalizeMethodName(c.raw, c.special), "raw=%q special=%v", c.raw, c.special)
	}
}

func TestNormalizeMethodNameIdempotent(t *testing.T) {
	once := normalizeMethodName("get_IsEnabled", true)
	twice := normalizeMethodName(once, false)
	require.Equal(t, once, twice)
}
