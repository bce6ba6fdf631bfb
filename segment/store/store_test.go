package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSpec(t *testing.T) {
	st, err := ParseSpec("file:/dev/shm/orders")
	require.NoError(t, err)
	require.Equal(t, KindFile, st.Kind())
	require.Equal(t, "file:/dev/shm/orders", st.String())

	st, err = ParseSpec("./local.seg")
	require.NoError(t, err)
	require.Equal(t, KindFile, st.Kind())
	require.Equal(t, "./local.seg", st.(*File).Path)

	st, err = ParseSpec("sysv:0x5eed")
	require.NoError(t, err)
	require.Equal(t, KindSysV, st.Kind())
	require.Equal(t, 0x5eed, st.(*SysV).Key)

	st, err = ParseSpec("sysv-name:orders")
	require.NoError(t, err)
	require.Equal(t, KeyFromName("orders"), st.(*SysV).Key)
}

func TestParseSpecErrors(t *testing.T) {
	for _, spec := range []string{"", "orders", "file:", "sysv:zz", "sysv:0", "sysv:-1", "sysv:-0x5eed", "sysv:0x80000000", "sysv-name:", "tcp:1"} {
		_, err := ParseSpec(spec)
		require.ErrorIs(t, err, ErrInvalidSpec, "spec %q", spec)
	}
}

func TestKeyFromNameStable(t *testing.T) {
	a := KeyFromName("orders")
	require.Equal(t, a, KeyFromName("orders"))
	require.NotEqual(t, a, KeyFromName("invoices"))
	require.Positive(t, a)
}

func TestKindString(t *testing.T) {
	require.Equal(t, "file", KindFile.String())
	require.Equal(t, "sysv", KindSysV.String())
	require.Equal(t, "Kind(9)", Kind(9).String())
}

func TestParseSpecSysVRoundTrip(t *testing.T) {
	for _, spec := range []string{"sysv:1", "sysv:0x5eed", "sysv:0x7fffffff", "sysv-name:orders"} {
		st, err := ParseSpec(spec)
		require.NoError(t, err, spec)
		again, err := ParseSpec(st.String())
		require.NoError(t, err, st.String())
		require.Equal(t, st.(*SysV).Key, again.(*SysV).Key, spec)
	}
}

func TestNewSysVRejectsNegativeKey(t *testing.T) {
	_, err := NewSysV(-1)
	require.ErrorIs(t, err, ErrInvalidSpec)
}
