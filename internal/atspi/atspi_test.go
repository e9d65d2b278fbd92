//go:build linux

package atspi

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/require"
)

func TestAccessibleFromEntry(t *testing.T) {
	acc, ok := accessibleFromEntry([]interface{}{
		":1.42", dbus.ObjectPath("/org/a11y/atspi/accessible/2"),
	})
	require.True(t, ok)
	require.Equal(t, ":1.42", acc.Dest)
	require.Equal(t, dbus.ObjectPath("/org/a11y/atspi/accessible/2"), acc.Path)
}

func TestAccessibleFromEntryRejectsMalformed(t *testing.T) {
	for _, entry := range [][]interface{}{
		nil,
		{":1.42"},
		{42, dbus.ObjectPath("/p")},
		{":1.42", "/not-an-object-path"},
	} {
		_, ok := accessibleFromEntry(entry)
		require.False(t, ok)
	}
}

func TestInsertedTextExtractsInsertDetail(t *testing.T) {
	sig := &dbus.Signal{Body: []interface{}{"insert", int32(0), int32(5), "hello"}}
	text, ok := insertedText(sig)
	require.True(t, ok)
	require.Equal(t, "hello", text)

	variant := &dbus.Signal{Body: []interface{}{"insert", int32(0), int32(5), dbus.MakeVariant("world")}}
	text, ok = insertedText(variant)
	require.True(t, ok)
	require.Equal(t, "world", text)
}

func TestInsertedTextIgnoresOtherDetails(t *testing.T) {
	for _, sig := range []*dbus.Signal{
		nil,
		{Body: []interface{}{"delete", int32(0), int32(5), "hello"}},
		{Body: []interface{}{"insert", int32(0)}},
		{Body: []interface{}{"insert", int32(0), int32(5), int32(7)}},
	} {
		_, ok := insertedText(sig)
		require.False(t, ok)
	}
}
