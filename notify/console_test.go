package notify_test

import (
	"bytes"
	"testing"

	"github.com/jrsteele09/go-auth-portal/notify"
	"github.com/jrsteele09/go-auth-portal/notify/notifyfake"
	"github.com/stretchr/testify/require"
)

func TestConsole(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		var buf bytes.Buffer
		c := notify.NewConsole(&buf, false)
		c.Notify(notify.KindSuccess, "Welcome back!")
		c.Notify(notify.KindError, "Incorrect email or password")
		require.Equal(t, "✔ Welcome back!\n✖ Incorrect email or password\n", buf.String())
	})

	t.Run("coloured", func(t *testing.T) {
		var buf bytes.Buffer
		c := notify.NewConsole(&buf, true)
		c.Notify(notify.KindError, "boom")
		require.Equal(t, notify.Red+"✖ boom"+notify.ResetColor+"\n", buf.String())
	})
}

func TestFakeNotifier(t *testing.T) {
	n := notifyfake.NewFakeNotifier()
	_, ok := n.Last()
	require.False(t, ok)

	notify.Nop.Notify(notify.KindError, "ignored")
	n.Notify(notify.KindSuccess, "a")
	n.Notify(notify.KindError, "b")

	last, ok := n.Last()
	require.True(t, ok)
	require.Equal(t, notifyfake.Notice{Kind: notify.KindError, Message: "b"}, last)
	require.Len(t, n.Notices(), 2)
}
