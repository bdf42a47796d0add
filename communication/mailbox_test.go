package communication

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"uttt/game"
)

func TestMailbox(t *testing.T) {
	t.Run("delivers in send order", func(t *testing.T) {
		m := NewMailbox()
		for i := 0; i < 5; i++ {
			require.NoError(t, m.Send(DoAction(1, i, game.NewAction(i, 0), 0)))
		}
		require.Equal(t, 5, m.Len())

		for i := 0; i < 5; i++ {
			msg, ok := m.TryReceive()
			require.True(t, ok)
			require.Equal(t, i, msg.Ply)
		}
		_, ok := m.TryReceive()
		require.False(t, ok)
	})

	t.Run("signals once for a burst", func(t *testing.T) {
		m := NewMailbox()
		require.NoError(t, m.Send(NewGame(1)))
		require.NoError(t, m.Send(NewGame(2)))

		select {
		case <-m.Wait():
		default:
			t.Fatal("expected a signal")
		}
		select {
		case <-m.Wait():
			t.Fatal("signals should coalesce")
		default:
		}
		require.Equal(t, 2, m.Len())
	})

	t.Run("drain handles only what was queued", func(t *testing.T) {
		m := NewMailbox()
		require.NoError(t, m.Send(NewGame(1)))
		require.NoError(t, m.Send(NewGame(2)))

		var seen []uint64
		n := m.Drain(func(msg Message) {
			seen = append(seen, msg.Epoch)
			if msg.Epoch == 1 {
				require.NoError(t, m.Send(NewGame(3)))
			}
		})
		require.Equal(t, 2, n)
		require.Equal(t, []uint64{1, 2}, seen)
		require.Equal(t, 1, m.Len())
	})

	t.Run("close rejects sends and wakes waiters", func(t *testing.T) {
		m := NewMailbox()
		require.NoError(t, m.Send(NewGame(1)))
		m.Close()
		m.Close()

		require.ErrorIs(t, m.Send(NewGame(2)), ErrClosed)
		for range m.Wait() {
		}

		msg, ok := m.TryReceive()
		require.True(t, ok)
		require.Equal(t, uint64(1), msg.Epoch)
	})

	t.Run("concurrent senders lose nothing", func(t *testing.T) {
		m := NewMailbox()
		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					_ = m.Send(NewGame(uint64(i)))
				}
			}()
		}
		wg.Wait()
		require.Equal(t, 400, m.Len())
	})
}
