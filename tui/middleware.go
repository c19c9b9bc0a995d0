package tui

import (
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/deemkeen/anancus/util"
	"github.com/muesli/termenv"
)

// AdminTui serves the admin console to incoming ssh sessions.
func AdminTui(deps Deps) wish.Middleware {
	teaHandler := func(s ssh.Session) *tea.Program {

		_, _, active := s.Pty()
		if !active {
			wish.Println(s, "no active terminal, skipping")
			return nil
		}

		m := NewModel(deps)
		return tea.NewProgram(m, tea.WithInput(s), tea.WithOutput(s), tea.WithAltScreen())
	}
	return bm.MiddlewareWithProgramHandler(teaHandler, termenv.ANSI256)
}

// SessionLogger records who connected before handing the session on.
func SessionLogger() wish.Middleware {
	return func(h ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			util.LogPublicKey(s)
			if key := s.PublicKey(); key != nil {
				log.Printf("session key fingerprint: %s", util.PkToHash(util.PublicKeyToString(key)))
			}
			h(s)
		}
	}
}
