package protocol

import (
	"io"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/sshtest/server/internal/dispatch"
	"github.com/sshtest/server/internal/eventlog"
)

const prompt = "$ "

func commandEvent(login, text string) eventlog.Event {
	return eventlog.Event{Time: time.Now(), Kind: eventlog.KindCommand, Login: login, Detail: text}
}

// handleSession services the request channel for one accepted "session"
// channel. pty-req and window-change are acknowledged without keeping any
// state; shell and exec each take over the channel for the rest of its
// life, so the request loop returns once either arrives.
func (s *Server) handleSession(login string, channel ssh.Channel, requests <-chan *ssh.Request) {
	defer channel.Close()

	for req := range requests {
		switch req.Type {
		case "pty-req", "window-change":
			if req.WantReply {
				_ = req.Reply(true, nil)
			}
		case "shell":
			if req.WantReply {
				_ = req.Reply(true, nil)
			}
			s.handleShell(login, channel)
			return
		case "exec":
			var payload struct{ Command string }
			_ = ssh.Unmarshal(req.Payload, &payload)
			if req.WantReply {
				_ = req.Reply(true, nil)
			}
			s.handleExec(login, channel, payload.Command)
			return
		default:
			if req.WantReply {
				_ = req.Reply(false, nil)
			}
		}
	}
}

// handleShell drives an interactive session: it echoes every received byte
// back to the client unconditionally, assembling lines and dispatching
// each complete one, and reprompts after every dispatch. There is no line
// editing: backspace, tab, and anything else outside CR/LF/Ctrl-C are
// appended to the command buffer and echoed like any other byte.
func (s *Server) handleShell(login string, channel ssh.Channel) {
	_, _ = channel.Write([]byte(prompt))

	var line strings.Builder
	buf := make([]byte, 1024)
	for {
		n, err := channel.Read(buf)
		if err != nil {
			if err != io.EOF {
				s.log.Debug("session read error", "login", login, "error", err)
			}
			return
		}

		for i := 0; i < n; i++ {
			b := buf[i]
			switch b {
			case 0x03: // Ctrl-C closes the channel; it does not just clear the line.
				_, _ = channel.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{130}))
				return
			case '\r', '\n':
				_, _ = channel.Write([]byte("\r\n"))
				text := line.String()
				line.Reset()
				out := dispatch.Dispatch(s.reg, s.dir, login, text)
				writeOutcome(channel, out)
				s.events.Record(commandEvent(login, text))
				if out.Exit {
					_, _ = channel.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{out.StatusCode}))
					return
				}
				_, _ = channel.Write([]byte(prompt))
			default:
				line.WriteByte(b)
				_, _ = channel.Write([]byte{b})
			}
		}
	}
}

// handleExec dispatches command exactly once and always reports an
// exit-status before the channel closes, matching what a non-interactive
// SSH client expects from `ssh host cmd`.
func (s *Server) handleExec(login string, channel ssh.Channel, command string) {
	out := dispatch.Dispatch(s.reg, s.dir, login, command)
	writeOutcome(channel, out)
	s.events.Record(commandEvent(login, command))
	_, _ = channel.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{out.StatusCode}))
}

// writeOutcome writes stderr before stdout, matching the order a client
// would see if both streams were merged onto one terminal.
func writeOutcome(channel ssh.Channel, out dispatch.Outcome) {
	if out.Stderr != "" {
		_, _ = channel.Stderr().Write([]byte(out.Stderr + "\r\n"))
	}
	if out.Stdout != "" {
		_, _ = channel.Write([]byte(out.Stdout + "\r\n"))
	}
}
