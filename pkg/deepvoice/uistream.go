package deepvoice

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// uiFrameInterval is the display cadence of the state stream.
const uiFrameInterval = 33 * time.Millisecond

// UIFrame is one state push to a connected front end. Waveform is the
// energy tap's current window, base64-encoded on the wire, empty while
// no capture handle is open.
type UIFrame struct {
	SessionSnapshot
	Waveform []byte `json:"waveform,omitempty"`
}

// UIStream serves the session's observables to a local front end over a
// websocket, in place of the in-process renderer a browser client would
// have. It is read-only with respect to the session: it owns no state
// and a slow or absent consumer never affects a turn.
type UIStream struct {
	session  *SessionController
	addr     string
	upgrader websocket.Upgrader
	logger   *VoiceLogger

	mu  sync.Mutex
	srv *http.Server
}

func NewUIStream(session *SessionController, addr string) *UIStream {
	return &UIStream{
		session: session,
		addr:    addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Local tooling endpoint; the front end is served from
			// anywhere during development.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: GetGlobalLogger().WithComponent("UIStream"),
	}
}

// ListenAndServe blocks serving /ws until Shutdown is called.
func (u *UIStream) ListenAndServe() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", u.handleWS)

	srv := &http.Server{Addr: u.addr, Handler: mux}
	u.mu.Lock()
	u.srv = srv
	u.mu.Unlock()

	u.logger.WithField("addr", u.addr).Info("UI stream listening")
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server and disconnects all clients.
func (u *UIStream) Shutdown(ctx context.Context) error {
	u.mu.Lock()
	srv := u.srv
	u.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (u *UIStream) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := u.upgrader.Upgrade(w, r, nil)
	if err != nil {
		u.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	u.logger.WithField("remote", conn.RemoteAddr().String()).Info("UI client connected")

	// Drain incoming control frames so pings and closes are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(uiFrameInterval)
	defer ticker.Stop()

	for range ticker.C {
		frame := UIFrame{
			SessionSnapshot: u.session.Snapshot(),
			Waveform:        u.session.Waveform(),
		}

		conn.SetWriteDeadline(time.Now().Add(time.Second))
		if err := conn.WriteJSON(frame); err != nil {
			u.logger.WithError(err).Debug("UI client disconnected")
			return
		}
	}
}
