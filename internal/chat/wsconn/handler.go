package wsconn

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/wtask/relay/internal/logging"
)

// Handler - upgrades HTTP requests to websocket and passes connections to serve func.
type Handler struct {
	upgrader websocket.Upgrader
	serve    func(conn *Conn)
	logger   *logging.Logger
}

// NewHandler - builds websocket handler, serve must not block for long.
func NewHandler(serve func(conn *Conn), logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the relay has no authentication, any page may connect
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		serve:  serve,
		logger: logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already replied with error status
		h.logger.Debug("websocket upgrade failed", logging.Fields{"remote": r.RemoteAddr, "error": err})
		return
	}
	h.serve(New(ws))
}
