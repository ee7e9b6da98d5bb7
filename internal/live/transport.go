package live

// Status of the connection manager.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)

// CloseNormal is the websocket normal closure code.
const CloseNormal = 1000

// Transport is one connection attempt. It is never reused: after a close
// the connection manager dials a new one.
type Transport interface {
	Send(data []byte) error
	Close(code int, reason string) error
}

// TransportHandler receives the events of a single attempt. Implementations
// of Dialer may call it from any goroutine, but never before Dial returns.
type TransportHandler interface {
	OnOpen()
	OnMessage(data []byte)
	OnClose(code int, reason string)
	OnError(err error)
}

// Dialer starts a connection attempt without waiting for it to open.
type Dialer interface {
	Dial(url string, h TransportHandler) (Transport, error)
}

// Credentials gates connection attempts on a valid access token.
type Credentials interface {
	AccessValid() bool
}
