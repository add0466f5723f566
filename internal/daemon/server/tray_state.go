package server

// volumeStep is how far one tray click moves the volume.
const volumeStep = 0.05

// TrayState adapts a Server to the tray.DaemonState interface.
type TrayState struct {
	Engine
	srv *Server
}

// NewTrayState creates a TrayState for the given server.
func NewTrayState(srv *Server) *TrayState {
	return &TrayState{Engine: srv.engine, srv: srv}
}

// Port returns the port the server is listening on.
func (t *TrayState) Port() int {
	return t.srv.Port()
}

func (t *TrayState) VolumeUp() {
	t.AdjustVolume(volumeStep)
}

func (t *TrayState) VolumeDown() {
	t.AdjustVolume(-volumeStep)
}

// RequestShutdown asks the daemon to exit, the same way an API client does.
func (t *TrayState) RequestShutdown() {
	t.srv.shutdown()
}
