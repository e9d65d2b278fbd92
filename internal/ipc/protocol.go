package ipc

// Request is one command sent to the running daemon. Text carries the
// payload for the inject command and is omitted elsewhere.
type Request struct {
	Command string `json:"command"`
	Text    string `json:"text,omitempty"`
}

// Response reports the outcome. Method and App are filled when the
// daemon can attribute the result to a delivery path or application.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Method  string `json:"method,omitempty"`
	App     string `json:"app,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
