package core

import "net/http"

// Response is anything a handler can render onto the wire. Handlers build
// a Response and return it; rendering failures are the router's problem,
// not the handler's.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Render writes the response, falling back to a bare 500 when rendering
// itself fails after headers may already be out.
func Render(w http.ResponseWriter, r *http.Request, resp Response) {
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := resp.Render(w, r); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
