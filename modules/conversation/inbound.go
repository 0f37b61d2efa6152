package conversation

import (
	"errors"
	"mime"
	"net/http"

	"github.com/bankvoiceai/platform/binder"
	"github.com/bankvoiceai/platform/core"
	"github.com/bankvoiceai/platform/pkg/audit"
	convo "github.com/bankvoiceai/platform/svc/conversation"
	"github.com/bankvoiceai/platform/svc/tenant"
)

// voiceRequest carries one telephony turn. Providers post form-encoded
// webhooks with their conventional field names; JSON is accepted for
// adapters that re-shape upstream payloads.
type voiceRequest struct {
	CallSid      string `form:"CallSid"      json:"call_sid"`
	From         string `form:"From"         json:"from"`
	SpeechResult string `form:"SpeechResult" json:"speech_result"`
	Digits       string `form:"Digits"       json:"digits"`
	Language     string `form:"Language"     json:"language"`
}

func (s *Service) voiceInbound(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var err error
	if mt == "application/json" {
		err = binder.JSON(r, &req)
	} else {
		err = binder.Form(r, &req)
	}
	if err != nil {
		s.bindError(w, r, err)
		return
	}

	// Spoken input wins; DTMF digits stand in when recognition came back
	// empty.
	utterance := req.SpeechResult
	if utterance == "" {
		utterance = req.Digits
	}

	s.handleTurn(w, r, convo.TurnInput{
		SessionID: req.CallSid,
		Utterance: utterance,
		Channel:   convo.ChannelVoice,
		CallerID:  req.From,
		Locale:    req.Language,
	})
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	UserID    string `json:"user_id"`
	Locale    string `json:"locale"`
}

func (s *Service) chatInbound(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := binder.JSON(r, &req); err != nil {
		s.bindError(w, r, err)
		return
	}

	s.handleTurn(w, r, convo.TurnInput{
		SessionID: req.SessionID,
		Utterance: req.Message,
		Channel:   convo.ChannelChat,
		CallerID:  req.UserID,
		Locale:    req.Locale,
	})
}

// handleTurn runs one gated conversational turn and shapes the adapter
// reply. Escalations land on the audit trail; plain turns do not.
func (s *Service) handleTurn(w http.ResponseWriter, r *http.Request, in convo.TurnInput) {
	sub := tenant.MustFromContext(r.Context())

	reply, err := s.router.HandleTurn(r.Context(), sub, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if reply.Escalate {
		s.record(r.Context(), "conversation.escalated",
			audit.WithTenant(sub.TenantID),
			audit.WithSessionID(reply.SessionID),
			audit.WithMetadata("specialist", string(reply.Specialist)),
			audit.WithMetadata("channel", string(in.Channel)))
	}

	core.Render(w, r, core.JSON(reply))
}

// bindError distinguishes an unsupported payload encoding from a malformed
// one.
func (s *Service) bindError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, binder.ErrUnsupportedMediaType), errors.Is(err, binder.ErrMissingContentType):
		core.Render(w, r, core.JSONError(core.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())))
	default:
		core.Render(w, r, core.JSONError(core.ErrBadRequest.WithMessage(err.Error())))
	}
}
