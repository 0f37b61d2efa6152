package conversation

import (
	"fmt"
	"strings"

	"github.com/bankvoiceai/platform/svc/subscription"
)

// Specialist is a scripted conversational role. Each maps one-to-one onto a
// plan capability; the router only dispatches to specialists the tenant's
// subscription has enabled.
type Specialist string

const (
	SpecialistCustomerService Specialist = "customer_service"
	SpecialistCollections     Specialist = "collections"
	SpecialistSales           Specialist = "sales"
	SpecialistFraudDetection  Specialist = "fraud_detection"
	SpecialistCompliance      Specialist = "compliance"
	SpecialistOnboarding      Specialist = "onboarding"
)

// Specialists returns every routable specialist.
func Specialists() []Specialist {
	return []Specialist{
		SpecialistCustomerService,
		SpecialistCollections,
		SpecialistSales,
		SpecialistFraudDetection,
		SpecialistCompliance,
		SpecialistOnboarding,
	}
}

// Capability returns the plan capability gating this specialist.
func (s Specialist) Capability() subscription.Capability {
	return subscription.Capability(s)
}

// Valid reports whether s is a routable specialist.
func (s Specialist) Valid() bool {
	switch s {
	case SpecialistCustomerService, SpecialistCollections, SpecialistSales,
		SpecialistFraudDetection, SpecialistCompliance, SpecialistOnboarding:
		return true
	}
	return false
}

// scriptedReply is a specialist's verdict for one turn before disclosures
// are layered on.
type scriptedReply struct {
	text       string
	escalate   bool
	endSession bool
	endReason  string
	action     string
}

// Keyword triggers for compliance-sensitive turns. Matching is lowercase
// substring, the same contract the voice transcripts arrive in.
var (
	ceasePhrases = []string{
		"stop calling", "cease", "do not contact", "don't contact", "stop contacting",
	}
	disputePhrases = []string{
		"i dispute", "not my debt", "wrong amount", "don't owe", "do not owe",
	}
	cardBlockPhrases = []string{
		"block my card", "cancel my card", "lost my card", "card lost",
		"stolen card", "card stolen", "my card was stolen", "my card is stolen",
		"someone stole my card",
	}
	activeFraudPhrases = []string{
		"unauthorized", "didn't make", "didn't authorize", "fraud charge",
		"fraudulent", "someone used",
	}
	optOutPhrases = []string{
		"not interested", "remove me", "stop calling", "opt out", "don't call",
	}
)

// onboardingHandoffTurns is how many customer utterances the onboarding
// specialist collects before handing the application to a human banker.
const onboardingHandoffTurns = 3

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// respond runs the specialist's script for one turn. userTurns counts the
// customer utterances already in the session, the current one excluded.
func (s Specialist) respond(bankName, input string, userTurns int, sessionID string) scriptedReply {
	lower := strings.ToLower(input)

	switch s {
	case SpecialistCollections:
		// FDCPA: cease-communication requests end the call, disputes go
		// to a human with written-validation rights.
		if containsAny(lower, ceasePhrases) {
			return scriptedReply{
				text:       "We will honor your request to cease communication. A written notice will be sent to confirm. Have a good day.",
				endSession: true,
				endReason:  "cease_and_desist",
				action:     "log_cease_and_desist",
			}
		}
		if containsAny(lower, disputePhrases) {
			return scriptedReply{
				text:     "I understand you're disputing this debt. I'm noting your dispute and connecting you with a specialist who can provide written debt validation.",
				escalate: true,
				action:   "log_debt_dispute",
			}
		}
		return scriptedReply{
			text: "I can help with your payment today. Would you like to pay in full, set up a payment plan, or hear about our hardship program?",
		}

	case SpecialistFraudDetection:
		if containsAny(lower, cardBlockPhrases) {
			return scriptedReply{
				text:   "I'm blocking your card immediately for your protection. A replacement card will arrive in 5 to 7 business days. Can you confirm the last four digits of the affected card?",
				action: "block_card",
			}
		}
		if containsAny(lower, activeFraudPhrases) {
			return scriptedReply{
				text:     "I understand there are unauthorized charges on your account. I'm connecting you with our fraud specialist immediately. They have the authority to reverse charges and secure your account.",
				escalate: true,
				action:   "flag_fraud",
			}
		}
		return scriptedReply{
			text: "I take every fraud concern seriously. Can you tell me what you noticed on your account, and roughly when?",
		}

	case SpecialistSales:
		if containsAny(lower, optOutPhrases) {
			return scriptedReply{
				text:       "Absolutely, I'll remove you from our outreach list right away. We apologize for any inconvenience.",
				endSession: true,
				endReason:  "opt_out",
				action:     "opt_out_sales",
			}
		}
		return scriptedReply{
			text: fmt.Sprintf("Happy to help. %s offers a high-yield savings account and fee-free checking. Which would you like to hear more about?", bankName),
		}

	case SpecialistOnboarding:
		if userTurns >= onboardingHandoffTurns {
			return scriptedReply{
				text:     "Great, I have your preliminary information. Let me transfer you to a banker who will complete your application and get your account opened today.",
				escalate: true,
				action:   "transfer_to_onboarding_banker",
			}
		}
		return scriptedReply{
			text: "Wonderful, let's get your account started. Could I have your full name and the best email to reach you?",
		}

	case SpecialistCompliance:
		// Every compliance contact gets a logged reference number.
		return scriptedReply{
			text:   fmt.Sprintf("Thank you for raising this. I've recorded your concern under reference %s and a compliance officer will follow up. Is there anything you'd like to add to the record?", sessionID),
			action: "log_compliance_event",
		}

	default:
		return scriptedReply{
			text: "I can help with balances, transactions, and general account questions. What would you like to know?",
		}
	}
}
