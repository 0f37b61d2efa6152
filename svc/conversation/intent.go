package conversation

import (
	"context"
	"strings"
)

// Intent is a classified customer intention. The set is closed: anything the
// classifier cannot place lands on IntentGeneralFAQ.
type Intent string

const (
	IntentBalanceInquiry     Intent = "balance_inquiry"
	IntentTransactionHistory Intent = "transaction_history"
	IntentAccountInfo        Intent = "account_info"
	IntentGeneralFAQ         Intent = "general_faq"
	IntentPaymentReminder    Intent = "payment_reminder"
	IntentLoanPayment        Intent = "loan_payment"
	IntentPaymentPlan        Intent = "payment_plan"
	IntentDebtInquiry        Intent = "debt_inquiry"
	IntentProductInquiry     Intent = "product_inquiry"
	IntentNewAccount         Intent = "new_account"
	IntentCreditCardInquiry  Intent = "credit_card_inquiry"
	IntentFraudReport        Intent = "fraud_report"
	IntentSuspiciousActivity Intent = "suspicious_activity"
	IntentLostCard           Intent = "lost_card"
	IntentKYCUpdate          Intent = "kyc_update"
	IntentComplaint          Intent = "complaint"
	IntentDataPrivacy        Intent = "data_privacy"

	// IntentContinuation marks a follow-up turn that stays on the session's
	// active specialist without reclassifying.
	IntentContinuation Intent = "continuation"
)

// intentRouting is the static dispatch table. Unknown intents route to
// customer service.
var intentRouting = map[Intent]Specialist{
	IntentBalanceInquiry:     SpecialistCustomerService,
	IntentTransactionHistory: SpecialistCustomerService,
	IntentAccountInfo:        SpecialistCustomerService,
	IntentGeneralFAQ:         SpecialistCustomerService,
	IntentPaymentReminder:    SpecialistCollections,
	IntentLoanPayment:        SpecialistCollections,
	IntentPaymentPlan:        SpecialistCollections,
	IntentDebtInquiry:        SpecialistCollections,
	IntentProductInquiry:     SpecialistSales,
	IntentNewAccount:         SpecialistOnboarding,
	IntentCreditCardInquiry:  SpecialistSales,
	IntentFraudReport:        SpecialistFraudDetection,
	IntentSuspiciousActivity: SpecialistFraudDetection,
	IntentLostCard:           SpecialistFraudDetection,
	IntentKYCUpdate:          SpecialistCompliance,
	IntentComplaint:          SpecialistCompliance,
	IntentDataPrivacy:        SpecialistCompliance,
}

// Intents returns the classifiable intents in prompt order.
func Intents() []Intent {
	return []Intent{
		IntentBalanceInquiry, IntentTransactionHistory, IntentAccountInfo, IntentGeneralFAQ,
		IntentPaymentReminder, IntentLoanPayment, IntentPaymentPlan, IntentDebtInquiry,
		IntentProductInquiry, IntentNewAccount, IntentCreditCardInquiry,
		IntentFraudReport, IntentSuspiciousActivity, IntentLostCard,
		IntentKYCUpdate, IntentComplaint, IntentDataPrivacy,
	}
}

// Known reports whether the intent is in the classifiable set.
func (i Intent) Known() bool {
	_, ok := intentRouting[i]
	return ok
}

// Route maps an intent to its specialist. Unknown intents land on customer
// service, never an error.
func Route(intent Intent) Specialist {
	if sp, ok := intentRouting[intent]; ok {
		return sp
	}
	return SpecialistCustomerService
}

// NormalizeIntent folds a raw classifier label into the closed intent set:
// trimmed, lowercased, spaces to underscores, unknown labels to general_faq.
func NormalizeIntent(label string) Intent {
	intent := Intent(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), " ", "_"))
	if intent.Known() {
		return intent
	}
	return IntentGeneralFAQ
}

// Classifier turns one customer utterance into an intent.
type Classifier interface {
	Classify(ctx context.Context, utterance string) (Intent, error)
}

// intentKeywords drives the deterministic fallback classifier. First match
// in listed order wins, so more specific intents sit above generic ones.
var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentLostCard, []string{"lost my card", "card lost", "stolen card", "card stolen", "lost card"}},
	{IntentFraudReport, []string{"fraud", "unauthorized", "didn't make", "didn't authorize", "scam"}},
	{IntentSuspiciousActivity, []string{"suspicious", "strange charge", "weird charge", "don't recognize"}},
	{IntentPaymentPlan, []string{"payment plan", "installment", "hardship"}},
	{IntentLoanPayment, []string{"loan payment", "pay my loan", "mortgage payment"}},
	{IntentDebtInquiry, []string{"how much do i owe", "my debt", "amount owed", "past due"}},
	{IntentPaymentReminder, []string{"payment due", "due date", "when is my payment"}},
	{IntentNewAccount, []string{"open an account", "open a new account", "new account", "sign up", "become a customer"}},
	{IntentCreditCardInquiry, []string{"credit card", "credit limit", "apr"}},
	{IntentProductInquiry, []string{"savings account", "interest rate", "checking account", "auto loan", "home equity"}},
	{IntentKYCUpdate, []string{"update my address", "update my information", "change my phone", "kyc"}},
	{IntentDataPrivacy, []string{"privacy", "my data", "delete my information", "data request"}},
	{IntentComplaint, []string{"complaint", "complain", "file a grievance", "report a problem"}},
	{IntentBalanceInquiry, []string{"balance", "how much money", "how much is in"}},
	{IntentTransactionHistory, []string{"transaction", "recent charges", "statement", "history"}},
	{IntentAccountInfo, []string{"account number", "routing number", "account detail"}},
}

// KeywordClassifier is the deterministic fallback used when the hosted model
// is unreachable. Substring matching over a fixed table; no match means
// general_faq.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(_ context.Context, utterance string) (Intent, error) {
	lower := strings.ToLower(utterance)
	for _, entry := range intentKeywords {
		if containsAny(lower, entry.keywords) {
			return entry.intent, nil
		}
	}
	return IntentGeneralFAQ, nil
}
