package conversation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankvoiceai/platform/svc/conversation"
)

func TestRoute(t *testing.T) {
	t.Parallel()

	cases := map[conversation.Intent]conversation.Specialist{
		conversation.IntentBalanceInquiry:     conversation.SpecialistCustomerService,
		conversation.IntentTransactionHistory: conversation.SpecialistCustomerService,
		conversation.IntentGeneralFAQ:         conversation.SpecialistCustomerService,
		conversation.IntentPaymentReminder:    conversation.SpecialistCollections,
		conversation.IntentDebtInquiry:        conversation.SpecialistCollections,
		conversation.IntentProductInquiry:     conversation.SpecialistSales,
		conversation.IntentCreditCardInquiry:  conversation.SpecialistSales,
		conversation.IntentNewAccount:         conversation.SpecialistOnboarding,
		conversation.IntentFraudReport:        conversation.SpecialistFraudDetection,
		conversation.IntentLostCard:           conversation.SpecialistFraudDetection,
		conversation.IntentKYCUpdate:          conversation.SpecialistCompliance,
		conversation.IntentDataPrivacy:        conversation.SpecialistCompliance,
	}
	for intent, want := range cases {
		assert.Equal(t, want, conversation.Route(intent), "intent %s", intent)
	}

	t.Run("unknown intents land on customer service", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, conversation.SpecialistCustomerService, conversation.Route("weather_forecast"))
		assert.Equal(t, conversation.SpecialistCustomerService, conversation.Route(""))
		assert.Equal(t, conversation.SpecialistCustomerService, conversation.Route(conversation.IntentContinuation))
	})

	t.Run("every classifiable intent routes to a valid specialist", func(t *testing.T) {
		t.Parallel()
		require.Len(t, conversation.Intents(), 17)
		for _, intent := range conversation.Intents() {
			assert.True(t, intent.Known(), "intent %s", intent)
			assert.True(t, conversation.Route(intent).Valid(), "intent %s", intent)
		}
	})
}

func TestNormalizeIntent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		label string
		want  conversation.Intent
	}{
		{"balance_inquiry", conversation.IntentBalanceInquiry},
		{"Balance Inquiry", conversation.IntentBalanceInquiry},
		{"  lost_card\n", conversation.IntentLostCard},
		{"FRAUD REPORT", conversation.IntentFraudReport},
		{"something else entirely", conversation.IntentGeneralFAQ},
		{"", conversation.IntentGeneralFAQ},
		// continuation is a routing marker, never a classifier output.
		{"continuation", conversation.IntentGeneralFAQ},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, conversation.NormalizeIntent(tc.label), "label %q", tc.label)
	}
}

func TestKeywordClassifier(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	classifier := conversation.KeywordClassifier{}

	cases := []struct {
		utterance string
		want      conversation.Intent
	}{
		{"I lost my card yesterday", conversation.IntentLostCard},
		{"someone made an unauthorized charge", conversation.IntentFraudReport},
		{"there is a suspicious charge I don't recognize", conversation.IntentSuspiciousActivity},
		{"can I set up a payment plan", conversation.IntentPaymentPlan},
		{"when is my payment due", conversation.IntentPaymentReminder},
		{"I want to open an account", conversation.IntentNewAccount},
		{"what's the APR on your credit card", conversation.IntentCreditCardInquiry},
		{"tell me about your savings account rates", conversation.IntentProductInquiry},
		{"I need to update my address", conversation.IntentKYCUpdate},
		{"please delete my information", conversation.IntentDataPrivacy},
		{"I want to file a complaint", conversation.IntentComplaint},
		{"what's my balance", conversation.IntentBalanceInquiry},
		{"show me my recent transactions", conversation.IntentTransactionHistory},
		{"what's my routing number", conversation.IntentAccountInfo},
		{"hello there", conversation.IntentGeneralFAQ},
	}
	for _, tc := range cases {
		got, err := classifier.Classify(ctx, tc.utterance)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "utterance %q", tc.utterance)
	}

	t.Run("more specific intents win over generic ones", func(t *testing.T) {
		t.Parallel()

		// "lost my card" sits above the generic fraud keywords.
		got, err := classifier.Classify(ctx, "I think this is fraud, I lost my card")
		require.NoError(t, err)
		assert.Equal(t, conversation.IntentLostCard, got)
	})
}
