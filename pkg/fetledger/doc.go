// Package fetledger verifies FET token payments against a Fetch.ai network
// node through the Cosmos LCD REST API. No chain SDK is involved: a payment
// is confirmed by fetching the transaction by hash and validating its
// execution code, age, memo, recipient, and transferred amount.
//
// Amounts are compared in integer smallest units (1 FET = 10^18) with a 0.1%
// relative tolerance, never in floating point.
//
// Usage:
//
//	client, err := fetledger.NewClient("https://rest-dorado.fetch.ai")
//	if err != nil {
//		return err
//	}
//	verifier := fetledger.NewVerifier(client, "atestfet")
//
//	res, err := verifier.VerifyPayment(ctx, txHash, gatewayAddr,
//		fetledger.ToSmallestUnits(250), "BANKVOICEAI|acme-bank|starter", time.Hour)
//	if err != nil {
//		return err // ledger unreachable, retry later
//	}
//	if !res.Valid {
//		return fmt.Errorf("payment rejected: %s", res.Reason)
//	}
//
// Transient transport failures are retried with exponential backoff (2s
// initial, 30s cap, 5 attempts). A transaction that is missing from the
// ledger is definitive and never retried.
package fetledger
