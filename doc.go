// Package agentpay is the Go SDK for the AgentGatePay payment gateway.
// It lets an autonomous agent authorize and execute delegated stablecoin
// payments, and lets a merchant verify those payments and receive signed
// notifications.
//
// # Mandates
//
// A mandate is a signed, budget- and time-bounded authorization letting an
// agent spend up to a cap without renewed user consent per transaction. Use
// [Client.Mandates] to issue and verify mandates directly, or wrap the client
// in a [MandateManager] so a valid token is guaranteed before every payment:
//
//	client, _ := agentpay.NewClient(agentpay.WithAPIKey(key))
//	mgr := agentpay.NewMandateManager(client, agentpay.MandateConfig{
//		Subject:   "agent@example.com",
//		BudgetUSD: 100,
//	})
//	token, err := mgr.EnsureValid(ctx)
//
// # Payments
//
// Payments follow a two-transaction model: a primary on-chain transfer and an
// optional commission transfer are referenced in one settlement submission.
// [PaymentsService.Submit] presents the transaction hashes alongside a mandate
// and reports the gateway's decision; [PaymentsService.WaitForConfirmation]
// polls until the transaction reaches a terminal status.
//
// # Webhooks
//
// Merchants receive signed notifications for payment events. Use
// [VerifyWebhookSignature] and [VerifyAndParseWebhook] to authenticate the raw
// payload before acting on it. The signature covers the exact transmitted
// bytes, so always verify against the unparsed request body.
package agentpay
