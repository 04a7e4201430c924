// Package provider holds the outbound adapters for AI and telephony vendors.
//
// Every adapter reports vendor failures as *integration.ProviderError so the
// HTTP layer can map quota, rate-limit and credential problems to 402, 429
// and 401 without knowing which vendor was called.
package provider
