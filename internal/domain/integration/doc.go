// Package integration contains the ports to third-party AI and telephony providers.
//
// Key concepts:
//   - LanguageModel: text completion (OpenAI, Gemini)
//   - VoiceAgentProvider: outbound voice-agent calls (ElevenLabs)
//   - WhatsAppProvider: WhatsApp message delivery
//   - ProviderError: the typed failure every adapter returns
//
// Adapters live in the infrastructure layer. Every provider payload is parsed
// into one of the result types here and validated before use.
package integration
