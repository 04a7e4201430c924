// Package document implements the document side of the CRM: client AI
// profiles, communication history and voice-agent configurations.
//
// Firestore is the production backend. The in-memory stores serve local
// development and tests when no Firestore project is configured.
package document
