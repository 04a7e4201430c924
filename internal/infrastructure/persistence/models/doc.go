// Package models contains GORM persistence models that map to database tables.
// They are kept apart from domain entities so the domain layer stays free of
// ORM tags; each model converts with ToDomain / FromDomain.
//
//   - base.go: shared columns (BaseModel, ScopedModel)
//   - identity.go: tenants, organizations, users, memberships, api_keys
//   - crm.go: leads, clients, client_payments, campaigns, campaign_products, products
package models
