package identity

import "github.com/mar-ia/crm/internal/domain/shared"

// Errors returned to clients. Messages are user-facing and kept in Spanish.
var (
	ErrTenantNotFound       = shared.NewDomainError("TENANT_NOT_FOUND", "Tenant no encontrado")
	ErrUserNotFound         = shared.NewDomainError("USER_NOT_FOUND", "Usuario no encontrado")
	ErrInvalidCredentials   = shared.NewDomainError("INVALID_CREDENTIALS", "Contraseña incorrecta")
	ErrAccountDisabled      = shared.NewDomainError("ACCOUNT_DISABLED", "Cuenta deshabilitada")
	ErrTenantSuspended      = shared.NewDomainError("TENANT_SUSPENDED", "Tenant suspendido")
	ErrOrganizationNotFound = shared.NewDomainError("ORGANIZATION_NOT_FOUND", "Organización no encontrada")
	ErrInvalidAPIKey        = shared.NewDomainError("INVALID_API_KEY", "API key inválida")
	ErrTokenInvalid         = shared.NewDomainError("TOKEN_INVALID", "Token inválido")
)
