package middleware

import "github.com/kpicentral/kpi-central/internal/core/domain"

// roleAllowed enforces role-based access control. An empty required role
// accepts any authenticated identity.
func roleAllowed(id *domain.Identity, required domain.Role) bool {
	if required == "" {
		return id != nil
	}
	return id != nil && id.Role == required
}
